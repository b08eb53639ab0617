// Package enrichment defines the pipeline's message and record types and
// the merge of HR and identity provider data.
package enrichment

import (
	"user-enrichment/internal/hr"
	"user-enrichment/internal/identity"
)

// EnrichedUser is the merge of an HR record and an identity profile.
// The id is globally unique; storing the same id again overwrites the
// prior value.
type EnrichedUser struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Title        string   `json:"title,omitempty"`
	Department   string   `json:"department,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	Groups       []string `json:"groups"`
	Applications []string `json:"applications"`
	Onboarded    bool     `json:"onboarded"`
}

// Merge builds an EnrichedUser from its two sources. HR wins over the IdP
// for identity fields; groups and applications come from the IdP.
func Merge(record *hr.UserRecord, profile *identity.Profile) *EnrichedUser {
	groups := profile.Groups
	if groups == nil {
		groups = []string{}
	}
	applications := profile.Applications
	if applications == nil {
		applications = []string{}
	}

	return &EnrichedUser{
		ID:           record.EmployeeID,
		Name:         record.FullName(),
		Email:        record.Email,
		Title:        record.Title,
		Department:   record.Department,
		StartDate:    record.StartDate,
		Groups:       groups,
		Applications: applications,
		Onboarded:    true,
	}
}
