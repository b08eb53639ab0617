// Package hr defines the inbound HR employee record.
package hr

import (
	"strings"

	"user-enrichment/internal/common/errors"
)

// UserRecord is the immutable snapshot of HR fields received at webhook
// time. employee_id is the natural key and must be non-empty.
type UserRecord struct {
	EmployeeID       string `json:"employee_id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	PreferredName    string `json:"preferred_name,omitempty"`
	Email            string `json:"email"`
	Title            string `json:"title,omitempty"`
	Department       string `json:"department,omitempty"`
	ManagerEmail     string `json:"manager_email,omitempty"`
	Location         string `json:"location,omitempty"`
	Office           string `json:"office,omitempty"`
	EmploymentType   string `json:"employment_type,omitempty"`
	EmploymentStatus string `json:"employment_status,omitempty"`
	StartDate        string `json:"start_date,omitempty"`
	TerminationDate  string `json:"termination_date,omitempty"`
	CostCenter       string `json:"cost_center,omitempty"`
	WorkPhone        string `json:"work_phone,omitempty"`
	MobilePhone      string `json:"mobile_phone,omitempty"`
	Country          string `json:"country,omitempty"`
	TimeZone         string `json:"time_zone,omitempty"`
	LegalEntity      string `json:"legal_entity,omitempty"`
	Division         string `json:"division,omitempty"`
}

// Validate checks the fields the pipeline depends on. Anything else is
// passed through untouched.
func (r *UserRecord) Validate() error {
	if strings.TrimSpace(r.EmployeeID) == "" {
		return errors.ValidationError("employee_id is required")
	}
	if strings.TrimSpace(r.FirstName) == "" {
		return errors.ValidationError("first_name is required")
	}
	if strings.TrimSpace(r.LastName) == "" {
		return errors.ValidationError("last_name is required")
	}
	if !isEmail(r.Email) {
		return errors.ValidationError("email must be a valid address")
	}
	if r.ManagerEmail != "" && !isEmail(r.ManagerEmail) {
		return errors.ValidationError("manager_email must be a valid address")
	}
	return nil
}

// FullName joins first and last name the way the enriched record stores it.
func (r *UserRecord) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

func isEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(s, " \t\n")
}
