// Package identity wraps the identity provider lookups that enrich an HR
// record with login identity, group memberships and application assignments.
package identity

import "context"

// Profile is the IdP-side view of a user, read-only once returned.
type Profile struct {
	Login          string   `json:"login"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	Email          string   `json:"email"`
	EmployeeNumber string   `json:"employee_number,omitempty"`
	Groups         []string `json:"groups"`
	Applications   []string `json:"applications"`
}

// Fetcher looks up an identity profile by email. Implementations classify
// failures as not-found, configuration or upstream errors so callers can
// decide whether to retry.
type Fetcher interface {
	FetchByEmail(ctx context.Context, email string) (*Profile, error)
}
