package identity

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"user-enrichment/internal/common/errors"
	"user-enrichment/internal/common/logging"
	"user-enrichment/internal/security"
)

// OktaFetcher fetches identity data from the Okta API. A full fetch makes
// up to three outbound calls: the user search, the group membership lookup
// and the application assignment lookup. The latter two are best-effort and
// degrade to empty sets on failure.
type OktaFetcher struct {
	baseURL string
	token   string
	client  *http.Client
	logger  logging.Logger
}

// NewOktaFetcher creates a fetcher against the given Okta organization.
// Missing credentials surface as a configuration error so the pipeline
// classifies them as permanent.
func NewOktaFetcher(baseURL, token string, timeout time.Duration, logger logging.Logger) (*OktaFetcher, error) {
	if baseURL == "" {
		return nil, errors.ConfigError("OKTA_ORG_URL is required")
	}
	if token == "" {
		return nil, errors.ConfigError("OKTA_API_TOKEN is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &OktaFetcher{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

type oktaProfile struct {
	Login          string `json:"login"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	EmployeeNumber string `json:"employeeNumber"`
}

type oktaUser struct {
	ID      string      `json:"id"`
	Profile oktaProfile `json:"profile"`
}

type oktaGroup struct {
	Profile struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"profile"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type oktaAppLink struct {
	Label   string `json:"label"`
	AppName string `json:"appName"`
}

// FetchByEmail looks up the Okta user for an email address and loads its
// group memberships and application assignments.
func (f *OktaFetcher) FetchByEmail(ctx context.Context, email string) (*Profile, error) {
	user, err := f.findUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NotFoundError("okta user").WithContext("email", security.MaskEmail(email))
	}

	if user.ID == "" {
		return nil, errors.InternalError("invalid okta user data structure", nil).
			WithContext("email", security.MaskEmail(email))
	}

	groups := f.fetchGroups(ctx, user.ID)
	applications := f.fetchApplications(ctx, user.ID)

	login := user.Profile.Login
	if login == "" {
		login = user.Profile.Email
	}
	profileEmail := user.Profile.Email
	if profileEmail == "" {
		profileEmail = user.Profile.Login
	}

	f.logger.Info("Loaded okta user",
		logging.Field{Key: "email", Value: security.MaskEmail(email)},
		logging.Field{Key: "groups_count", Value: len(groups)},
		logging.Field{Key: "apps_count", Value: len(applications)},
	)

	return &Profile{
		Login:          login,
		FirstName:      user.Profile.FirstName,
		LastName:       user.Profile.LastName,
		Email:          profileEmail,
		EmployeeNumber: user.Profile.EmployeeNumber,
		Groups:         groups,
		Applications:   applications,
	}, nil
}

func (f *OktaFetcher) findUserByEmail(ctx context.Context, email string) (*oktaUser, error) {
	query := url.Values{}
	query.Set("search", fmt.Sprintf("profile.email eq %q", email))
	endpoint := fmt.Sprintf("%s/api/v1/users?%s", f.baseURL, query.Encode())

	body, err := f.get(ctx, endpoint, "user search")
	if err != nil {
		return nil, err
	}

	var users []oktaUser
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, errors.InternalError("failed to decode okta user search response", err)
	}

	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// fetchGroups returns group names for a user. Failures are logged and
// degrade to an empty set, never an error.
func (f *OktaFetcher) fetchGroups(ctx context.Context, userID string) []string {
	endpoint := fmt.Sprintf("%s/api/v1/users/%s/groups", f.baseURL, url.PathEscape(userID))

	body, err := f.get(ctx, endpoint, "group lookup")
	if err != nil {
		f.logger.Warn("Failed to fetch okta groups",
			logging.Field{Key: "user_id", Value: userID},
			logging.Field{Key: "error", Value: err.Error()},
		)
		return []string{}
	}

	var groups []oktaGroup
	if err := json.Unmarshal(body, &groups); err != nil {
		f.logger.Warn("Failed to decode okta groups",
			logging.Field{Key: "user_id", Value: userID},
			logging.Field{Key: "error", Value: err.Error()},
		)
		return []string{}
	}

	names := make([]string, 0, len(groups))
	for _, g := range groups {
		name := g.Profile.Name
		if name == "" {
			name = g.Profile.Description
		}
		if name == "" {
			name = g.Label
		}
		if name == "" {
			name = g.Type
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// fetchApplications returns application labels for a user, degrading to an
// empty set on failure like fetchGroups.
func (f *OktaFetcher) fetchApplications(ctx context.Context, userID string) []string {
	endpoint := fmt.Sprintf("%s/api/v1/users/%s/appLinks", f.baseURL, url.PathEscape(userID))

	body, err := f.get(ctx, endpoint, "application lookup")
	if err != nil {
		f.logger.Warn("Failed to fetch okta applications",
			logging.Field{Key: "user_id", Value: userID},
			logging.Field{Key: "error", Value: err.Error()},
		)
		return []string{}
	}

	var apps []oktaAppLink
	if err := json.Unmarshal(body, &apps); err != nil {
		f.logger.Warn("Failed to decode okta applications",
			logging.Field{Key: "user_id", Value: userID},
			logging.Field{Key: "error", Value: err.Error()},
		)
		return []string{}
	}

	labels := make([]string, 0, len(apps))
	for _, app := range apps {
		label := app.Label
		if label == "" {
			label = app.AppName
		}
		if label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

// get performs one authenticated GET and classifies transport and status
// failures into the pipeline's error taxonomy.
func (f *OktaFetcher) get(ctx context.Context, endpoint, operation string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.InternalError("failed to build okta request", err)
	}
	req.Header.Set("Authorization", "SSWS "+f.token)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err, operation)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ConnectionError("failed to read okta response", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.ConfigError("okta rejected credentials").
			WithContext("status_code", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, errors.UpstreamError("okta api error during "+operation, resp.StatusCode)
	default:
		return nil, errors.InternalError(
			fmt.Sprintf("unexpected okta status %d during %s", resp.StatusCode, operation), nil).
			WithContext("status_code", resp.StatusCode)
	}
}

func classifyTransportError(err error, operation string) error {
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.TimeoutError("okta " + operation)
	}
	return errors.ConnectionError("okta "+operation+" failed", err)
}
