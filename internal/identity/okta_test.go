package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"user-enrichment/internal/common/errors"
)

// oktaServer serves canned responses for the three endpoints a fetch hits.
func oktaServer(t *testing.T, searchStatus int, searchBody string, groupsStatus int, groupsBody string, appsStatus int, appsBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SSWS test-token", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Query().Get("search"), "profile.email eq")
		w.WriteHeader(searchStatus)
		_, _ = w.Write([]byte(searchBody))
	})
	mux.HandleFunc("/api/v1/users/u1/groups", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(groupsStatus)
		_, _ = w.Write([]byte(groupsBody))
	})
	mux.HandleFunc("/api/v1/users/u1/appLinks", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(appsStatus)
		_, _ = w.Write([]byte(appsBody))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newFetcher(t *testing.T, baseURL string) *OktaFetcher {
	t.Helper()
	fetcher, err := NewOktaFetcher(baseURL, "test-token", 2*time.Second, nil)
	require.NoError(t, err)
	return fetcher
}

const userSearchHit = `[{"id":"u1","profile":{"login":"jane.doe@example.com","firstName":"Jane","lastName":"Doe","email":"jane.doe@example.com","employeeNumber":"12345"}}]`

func TestFetchByEmailSuccess(t *testing.T) {
	server := oktaServer(t,
		http.StatusOK, userSearchHit,
		http.StatusOK, `[{"profile":{"name":"Engineering"}},{"profile":{"name":"Everyone"}}]`,
		http.StatusOK, `[{"label":"Slack"},{"label":"Jira"}]`,
	)
	fetcher := newFetcher(t, server.URL)

	profile, err := fetcher.FetchByEmail(context.Background(), "jane.doe@example.com")

	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", profile.Login)
	assert.Equal(t, "Jane", profile.FirstName)
	assert.Equal(t, "12345", profile.EmployeeNumber)
	assert.Equal(t, []string{"Engineering", "Everyone"}, profile.Groups)
	assert.Equal(t, []string{"Slack", "Jira"}, profile.Applications)
}

func TestFetchByEmailUserNotFound(t *testing.T) {
	server := oktaServer(t, http.StatusOK, `[]`, http.StatusOK, `[]`, http.StatusOK, `[]`)
	fetcher := newFetcher(t, server.URL)

	_, err := fetcher.FetchByEmail(context.Background(), "nobody@example.com")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
	assert.False(t, errors.IsRetryable(err))
}

func TestFetchByEmailServerError(t *testing.T) {
	server := oktaServer(t, http.StatusInternalServerError, `{}`, http.StatusOK, `[]`, http.StatusOK, `[]`)
	fetcher := newFetcher(t, server.URL)

	_, err := fetcher.FetchByEmail(context.Background(), "jane.doe@example.com")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeUpstream))
	assert.Equal(t, http.StatusInternalServerError, errors.StatusCode(err))
	assert.True(t, errors.IsRetryable(err))
}

func TestFetchByEmailRateLimited(t *testing.T) {
	server := oktaServer(t, http.StatusTooManyRequests, `{}`, http.StatusOK, `[]`, http.StatusOK, `[]`)
	fetcher := newFetcher(t, server.URL)

	_, err := fetcher.FetchByEmail(context.Background(), "jane.doe@example.com")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeUpstream))
	assert.True(t, errors.IsRetryable(err))
}

func TestFetchByEmailRejectedCredentials(t *testing.T) {
	server := oktaServer(t, http.StatusUnauthorized, `{}`, http.StatusOK, `[]`, http.StatusOK, `[]`)
	fetcher := newFetcher(t, server.URL)

	_, err := fetcher.FetchByEmail(context.Background(), "jane.doe@example.com")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
	assert.False(t, errors.IsRetryable(err))
}

func TestFetchByEmailUnexpectedClientError(t *testing.T) {
	server := oktaServer(t, http.StatusBadRequest, `{}`, http.StatusOK, `[]`, http.StatusOK, `[]`)
	fetcher := newFetcher(t, server.URL)

	_, err := fetcher.FetchByEmail(context.Background(), "jane.doe@example.com")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeInternal))
	assert.False(t, errors.IsRetryable(err))
}

func TestFetchByEmailGroupFailureDegradesToEmpty(t *testing.T) {
	server := oktaServer(t,
		http.StatusOK, userSearchHit,
		http.StatusInternalServerError, `{}`,
		http.StatusOK, `[{"label":"Slack"}]`,
	)
	fetcher := newFetcher(t, server.URL)

	profile, err := fetcher.FetchByEmail(context.Background(), "jane.doe@example.com")

	require.NoError(t, err)
	assert.Empty(t, profile.Groups)
	assert.Equal(t, []string{"Slack"}, profile.Applications)
}

func TestFetchByEmailAppFailureDegradesToEmpty(t *testing.T) {
	server := oktaServer(t,
		http.StatusOK, userSearchHit,
		http.StatusOK, `[{"profile":{"name":"Engineering"}}]`,
		http.StatusForbidden, `{}`,
	)
	fetcher := newFetcher(t, server.URL)

	profile, err := fetcher.FetchByEmail(context.Background(), "jane.doe@example.com")

	require.NoError(t, err)
	assert.Equal(t, []string{"Engineering"}, profile.Groups)
	assert.Empty(t, profile.Applications)
}

func TestFetchByEmailTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	fetcher, err := NewOktaFetcher(server.URL, "test-token", 20*time.Millisecond, nil)
	require.NoError(t, err)

	_, err = fetcher.FetchByEmail(context.Background(), "jane.doe@example.com")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeTimeout))
	assert.True(t, errors.IsRetryable(err))
}

func TestFetchByEmailConnectionRefused(t *testing.T) {
	fetcher := newFetcher(t, "http://127.0.0.1:1")

	_, err := fetcher.FetchByEmail(context.Background(), "jane.doe@example.com")

	require.Error(t, err)
	retryable := errors.IsType(err, errors.ErrTypeConnection) || errors.IsType(err, errors.ErrTypeTimeout)
	assert.True(t, retryable)
}

func TestFetchByEmailGroupNameFallbacks(t *testing.T) {
	server := oktaServer(t,
		http.StatusOK, userSearchHit,
		http.StatusOK, `[{"profile":{"description":"Desc Only"}},{"label":"Label Only"},{"type":"BUILT_IN"},{}]`,
		http.StatusOK, `[{"appName":"slack"},{}]`,
	)
	fetcher := newFetcher(t, server.URL)

	profile, err := fetcher.FetchByEmail(context.Background(), "jane.doe@example.com")

	require.NoError(t, err)
	assert.Equal(t, []string{"Desc Only", "Label Only", "BUILT_IN"}, profile.Groups)
	assert.Equal(t, []string{"slack"}, profile.Applications)
}

func TestNewOktaFetcherRequiresCredentials(t *testing.T) {
	_, err := NewOktaFetcher("", "token", time.Second, nil)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))

	_, err = NewOktaFetcher("https://example.okta.com", "", time.Second, nil)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
}
