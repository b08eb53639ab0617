package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"user-enrichment/internal/common/errors"
	"user-enrichment/internal/config"
	"user-enrichment/internal/enrichment"
	"user-enrichment/internal/hr"
	"user-enrichment/internal/security"
	"user-enrichment/internal/store"
)

type fakeAcceptor struct {
	err      error
	accepted []hr.UserRecord
}

func (a *fakeAcceptor) Accept(record hr.UserRecord) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.accepted = append(a.accepted, record)
	return "corr-1", nil
}

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8080",
		StorageBackend: "memory",
		OktaOrgURL:     "https://example.okta.com",
		OktaAPIToken:   "token",
		APITimeout:     10 * time.Second,
	}
}

func newTestRouter(acceptor *fakeAcceptor, userStore store.UserStore, cfg *config.Config) *mux.Router {
	if userStore == nil {
		userStore = store.NewMemoryStore()
	}
	if cfg == nil {
		cfg = testConfig()
	}
	router := mux.NewRouter()
	SetupRoutes(router, New(acceptor, userStore, cfg, nil))
	return router
}

func webhookBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(hr.UserRecord{
		EmployeeID: "12345",
		FirstName:  "Jane",
		LastName:   "Doe",
		Email:      "jane.doe@example.com",
	})
	require.NoError(t, err)
	return body
}

func TestWebhookAccepted(t *testing.T) {
	acceptor := &fakeAcceptor{}
	router := newTestRouter(acceptor, nil, nil)

	req := httptest.NewRequest("POST", "/v1/hr/webhook", bytes.NewReader(webhookBody(t)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp AcceptedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp.Status)
	assert.Equal(t, "12345", resp.EmployeeID)
	assert.Equal(t, "jane.doe@example.com", resp.Email)
	assert.Equal(t, "corr-1", resp.CorrelationID)

	require.Len(t, acceptor.accepted, 1)
	assert.Equal(t, "12345", acceptor.accepted[0].EmployeeID)
}

func TestWebhookMalformedBody(t *testing.T) {
	router := newTestRouter(&fakeAcceptor{}, nil, nil)

	req := httptest.NewRequest("POST", "/v1/hr/webhook", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookValidationFailure(t *testing.T) {
	acceptor := &fakeAcceptor{err: errors.ValidationError("employee_id is required")}
	router := newTestRouter(acceptor, nil, nil)

	req := httptest.NewRequest("POST", "/v1/hr/webhook", bytes.NewReader([]byte(`{"email":"x@example.com"}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Detail, "employee_id is required")
}

func TestWebhookQueueUnavailable(t *testing.T) {
	acceptor := &fakeAcceptor{err: errors.ConnectionError("enrichment queue unavailable", nil)}
	router := newTestRouter(acceptor, nil, nil)

	req := httptest.NewRequest("POST", "/v1/hr/webhook", bytes.NewReader(webhookBody(t)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
}

func TestWebhookSignatureVerification(t *testing.T) {
	cfg := testConfig()
	cfg.WebhookSecret = "secret"
	router := newTestRouter(&fakeAcceptor{}, nil, cfg)

	body := webhookBody(t)

	req := httptest.NewRequest("POST", "/v1/hr/webhook", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", security.ComputeSignature(body, "secret"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	req = httptest.NewRequest("POST", "/v1/hr/webhook", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", "bad-signature")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest("POST", "/v1/hr/webhook", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKeyProtection(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = "top-secret"
	router := newTestRouter(&fakeAcceptor{}, nil, cfg)

	req := httptest.NewRequest("POST", "/v1/hr/webhook", bytes.NewReader(webhookBody(t)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest("POST", "/v1/hr/webhook", bytes.NewReader(webhookBody(t)))
	req.Header.Set("X-API-Key", "top-secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	req = httptest.NewRequest("GET", "/v1/healthz", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetUserFound(t *testing.T) {
	userStore := store.NewMemoryStore()
	require.NoError(t, userStore.Put(context.Background(), "12345", &enrichment.EnrichedUser{
		ID:           "12345",
		Name:         "Jane Doe",
		Email:        "jane.doe@example.com",
		Groups:       []string{"Engineering"},
		Applications: []string{"Slack"},
		Onboarded:    true,
	}))
	router := newTestRouter(&fakeAcceptor{}, userStore, nil)

	req := httptest.NewRequest("GET", "/v1/users/12345", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var user enrichment.EnrichedUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "Jane Doe", user.Name)
	assert.True(t, user.Onboarded)
}

func TestGetUserNotFound(t *testing.T) {
	router := newTestRouter(&fakeAcceptor{}, nil, nil)

	req := httptest.NewRequest("GET", "/v1/users/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&fakeAcceptor{}, nil, nil)

	req := httptest.NewRequest("GET", "/v1/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, Version, status["version"])
	assert.Equal(t, true, status["okta_configured"])
}
