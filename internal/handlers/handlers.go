// Package handlers wires the HTTP surface: the HR webhook, the user query
// endpoint and the health check.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"user-enrichment/internal/common/errors"
	"user-enrichment/internal/common/logging"
	"user-enrichment/internal/config"
	"user-enrichment/internal/hr"
	"user-enrichment/internal/security"
	"user-enrichment/internal/store"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Acceptor hands a validated HR record to the enrichment queue and returns
// the correlation id assigned to it.
type Acceptor interface {
	Accept(record hr.UserRecord) (string, error)
}

// Handlers holds the HTTP dependencies.
type Handlers struct {
	ingestor Acceptor
	store    store.UserStore
	config   *config.Config
	logger   logging.Logger
}

// New creates the handler set.
func New(ingestor Acceptor, userStore store.UserStore, cfg *config.Config, logger logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Handlers{
		ingestor: ingestor,
		store:    userStore,
		config:   cfg,
		logger:   logger,
	}
}

// SetupRoutes registers all routes on the router.
func SetupRoutes(router *mux.Router, h *Handlers) {
	router.Use(LoggingMiddleware(h.logger))

	router.HandleFunc("/v1/healthz", h.HealthCheck).Methods("GET")

	protected := router.NewRoute().Subrouter()
	protected.Use(APIKeyMiddleware(h.config.APIKey))
	protected.HandleFunc("/v1/hr/webhook", h.HandleHRWebhook).Methods("POST")
	protected.HandleFunc("/v1/users/{id}", h.HandleGetUser).Methods("GET")
}

// AcceptedResponse acknowledges a queued webhook.
type AcceptedResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	EmployeeID    string `json:"employee_id"`
	Email         string `json:"email"`
	CorrelationID string `json:"correlation_id"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HandleHRWebhook accepts an HR payload, verifies its signature when a
// webhook secret is configured, and queues it for asynchronous enrichment.
// Queue unavailability surfaces as 503 with a retry hint; the client owns
// the retry.
func (h *Handlers) HandleHRWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if h.config.WebhookSecret != "" {
		signature := r.Header.Get("X-Webhook-Signature")
		if !security.VerifySignature(body, signature, h.config.WebhookSecret) {
			h.logger.Warn("Rejected webhook with invalid signature",
				logging.Field{Key: "path", Value: r.URL.Path},
			)
			writeError(w, http.StatusUnauthorized, "invalid webhook signature")
			return
		}
	}

	var record hr.UserRecord
	if err := json.Unmarshal(body, &record); err != nil {
		writeError(w, http.StatusBadRequest, "malformed HR payload")
		return
	}

	correlationID, err := h.ingestor.Accept(record)
	if err != nil {
		switch errors.GetType(err) {
		case errors.ErrTypeValidation:
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.ErrTypeConnection, errors.ErrTypeTimeout:
			w.Header().Set("Retry-After", "5")
			writeError(w, http.StatusServiceUnavailable, "enrichment queue unavailable, retry the request")
		default:
			h.logger.Error("Unexpected error accepting webhook", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, AcceptedResponse{
		Status:        "accepted",
		Message:       "User enrichment queued for background processing",
		EmployeeID:    record.EmployeeID,
		Email:         record.Email,
		CorrelationID: correlationID,
	})
}

// HandleGetUser returns the enriched record for an employee id.
func (h *Handlers) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	user, err := h.store.Get(r.Context(), id)
	if err != nil {
		switch errors.GetType(err) {
		case errors.ErrTypeNotFound:
			writeError(w, http.StatusNotFound, "user not found: "+id)
		case errors.ErrTypeConnection, errors.ErrTypeTimeout:
			h.logger.Error("Store unavailable", err,
				logging.Field{Key: "user_id_hash", Value: security.HashIdentifier(id)},
			)
			writeError(w, http.StatusServiceUnavailable, "storage backend unavailable")
		default:
			h.logger.Error("Failed to read user", err,
				logging.Field{Key: "user_id_hash", Value: security.HashIdentifier(id)},
			)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HealthCheck reports service status and configuration presence.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":          "ok",
		"version":         Version,
		"okta_configured": h.config.OktaOrgURL != "" && h.config.OktaAPIToken != "",
		"storage_backend": h.config.StorageBackend,
	}

	if err := h.store.Health(r.Context()); err != nil {
		status["status"] = "unhealthy"
		status["error"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, statusCode int, detail string) {
	writeJSON(w, statusCode, ErrorResponse{Detail: detail})
}
