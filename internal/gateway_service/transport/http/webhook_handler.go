package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/orbitalhq/wagateway/internal/gateway_service/app"
)

// maxWebhookBodyBytes caps one webhook delivery. Provider payloads are a
// few KB; anything near the cap is not a legitimate delivery.
const maxWebhookBodyBytes = 1 << 20

// eventPublisher is the broker surface the webhook handler needs. Satisfied
// by messagebroker.NATSClient.
type eventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// WebhookHandler accepts provider webhook deliveries, authenticates them
// with an optional shared-secret token, and queues the raw payload on NATS.
// The delivery is acknowledged with a fixed success body before any
// processing happens; the provider never sees processing errors.
type WebhookHandler struct {
	publisher eventPublisher
	token     string
	logger    *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler. An empty token disables the
// shared-secret check.
func NewWebhookHandler(publisher eventPublisher, token string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		publisher: publisher,
		token:     token,
		logger:    logger.With("handler", "webhook"),
	}
}

// HandleDelivery is mounted at POST /webhooks/whatsapp/{instance_name}.
func (h *WebhookHandler) HandleDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chimiddleware.GetReqID(ctx))

	if h.token != "" {
		supplied := r.URL.Query().Get("token")
		if supplied == "" {
			supplied = r.Header.Get("x-webhook-token")
		}
		if supplied != h.token {
			logger.WarnContext(ctx, "Webhook delivery with bad token", "remote", r.RemoteAddr)
			respondWithError(w, http.StatusUnauthorized, "invalid webhook token")
			return
		}
	}

	instanceName := chi.URLParam(r, "instance_name")
	if instanceName == "" {
		respondWithError(w, http.StatusBadRequest, "instance name is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			logger.WarnContext(ctx, "Webhook body over size cap", "remote", r.RemoteAddr)
			respondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		logger.ErrorContext(ctx, "Failed to read webhook body", "error", err)
		respondWithError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	defer r.Body.Close()

	subject := app.WebhookSubjectPrefix + "." + instanceName
	if err := h.publisher.Publish(ctx, subject, body); err != nil {
		logger.ErrorContext(ctx, "Failed to queue webhook delivery", "subject", subject, "error", err)
		respondWithError(w, http.StatusInternalServerError, "failed to queue delivery")
		return
	}

	// Fixed acknowledgment regardless of eventual processing outcome.
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "received"})
}
