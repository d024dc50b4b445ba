package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/orbitalhq/wagateway/internal/gateway_service/app"
	"github.com/orbitalhq/wagateway/internal/gateway_service/domain"
	"github.com/orbitalhq/wagateway/internal/gateway_service/repository"
)

const defaultMessagePageSize = 50

// MessageHandler exposes outbound sending and conversation history.
type MessageHandler struct {
	dispatcher *app.Dispatcher
	messages   repository.MessageRepository
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(
	dispatcher *app.Dispatcher,
	messages repository.MessageRepository,
	validate *validator.Validate,
	logger *slog.Logger,
) *MessageHandler {
	return &MessageHandler{
		dispatcher: dispatcher,
		messages:   messages,
		validate:   validate,
		logger:     logger.With("handler", "message"),
	}
}

// Send handles POST /conversations/{id}/messages.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID := chi.URLParam(r, "id")

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		respondWithError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	message, err := h.dispatcher.Send(ctx, conversationID, req.Content)
	if err != nil {
		h.logger.ErrorContext(ctx, "Outbound send failed", "conversation_id", conversationID, "error", err)
		respondWithDomainError(w, err)
		return
	}
	// A failed provider call still produces a persisted message row with
	// status failed; the client inspects the status field.
	status := http.StatusCreated
	if message.Status == domain.MessageStatusFailed {
		status = http.StatusBadGateway
	}
	respondWithJSON(w, status, message)
}

// List handles GET /conversations/{id}/messages.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID := chi.URLParam(r, "id")

	limit := defaultMessagePageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	messages, err := h.messages.ListByConversation(ctx, conversationID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list messages", "conversation_id", conversationID, "error", err)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, messages)
}
