package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/orbitalhq/wagateway/internal/gateway_service/app"
	"github.com/orbitalhq/wagateway/internal/gateway_service/middleware"
	"github.com/orbitalhq/wagateway/internal/gateway_service/repository"
)

// ChannelHandler exposes the channel lifecycle and bulk sync operations.
type ChannelHandler struct {
	channels *app.ChannelService
	sync     *app.SyncOrchestrator
	inboxes  repository.InboxRepository
	validate *validator.Validate
	logger   *slog.Logger
}

// NewChannelHandler creates a ChannelHandler.
func NewChannelHandler(
	channels *app.ChannelService,
	sync *app.SyncOrchestrator,
	inboxes repository.InboxRepository,
	validate *validator.Validate,
	logger *slog.Logger,
) *ChannelHandler {
	return &ChannelHandler{
		channels: channels,
		sync:     sync,
		inboxes:  inboxes,
		validate: validate,
		logger:   logger.With("handler", "channel"),
	}
}

// Create handles POST /channels.
func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		respondWithError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	inbox, err := h.channels.Provision(ctx, user.OrganizationID, req.Name, req.InstanceName)
	if err != nil {
		h.logger.ErrorContext(ctx, "Channel provisioning failed", "instance", req.InstanceName, "error", err)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, inbox)
}

// List handles GET /channels.
func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	inboxes, err := h.inboxes.ListByOrganization(ctx, user.OrganizationID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list channels", "error", err)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, inboxes)
}

// Get handles GET /channels/{id}.
func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inbox, err := h.inboxes.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, inbox)
}

// Connect handles POST /channels/{id}/connect.
func (h *ChannelHandler) Connect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inbox, err := h.channels.Connect(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.logger.ErrorContext(ctx, "Channel connect failed", "error", err)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, inbox)
}

// State handles GET /channels/{id}/state.
func (h *ChannelHandler) State(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status, err := h.channels.State(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StateResponse{Status: string(status)})
}

// Sync handles POST /channels/{id}/sync.
func (h *ChannelHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.sync.Run(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.logger.ErrorContext(ctx, "Bulk sync failed", "error", err)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// Logout handles POST /channels/{id}/logout.
func (h *ChannelHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.channels.Logout(ctx, chi.URLParam(r, "id")); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Delete handles DELETE /channels/{id}.
func (h *ChannelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.channels.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		respondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
