package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/orbitalhq/wagateway/internal/gateway_service/domain"
)

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithDomainError maps domain sentinels to HTTP status codes.
func respondWithDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInboxNotFound),
		errors.Is(err, domain.ErrContactNotFound),
		errors.Is(err, domain.ErrConversationNotFound),
		errors.Is(err, domain.ErrMessageNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateInstanceName):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInboxNotConnected),
		errors.Is(err, domain.ErrMissingInstanceName),
		errors.Is(err, domain.ErrMissingRemoteJID):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
