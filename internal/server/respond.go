package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/statusdeck/statusdeck/internal/manage"
	"github.com/statusdeck/statusdeck/internal/store"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func sendJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func sendError(w http.ResponseWriter, statusCode int, code, message string) {
	sendJSON(w, statusCode, struct {
		Error errorBody `json:"error"`
	}{Error: errorBody{Code: code, Message: message}})
}

// sendStoreError maps domain errors onto HTTP statuses: not-found
// sentinels to 404, validation failures to 400, duplicate membership to
// 409, everything else to a logged 500.
func sendStoreError(w http.ResponseWriter, log *zerolog.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrOrganizationNotFound),
		errors.Is(err, store.ErrServiceNotFound),
		errors.Is(err, store.ErrIncidentNotFound),
		errors.Is(err, store.ErrUserNotFound):
		sendError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, manage.ErrValidation):
		sendError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	case errors.Is(err, store.ErrAlreadyMember):
		sendError(w, http.StatusConflict, "ALREADY_MEMBER", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		sendError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		sendError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return false
	}
	return true
}
