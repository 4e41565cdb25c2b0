package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/accountkit/pkg/auth"
	"github.com/dmitrymomot/accountkit/pkg/logger"
	"github.com/dmitrymomot/accountkit/pkg/token"
)

var errBadRequest = errors.New("malformed request body")

type errorResponse struct {
	Error string `json:"error"`
}

// statusOf maps a service error to an HTTP status and a stable error code.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, token.ErrPayloadConflict):
		return http.StatusConflict, token.ReasonPayloadConflict.String()
	case errors.Is(err, token.ErrInvalidToken):
		return http.StatusBadRequest, token.ReasonOf(err).String()
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, "email_taken"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, auth.ErrTooManyRequests):
		return http.StatusTooManyRequests, "too_many_requests"
	case errors.Is(err, auth.ErrInvalidEmail):
		return http.StatusUnprocessableEntity, "invalid_email"
	case errors.Is(err, auth.ErrPasswordRequired):
		return http.StatusUnprocessableEntity, "password_required"
	case errors.Is(err, auth.ErrWeakPassword):
		return http.StatusUnprocessableEntity, "weak_password"
	case errors.Is(err, auth.ErrEmailUnchanged):
		return http.StatusUnprocessableEntity, "email_unchanged"
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			logger.Component("api"),
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeJSONError(w, status, code)
}

func writeJSONError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Error: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
