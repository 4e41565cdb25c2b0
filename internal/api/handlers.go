package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/accountkit/pkg/auth"
	"github.com/dmitrymomot/accountkit/pkg/logger"
	"github.com/dmitrymomot/accountkit/pkg/token"
)

const maxBodyBytes = 64 << 10

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	credentials
	Token string `json:"token"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	credentials
	NewPassword string `json:"new_password"`
}

type changeEmailRequest struct {
	credentials
	NewEmail string `json:"new_email"`
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Confirmed bool      `json:"confirmed"`
}

// Register creates an account and mails the confirmation link.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.sendConfirmation(r, u)

	writeJSON(w, http.StatusCreated, userResponse{ID: u.ID, Email: u.Email, Confirmed: u.Confirmed})
}

// Confirm redeems a confirm token for the account identified by credentials.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.accounts.Confirm(r.Context(), u, req.Token); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResendConfirmation issues a fresh confirm token. It is subject to the
// issuance throttle.
func (h *Handler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if u.Confirmed {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	tok, err := h.accounts.GenerateConfirmationToken(r.Context(), u, 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.notifier.SendConfirmation(r.Context(), u.Email, tok); err != nil {
		h.release(r, u, token.PurposeConfirm)
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// ForgotPassword mails a reset link. The response is 202 whether or not the
// address has an account, and whether or not the mail went out.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.accounts.UserByEmail(r.Context(), req.Email)
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		w.WriteHeader(http.StatusAccepted)
		return
	case err != nil:
		h.writeError(w, r, err)
		return
	}

	tok, err := h.accounts.GenerateResetToken(r.Context(), u, 0)
	switch {
	case errors.Is(err, auth.ErrTooManyRequests):
		w.WriteHeader(http.StatusAccepted)
		return
	case err != nil:
		h.writeError(w, r, err)
		return
	}

	if err := h.notifier.SendPasswordReset(r.Context(), u.Email, tok); err != nil {
		h.release(r, u, token.PurposeResetPassword)
		h.logger.ErrorContext(r.Context(), "failed to send password reset",
			logger.Component("api"),
			logger.UserID(u.ID.String()),
			logger.Error(err),
		)
	}

	w.WriteHeader(http.StatusAccepted)
}

// ResetPassword sets a new password from a reset token.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword replaces the password of an authenticated account.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), u, req.Password, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RequestEmailChange mails a change_email token to the new address.
func (h *Handler) RequestEmailChange(w http.ResponseWriter, r *http.Request) {
	var req changeEmailRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	tok, err := h.accounts.GenerateEmailChangeToken(r.Context(), u, req.NewEmail, 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.notifier.SendEmailChange(r.Context(), auth.NormalizeEmail(req.NewEmail), tok); err != nil {
		h.release(r, u, token.PurposeChangeEmail)
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// ConfirmEmailChange redeems a change_email token.
func (h *Handler) ConfirmEmailChange(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.accounts.ChangeEmail(r.Context(), u, req.Token); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sendConfirmation runs after a successful registration. The account exists
// either way, so failures are logged and the client can ask for a resend.
func (h *Handler) sendConfirmation(r *http.Request, u *auth.User) {
	ctx := r.Context()
	tok, err := h.accounts.GenerateConfirmationToken(ctx, u, 0)
	if err == nil {
		if err = h.notifier.SendConfirmation(ctx, u.Email, tok); err != nil {
			h.release(r, u, token.PurposeConfirm)
		}
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to send confirmation",
			logger.Component("api"),
			logger.UserID(u.ID.String()),
			logger.Error(err),
		)
	}
}

// release reopens issuance for a token that was minted but not delivered.
func (h *Handler) release(r *http.Request, u *auth.User, purpose token.Purpose) {
	if err := h.accounts.ReleaseIssuance(r.Context(), u, purpose); err != nil {
		h.logger.WarnContext(r.Context(), "failed to release issuance throttle",
			logger.Component("api"),
			logger.Purpose(purpose),
			logger.UserID(u.ID.String()),
			logger.Error(err),
		)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errBadRequest)
	}
	return nil
}
