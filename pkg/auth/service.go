package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/accountkit/pkg/logger"
	"github.com/dmitrymomot/accountkit/pkg/token"
)

// Service runs the account flows on top of a Store and a token.Service.
// It keeps no mutable state of its own and is safe for concurrent use.
type Service struct {
	store          Store
	tokens         *token.Service
	logger         *slog.Logger
	bcryptCost     int
	confirmTTL     time.Duration
	resetTTL       time.Duration
	emailChangeTTL time.Duration
	throttle       Throttle
	throttleWindow time.Duration
	minPasswordLen int
	now            func() time.Time
}

// NewService creates an account service. Token lifetimes default to the
// token service's default TTL.
func NewService(store Store, tokens *token.Service, opts ...Option) *Service {
	s := &Service{
		store:          store,
		tokens:         tokens,
		logger:         logger.Discard(),
		bcryptCost:     bcrypt.DefaultCost,
		minPasswordLen: 1,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Register creates an unconfirmed account.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := s.checkPassword(password); err != nil {
		return nil, err
	}

	now := s.now()
	u := &User{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.SetPassword(password, s.bcryptCost); err != nil {
		return nil, err
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		logger.Component("auth"),
		logger.UserID(u.ID.String()),
	)

	return u, nil
}

// Authenticate checks credentials. Every failure is reported as
// ErrInvalidCredentials so callers cannot tell which part was wrong.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !u.VerifyPassword(password) {
		s.logger.DebugContext(ctx, "password mismatch",
			logger.Component("auth"),
			logger.UserID(u.ID.String()),
		)
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// UserByEmail looks up an account by address.
func (s *Service) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.store.GetUserByEmail(ctx, NormalizeEmail(email))
}

// GenerateConfirmationToken issues a confirm token for u. A zero ttl uses
// the configured default.
func (s *Service) GenerateConfirmationToken(ctx context.Context, u *User, ttl time.Duration) (string, error) {
	return s.issue(ctx, u, token.PurposeConfirm, pickTTL(ttl, s.confirmTTL), "")
}

// Confirm marks u as confirmed if tok is a valid confirm token for u.
// Confirming an already confirmed account succeeds without changes.
func (s *Service) Confirm(ctx context.Context, u *User, tok string) error {
	if u == nil {
		return ErrUserNotFound
	}
	if err := s.verify(ctx, tok, token.PurposeConfirm, u.ID, nil); err != nil {
		return err
	}

	updated, err := s.store.UpdateUser(ctx, u.ID, func(cur *User) error {
		if cur.Confirmed {
			return nil
		}
		cur.Confirmed = true
		cur.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return s.storeErr("failed to confirm user", err)
	}

	*u = *updated
	s.logger.InfoContext(ctx, "user confirmed",
		logger.Component("auth"),
		logger.UserID(u.ID.String()),
	)
	return nil
}

// GenerateResetToken issues a reset_password token for u.
func (s *Service) GenerateResetToken(ctx context.Context, u *User, ttl time.Duration) (string, error) {
	return s.issue(ctx, u, token.PurposeResetPassword, pickTTL(ttl, s.resetTTL), "")
}

// ResetPassword sets a new password for the token's subject. The caller does
// not need to know who the user is; the token says so.
func (s *Service) ResetPassword(ctx context.Context, tok, newPassword string) error {
	var res token.Result
	if err := s.verify(ctx, tok, token.PurposeResetPassword, uuid.Nil, &res); err != nil {
		return err
	}
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}

	hash, err := HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	if _, err := s.store.UpdateUser(ctx, res.Subject, func(cur *User) error {
		cur.PasswordHash = hash
		cur.UpdatedAt = s.now()
		return nil
	}); err != nil {
		return s.storeErr("failed to reset password", err)
	}

	s.logger.InfoContext(ctx, "password reset",
		logger.Component("auth"),
		logger.UserID(res.Subject.String()),
		logger.TokenID(res.ID),
	)
	return nil
}

// ChangePassword replaces u's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, u *User, oldPassword, newPassword string) error {
	if u == nil {
		return ErrUserNotFound
	}
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}

	hash, err := HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	updated, err := s.store.UpdateUser(ctx, u.ID, func(cur *User) error {
		if !cur.VerifyPassword(oldPassword) {
			return ErrInvalidCredentials
		}
		cur.PasswordHash = hash
		cur.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return s.storeErr("failed to change password", err)
	}

	*u = *updated
	return nil
}

// GenerateEmailChangeToken issues a change_email token carrying newEmail.
// Ownership of newEmail is checked when the token is redeemed, not here.
func (s *Service) GenerateEmailChangeToken(ctx context.Context, u *User, newEmail string, ttl time.Duration) (string, error) {
	if u == nil {
		return "", ErrUserNotFound
	}
	newEmail = NormalizeEmail(newEmail)
	if err := ValidateEmail(newEmail); err != nil {
		return "", err
	}
	if newEmail == u.Email {
		return "", ErrEmailUnchanged
	}
	return s.issue(ctx, u, token.PurposeChangeEmail, pickTTL(ttl, s.emailChangeTTL), newEmail)
}

// ChangeEmail moves u to the address carried by tok. If another account owns
// that address at redemption time, it fails with token.ErrPayloadConflict and
// u keeps its current email.
func (s *Service) ChangeEmail(ctx context.Context, u *User, tok string) error {
	if u == nil {
		return ErrUserNotFound
	}

	var res token.Result
	if err := s.verify(ctx, tok, token.PurposeChangeEmail, u.ID, &res); err != nil {
		return err
	}

	newEmail := NormalizeEmail(res.Payload)
	if ValidateEmail(newEmail) != nil {
		s.logRejected(ctx, token.PurposeChangeEmail, token.ReasonDecodeFailure, u.ID)
		return token.ErrDecodeFailure
	}

	owner, err := s.store.GetUserByEmail(ctx, newEmail)
	switch {
	case err == nil && owner.ID != u.ID:
		s.logRejected(ctx, token.PurposeChangeEmail, token.ReasonPayloadConflict, u.ID)
		return token.ErrPayloadConflict
	case err != nil && !errors.Is(err, ErrUserNotFound):
		return fmt.Errorf("failed to check email owner: %w", err)
	}

	updated, err := s.store.UpdateUser(ctx, u.ID, func(cur *User) error {
		if cur.Email == newEmail {
			return nil
		}
		cur.Email = newEmail
		cur.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			s.logRejected(ctx, token.PurposeChangeEmail, token.ReasonPayloadConflict, u.ID)
			return token.ErrPayloadConflict
		}
		return s.storeErr("failed to change email", err)
	}

	*u = *updated
	s.logger.InfoContext(ctx, "email changed",
		logger.Component("auth"),
		logger.UserID(u.ID.String()),
		logger.TokenID(res.ID),
	)
	return nil
}

func (s *Service) issue(ctx context.Context, u *User, purpose token.Purpose, ttl time.Duration, payload string) (string, error) {
	if u == nil {
		return "", ErrUserNotFound
	}

	if s.throttle != nil && s.throttleWindow > 0 {
		ok, err := s.throttle.Allow(ctx, ThrottleKey(purpose, u.ID), s.throttleWindow)
		if err != nil {
			return "", fmt.Errorf("failed to check issuance throttle: %w", err)
		}
		if !ok {
			s.logger.InfoContext(ctx, "token issuance throttled",
				logger.Component("auth"),
				logger.Purpose(purpose),
				logger.UserID(u.ID.String()),
			)
			return "", ErrTooManyRequests
		}
	}

	tok, err := s.tokens.Issue(u.ID, purpose, token.WithTTL(ttl), token.WithPayload(payload))
	if err != nil {
		if rerr := s.ReleaseIssuance(ctx, u, purpose); rerr != nil {
			s.logger.WarnContext(ctx, "failed to release issuance throttle",
				logger.Component("auth"),
				logger.Purpose(purpose),
				logger.Error(rerr),
			)
		}
		return "", fmt.Errorf("failed to issue %s token: %w", purpose, err)
	}

	s.logger.DebugContext(ctx, "token issued",
		logger.Component("auth"),
		logger.Purpose(purpose),
		logger.UserID(u.ID.String()),
	)
	return tok, nil
}

// ReleaseIssuance closes the throttle window for u and purpose. Callers use
// it when a freshly issued token never reached the user.
func (s *Service) ReleaseIssuance(ctx context.Context, u *User, purpose token.Purpose) error {
	if u == nil || s.throttle == nil || s.throttleWindow <= 0 {
		return nil
	}
	if err := s.throttle.Reset(ctx, ThrottleKey(purpose, u.ID)); err != nil {
		return fmt.Errorf("failed to release issuance throttle: %w", err)
	}
	return nil
}

// verify checks tok and, when out is non-nil, stores the result there.
// A nil subject skips the subject check.
func (s *Service) verify(ctx context.Context, tok string, purpose token.Purpose, subject uuid.UUID, out *token.Result) error {
	var opts []token.VerifyOption
	if subject != uuid.Nil {
		opts = append(opts, token.ExpectSubject(subject))
	}

	res := s.tokens.Verify(tok, purpose, opts...)
	if !res.OK() {
		s.logRejected(ctx, purpose, res.Reason, subject)
		return res.Err()
	}
	if out != nil {
		*out = res
	}
	return nil
}

func (s *Service) logRejected(ctx context.Context, purpose token.Purpose, reason token.Reason, userID uuid.UUID) {
	attrs := []any{
		logger.Component("auth"),
		logger.Purpose(purpose),
		logger.Reason(reason),
	}
	if userID != uuid.Nil {
		attrs = append(attrs, logger.UserID(userID.String()))
	}
	s.logger.InfoContext(ctx, "token rejected", attrs...)
}

func (s *Service) checkPassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < s.minPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

func (s *Service) storeErr(msg string, err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrEmailTaken):
		return err
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

func pickTTL(ttl, fallback time.Duration) time.Duration {
	if ttl != 0 {
		return ttl
	}
	return fallback
}
