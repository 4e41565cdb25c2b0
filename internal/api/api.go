// Package api exposes the account flows over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/accountkit/pkg/auth"
	"github.com/dmitrymomot/accountkit/pkg/logger"
	"github.com/dmitrymomot/accountkit/pkg/ratelimiter"
	"github.com/dmitrymomot/accountkit/pkg/token"
)

// Accounts is the part of auth.Service the handlers use.
type Accounts interface {
	Register(ctx context.Context, email, password string) (*auth.User, error)
	Authenticate(ctx context.Context, email, password string) (*auth.User, error)
	UserByEmail(ctx context.Context, email string) (*auth.User, error)
	GenerateConfirmationToken(ctx context.Context, u *auth.User, ttl time.Duration) (string, error)
	Confirm(ctx context.Context, u *auth.User, tok string) error
	GenerateResetToken(ctx context.Context, u *auth.User, ttl time.Duration) (string, error)
	ResetPassword(ctx context.Context, tok, newPassword string) error
	ChangePassword(ctx context.Context, u *auth.User, oldPassword, newPassword string) error
	GenerateEmailChangeToken(ctx context.Context, u *auth.User, newEmail string, ttl time.Duration) (string, error)
	ChangeEmail(ctx context.Context, u *auth.User, tok string) error
	ReleaseIssuance(ctx context.Context, u *auth.User, purpose token.Purpose) error
}

// Notifier delivers token links.
type Notifier interface {
	SendConfirmation(ctx context.Context, to, tok string) error
	SendPasswordReset(ctx context.Context, to, tok string) error
	SendEmailChange(ctx context.Context, newEmail, tok string) error
}

// Handler serves the /auth endpoints.
type Handler struct {
	accounts Accounts
	notifier Notifier
	logger   *slog.Logger
}

// Option configures a Router.
type Option func(*routerConfig)

type routerConfig struct {
	logger         *slog.Logger
	requestTimeout time.Duration
	live           http.Handler
	ready          http.Handler
	limiter        ratelimiter.RateLimiter
}

func WithLogger(log *slog.Logger) Option {
	return func(c *routerConfig) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithRequestTimeout cancels request contexts after d.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *routerConfig) { c.requestTimeout = d }
}

// WithHealthChecks mounts the liveness and readiness handlers under /health.
func WithHealthChecks(live, ready http.Handler) Option {
	return func(c *routerConfig) {
		c.live, c.ready = live, ready
	}
}

// WithRateLimit limits /auth requests per client IP.
func WithRateLimit(limiter ratelimiter.RateLimiter) Option {
	return func(c *routerConfig) { c.limiter = limiter }
}

// NewRouter wires the middleware stack and the account routes.
func NewRouter(accounts Accounts, notifier Notifier, opts ...Option) http.Handler {
	cfg := routerConfig{logger: logger.Discard()}
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &Handler{accounts: accounts, notifier: notifier, logger: cfg.logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.logger))
	r.Use(recoverer(cfg.logger))
	if cfg.requestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.requestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not_found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	if cfg.live != nil {
		r.Method(http.MethodGet, "/health/live", cfg.live)
	}
	if cfg.ready != nil {
		r.Method(http.MethodGet, "/health/ready", cfg.ready)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Use(middleware.NoCache)
		if cfg.limiter != nil {
			r.Use(h.rateLimit(cfg.limiter))
		}

		r.Post("/register", h.Register)
		r.Post("/confirm", h.Confirm)
		r.Post("/confirm/resend", h.ResendConfirmation)
		r.Post("/password/forgot", h.ForgotPassword)
		r.Post("/password/reset", h.ResetPassword)
		r.Post("/password/change", h.ChangePassword)
		r.Post("/email/change", h.RequestEmailChange)
		r.Post("/email/confirm", h.ConfirmEmailChange)
	})

	return r
}
