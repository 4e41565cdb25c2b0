package token

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Option configures a Service during construction.
type Option func(*Service)

// WithClock replaces time.Now. Tests use it to move time without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDefaultTTL sets the lifetime used when Issue gets no TTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= time.Second {
			s.defaultTTL = ttl
		}
	}
}

// WithIssuer stamps tokens with iss and rejects tokens from another issuer.
func WithIssuer(issuer string) Option {
	return func(s *Service) {
		s.issuer = issuer
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// IssueOption configures a single Issue call.
type IssueOption func(*issueOptions)

type issueOptions struct {
	payload string
	ttl     time.Duration
}

// WithPayload attaches a payload, e.g. the pending email for change_email.
func WithPayload(payload string) IssueOption {
	return func(o *issueOptions) {
		o.payload = payload
	}
}

// WithTTL overrides the default lifetime. Zero keeps the default.
func WithTTL(ttl time.Duration) IssueOption {
	return func(o *issueOptions) {
		o.ttl = ttl
	}
}

// VerifyOption configures a single Verify call.
type VerifyOption func(*verifyOptions)

type verifyOptions struct {
	subject *uuid.UUID
}

// ExpectSubject rejects tokens issued for any other user.
func ExpectSubject(id uuid.UUID) VerifyOption {
	return func(o *verifyOptions) {
		o.subject = &id
	}
}
