package auth

import (
	"log/slog"
	"time"
)

// Option configures a Service during construction.
type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithBcryptCost sets the bcrypt cost for password hashing.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// WithConfirmTTL sets the default lifetime of confirmation tokens.
func WithConfirmTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.confirmTTL = ttl
	}
}

// WithResetTTL sets the default lifetime of password reset tokens.
func WithResetTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.resetTTL = ttl
	}
}

// WithEmailChangeTTL sets the default lifetime of email change tokens.
func WithEmailChangeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.emailChangeTTL = ttl
	}
}

// WithThrottle allows at most one token per purpose and user within window.
// A nil throttle or a non-positive window disables throttling.
func WithThrottle(t Throttle, window time.Duration) Option {
	return func(s *Service) {
		s.throttle = t
		s.throttleWindow = window
	}
}

// WithPasswordPolicy sets the minimum password length in bytes.
func WithPasswordPolicy(minLen int) Option {
	return func(s *Service) {
		if minLen > 0 {
			s.minPasswordLen = minLen
		}
	}
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
