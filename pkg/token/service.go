package token

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/accountkit/pkg/logger"
)

// DefaultTTL is used when neither WithDefaultTTL nor WithTTL is given.
const DefaultTTL = time.Hour

// Service issues and verifies tokens. It is immutable after New and safe for
// concurrent use.
type Service struct {
	keys       map[Purpose][]byte
	now        func() time.Time
	defaultTTL time.Duration
	issuer     string
	logger     *slog.Logger
	parser     *jwt.Parser
}

// New derives the per-purpose signing keys from secret.
func New(secret []byte, opts ...Option) (*Service, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}

	keys, err := deriveKeys(secret)
	if err != nil {
		return nil, err
	}

	s := &Service{
		keys:       keys,
		now:        time.Now,
		defaultTTL: DefaultTTL,
		logger:     logger.Discard(),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// DefaultTTL returns the lifetime applied when Issue gets no TTL.
func (s *Service) DefaultTTL() time.Duration { return s.defaultTTL }

// Issue mints a token for subject and purpose.
func (s *Service) Issue(subject uuid.UUID, purpose Purpose, opts ...IssueOption) (string, error) {
	key, ok := s.keys[purpose]
	if !ok {
		return "", ErrUnknownPurpose
	}

	var o issueOptions
	for _, opt := range opts {
		opt(&o)
	}

	ttl := o.ttl
	switch {
	case ttl == 0:
		ttl = s.defaultTTL
	case ttl < time.Second:
		return "", ErrInvalidTTL
	}

	if purpose.RequiresPayload() && o.payload == "" {
		return "", ErrPayloadRequired
	}

	// exp rounds down so a token never outlives its ttl.
	issuedAt := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl).Truncate(time.Second)),
		},
		Purpose: purpose,
		Payload: o.payload,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", errors.Join(ErrSigningFailed, err)
	}

	return signed, nil
}

// Verify checks tok against the expected purpose. Checks run in order:
// decode, purpose, expiry, subject; the first failure decides the Reason.
func (s *Service) Verify(tok string, purpose Purpose, opts ...VerifyOption) Result {
	var o verifyOptions
	for _, opt := range opts {
		opt(&o)
	}

	claims := &Claims{}
	if _, err := s.parser.ParseWithClaims(tok, claims, s.signingKey); err != nil {
		return s.reject(purpose, ReasonDecodeFailure, "", err)
	}
	if !claims.complete() || (s.issuer != "" && claims.Issuer != s.issuer) {
		return s.reject(purpose, ReasonDecodeFailure, claims.ID, nil)
	}
	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return s.reject(purpose, ReasonDecodeFailure, claims.ID, err)
	}

	if claims.Purpose != purpose {
		return s.reject(purpose, ReasonPurposeMismatch, claims.ID, nil)
	}

	if s.now().After(claims.ExpiresAt.Time) {
		return s.reject(purpose, ReasonExpired, claims.ID, nil)
	}

	if o.subject != nil && *o.subject != subject {
		return s.reject(purpose, ReasonSubjectMismatch, claims.ID, nil)
	}

	return Result{
		Reason:    ReasonNone,
		Subject:   subject,
		Purpose:   claims.Purpose,
		Payload:   claims.Payload,
		ID:        claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
}

// signingKey picks the key from the still unverified purpose claim. The
// signature check that follows is what makes the claim trustworthy.
func (s *Service) signingKey(t *jwt.Token) (any, error) {
	claims, ok := t.Claims.(*Claims)
	if !ok {
		return nil, ErrDecodeFailure
	}
	key, ok := s.keys[claims.Purpose]
	if !ok {
		return nil, ErrUnknownPurpose
	}
	return key, nil
}

func (s *Service) reject(purpose Purpose, reason Reason, id string, err error) Result {
	s.logger.Debug("token rejected",
		logger.Component("token"),
		logger.Purpose(purpose),
		logger.Reason(reason),
		logger.TokenID(id),
		logger.Error(err),
	)
	return Result{Reason: reason}
}
