package token

import (
	"errors"
	"fmt"
)

var (
	ErrMissingSecret   = errors.New("token secret is required")
	ErrUnknownPurpose  = errors.New("unknown token purpose")
	ErrInvalidTTL      = errors.New("token ttl must be positive")
	ErrPayloadRequired = errors.New("token purpose requires a payload")
	ErrSigningFailed   = errors.New("failed to sign token")
	ErrKeyDerivation   = errors.New("failed to derive signing key")
)

// ErrInvalidToken is the base for every verification failure.
var ErrInvalidToken = errors.New("invalid token")

// Verification failures, one per Reason.
var (
	ErrDecodeFailure   = fmt.Errorf("%w: malformed or forged", ErrInvalidToken)
	ErrExpired         = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrPurposeMismatch = fmt.Errorf("%w: purpose mismatch", ErrInvalidToken)
	ErrSubjectMismatch = fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	ErrPayloadConflict = fmt.Errorf("%w: payload conflicts with another account", ErrInvalidToken)
)
