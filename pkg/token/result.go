package token

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Reason explains why a token was rejected.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonDecodeFailure
	ReasonExpired
	ReasonPurposeMismatch
	ReasonSubjectMismatch
	ReasonPayloadConflict
)

var reasonNames = map[Reason]string{
	ReasonNone:            "none",
	ReasonDecodeFailure:   "decode_failure",
	ReasonExpired:         "expired",
	ReasonPurposeMismatch: "purpose_mismatch",
	ReasonSubjectMismatch: "subject_mismatch",
	ReasonPayloadConflict: "payload_conflict",
}

var reasonErrors = map[Reason]error{
	ReasonDecodeFailure:   ErrDecodeFailure,
	ReasonExpired:         ErrExpired,
	ReasonPurposeMismatch: ErrPurposeMismatch,
	ReasonSubjectMismatch: ErrSubjectMismatch,
	ReasonPayloadConflict: ErrPayloadConflict,
}

func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return "unknown"
}

// Err returns the sentinel error for r, or nil for ReasonNone.
func (r Reason) Err() error {
	if r == ReasonNone {
		return nil
	}
	if err, ok := reasonErrors[r]; ok {
		return err
	}
	return ErrInvalidToken
}

// ReasonOf maps a verification error back to its Reason.
// Errors that are not token failures map to ReasonNone.
func ReasonOf(err error) Reason {
	for r, sentinel := range reasonErrors {
		if errors.Is(err, sentinel) {
			return r
		}
	}
	if errors.Is(err, ErrInvalidToken) {
		return ReasonDecodeFailure
	}
	return ReasonNone
}

// Result is the outcome of Verify. On success Reason is ReasonNone and the
// decoded fields are set; on failure only Reason is meaningful.
type Result struct {
	Reason    Reason
	Subject   uuid.UUID
	Purpose   Purpose
	Payload   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// OK reports whether the token was accepted.
func (r Result) OK() bool { return r.Reason == ReasonNone }

// Err returns nil for an accepted token and a sentinel wrapping
// ErrInvalidToken otherwise.
func (r Result) Err() error { return r.Reason.Err() }
