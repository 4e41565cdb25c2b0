package token_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/accountkit/pkg/token"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newService(t *testing.T, opts ...token.Option) (*token.Service, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	svc, err := token.New(testSecret, append([]token.Option{token.WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)
	return svc, clock
}

func tamperMiddle(tok string) string {
	parts := strings.Split(tok, ".")
	b := []byte(parts[1])
	i := len(b) / 2
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	parts[1] = string(b)
	return strings.Join(parts, ".")
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := token.New(nil)
	assert.ErrorIs(t, err, token.ErrMissingSecret)

	_, err = token.New([]byte{})
	assert.ErrorIs(t, err, token.ErrMissingSecret)

	svc, err := token.New(testSecret)
	require.NoError(t, err)
	assert.Equal(t, token.DefaultTTL, svc.DefaultTTL())

	svc, err = token.New(testSecret, token.WithDefaultTTL(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, svc.DefaultTTL())
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tests := []struct {
		name    string
		purpose token.Purpose
		payload string
	}{
		{name: "confirm", purpose: token.PurposeConfirm},
		{name: "reset password", purpose: token.PurposeResetPassword},
		{name: "change email", purpose: token.PurposeChangeEmail, payload: "new@example.com"},
		{name: "confirm with payload", purpose: token.PurposeConfirm, payload: "extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, clock := newService(t)

			tok, err := svc.Issue(userID, tt.purpose, token.WithPayload(tt.payload))
			require.NoError(t, err)
			assert.Len(t, strings.Split(tok, "."), 3)

			res := svc.Verify(tok, tt.purpose, token.ExpectSubject(userID))
			require.True(t, res.OK(), "reason: %s", res.Reason)
			require.NoError(t, res.Err())
			assert.Equal(t, userID, res.Subject)
			assert.Equal(t, tt.purpose, res.Purpose)
			assert.Equal(t, tt.payload, res.Payload)
			assert.NotEmpty(t, res.ID)
			assert.True(t, res.IssuedAt.Equal(clock.Now()))
			assert.True(t, res.ExpiresAt.Equal(clock.Now().Add(token.DefaultTTL)))
		})
	}
}

func TestVerifyWithoutExpectedSubject(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	userID := uuid.New()

	tok, err := svc.Issue(userID, token.PurposeResetPassword)
	require.NoError(t, err)

	res := svc.Verify(tok, token.PurposeResetPassword)
	require.True(t, res.OK())
	assert.Equal(t, userID, res.Subject)
}

func TestIssueErrors(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	userID := uuid.New()

	tests := []struct {
		name    string
		purpose token.Purpose
		opts    []token.IssueOption
		wantErr error
	}{
		{name: "unknown purpose", purpose: token.Purpose("login"), wantErr: token.ErrUnknownPurpose},
		{name: "negative ttl", purpose: token.PurposeConfirm, opts: []token.IssueOption{token.WithTTL(-time.Second)}, wantErr: token.ErrInvalidTTL},
		{name: "sub-second ttl", purpose: token.PurposeConfirm, opts: []token.IssueOption{token.WithTTL(500 * time.Millisecond)}, wantErr: token.ErrInvalidTTL},
		{name: "change email without payload", purpose: token.PurposeChangeEmail, wantErr: token.ErrPayloadRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tok, err := svc.Issue(userID, tt.purpose, tt.opts...)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, tok)
		})
	}
}

func TestExpiry(t *testing.T) {
	t.Parallel()

	t.Run("one second ttl accepted immediately", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		userID := uuid.New()
		tok, err := svc.Issue(userID, token.PurposeConfirm, token.WithTTL(time.Second))
		require.NoError(t, err)

		assert.True(t, svc.Verify(tok, token.PurposeConfirm, token.ExpectSubject(userID)).OK())
	})

	t.Run("accepted up to the expiry second", func(t *testing.T) {
		t.Parallel()
		svc, clock := newService(t)
		userID := uuid.New()
		tok, err := svc.Issue(userID, token.PurposeConfirm, token.WithTTL(time.Second))
		require.NoError(t, err)

		clock.Advance(time.Second)
		assert.True(t, svc.Verify(tok, token.PurposeConfirm).OK())
	})

	t.Run("rejected two seconds later", func(t *testing.T) {
		t.Parallel()
		svc, clock := newService(t)
		userID := uuid.New()
		tok, err := svc.Issue(userID, token.PurposeConfirm, token.WithTTL(time.Second))
		require.NoError(t, err)

		clock.Advance(2 * time.Second)
		res := svc.Verify(tok, token.PurposeConfirm, token.ExpectSubject(userID))
		assert.Equal(t, token.ReasonExpired, res.Reason)
		assert.ErrorIs(t, res.Err(), token.ErrExpired)
		assert.ErrorIs(t, res.Err(), token.ErrInvalidToken)
	})

	t.Run("rejected once age exceeds ttl", func(t *testing.T) {
		t.Parallel()
		svc, clock := newService(t)
		tok, err := svc.Issue(uuid.New(), token.PurposeConfirm, token.WithTTL(time.Second))
		require.NoError(t, err)

		clock.Advance(1500 * time.Millisecond)
		assert.Equal(t, token.ReasonExpired, svc.Verify(tok, token.PurposeConfirm).Reason)
	})

	t.Run("sub-second issue time rounds expiry down", func(t *testing.T) {
		t.Parallel()
		svc, clock := newService(t)
		clock.Advance(700 * time.Millisecond)
		tok, err := svc.Issue(uuid.New(), token.PurposeConfirm, token.WithTTL(time.Second))
		require.NoError(t, err)

		clock.Advance(300 * time.Millisecond)
		assert.True(t, svc.Verify(tok, token.PurposeConfirm).OK())

		clock.Advance(900 * time.Millisecond)
		assert.Equal(t, token.ReasonExpired, svc.Verify(tok, token.PurposeConfirm).Reason, "age 1.2s")
	})

	t.Run("default ttl", func(t *testing.T) {
		t.Parallel()
		svc, clock := newService(t, token.WithDefaultTTL(time.Minute))
		tok, err := svc.Issue(uuid.New(), token.PurposeResetPassword)
		require.NoError(t, err)

		clock.Advance(time.Minute)
		assert.True(t, svc.Verify(tok, token.PurposeResetPassword).OK())
		clock.Advance(time.Second)
		assert.Equal(t, token.ReasonExpired, svc.Verify(tok, token.PurposeResetPassword).Reason)
	})
}

func TestVerifyRejections(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	userID := uuid.New()

	confirmTok, err := svc.Issue(userID, token.PurposeConfirm)
	require.NoError(t, err)

	other, err := token.New([]byte("another-secret-another-secret-00"))
	require.NoError(t, err)
	foreignTok, err := other.Issue(userID, token.PurposeConfirm)
	require.NoError(t, err)

	tests := []struct {
		name    string
		tok     string
		purpose token.Purpose
		opts    []token.VerifyOption
		want    token.Reason
		wantErr error
	}{
		{name: "empty", tok: "", purpose: token.PurposeConfirm, want: token.ReasonDecodeFailure, wantErr: token.ErrDecodeFailure},
		{name: "garbage", tok: "not-a-token", purpose: token.PurposeConfirm, want: token.ReasonDecodeFailure, wantErr: token.ErrDecodeFailure},
		{name: "one character changed", tok: tamperMiddle(confirmTok), purpose: token.PurposeConfirm, want: token.ReasonDecodeFailure, wantErr: token.ErrDecodeFailure},
		{name: "character appended", tok: confirmTok + "x", purpose: token.PurposeConfirm, want: token.ReasonDecodeFailure, wantErr: token.ErrDecodeFailure},
		{name: "signed with another secret", tok: foreignTok, purpose: token.PurposeConfirm, want: token.ReasonDecodeFailure, wantErr: token.ErrDecodeFailure},
		{name: "purpose mismatch", tok: confirmTok, purpose: token.PurposeResetPassword, want: token.ReasonPurposeMismatch, wantErr: token.ErrPurposeMismatch},
		{name: "unknown expected purpose", tok: confirmTok, purpose: token.Purpose("login"), want: token.ReasonPurposeMismatch, wantErr: token.ErrPurposeMismatch},
		{name: "subject mismatch", tok: confirmTok, purpose: token.PurposeConfirm, opts: []token.VerifyOption{token.ExpectSubject(uuid.New())}, want: token.ReasonSubjectMismatch, wantErr: token.ErrSubjectMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := svc.Verify(tt.tok, tt.purpose, tt.opts...)
			assert.False(t, res.OK())
			assert.Equal(t, tt.want, res.Reason)
			assert.ErrorIs(t, res.Err(), tt.wantErr)
			assert.ErrorIs(t, res.Err(), token.ErrInvalidToken)
			assert.Equal(t, uuid.Nil, res.Subject)
		})
	}
}

func TestVerifyRejectsForeignAlgorithms(t *testing.T) {
	t.Parallel()
	svc, clock := newService(t)
	now := clock.Now()

	claims := token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Purpose: token.PurposeConfirm,
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.Equal(t, token.ReasonDecodeFailure, svc.Verify(unsigned, token.PurposeConfirm).Reason)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)
	assert.Equal(t, token.ReasonDecodeFailure, svc.Verify(hs512, token.PurposeConfirm).Reason)

	// HS256 signed with the raw secret instead of the derived purpose key.
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	assert.Equal(t, token.ReasonDecodeFailure, svc.Verify(raw, token.PurposeConfirm).Reason)
}

func TestVerifyOrdering(t *testing.T) {
	t.Parallel()

	t.Run("purpose before expiry", func(t *testing.T) {
		t.Parallel()
		svc, clock := newService(t)
		tok, err := svc.Issue(uuid.New(), token.PurposeConfirm, token.WithTTL(time.Second))
		require.NoError(t, err)
		clock.Advance(time.Hour)

		assert.Equal(t, token.ReasonPurposeMismatch, svc.Verify(tok, token.PurposeResetPassword).Reason)
	})

	t.Run("expiry before subject", func(t *testing.T) {
		t.Parallel()
		svc, clock := newService(t)
		tok, err := svc.Issue(uuid.New(), token.PurposeConfirm, token.WithTTL(time.Second))
		require.NoError(t, err)
		clock.Advance(time.Hour)

		res := svc.Verify(tok, token.PurposeConfirm, token.ExpectSubject(uuid.New()))
		assert.Equal(t, token.ReasonExpired, res.Reason)
	})

	t.Run("purpose before subject", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		tok, err := svc.Issue(uuid.New(), token.PurposeChangeEmail, token.WithPayload("a@b.co"))
		require.NoError(t, err)

		res := svc.Verify(tok, token.PurposeConfirm, token.ExpectSubject(uuid.New()))
		assert.Equal(t, token.ReasonPurposeMismatch, res.Reason)
	})
}

func TestIssuer(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()

	a, err := token.New(testSecret, token.WithIssuer("a"), token.WithClock(clock.Now))
	require.NoError(t, err)
	b, err := token.New(testSecret, token.WithIssuer("b"), token.WithClock(clock.Now))
	require.NoError(t, err)

	tok, err := a.Issue(uuid.New(), token.PurposeConfirm)
	require.NoError(t, err)

	assert.True(t, a.Verify(tok, token.PurposeConfirm).OK())
	assert.Equal(t, token.ReasonDecodeFailure, b.Verify(tok, token.PurposeConfirm).Reason)
}

func TestTokensAreUnique(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	userID := uuid.New()

	first, err := svc.Issue(userID, token.PurposeConfirm)
	require.NoError(t, err)
	second, err := svc.Issue(userID, token.PurposeConfirm)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, svc.Verify(first, token.PurposeConfirm).ID, svc.Verify(second, token.PurposeConfirm).ID)
}

func TestConcurrentUse(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := uuid.New()
			tok, err := svc.Issue(id, token.PurposeResetPassword)
			if err != nil {
				errs <- err
				return
			}
			if res := svc.Verify(tok, token.PurposeResetPassword, token.ExpectSubject(id)); !res.OK() {
				errs <- res.Err()
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestReasonOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, token.ReasonExpired, token.ReasonOf(token.ErrExpired))
	assert.Equal(t, token.ReasonPayloadConflict, token.ReasonOf(errors.Join(errors.New("ctx"), token.ErrPayloadConflict)))
	assert.Equal(t, token.ReasonDecodeFailure, token.ReasonOf(token.ErrInvalidToken))
	assert.Equal(t, token.ReasonNone, token.ReasonOf(errors.New("other")))
	assert.Equal(t, token.ReasonNone, token.ReasonOf(nil))

	assert.Equal(t, "payload_conflict", token.ReasonPayloadConflict.String())
	assert.Equal(t, "unknown", token.Reason(99).String())
	assert.NoError(t, token.ReasonNone.Err())
}
