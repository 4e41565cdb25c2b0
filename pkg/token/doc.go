// Package token issues and verifies signed, expiring, purpose-tagged tokens
// bound to a user identifier.
//
// Tokens are compact JWTs (HS256). Each purpose signs with its own key,
// derived from the service secret with HKDF-SHA256, so a token minted for one
// flow can never be redeemed by another. A token may carry a single string
// payload; the change_email purpose requires one (the pending address).
//
// Verification never returns a Go error for a bad token. It returns a Result
// whose Reason says why the token was rejected. Checks run in a fixed order:
// decode (format and signature), purpose, expiry, subject. The payload
// conflict check belongs to the caller, because only the caller can see the
// store.
//
// # Usage
//
//	import "github.com/dmitrymomot/accountkit/pkg/token"
//
//	svc, err := token.New(secret, token.WithDefaultTTL(time.Hour))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tok, err := svc.Issue(user.ID, token.PurposeConfirm)
//	if err != nil {
//	    return err
//	}
//
//	res := svc.Verify(tok, token.PurposeConfirm, token.ExpectSubject(user.ID))
//	if !res.OK() {
//	    return res.Err() // errors.Is(err, token.ErrInvalidToken) == true
//	}
//
// Expiry is measured in whole seconds: a token issued with a one second TTL
// is still accepted one second later and rejected after two.
//
// There is no replay protection beyond expiry. Callers that need single use
// semantics must make the redeemed effect idempotent or record the token ID.
package token
