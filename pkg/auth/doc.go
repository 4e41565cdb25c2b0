// Package auth holds the account model and the flows that redeem tokens
// issued by package token: email confirmation, password reset and email
// change, plus registration and credential checks.
//
// Persistence is abstracted behind Store. The package ships MemoryStore;
// PostgreSQL and MongoDB implementations live in the pgstore and mongostore
// subpackages. Store.UpdateUser is the atomicity point for every redemption:
// it runs a read-modify-write under a lock or transaction and reports
// ErrEmailTaken when the new state would duplicate another account's email.
//
// # Usage
//
//	tokens, _ := token.New(secret)
//	svc := auth.NewService(auth.NewMemoryStore(), tokens,
//		auth.WithLogger(log),
//		auth.WithConfirmTTL(24*time.Hour),
//		auth.WithThrottle(auth.NewMemoryThrottle(), time.Minute),
//	)
//
//	u, err := svc.Register(ctx, "user@example.com", "cat")
//	tok, err := svc.GenerateConfirmationToken(ctx, u, 0)
//	// deliver tok out of band, then:
//	err = svc.Confirm(ctx, u, tok) // u.Confirmed == true
//
// # Errors
//
// Redemption methods return the token package sentinels (token.ErrExpired,
// token.ErrSubjectMismatch, ...), all of which match token.ErrInvalidToken
// with errors.Is. A change-email token whose address was claimed by another
// account after issuance fails with token.ErrPayloadConflict and leaves the
// redeeming account unchanged.
//
// Passwords are stored as bcrypt hashes only. User has no accessor for the
// plain password and never serialises the hash.
package auth
