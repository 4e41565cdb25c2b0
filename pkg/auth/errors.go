package auth

import "errors"

// Account errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrEmailTaken         = errors.New("email already taken")
	ErrEmailUnchanged     = errors.New("email unchanged")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Input validation errors
var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrPasswordRequired = errors.New("password is required")
	ErrWeakPassword     = errors.New("password does not meet security requirements")
)

// Token issuance errors
var (
	ErrTooManyRequests = errors.New("a token was issued recently, try again later")
)

// IsValidationError reports whether err was caused by bad user input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrWeakPassword)
}
