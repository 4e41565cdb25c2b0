package token

import "github.com/golang-jwt/jwt/v5"

// Claims is the signed body of a token.
type Claims struct {
	jwt.RegisteredClaims
	Purpose Purpose `json:"pur"`
	Payload string  `json:"pld,omitempty"`
}

// complete reports whether the claims carry every field verification relies on.
func (c *Claims) complete() bool {
	return c.Subject != "" && c.IssuedAt != nil && c.ExpiresAt != nil && c.Purpose != ""
}
