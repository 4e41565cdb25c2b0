package token

// Purpose tags a token with the flow it was issued for.
type Purpose string

const (
	PurposeConfirm       Purpose = "confirm"
	PurposeResetPassword Purpose = "reset_password"
	PurposeChangeEmail   Purpose = "change_email"
)

// Purposes lists every purpose the service can sign for.
var Purposes = []Purpose{PurposeConfirm, PurposeResetPassword, PurposeChangeEmail}

// Valid reports whether p is one of the known purposes.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeConfirm, PurposeResetPassword, PurposeChangeEmail:
		return true
	}
	return false
}

// RequiresPayload reports whether tokens of this purpose must carry a payload.
func (p Purpose) RequiresPayload() bool {
	return p == PurposeChangeEmail
}

func (p Purpose) String() string { return string(p) }
