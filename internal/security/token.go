package security

import (
	"crypto/rand"
	"encoding/base64"
)

// NewResetToken returns an opaque 256-bit token, base64url encoded.
// The token is a capability: whoever holds it may set a new password,
// so it must come from a CSPRNG.
func NewResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
