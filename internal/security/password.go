package security

import "golang.org/x/crypto/bcrypt"

// GooglePassword is the sentinel stored in place of a hash for accounts
// that only ever authenticated through Google. It is not a valid bcrypt
// hash, so CheckPassword can never succeed against it.
const GooglePassword = "GOOGLE_AUTH"

const MinPasswordLen = 6

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), 12)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
