package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password the codec accepts. bcrypt ignores
// everything past 72 bytes, so policy rejects longer inputs before they get
// here rather than silently truncating.
const MaxPasswordBytes = 72

// HashPassword derives a salted bcrypt hash from the plaintext.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", &HashingError{Err: err}
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
// A mismatch is (false, nil); an error means the stored value is not a
// valid bcrypt hash.
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, &HashingError{Err: err}
}
