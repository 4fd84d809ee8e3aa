package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy behind each bearer token (256 bits).
const tokenBytes = 32

// GenerateToken produces an opaque bearer token from the system CSPRNG.
// The value is lowercase hex, safe for header transport.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
