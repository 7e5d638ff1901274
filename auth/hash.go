package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const saltBytes = 32

// HashPassword returns "salthex$digesthex" where the digest is SHA-256 over
// the password concatenated with the hex salt. The salt is fresh per call, so
// hashing the same password twice yields different strings.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	saltHex := hex.EncodeToString(salt)
	digest := sha256.Sum256([]byte(password + saltHex))
	return saltHex + "$" + hex.EncodeToString(digest[:]), nil
}

// VerifyPassword recomputes the digest with the stored salt and compares.
// A malformed stored hash is a verification failure, never an error.
func VerifyPassword(password, hashed string) bool {
	saltHex, digestHex, ok := strings.Cut(hashed, "$")
	if !ok {
		return false
	}
	want, err := hex.DecodeString(digestHex)
	if err != nil {
		return false
	}
	got := sha256.Sum256([]byte(password + saltHex))
	return subtle.ConstantTimeCompare(got[:], want) == 1
}
