// Package tokens generates opaque secrets and stores them as salted HMAC digests.
package tokens

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
)

// Hasher digests secrets with HMAC-SHA512 keyed by a salt.
type Hasher struct {
	salt []byte
}

// NewHasher returns a hasher keyed by salt.
func NewHasher(salt string) *Hasher {
	return &Hasher{salt: []byte(salt)}
}

// Hash returns the hex digest stored in place of secret.
func (h *Hasher) Hash(secret string) string {
	mac := hmac.New(sha512.New, h.salt)
	_, _ = mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// Equal reports whether secret digests to hash, in constant time.
func (h *Hasher) Equal(secret, hash string) bool {
	return hmac.Equal([]byte(h.Hash(secret)), []byte(hash))
}

// Generate returns n random bytes hex encoded.
func Generate(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("token length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
