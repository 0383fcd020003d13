package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// MinSecretLength is the shortest secret key base accepted.
const MinSecretLength = 16

// DeriveKey stretches the server's secret key base into a 32-byte key
// dedicated to one purpose.
//
// WHY DERIVE INSTEAD OF USING THE SECRET DIRECTLY?
// One configured secret feeds every signing need in the server. HKDF with a
// distinct purpose string per use gives each its own independent key, so a
// token minted for one purpose can never verify under another.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: secret key base must be at least %d characters", MinSecretLength)
	}
	if purpose == "" {
		return nil, errors.New("auth: key purpose is required")
	}

	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("auth: deriving %s key: %w", purpose, err)
	}
	return key, nil
}

// RandomSecret returns a fresh 64-character hex secret. Development servers
// use it when no secret is configured; cookies then die with the process.
func RandomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generating secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
