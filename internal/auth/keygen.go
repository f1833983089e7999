package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// Key format: crm_{secret}
// Example: crm_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b
const (
	KeyPrefix    = "crm_"
	KeySecretLen = 32 // hex encoded 16 bytes
)

var keyFormatRegex = regexp.MustCompile(`^crm_[a-f0-9]{32}$`)

// GeneratedKey contains a newly generated API key and its hash.
type GeneratedKey struct {
	Plaintext string // Full key (show once only)
	Hash      string // Argon2id hash for API_KEY_HASH
}

// GenerateKey creates a new random API key and its Argon2id hash.
func GenerateKey() (*GeneratedKey, error) {
	secret := make([]byte, KeySecretLen/2)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	plaintext := KeyPrefix + hex.EncodeToString(secret)

	hash, err := HashKey(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash key: %w", err)
	}

	return &GeneratedKey{Plaintext: plaintext, Hash: hash}, nil
}

// ValidateKeyFormat checks if key matches the generated key format.
// Operators may still configure keys of any shape.
func ValidateKeyFormat(key string) bool {
	return keyFormatRegex.MatchString(key)
}
