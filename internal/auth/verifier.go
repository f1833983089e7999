package auth

import (
	"sync"
)

// maxVerified bounds the memo of keys that already passed verification.
const maxVerified = 64

// Verifier checks presented keys against one configured Argon2id hash.
// Keys that verified once are remembered by fingerprint so repeated
// requests skip the expensive hash.
type Verifier struct {
	hash string

	mu       sync.RWMutex
	verified map[string]struct{}
}

// NewVerifier returns a Verifier for encodedHash.
func NewVerifier(encodedHash string) (*Verifier, error) {
	if err := ValidateHash(encodedHash); err != nil {
		return nil, err
	}
	return &Verifier{
		hash:     encodedHash,
		verified: make(map[string]struct{}),
	}, nil
}

// Verify reports whether key matches the configured hash.
func (v *Verifier) Verify(key string) bool {
	if key == "" {
		return false
	}

	fp := Fingerprint(key)

	v.mu.RLock()
	_, ok := v.verified[fp]
	v.mu.RUnlock()
	if ok {
		return true
	}

	match, err := VerifyKey(key, v.hash)
	if err != nil || !match {
		return false
	}

	v.mu.Lock()
	if len(v.verified) >= maxVerified {
		v.verified = make(map[string]struct{})
	}
	v.verified[fp] = struct{}{}
	v.mu.Unlock()

	return true
}
