package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// apiKeyPrefix marks generated keys so they are recognisable in logs and
// secret scanners.
const apiKeyPrefix = "glx_"

// APIKey is a configured key with its Argon2id hash.
type APIKey struct {
	Name string
	Hash string
	Role Role
}

// KeyRing authenticates API keys against their hashes. Verified keys are
// remembered by digest so Argon2id runs once per key and process.
//
// Thread Safety: All methods are safe for concurrent use.
type KeyRing struct {
	keys []APIKey

	mu       sync.Mutex
	verified map[[sha256.Size]byte]Principal
}

// NewKeyRing validates keys and returns a ring.
func NewKeyRing(keys []APIKey) (*KeyRing, error) {
	for _, k := range keys {
		if k.Name == "" {
			return nil, fmt.Errorf("api key name is required")
		}
		if !IsValidRole(k.Role) {
			return nil, fmt.Errorf("api key %s: %w: %q", k.Name, ErrInvalidRole, k.Role)
		}
		if _, _, _, err := decodePHC(k.Hash); err != nil {
			return nil, fmt.Errorf("api key %s: %w", k.Name, err)
		}
	}
	return &KeyRing{
		keys:     keys,
		verified: make(map[[sha256.Size]byte]Principal),
	}, nil
}

// Len returns the number of configured keys. A nil ring has none.
func (r *KeyRing) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Authenticate returns the principal for a raw key.
//
// Returns:
//   - Principal: the key's name and role
//   - error: ErrInvalidAPIKey if no configured key matches
func (r *KeyRing) Authenticate(raw string) (Principal, error) {
	if r == nil || raw == "" {
		return Principal{}, ErrInvalidAPIKey
	}

	digest := sha256.Sum256([]byte(raw))
	r.mu.Lock()
	p, ok := r.verified[digest]
	r.mu.Unlock()
	if ok {
		return p, nil
	}

	for _, k := range r.keys {
		match, err := VerifySecret(raw, k.Hash)
		if err != nil || !match {
			continue
		}
		p = Principal{Subject: k.Name, Role: k.Role, Method: MethodAPIKey}
		r.mu.Lock()
		r.verified[digest] = p
		r.mu.Unlock()
		return p, nil
	}
	return Principal{}, ErrInvalidAPIKey
}

// GenerateAPIKey creates a random 256-bit key.
func GenerateAPIKey() (string, error) {
	b := make([]byte, 32) //nolint:mnd // 256-bit key
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return apiKeyPrefix + hex.EncodeToString(b), nil
}
