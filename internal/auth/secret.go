package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argonParams are the Argon2id cost parameters encoded in a PHC string.
type argonParams struct {
	time    uint32
	memory  uint32 // KiB
	threads uint8
}

// defaultArgon is used for new hashes (OWASP 2025 recommendation).
var defaultArgon = argonParams{time: 3, memory: 64 * 1024, threads: 1}

// Hashes come from the config file, so verification refuses parameters that
// would make every API request expensive.
const (
	maxArgonTime   = 10
	maxArgonMemory = 256 * 1024
	argonKeyLen    = 32
	argonSaltLen   = 16
)

// ErrInvalidHash is returned for a stored hash that is not an acceptable
// Argon2id PHC string.
var ErrInvalidHash = errors.New("auth: invalid key hash")

var b64 = base64.RawStdEncoding

// HashSecret hashes an API key with Argon2id and returns the PHC string
// written to security.api_keys[].hash:
//
//	$argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
func HashSecret(secret string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	p := defaultArgon
	hash := argon2.IDKey([]byte(secret), salt, p.time, p.memory, p.threads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		b64.EncodeToString(salt), b64.EncodeToString(hash),
	), nil
}

// VerifySecret checks a presented key against a PHC hash in constant time.
func VerifySecret(secret, encodedHash string) (bool, error) {
	salt, hash, p, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}
	candidate := argon2.IDKey([]byte(secret), salt, p.time, p.memory, p.threads, uint32(len(hash))) //nolint:gosec // G115: hash length is bounded by decodePHC
	return subtle.ConstantTimeCompare(hash, candidate) == 1, nil
}

// decodePHC splits an Argon2id PHC string and bounds its parameters.
func decodePHC(encoded string) (salt, hash []byte, p argonParams, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 { //nolint:mnd // "", alg, version, params, salt, hash
		return nil, nil, p, fmt.Errorf("%w: expected 6 fields", ErrInvalidHash)
	}
	if parts[1] != "argon2id" {
		return nil, nil, p, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidHash, parts[1])
	}

	var version int
	if _, scanErr := fmt.Sscanf(parts[2], "v=%d", &version); scanErr != nil || version != argon2.Version {
		return nil, nil, p, fmt.Errorf("%w: version %q", ErrInvalidHash, parts[2])
	}
	if _, scanErr := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); scanErr != nil {
		return nil, nil, p, fmt.Errorf("%w: parameters %q", ErrInvalidHash, parts[3])
	}
	if p.time == 0 || p.time > maxArgonTime || p.memory == 0 || p.memory > maxArgonMemory || p.threads == 0 {
		return nil, nil, p, fmt.Errorf("%w: parameters out of range %q", ErrInvalidHash, parts[3])
	}

	if salt, err = b64.DecodeString(parts[4]); err != nil {
		return nil, nil, p, fmt.Errorf("%w: salt: %w", ErrInvalidHash, err)
	}
	if hash, err = b64.DecodeString(parts[5]); err != nil || len(hash) == 0 || len(hash) > 64 {
		return nil, nil, p, fmt.Errorf("%w: hash", ErrInvalidHash)
	}
	return salt, hash, p, nil
}
