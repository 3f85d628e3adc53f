// Package crypto provides credential derivation and session token
// utilities for Reelhouse.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters for password derivation. Calibrated for interactive
// logins: memory-hard enough to resist GPU/ASIC brute force while keeping
// a single derivation in the tens of milliseconds.
const (
	scryptN = 32768
	scryptR = 8
	scryptP = 1

	// saltSize is the random salt length in bytes (hex-encoded in storage).
	saltSize = 16

	// keySize is the derived key length in bytes.
	keySize = 64
)

// ErrMalformedSecret indicates a stored secret that claims the hashed
// format but cannot be parsed (missing or non-hex salt/key part).
// Verification against such a secret fails closed.
var ErrMalformedSecret = errors.New("malformed stored secret")

// SecretKind tags the storage format of a credential secret.
type SecretKind int

const (
	// SecretPlaintext is the legacy unsalted format: the secret is the
	// password itself. A transitional state, not a designed feature;
	// rows are upgraded on the next successful login.
	SecretPlaintext SecretKind = iota

	// SecretDerived is the "<hex key>.<hex salt>" scrypt format.
	SecretDerived
)

// Secret is a parsed stored credential.
type Secret struct {
	Kind SecretKind

	// Plaintext holds the stored value for SecretPlaintext.
	Plaintext string

	// Key and Salt hold the decoded pair for SecretDerived.
	Key  []byte
	Salt string
}

// ParseSecret classifies a stored secret by its self-describing format:
// a "." separator signals the derived format, its absence the legacy
// plaintext one.
func ParseSecret(stored string) (Secret, error) {
	if !strings.Contains(stored, ".") {
		return Secret{Kind: SecretPlaintext, Plaintext: stored}, nil
	}

	keyHex, salt, _ := strings.Cut(stored, ".")
	if salt == "" {
		return Secret{}, fmt.Errorf("%w: missing salt", ErrMalformedSecret)
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return Secret{}, fmt.Errorf("%w: %v", ErrMalformedSecret, err)
	}

	return Secret{Kind: SecretDerived, Key: key, Salt: salt}, nil
}

// HashPassword derives a storable secret from a plaintext password.
// A fresh 16-byte salt is generated per call, so two hashes of the same
// password differ while both still verify.
func HashPassword(password string) (string, error) {
	saltBytes := make([]byte, saltSize)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	salt := hex.EncodeToString(saltBytes)

	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}

	return hex.EncodeToString(key) + "." + salt, nil
}

// VerifyPassword reports whether the supplied password matches the
// stored secret. Malformed secrets never panic: they return false along
// with ErrMalformedSecret so the caller can log the corruption. The
// legacy plaintext path compares in constant time; the derived path
// re-derives with the stored salt and compares keys in constant time.
func VerifyPassword(password, stored string) (bool, error) {
	secret, err := ParseSecret(stored)
	if err != nil {
		return false, err
	}

	switch secret.Kind {
	case SecretPlaintext:
		return subtle.ConstantTimeCompare([]byte(password), []byte(secret.Plaintext)) == 1, nil
	default:
		key, err := scrypt.Key([]byte(password), []byte(secret.Salt), scryptN, scryptR, scryptP, keySize)
		if err != nil {
			return false, fmt.Errorf("failed to derive key: %w", err)
		}
		if len(key) != len(secret.Key) {
			return false, nil
		}
		return subtle.ConstantTimeCompare(key, secret.Key) == 1, nil
	}
}

// NeedsRehash reports whether a stored secret should be upgraded to the
// derived format on the next successful verification.
func NeedsRehash(stored string) bool {
	secret, err := ParseSecret(stored)
	return err == nil && secret.Kind == SecretPlaintext
}
