package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// tokenSize is the session token length in bytes (hex-encoded on the wire).
const tokenSize = 32

// GenerateToken returns a fresh opaque session token (64 hex characters).
func GenerateToken() (string, error) {
	b := make([]byte, tokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SignToken produces the cookie value for a session token:
// "<token>.<hmac-sha256(token)>". The signature lets the middleware
// reject forged cookies before touching the session store.
func SignToken(token string, secret []byte) string {
	return token + "." + tokenMAC(token, secret)
}

// VerifySignedToken validates a cookie value and returns the embedded
// token. Returns false for any malformed or mis-signed value.
func VerifySignedToken(signed string, secret []byte) (string, bool) {
	token, mac, ok := strings.Cut(signed, ".")
	if !ok || token == "" {
		return "", false
	}
	if subtleEqual(mac, tokenMAC(token, secret)) {
		return token, true
	}
	return "", false
}

func tokenMAC(token string, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

func subtleEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
