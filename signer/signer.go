// Package signer produces the request tokens expected by the statistics API.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// TokenLength is the number of hex characters kept from the HMAC.
const TokenLength = 32

// Signer derives an opaque token from a request parameter.
type Signer interface {
	Sign(input string) string
}

// HMAC signs with HMAC-SHA256 over a shared secret.
type HMAC struct {
	secret []byte
}

// NewHMAC creates an HMAC signer for secret.
func NewHMAC(secret string) *HMAC {
	return &HMAC{secret: []byte(secret)}
}

// Sign returns the first TokenLength hex characters of HMAC-SHA256(input).
func (s *HMAC) Sign(input string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(input))
	return hex.EncodeToString(mac.Sum(nil))[:TokenLength]
}

// Verify reports whether token was produced by Sign(input).
func (s *HMAC) Verify(input, token string) bool {
	return hmac.Equal([]byte(s.Sign(input)), []byte(token))
}

// Func adapts a plain function to Signer.
type Func func(input string) string

// Sign calls f(input).
func (f Func) Sign(input string) string {
	return f(input)
}
