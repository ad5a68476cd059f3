package chapa

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// Supported signature algorithms.
const (
	AlgHMACSHA256 = "hmac-sha256"
	AlgHMACSHA512 = "hmac-sha512"
)

// Verifier holds the shared webhook secret. It is built once at startup and
// is read-only afterwards.
type Verifier struct {
	secret    []byte
	algorithm string
	newHash   func() hash.Hash
	prefix    string
}

// NewVerifier creates a verifier for the given secret and algorithm. An empty
// algorithm selects hmac-sha256.
func NewVerifier(secret string, algorithm string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("webhook secret is required")
	}
	alg := strings.ToLower(strings.TrimSpace(algorithm))
	if alg == "" {
		alg = AlgHMACSHA256
	}
	v := &Verifier{secret: []byte(secret), algorithm: alg}
	switch alg {
	case AlgHMACSHA256:
		v.newHash, v.prefix = sha256.New, "sha256="
	case AlgHMACSHA512:
		v.newHash, v.prefix = sha512.New, "sha512="
	default:
		return nil, fmt.Errorf("unsupported signature algorithm %q", algorithm)
	}
	return v, nil
}

// Algorithm returns the configured algorithm identifier.
func (v *Verifier) Algorithm() string { return v.algorithm }

// Sign returns the hex signature the sender would compute for body.
func (v *Verifier) Sign(body []byte) string {
	return hex.EncodeToString(computeMAC(v.newHash, v.secret, body))
}

// Verify reports whether signature is a valid MAC of body under the
// configured secret. body must be the exact bytes received.
func (v *Verifier) Verify(body []byte, signature string) bool {
	if v == nil || len(v.secret) == 0 {
		return false
	}
	return verify(v.newHash, v.secret, body, strings.TrimPrefix(strings.TrimSpace(signature), v.prefix))
}

// VerifySignature checks an hmac-sha256 hex signature without a Verifier.
func VerifySignature(body []byte, signature string, secret []byte) bool {
	if len(secret) == 0 {
		return false
	}
	return verify(sha256.New, secret, body, strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
}

func verify(newHash func() hash.Hash, secret, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) != newHash().Size() {
		return false
	}
	return hmac.Equal(got, computeMAC(newHash, secret, body))
}

func computeMAC(newHash func() hash.Hash, secret, body []byte) []byte {
	mac := hmac.New(newHash, secret)
	mac.Write(body)
	return mac.Sum(nil)
}
