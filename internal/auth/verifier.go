package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"sync"
)

// ErrNoToken indicates neither a plaintext token nor a hash was configured.
var ErrNoToken = errors.New("no auth token configured")

// maxConcurrentKDF bounds parallel Argon2id runs, each of which holds argon2Memory.
const maxConcurrentKDF = 2

// Verifier checks presented tokens against the configured secret.
type Verifier interface {
	Verify(token string) bool
}

// PlainVerifier compares against a plaintext token in constant time.
type PlainVerifier struct {
	digest [32]byte
}

// NewPlainVerifier returns a verifier for a plaintext token.
func NewPlainVerifier(token string) *PlainVerifier {
	return &PlainVerifier{digest: sha256.Sum256([]byte(token))}
}

// Verify reports whether token matches. Digests are compared so that
// the comparison time does not depend on the token length.
func (v *PlainVerifier) Verify(token string) bool {
	presented := sha256.Sum256([]byte(token))
	return subtle.ConstantTimeCompare(presented[:], v.digest[:]) == 1
}

// HashVerifier checks tokens against an Argon2id PHC hash.
// Successful verifications are remembered by digest, so the KDF runs once
// per distinct valid token.
type HashVerifier struct {
	hash     string
	verified sync.Map // QuickHash(token) -> struct{}
	slots    chan struct{}
}

// NewHashVerifier returns a verifier for an Argon2id PHC hash.
func NewHashVerifier(encodedHash string) (*HashVerifier, error) {
	if err := ValidateHash(encodedHash); err != nil {
		return nil, err
	}
	return &HashVerifier{
		hash:  encodedHash,
		slots: make(chan struct{}, maxConcurrentKDF),
	}, nil
}

// Verify reports whether token matches the configured hash.
func (v *HashVerifier) Verify(token string) bool {
	key := QuickHash(token)
	if _, ok := v.verified.Load(key); ok {
		return true
	}

	v.slots <- struct{}{}
	match, err := VerifyToken(token, v.hash)
	<-v.slots

	if err != nil || !match {
		return false
	}

	v.verified.Store(key, struct{}{})
	return true
}

// NewVerifier picks the verifier for the configured secret.
// A hash takes precedence over a plaintext token.
func NewVerifier(plainToken, tokenHash string) (Verifier, error) {
	switch {
	case tokenHash != "":
		v, err := NewHashVerifier(tokenHash)
		if err != nil {
			return nil, err
		}
		return v, nil
	case plainToken != "":
		return NewPlainVerifier(plainToken), nil
	default:
		return nil, ErrNoToken
	}
}
