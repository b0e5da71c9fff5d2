package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// TokenBytes is the entropy of a generated token.
const TokenBytes = 24

// GeneratedToken contains a new token and its storage form.
type GeneratedToken struct {
	Plaintext string // configure clients with this (show once only)
	Hash      string // Argon2id hash for AUTH_TOKEN_HASH
}

// GenerateToken creates a random hex token and its Argon2id hash.
func GenerateToken() (*GeneratedToken, error) {
	secret := make([]byte, TokenBytes)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	plaintext := hex.EncodeToString(secret)

	hash, err := HashToken(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash token: %w", err)
	}

	return &GeneratedToken{Plaintext: plaintext, Hash: hash}, nil
}
