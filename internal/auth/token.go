package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// TokenBytes is the amount of randomness in one access token.
// Hex encoding doubles it, so every token is 256 characters long.
const TokenBytes = 128

// TokenGenerator issues opaque access tokens.
//
// A token is pure randomness with no structure: it is not signed, carries no
// claims and never expires. The only way to learn who it belongs to is to
// look it up in the users table. That is why it must come from a
// cryptographically secure source and be long enough that guessing is hopeless.
type TokenGenerator struct {
	random io.Reader
}

// NewTokenGenerator returns a generator reading from crypto/rand.
func NewTokenGenerator() *TokenGenerator {
	return &TokenGenerator{random: rand.Reader}
}

// Generate returns a new 256-character lowercase hex token.
func (g *TokenGenerator) Generate() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", fmt.Errorf("auth: reading random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
