package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

// joinCodeAlphabet is alphanumeric with the visually ambiguous characters
// 0/O, 1/I/l removed so codes survive being read over the phone. 57 symbols
// at 12 characters gives roughly 70 bits of entropy.
const (
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	joinCodeLength   = 12
	tokenBytes       = 32
)

// CodeSource produces invitation secrets. Satisfied by CodeGenerator; tests
// substitute a deterministic source to provoke collisions.
type CodeSource interface {
	GenerateJoinCode() (string, error)
	GenerateToken() (string, error)
}

// CodeGenerator produces the two invitation secrets: the short join code a
// human types and the long deep-link token embedded in the invitation email.
// Both come from crypto/rand; the two are generated independently so leaking
// one says nothing about the other.
type CodeGenerator struct{}

// GenerateJoinCode returns a new 12-character join code.
func (CodeGenerator) GenerateJoinCode() (string, error) {
	code := make([]byte, joinCodeLength)
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate join code: %w", err)
		}
		code[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// GenerateToken returns a new 256-bit deep-link token, base64url encoded.
func (CodeGenerator) GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
