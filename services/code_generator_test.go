package services

import (
	"strings"
	"testing"
)

func TestGenerateJoinCodeShape(t *testing.T) {
	gen := CodeGenerator{}
	for i := 0; i < 100; i++ {
		code, err := gen.GenerateJoinCode()
		if err != nil {
			t.Fatalf("GenerateJoinCode: %v", err)
		}
		if len(code) != joinCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), joinCodeLength)
		}
		for _, r := range code {
			if !strings.ContainsRune(joinCodeAlphabet, r) {
				t.Fatalf("code %q contains %q, outside the alphabet", code, r)
			}
		}
		// The ambiguous characters must never appear.
		if strings.ContainsAny(code, "0O1Il") {
			t.Fatalf("code %q contains an ambiguous character", code)
		}
	}
}

func TestGenerateJoinCodeUnique(t *testing.T) {
	gen := CodeGenerator{}
	const n = 1000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		code, err := gen.GenerateJoinCode()
		if err != nil {
			t.Fatalf("GenerateJoinCode: %v", err)
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code %q after %d generations", code, i)
		}
		seen[code] = struct{}{}
	}
}

func TestGenerateTokenIndependentAndLong(t *testing.T) {
	gen := CodeGenerator{}
	a, err := gen.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	b, err := gen.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if a == b {
		t.Fatal("two tokens were identical")
	}
	// 32 bytes base64url without padding is 43 characters.
	if len(a) != 43 {
		t.Fatalf("token length = %d, want 43", len(a))
	}
}
