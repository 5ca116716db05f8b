package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw1")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if hash == "pw1" || strings.Contains(hash, "pw1") {
		t.Error("Hash must not contain the plaintext password")
	}

	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Expected a bcrypt hash, got %q", hash)
	}
}

func TestCheckPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if !CheckPasswordHash("correct horse", hash) {
		t.Error("Expected matching password to verify")
	}

	if CheckPasswordHash("wrong horse", hash) {
		t.Error("Expected non-matching password to fail")
	}

	if CheckPasswordHash("correct horse", "not-a-hash") {
		t.Error("Expected garbage hash to fail verification")
	}
}
