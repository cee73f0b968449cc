package jwt

import (
	"testing"
	"time"
)

func TestGenerateAndExtract(t *testing.T) {
	token, err := GenerateToken("42", "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	userID, err := ExtractUserIDFromToken(token, "secret")
	if err != nil {
		t.Fatalf("ExtractUserIDFromToken failed: %v", err)
	}
	if userID != "42" {
		t.Fatalf("userID = %q, want %q", userID, "42")
	}
}

func TestExtractRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("42", "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := ExtractUserIDFromToken(token, "other-secret"); err == nil {
		t.Fatal("expected error for a token signed with a different secret")
	}
}

func TestExtractRejectsExpiredToken(t *testing.T) {
	token, err := GenerateToken("42", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := ExtractUserIDFromToken(token, "secret"); err == nil {
		t.Fatal("expected error for an expired token")
	}
}
