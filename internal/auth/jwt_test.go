package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/mpg-calculator/internal/apperror"
)

// newTestTokenService uses a fixed secret so tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestGenerate_LooksLikeAJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("cv37rs3pp9olc6atsptg")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if n := strings.Count(token, "."); n != 2 {
		t.Errorf("token has %d dots, want 2", n)
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)
	sessionID := "cv37rs3pp9olc6atsptg"

	token, err := ts.Generate(sessionID)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	got, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != sessionID {
		t.Errorf("Validate() = %q, want %q", got, sessionID)
	}
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t)

	expired, err := ts.GenerateWithDuration("s-1", -time.Second)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}
	valid, _ := ts.Generate("s-1")
	other, _ := NewTokenService("another-secret-of-enough-length")
	foreign, _ := other.Generate("s-1")
	noSubject, _ := ts.Generate("")

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"tampered signature", valid[:len(valid)-3] + "xxx"},
		{"signed with another secret", foreign},
		{"empty", ""},
		{"garbage", "not.a.jwt.token"},
		{"no subject", noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.Validate(tt.token)
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !errors.Is(err, apperror.ErrUnauthorized) {
				t.Errorf("error = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey("a-secret-key-base-value", "session")
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	again, _ := DeriveKey("a-secret-key-base-value", "session")
	other, _ := DeriveKey("a-secret-key-base-value", "csrf")

	if len(a) != 32 {
		t.Errorf("key length = %d, want 32", len(a))
	}
	if string(a) != string(again) {
		t.Error("DeriveKey() is not deterministic")
	}
	if string(a) == string(other) {
		t.Error("different purposes produced the same key")
	}

	if _, err := DeriveKey("short", "session"); err == nil {
		t.Error("DeriveKey() should reject a short secret")
	}
	if _, err := DeriveKey("a-secret-key-base-value", ""); err == nil {
		t.Error("DeriveKey() should require a purpose")
	}
}

func TestRandomSecret(t *testing.T) {
	a, err := RandomSecret()
	if err != nil {
		t.Fatalf("RandomSecret() error = %v", err)
	}
	b, _ := RandomSecret()

	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
	if a == b {
		t.Error("RandomSecret() returned the same value twice")
	}
	if _, err := NewTokenService(a); err != nil {
		t.Errorf("random secret rejected: %v", err)
	}
}
