package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/kamlesh9685/Attendance-Managment/internal/user"
)

const (
	testSecret = "test-signing-secret"
	testIssuer = "attendance-test"
)

func TestIssueParseRoundTrip(t *testing.T) {
	token, expiresAt, err := Issue("user-123", user.RoleStudent, testIssuer, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expiry not in the future: %v", expiresAt)
	}

	claims, err := Parse(token, testSecret, testIssuer)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Fatalf("subject mismatch: %q", claims.Subject)
	}
	if claims.Role != string(user.RoleStudent) {
		t.Fatalf("role mismatch: %q", claims.Role)
	}
}

func TestParseWrongSecret(t *testing.T) {
	token, _, err := Issue("user-123", user.RoleTeacher, testIssuer, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(token, "some-other-secret", testIssuer); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseExpired(t *testing.T) {
	token, _, err := Issue("user-123", user.RoleAdmin, testIssuer, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(token, testSecret, testIssuer); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestParseIssuerMismatch(t *testing.T) {
	token, _, err := Issue("user-123", user.RoleStudent, "someone-else", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(token, testSecret, testIssuer); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for issuer mismatch, got %v", err)
	}
}

func TestParseGarbage(t *testing.T) {
	if _, err := Parse("not-a-token", testSecret, testIssuer); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
