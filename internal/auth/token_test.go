package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"marketplace/pkg/status"
)

const (
	testSecret   = "test_secret"
	testAudience = "marketplace-web"
	testUserID   = "5b0c7a52-7a3e-4d5e-9c8f-2a61f0d4b9e1"
)

func TestVerifyToken_RoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tok, err := IssueToken(testSecret, testAudience, testUserID, status.RoleWorker, now, 10*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	id, err := VerifyToken(tok, testSecret, testAudience, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.UserID != testUserID || id.Role != status.RoleWorker {
		t.Fatalf("identity mismatch: %+v", id)
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tok, err := IssueToken(testSecret, testAudience, testUserID, status.RoleCustomer, now, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := VerifyToken(tok, testSecret, testAudience, now.Add(time.Hour)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerifyToken_AudienceMismatch(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tok, err := IssueToken(testSecret, "other-app", testUserID, status.RoleCustomer, now, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := VerifyToken(tok, testSecret, testAudience, now); err == nil {
		t.Fatalf("expected audience error")
	}
}

func TestVerifyToken_UnknownRole(t *testing.T) {
	now := time.Unix(1700000000, 0)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testUserID,
			Audience:  []string{testAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		Role: "admin",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyToken(tok, testSecret, testAudience, now); err == nil {
		t.Fatalf("expected role error")
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tok, err := IssueToken("another", testAudience, testUserID, status.RoleCustomer, now, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := VerifyToken(tok, testSecret, testAudience, now); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestVerifyToken_Missing(t *testing.T) {
	if _, err := VerifyToken("", testSecret, testAudience, time.Now()); err != ErrMissingToken {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if _, err := VerifyToken("abc", "", testAudience, time.Now()); err != ErrMissingKey {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
}

func TestVerifyToken_SubjectMustBeUUID(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tok, err := IssueToken(testSecret, testAudience, "user-1", status.RoleCustomer, now, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := VerifyToken(tok, testSecret, testAudience, now); err != ErrInvalidSubject {
		t.Fatalf("expected ErrInvalidSubject, got %v", err)
	}

	tok, err = IssueToken(testSecret, testAudience, strings.ToUpper(testUserID), status.RoleCustomer, now, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := VerifyToken(tok, testSecret, testAudience, now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.UserID != testUserID {
		t.Fatalf("expected canonical id %q, got %q", testUserID, id.UserID)
	}
}
