package auth

import (
	"testing"
	"time"

	"github.com/krishkalaria12/snap-swap/models"
)

func TestIssueAndParse(t *testing.T) {
	svc := NewService("secret", "snap-swap", time.Hour)

	tokenStr, expires, err := svc.Issue(&models.User{ID: "user-1", Username: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Until(expires) < 59*time.Minute {
		t.Errorf("expected expiry about an hour away, got %s", expires)
	}

	user, err := svc.Parse(tokenStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" || user.Name != "alice" {
		t.Errorf("expected user-1/alice, got %s/%s", user.ID, user.Name)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tokenStr, _, err := NewService("secret", "snap-swap", time.Hour).Issue(&models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := NewService("other", "snap-swap", time.Hour).Parse(tokenStr); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	svc := NewService("secret", "snap-swap", -time.Minute)

	tokenStr, _, err := svc.Issue(&models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Parse(tokenStr); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := NewService("secret", "snap-swap", time.Hour).Parse("not-a-token"); err == nil {
		t.Fatal("expected error")
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !CheckPasswordHash("secret1", hash) {
		t.Error("expected password to match")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("expected wrong password not to match")
	}
}
