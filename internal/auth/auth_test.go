package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestPasswordRoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)
	hash, err := m.HashPassword("Passw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := m.ComparePassword(hash, "Passw0rd!"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := m.ComparePassword(hash, "wrong"); err == nil {
		t.Fatal("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)
	a, err := m.GenerateToken(42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, _ := m.GenerateToken(42)
	if a == b {
		t.Fatal("tokens for the same user should differ")
	}
	claims, err := m.ParseToken(a)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Subject != "42" || claims.ID == "" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	m := NewManager("secret", time.Hour)
	other := NewManager("other", time.Hour)
	token, _ := other.GenerateToken(1)
	if _, err := m.ParseToken(token); err == nil {
		t.Fatal("token signed with another secret accepted")
	}

	expired := &Manager{Secret: []byte("secret"), TTL: -time.Minute}
	token, _ = expired.GenerateToken(1)
	if _, err := m.ParseToken(token); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("err = %v, want expired", err)
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if _, ok := TokenFromRequest(r); ok {
		t.Fatal("empty header accepted")
	}
	r.Header.Set("Authorization", "Bearer abc")
	if tok, ok := TokenFromRequest(r); !ok || tok != "abc" {
		t.Fatalf("got %q %v", tok, ok)
	}
	r.Header.Set("Authorization", "Basic abc")
	if _, ok := TokenFromRequest(r); ok {
		t.Fatal("basic auth accepted")
	}
}

func TestUserIDContext(t *testing.T) {
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Fatal("empty context has a user")
	}
	id, ok := UserIDFromContext(WithUserID(context.Background(), 7))
	if !ok || id != 7 {
		t.Fatalf("got %d %v", id, ok)
	}
}
