package helpers

import (
	"testing"
	"time"
)

func newTestJWT() *JWTManager {
	return NewJWTManager("access-secret", "refresh-secret", time.Minute, time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestJWT()
	tok, exp, err := m.GenerateAccessToken(TokenSubject{ID: "u1", Username: "ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(exp) > time.Minute || time.Until(exp) <= 0 {
		t.Fatalf("unexpected expiry %v", exp)
	}
	claims, err := m.ParseAccessToken(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" || claims.Username != "ada" || claims.Email != "ada@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	m := newTestJWT()
	tok, _, err := m.GenerateRefreshToken("u1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.ParseAccessToken(tok); err == nil {
		t.Fatal("refresh token must not verify with the access secret")
	}
	claims, err := m.ParseRefreshToken(tok)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("unexpected subject %q", claims.UserID)
	}
}

func TestTokenTypeCheckedWithSharedSecret(t *testing.T) {
	m := NewJWTManager("same-secret", "same-secret", time.Minute, time.Hour)
	refresh, _, _ := m.GenerateRefreshToken("u1")
	access, _, _ := m.GenerateAccessToken(TokenSubject{ID: "u1"})
	if _, err := m.ParseAccessToken(refresh); err == nil {
		t.Fatal("refresh token must not pass as access token")
	}
	if _, err := m.ParseRefreshToken(access); err == nil {
		t.Fatal("access token must not pass as refresh token")
	}
	if _, err := m.ParseAccessToken(access); err != nil {
		t.Fatalf("access token: %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewJWTManager("a", "r", -time.Second, -time.Second)
	tok, _, err := m.GenerateAccessToken(TokenSubject{ID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.ParseAccessToken(tok); err == nil {
		t.Fatal("expired token should fail")
	}
}

func TestTokensAreDistinct(t *testing.T) {
	m := newTestJWT()
	a, _, _ := m.GenerateRefreshToken("u1")
	b, _, _ := m.GenerateRefreshToken("u1")
	if a == b {
		t.Fatal("two refresh tokens for the same user must differ")
	}
}

func TestParseGarbage(t *testing.T) {
	m := newTestJWT()
	for _, tok := range []string{"", "abc", "a.b.c"} {
		if _, err := m.ParseRefreshToken(tok); err == nil {
			t.Fatalf("expected error for %q", tok)
		}
	}
}

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h == "s3cret-pass" {
		t.Fatal("hash must not equal plaintext")
	}
	if !CompareHashAndPassword(h, "s3cret-pass") {
		t.Fatal("expected match")
	}
	if CompareHashAndPassword(h, "wrong") {
		t.Fatal("expected mismatch")
	}
}
