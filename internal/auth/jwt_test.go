package auth

import (
	"testing"
	"time"

	"crm-platform/internal/config"
)

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		JWTIssuer:       "issuer",
		JWTAudience:     "aud",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	pair, err := m.IssuePair(now, "user-1", "agent")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token strings")
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(1*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "agent" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	p, err := m.IssuePair(time.Now(), "u", "agent")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(p.RefreshToken, TokenTypeAccess, time.Now()); err == nil {
		t.Fatalf("expected token_type mismatch")
	}
}

func TestVerifyRejectsForeignIssuer(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	ours, err := NewManager(config.AuthConfig{
		JWTSecret: "secret", JWTIssuer: "crm", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	theirs, err := NewManager(config.AuthConfig{
		JWTSecret: "secret", JWTIssuer: "other", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	p, err := theirs.IssuePair(now, "u", "agent")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ours.Verify(p.AccessToken, TokenTypeAccess, now); err == nil {
		t.Fatalf("expected issuer mismatch")
	}
}

func TestVerifyAllowsClockSkewWithinLeeway(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	now := time.Unix(1700000000, 0).UTC()
	p, err := m.IssuePair(now, "u", "agent")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// 10s past expiry is inside the 30s leeway.
	if _, err := m.Verify(p.AccessToken, TokenTypeAccess, now.Add(time.Minute+10*time.Second)); err != nil {
		t.Fatalf("verify within leeway: %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	now := time.Unix(1700000000, 0).UTC()
	p, err := m.IssuePair(now, "u", "agent")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(p.AccessToken, TokenTypeAccess, now.Add(2*time.Hour)); err == nil {
		t.Fatalf("expected expiry error")
	}
}
