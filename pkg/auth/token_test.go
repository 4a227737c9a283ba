package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func testConfig() config.SandboxConfig {
	return config.SandboxConfig{
		JWTSecret:         "secret",
		JWTIssuer:         "storefront-sandbox",
		SessionTTLMinutes: 30,
	}
}

func TestMintAndParseSessionToken(t *testing.T) {
	cfg := testConfig()
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintSessionToken(cfg, now, SessionPayload{UserID: userID, Email: "jane@example.com", Name: "Jane"})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	claims, err := ParseSessionToken(cfg, token)
	if err != nil {
		t.Fatalf("parse session token: %v", err)
	}
	if claims.UserID != userID || claims.Email != "jane@example.com" || claims.Name != "Jane" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 30*time.Minute {
		t.Fatalf("expected 30m lifetime, got %v", got)
	}
}

func TestParseSessionTokenRejectsTampering(t *testing.T) {
	cfg := testConfig()
	token, err := MintSessionToken(cfg, time.Now(), SessionPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	other := cfg
	other.JWTSecret = "different"
	if _, err := ParseSessionToken(other, token); err == nil {
		t.Fatal("expected signature failure")
	}

	wrongIssuer := cfg
	wrongIssuer.JWTIssuer = "someone-else"
	if _, err := ParseSessionToken(wrongIssuer, token); err == nil || !strings.Contains(err.Error(), "issuer") {
		t.Fatalf("expected issuer failure, got %v", err)
	}
}

func TestParseSessionTokenRejectsExpired(t *testing.T) {
	cfg := testConfig()
	token, err := MintSessionToken(cfg, time.Now().Add(-time.Hour), SessionPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}
	if _, err := ParseSessionToken(cfg, token); err == nil || !strings.Contains(err.Error(), jwt.ErrTokenExpired.Error()) {
		t.Fatalf("expected expiry failure, got %v", err)
	}
}

func TestMintSessionTokenValidatesConfig(t *testing.T) {
	if _, err := MintSessionToken(config.SandboxConfig{}, time.Now(), SessionPayload{UserID: uuid.New()}); err == nil {
		t.Fatal("expected missing secret error")
	}
	if _, err := MintSessionToken(testConfig(), time.Now(), SessionPayload{}); err == nil {
		t.Fatal("expected missing user id error")
	}
}
