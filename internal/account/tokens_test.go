package account

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenClaims(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, WithClock(func() time.Time { return now }), WithIssuer("test-issuer"))
	ctx := context.Background()

	acct := mustRegister(t, svc, RegisterParams{Email: "ada@example.com", Password: "s3cret-pass"})
	pair, _, err := svc.Login(ctx, Credentials{Email: "ada@example.com", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := svc.verifyAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("verifyAccessToken: %v", err)
	}
	if claims.Subject != acct.ID {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Issuer != "test-issuer" {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
	if claims.TokenType != tokenTypeAccess {
		t.Fatalf("unexpected token type: %s", claims.TokenType)
	}
	if claims.ID == "" {
		t.Fatal("expected jti claim")
	}
	if !claims.ExpiresAt.Time.Equal(now.Add(defaultAccessTTL)) {
		t.Fatalf("unexpected expiry: %v", claims.ExpiresAt.Time)
	}
	if !pair.AccessExpiresAt.Equal(now.Add(defaultAccessTTL)) {
		t.Fatalf("pair expiry mismatch: %v", pair.AccessExpiresAt)
	}
	if !pair.RefreshExpiresAt.Equal(now.Add(defaultRefreshTTL)) {
		t.Fatalf("refresh expiry mismatch: %v", pair.RefreshExpiresAt)
	}
}

func TestVerifyAccessTokenRejectsForeignIssuerAndSecret(t *testing.T) {
	svc, _ := newTestService(t)
	other, _ := newTestService(t, WithIssuer("someone-else"))
	ctx := context.Background()

	mustRegister(t, other, RegisterParams{Email: "ada@example.com", Password: "s3cret-pass"})
	pair, _, err := other.Login(ctx, Credentials{Email: "ada@example.com", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := svc.verifyAccessToken(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong issuer, got %v", err)
	}

	// An unsigned token never passes.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{TokenType: tokenTypeAccess})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := svc.verifyAccessToken(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for alg none, got %v", err)
	}
}

func TestRefreshTokenShape(t *testing.T) {
	svc, _ := newTestService(t)
	now := time.Now().UTC()

	raw, rec, err := svc.generateRefreshToken("acct-1", now)
	if err != nil {
		t.Fatalf("generateRefreshToken: %v", err)
	}
	id, secret, err := splitRefreshToken(raw)
	if err != nil {
		t.Fatalf("splitRefreshToken: %v", err)
	}
	if id != rec.ID {
		t.Fatalf("id mismatch: %s vs %s", id, rec.ID)
	}
	if strings.Contains(secret, ".") {
		t.Fatal("secret must not contain the separator")
	}
	if rec.TokenHash == secret {
		t.Fatal("secret must be stored hashed")
	}
	if !refreshSecretMatches(rec.TokenHash, secret) {
		t.Fatal("digest does not match the secret")
	}
	if refreshSecretMatches(rec.TokenHash, "forged") {
		t.Fatal("forged secret matched")
	}
	if !rec.ExpiresAt.Equal(now.Add(defaultRefreshTTL)) {
		t.Fatalf("unexpected expiry: %v", rec.ExpiresAt)
	}
}

func TestSplitRefreshToken(t *testing.T) {
	for _, raw := range []string{"", "no-dot", ".secret", "id.", "a.b.c"} {
		if _, _, err := splitRefreshToken(raw); err == nil {
			t.Fatalf("token %q: expected error", raw)
		}
	}
	id, secret, err := splitRefreshToken("  tok-1.s3cret  ")
	if err != nil {
		t.Fatalf("splitRefreshToken: %v", err)
	}
	if id != "tok-1" || secret != "s3cret" {
		t.Fatalf("unexpected parts: %q %q", id, secret)
	}
}
