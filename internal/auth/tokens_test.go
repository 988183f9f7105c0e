package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestIssuer(t *testing.T, opts ...IssuerOption) *TokenIssuer {
	t.Helper()
	ti, err := NewTokenIssuer("test-secret", "test-issuer", opts...)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return ti
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	ti := newTestIssuer(t)

	token, exp, err := ti.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiry, got %v", exp)
	}

	claims, err := ti.Verify(token, TokenTypeAccess)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Fatalf("unexpected token type: %s", claims.TokenType)
	}
	if claims.ID == "" {
		t.Fatal("expected a jti")
	}
}

func TestVerifyRejectsWrongClass(t *testing.T) {
	ti := newTestIssuer(t)

	refresh, _, err := ti.IssueRefreshToken("user-1")
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	if _, err := ti.Verify(refresh, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access: %v", err)
	}

	access, _, err := ti.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if _, err := ti.Verify(access, TokenTypeRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token accepted as refresh: %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := issued
	ti := newTestIssuer(t, WithIssuerClock(func() time.Time { return clock }))

	token, _, err := ti.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	clock = issued.Add(16 * time.Minute)
	if _, err := ti.Verify(token, TokenTypeAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	// Wrong class on an expired token is invalid, not expired.
	if _, err := ti.Verify(token, TokenTypeRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	ti := newTestIssuer(t)
	other, err := NewTokenIssuer("other-secret", "test-issuer")
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	token, _, err := other.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if _, err := ti.Verify(token, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign signature accepted: %v", err)
	}
	if _, err := ti.Verify("not-a-jwt", TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage accepted: %v", err)
	}
	if _, err := ti.Verify("", TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty token accepted: %v", err)
	}
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	ti := newTestIssuer(t)
	other, err := NewTokenIssuer("test-secret", "another-issuer")
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	token, _, err := other.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if _, err := ti.Verify(token, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("issuer mismatch accepted: %v", err)
	}
}

func TestTTLDefaults(t *testing.T) {
	ti := newTestIssuer(t)
	if ti.AccessTTL() != 15*time.Minute {
		t.Fatalf("unexpected access TTL: %v", ti.AccessTTL())
	}
	if ti.RefreshTTL() != 30*24*time.Hour {
		t.Fatalf("unexpected refresh TTL: %v", ti.RefreshTTL())
	}

	custom := newTestIssuer(t, WithAccessTTL(5*time.Minute), WithRefreshTTL(time.Hour))
	if custom.AccessTTL() != 5*time.Minute || custom.RefreshTTL() != time.Hour {
		t.Fatalf("options not applied: %v / %v", custom.AccessTTL(), custom.RefreshTTL())
	}
}
