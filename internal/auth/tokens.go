package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TokenTypeAccess marks short-lived bearer credentials.
	TokenTypeAccess = "access"
	// TokenTypeRefresh marks long-lived credentials exchangeable for a
	// new access token.
	TokenTypeRefresh = "refresh"

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// Claims are the JWT claims carried by both token classes.
type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies signed bearer tokens. It never
// persists anything; the refresh token ledger is the store's job.
type TokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// IssuerOption configures a TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithAccessTTL overrides the access token lifetime.
func WithAccessTTL(ttl time.Duration) IssuerOption {
	return func(ti *TokenIssuer) {
		if ttl > 0 {
			ti.accessTTL = ttl
		}
	}
}

// WithRefreshTTL overrides the refresh token lifetime. Configuration is
// the single source of truth for this value.
func WithRefreshTTL(ttl time.Duration) IssuerOption {
	return func(ti *TokenIssuer) {
		if ttl > 0 {
			ti.refreshTTL = ttl
		}
	}
}

// WithIssuerClock overrides the time source (tests).
func WithIssuerClock(fn func() time.Time) IssuerOption {
	return func(ti *TokenIssuer) {
		if fn != nil {
			ti.now = fn
		}
	}
}

// NewTokenIssuer builds an issuer signing HS256 tokens with secret.
func NewTokenIssuer(secret, issuer string, opts ...IssuerOption) (*TokenIssuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	ti := &TokenIssuer{
		secret:     []byte(secret),
		issuer:     strings.TrimSpace(issuer),
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(ti)
	}
	return ti, nil
}

// AccessTTL returns the configured access token lifetime.
func (ti *TokenIssuer) AccessTTL() time.Duration { return ti.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (ti *TokenIssuer) RefreshTTL() time.Duration { return ti.refreshTTL }

// IssueAccessToken signs a short-lived access token for userID.
func (ti *TokenIssuer) IssueAccessToken(userID string) (string, time.Time, error) {
	return ti.issue(userID, TokenTypeAccess, ti.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for userID.
func (ti *TokenIssuer) IssueRefreshToken(userID string) (string, time.Time, error) {
	return ti.issue(userID, TokenTypeRefresh, ti.refreshTTL)
}

func (ti *TokenIssuer) issue(userID, tokenType string, ttl time.Duration) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, errors.New("auth: userID is required")
	}
	now := ti.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature, expiry and token class. Expired tokens of
// the right class return ErrTokenExpired; everything else that fails
// returns ErrInvalidToken.
func (ti *TokenIssuer) Verify(token, tokenType string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return ti.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return ti.now().UTC() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// Class still has to match before reporting expiry.
			if c := ti.unverifiedClaims(token); c != nil && c.TokenType == tokenType {
				return nil, ErrTokenExpired
			}
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	if ti.issuer != "" && claims.Issuer != ti.issuer {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (ti *TokenIssuer) unverifiedClaims(token string) *Claims {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}
