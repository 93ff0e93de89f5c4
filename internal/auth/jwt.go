package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vovakirdan/dmrelay/internal/core"
)

// ErrAuthentication is returned for a missing, malformed, expired or forged credential.
var ErrAuthentication = errors.New("authentication error")

// Claims represents the JWT payload presented at connection time.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

// GenerateToken signs a token for the given identity. The relay never issues tokens
// itself; this backs the token CLI command and tests.
func GenerateToken(cfg *JWTConfig, identity core.Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		ID:    identity.ID,
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  identity.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if cfg.TTL != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(cfg.TTL))
	}
	if cfg.Issuer != "" {
		claims.Issuer = cfg.Issuer
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.Secret)
}

// Verifier is the admission gate: it turns a credential into an identity.
type Verifier struct {
	cfg *JWTConfig
}

// NewVerifier builds a verifier for tokens signed with cfg.Secret.
func NewVerifier(cfg *JWTConfig) *Verifier {
	return &Verifier{cfg: cfg}
}

// Verify checks signature and expiry and extracts the identity.
// Every failure wraps ErrAuthentication.
func (v *Verifier) Verify(tokenString string) (core.Identity, error) {
	if tokenString == "" {
		return core.Identity{}, fmt.Errorf("%w: missing token", ErrAuthentication)
	}
	if len(v.cfg.Secret) == 0 {
		return core.Identity{}, fmt.Errorf("%w: no secret configured", ErrAuthentication)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.cfg.Secret, nil
	})
	if err != nil {
		return core.Identity{}, fmt.Errorf("%w: parse token: %w", ErrAuthentication, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return core.Identity{}, fmt.Errorf("%w: invalid token claims", ErrAuthentication)
	}

	if v.cfg.Issuer != "" && claims.Issuer != v.cfg.Issuer {
		return core.Identity{}, fmt.Errorf("%w: invalid issuer", ErrAuthentication)
	}
	if v.cfg.Audience != "" && !slices.Contains(claims.Audience, v.cfg.Audience) {
		return core.Identity{}, fmt.Errorf("%w: invalid audience", ErrAuthentication)
	}

	id := claims.ID
	if id == "" {
		id = claims.Subject
	}
	if !core.ValidID(id) {
		return core.Identity{}, fmt.Errorf("%w: malformed user id %q", ErrAuthentication, id)
	}

	return core.Identity{ID: id, Email: claims.Email}, nil
}
