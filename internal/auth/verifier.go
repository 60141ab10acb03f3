package auth

import (
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"

	"github.com/sowdesk/sowdesk-backend/config"
)

// Verifier validates bearer tokens issued by the external user pool. Keys are
// fetched from the pool's JWKS endpoint and refreshed in the background.
type Verifier struct {
	jwks     *keyfunc.JWKS
	issuer   string
	audience string
}

// Claims is the subset of token claims this service reads.
type Claims struct {
	Subject string
	Email   string
	Role    string
}

// NewVerifier builds a Verifier from the auth configuration.
func NewVerifier(cfg *config.AuthConfig) (*Verifier, error) {
	if cfg.JWKSURL == "" {
		return nil, fmt.Errorf("AUTH_JWKS_URL is required")
	}

	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			// keyfunc retries on its own schedule; nothing to do here
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS: %w", err)
	}

	return &Verifier{
		jwks:     jwks,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}, nil
}

// Verify parses and validates a raw bearer token and extracts the claims the
// service cares about.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, v.jwks.Keyfunc)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return nil, fmt.Errorf("unexpected issuer")
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return nil, fmt.Errorf("unexpected audience")
	}

	out := &Claims{}
	if sub, ok := claims["sub"].(string); ok {
		out.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	// role lives in a custom claim; the user pool writes it on group sync
	if role, ok := claims["custom:role"].(string); ok {
		out.Role = role
	} else if role, ok := claims["role"].(string); ok {
		out.Role = role
	}

	if out.Subject == "" {
		return nil, fmt.Errorf("token missing sub claim")
	}
	return out, nil
}

// Close stops the background JWKS refresh.
func (v *Verifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
