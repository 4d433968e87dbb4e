// Package identity resolves the scope id for a request from a signed bearer
// token. Every data route is partitioned by scope; there is no shared data.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Provider verifies HS256 tokens and extracts the scope id from the subject
// claim.
type Provider struct {
	secret []byte
	issuer string
}

func NewProvider(secret, issuer string) *Provider {
	return &Provider{secret: []byte(secret), issuer: issuer}
}

// ScopeFromHeader parses an Authorization header value and returns the
// token's subject.
func (p *Provider) ScopeFromHeader(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrMissingToken
	}
	return p.Verify(strings.TrimSpace(header[len(prefix):]))
}

// Verify checks signature, expiry and issuer, and returns the subject claim.
func (p *Provider) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return subject, nil
}

// Issue mints a token for scopeID, used by tests and local tooling.
func (p *Provider) Issue(scopeID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   scopeID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if p.issuer != "" {
		claims.Issuer = p.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}
