// Package jwtverifier verifies provider-issued access tokens locally with the
// project's HS256 signing secret, avoiding a round trip per request.
package jwtverifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"careergate/internal/identity"
)

// DefaultAudience is the audience the provider stamps on signed-in user tokens.
const DefaultAudience = "authenticated"

// AccessTokenClaims mirrors the claims of a provider access token. The "role"
// claim is the database role of the token, not the application role, and is
// deliberately not consulted for authorization.
type AccessTokenClaims struct {
	Email     string `json:"email,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// Verifier implements identity.Provider.
type Verifier struct {
	signingKey []byte
	audience   string
	issuer     string
	leeway     time.Duration
	now        func() time.Time
}

type Option func(*Verifier)

func WithAudience(aud string) Option {
	return func(v *Verifier) { v.audience = aud }
}

// WithIssuer pins the expected "iss" claim, e.g. "https://<project>/auth/v1".
func WithIssuer(iss string) Option {
	return func(v *Verifier) { v.issuer = iss }
}

func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) { v.leeway = d }
}

// WithClock is used by tests to pin token expiry evaluation.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

func New(signingKey string, opts ...Option) *Verifier {
	v := &Verifier{
		signingKey: []byte(signingKey),
		audience:   DefaultAudience,
		leeway:     5 * time.Second,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyCredential validates signature, algorithm, expiry and audience and
// returns the token subject. Every failure is reported as
// identity.ErrInvalidCredential: a locally verified token cannot fail for
// infrastructure reasons.
func (v *Verifier) VerifyCredential(_ context.Context, token string) (identity.Identity, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(v.audience),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}

	claims := new(AccessTokenClaims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.signingKey, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return identity.Identity{}, fmt.Errorf("%w: token expired", identity.ErrInvalidCredential)
		}
		return identity.Identity{}, fmt.Errorf("%w: %v", identity.ErrInvalidCredential, err)
	}
	if !parsed.Valid {
		return identity.Identity{}, identity.ErrInvalidCredential
	}

	sub, err := uuid.Parse(claims.Subject)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: malformed subject", identity.ErrInvalidCredential)
	}
	return identity.Identity{SubjectID: sub.String()}, nil
}
