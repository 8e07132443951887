package supabase

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"careergate/internal/identity"
	dErrors "careergate/pkg/domain-errors"
)

// ErrInvalidLogin is returned by SignIn for rejected email/password pairs.
var ErrInvalidLogin = dErrors.New(dErrors.CodeUnauthenticated, "invalid login credentials")

// PublicClient performs caller-initiated calls with the anon key.
type PublicClient struct {
	rest rest
}

type PublicOption func(*publicConfig)

type publicConfig struct {
	client  HTTPDoer
	timeout time.Duration
}

func WithPublicHTTPClient(c HTTPDoer) PublicOption {
	return func(cfg *publicConfig) { cfg.client = c }
}

func WithPublicTimeout(d time.Duration) PublicOption {
	return func(cfg *publicConfig) { cfg.timeout = d }
}

func NewPublicClient(baseURL, anonKey string, opts ...PublicOption) *PublicClient {
	var cfg publicConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &PublicClient{rest: newRest(baseURL, anonKey, cfg.client, cfg.timeout)}
}

type userResponse struct {
	ID string `json:"id"`
}

// VerifyCredential asks the provider who the token belongs to. Rejections
// map to identity.ErrInvalidCredential; everything else is an outage.
func (c *PublicClient) VerifyCredential(ctx context.Context, token string) (identity.Identity, error) {
	var u userResponse
	err := c.rest.do(ctx, call{method: http.MethodGet, path: "/auth/v1/user", bearer: token}, &u)
	if err != nil {
		switch statusOf(err) {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest, http.StatusNotFound:
			return identity.Identity{}, identity.ErrInvalidCredential
		case 0:
			return identity.Identity{}, err
		default:
			return identity.Identity{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "verify credential")
		}
	}
	if u.ID == "" {
		return identity.Identity{}, identity.ErrInvalidCredential
	}
	return identity.Identity{SubjectID: u.ID}, nil
}

// Session is what a successful sign-in yields.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// SignIn exchanges an email and password for a session.
func (c *PublicClient) SignIn(ctx context.Context, email, password string) (Session, error) {
	var s Session
	err := c.rest.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	}, &s)
	if err != nil {
		switch statusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusUnprocessableEntity:
			return Session{}, ErrInvalidLogin
		case 0:
			return Session{}, err
		default:
			return Session{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "sign in")
		}
	}
	if s.AccessToken == "" {
		return Session{}, dErrors.New(dErrors.CodeUnavailable, "sign in returned no access token")
	}
	return s, nil
}

// SignOut revokes the session behind token. A token the provider already
// considers invalid counts as signed out.
func (c *PublicClient) SignOut(ctx context.Context, token string) error {
	err := c.rest.do(ctx, call{method: http.MethodPost, path: "/auth/v1/logout", bearer: token}, nil)
	switch statusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return nil
	}
	return err
}

// Health reports whether the provider's auth service answers.
func (c *PublicClient) Health(ctx context.Context) error {
	err := c.rest.do(ctx, call{method: http.MethodGet, path: "/auth/v1/health"}, nil)
	return asUnavailable(err, "provider health")
}
