// Package session keeps per-browser state in a sealed cookie. Nothing is
// stored or replicated server-side: the cookie is the session.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"maps"
	"net/http"
	"time"

	"golang.org/x/crypto/nacl/secretbox"

	dErrors "careergate/pkg/domain-errors"
)

const (
	KeyAccessToken = "access_token"
	KeyImpersonate = "impersonate"

	DefaultCookieName = "careergate_session"
	DefaultMaxAge     = 12 * time.Hour

	nonceSize = 24
)

// ErrInvalidSession is returned when a cookie cannot be opened. Callers treat
// it the same as an empty session.
var ErrInvalidSession = dErrors.New(dErrors.CodeBadRequest, "invalid session cookie")

// Values is the session-scoped key-value state.
type Values map[string]string

func (v Values) Get(key string) (string, bool) {
	s, ok := v[key]
	return s, ok && s != ""
}

func (v Values) Set(key, value string) { v[key] = value }

func (v Values) Delete(key string) { delete(v, key) }

func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	return maps.Clone(v)
}

// Store loads and persists Values for one browser.
type Store interface {
	Load(r *http.Request) (Values, error)
	Save(w http.ResponseWriter, v Values) error
	Clear(w http.ResponseWriter)
}

// CookieStore seals Values with secretbox into a single HttpOnly cookie.
type CookieStore struct {
	key    [32]byte
	name   string
	maxAge time.Duration
	secure bool
}

type CookieOption func(*CookieStore)

func WithCookieName(name string) CookieOption {
	return func(s *CookieStore) { s.name = name }
}

func WithMaxAge(d time.Duration) CookieOption {
	return func(s *CookieStore) { s.maxAge = d }
}

// WithSecure marks the cookie Secure. Enable it whenever the site is served
// over TLS.
func WithSecure(secure bool) CookieOption {
	return func(s *CookieStore) { s.secure = secure }
}

// NewCookieStore derives the sealing key from secret.
func NewCookieStore(secret string, opts ...CookieOption) (*CookieStore, error) {
	if len(secret) < 32 {
		return nil, dErrors.New(dErrors.CodeValidation, "session secret must be at least 32 bytes")
	}
	s := &CookieStore{
		key:    sha256.Sum256([]byte(secret)),
		name:   DefaultCookieName,
		maxAge: DefaultMaxAge,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *CookieStore) Load(r *http.Request) (Values, error) {
	c, err := r.Cookie(s.name)
	if errors.Is(err, http.ErrNoCookie) || (err == nil && c.Value == "") {
		return Values{}, nil
	}
	if err != nil {
		return Values{}, ErrInvalidSession
	}

	sealed, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil || len(sealed) < nonceSize+secretbox.Overhead {
		return Values{}, ErrInvalidSession
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return Values{}, ErrInvalidSession
	}

	var v Values
	if err := json.Unmarshal(plain, &v); err != nil {
		return Values{}, ErrInvalidSession
	}
	if v == nil {
		v = Values{}
	}
	return v, nil
}

func (s *CookieStore) Save(w http.ResponseWriter, v Values) error {
	if len(v) == 0 {
		s.Clear(w)
		return nil
	}
	plain, err := json.Marshal(v)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode session")
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "generate session nonce")
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, &s.key)

	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    base64.RawURLEncoding.EncodeToString(sealed),
		Path:     "/",
		MaxAge:   int(s.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *CookieStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type contextKeyValues struct{}

// WithValues attaches the loaded session to the request context.
func WithValues(ctx context.Context, v Values) context.Context {
	return context.WithValue(ctx, contextKeyValues{}, v)
}

// FromContext returns the session loaded for this request, or an empty one.
func FromContext(ctx context.Context) Values {
	if v, ok := ctx.Value(contextKeyValues{}).(Values); ok && v != nil {
		return v
	}
	return Values{}
}
