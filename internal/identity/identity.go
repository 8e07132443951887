// Package identity turns a caller-supplied bearer credential into a verified
// subject identity. It has no state of its own: the same credential against
// the same provider state always resolves the same way.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	dErrors "careergate/pkg/domain-errors"
	"careergate/pkg/requestcontext"
)

// ErrInvalidCredential is returned by providers for credentials they reject
// (malformed, expired, revoked). Any other provider error is treated as an
// infrastructure failure.
var ErrInvalidCredential = dErrors.New(dErrors.CodeInvalidToken, "invalid credential")

// Identity is the verified subject. It only exists after a successful
// verification and is never mutated afterwards.
type Identity struct {
	SubjectID string
}

// Credential is an opaque bearer token as presented by the caller. It is
// never persisted and never logged.
type Credential struct {
	token   string
	present bool
}

// FromAuthorizationHeader parses an Authorization header value. An empty
// header yields an absent credential, a header without a usable Bearer token
// yields a present but empty one.
func FromAuthorizationHeader(header string) Credential {
	if header == "" {
		return Credential{}
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return Credential{present: true}
	}
	return Credential{token: strings.TrimSpace(token), present: true}
}

// FromToken wraps a token read from client session storage.
func FromToken(token string) Credential {
	return Credential{token: token, present: token != ""}
}

func (c Credential) Present() bool { return c.present }
func (c Credential) Token() string { return c.token }

// String keeps credentials out of logs and fmt output.
func (c Credential) String() string {
	if !c.present {
		return "credential(absent)"
	}
	return "credential(redacted)"
}

// Provider verifies a credential with the external identity provider.
type Provider interface {
	VerifyCredential(ctx context.Context, token string) (Identity, error)
}

// Status is the category of a resolution attempt.
type Status int

const (
	// StatusUnauthenticated is the zero value so an uninitialised Result never
	// reads as resolved.
	StatusUnauthenticated Status = iota
	StatusResolved
	StatusFailed
)

// Reason explains an unauthenticated result. It is coarse on purpose: callers
// learn that a credential failed, not why the provider rejected it.
type Reason string

const (
	ReasonMissingCredential Reason = "missing_credential"
	ReasonInvalidCredential Reason = "invalid_credential"
)

// Result is the outcome of resolving one credential.
type Result struct {
	Status   Status
	Identity Identity
	Reason   Reason
	// Err is set for StatusFailed only and is for operators, never callers.
	Err error
}

func (r Result) Resolved() bool { return r.Status == StatusResolved }

func Resolved(id Identity) Result         { return Result{Status: StatusResolved, Identity: id} }
func Unauthenticated(reason Reason) Result { return Result{Status: StatusUnauthenticated, Reason: reason} }
func Failed(err error) Result              { return Result{Status: StatusFailed, Err: err} }

// Resolver is the credential resolver.
type Resolver struct {
	provider Provider
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func NewResolver(provider Provider, opts ...Option) *Resolver {
	r := &Resolver{provider: provider, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve verifies the credential. Absent and unusable credentials never reach
// the provider. Provider rejections become ReasonInvalidCredential; provider
// outages become StatusFailed so they can be reported as system errors.
func (r *Resolver) Resolve(ctx context.Context, cred Credential) Result {
	if !cred.Present() {
		return Unauthenticated(ReasonMissingCredential)
	}
	if cred.Token() == "" {
		return Unauthenticated(ReasonInvalidCredential)
	}

	id, err := r.provider.VerifyCredential(ctx, cred.Token())
	if err != nil {
		if errors.Is(err, ErrInvalidCredential) {
			r.logger.DebugContext(ctx, "credential rejected by provider",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			return Unauthenticated(ReasonInvalidCredential)
		}
		return Failed(dErrors.Wrap(err, dErrors.CodeUnavailable, "identity provider unavailable"))
	}
	if id.SubjectID == "" {
		return Unauthenticated(ReasonInvalidCredential)
	}
	return Resolved(id)
}
