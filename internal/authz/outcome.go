package authz

import (
	"context"

	"careergate/internal/identity"
	"careergate/internal/roles"
	dErrors "careergate/pkg/domain-errors"
)

// Kind tags an Outcome. The zero value is not a valid decision and is never
// treated as authorized.
type Kind int

const (
	kindUnknown Kind = iota
	KindAuthorized
	KindUnauthenticated
	KindForbidden
	KindSystemError
)

func (k Kind) String() string {
	switch k {
	case KindAuthorized:
		return "authorized"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindSystemError:
		return "system_error"
	default:
		return "unknown"
	}
}

// Reason narrows a non-authorized outcome for logs and metrics.
type Reason string

const (
	ReasonMissingCredential   Reason = "missing_credential"
	ReasonInvalidCredential   Reason = "invalid_credential"
	ReasonNotProvisioned      Reason = "not_provisioned"
	ReasonRoleMismatch        Reason = "role_mismatch"
	ReasonIdentityUnavailable Reason = "identity_unavailable"
	ReasonRoleLookupFailed    Reason = "role_lookup_failed"
	ReasonUnknownCapability   Reason = "unknown_capability"
	ReasonPolicyFailed        Reason = "policy_failed"
)

// Outcome is the result of one authorization check. It is built fresh per
// check and never persisted.
type Outcome struct {
	Kind     Kind
	Identity identity.Identity
	Role     roles.Role
	Reason   Reason
	// Cause is kept for operator logs. It is never rendered to callers.
	Cause error
}

func Authorized(id identity.Identity, role roles.Role) Outcome {
	return Outcome{Kind: KindAuthorized, Identity: id, Role: role}
}

func Unauthenticated(reason Reason) Outcome {
	return Outcome{Kind: KindUnauthenticated, Reason: reason}
}

func Forbidden(reason Reason) Outcome {
	return Outcome{Kind: KindForbidden, Reason: reason}
}

func SystemError(reason Reason, cause error) Outcome {
	return Outcome{Kind: KindSystemError, Reason: reason, Cause: cause}
}

func (o Outcome) IsAuthorized() bool {
	return o.Kind == KindAuthorized && o.Identity.SubjectID != ""
}

// Err converts a non-authorized outcome into a domain error the transport
// layer can map. An authorized outcome returns nil.
func (o Outcome) Err() error {
	switch o.Kind {
	case KindAuthorized:
		if o.IsAuthorized() {
			return nil
		}
		return dErrors.New(dErrors.CodeInternal, "authorized outcome without identity")
	case KindUnauthenticated:
		if o.Reason == ReasonMissingCredential {
			return dErrors.New(dErrors.CodeUnauthenticated, "missing credential")
		}
		return dErrors.New(dErrors.CodeInvalidToken, "invalid credential")
	case KindForbidden:
		if o.Reason == ReasonNotProvisioned {
			return dErrors.New(dErrors.CodeNotProvisioned, "profile not provisioned")
		}
		return dErrors.New(dErrors.CodeForbidden, "insufficient role")
	case KindSystemError:
		return &dErrors.Error{Code: dErrors.CodeUnavailable, Message: "authorization unavailable", Err: o.Cause}
	default:
		return dErrors.New(dErrors.CodeInternal, "undecided authorization")
	}
}

type contextKeyOutcome struct{}

// WithOutcome stores an authorized outcome for downstream handlers.
func WithOutcome(ctx context.Context, o Outcome) context.Context {
	return context.WithValue(ctx, contextKeyOutcome{}, o)
}

// OutcomeFrom returns the outcome the guard stored for this request. The
// boolean is false when no guard ran or the stored outcome is not authorized.
func OutcomeFrom(ctx context.Context) (Outcome, bool) {
	o, ok := ctx.Value(contextKeyOutcome{}).(Outcome)
	if !ok || !o.IsAuthorized() {
		return Outcome{}, false
	}
	return o, true
}
