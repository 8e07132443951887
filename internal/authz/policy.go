package authz

import (
	"context"
	"slices"
	"strings"

	"careergate/internal/identity"
	"careergate/internal/roles"
)

// Requirement is the set of roles that satisfy a capability. A role must be
// an exact member; there is no role hierarchy. Requirements built by a Table
// ask the policy enforcer on every check.
type Requirement struct {
	allowed []roles.Role
	enforce func(role roles.Role) (bool, error)
}

// RequireRole is satisfied only by the given roles.
func RequireRole(allowed ...roles.Role) Requirement {
	return Requirement{allowed: slices.Clone(allowed)}
}

// RequireProvisioned is satisfied by any known role.
func RequireProvisioned() Requirement {
	return RequireRole(roles.All()...)
}

// Allows reports whether role satisfies the requirement. An error means the
// policy could not be evaluated.
func (q Requirement) Allows(role roles.Role) (bool, error) {
	if q.enforce != nil {
		return q.enforce(role)
	}
	return slices.Contains(q.allowed, role), nil
}

// Satisfied is Allows with evaluation errors treated as a denial.
func (q Requirement) Satisfied(role roles.Role) bool {
	ok, err := q.Allows(role)
	return err == nil && ok
}

func (q Requirement) String() string {
	parts := make([]string, len(q.allowed))
	for i, r := range q.allowed {
		parts[i] = string(r)
	}
	return strings.Join(parts, "|")
}

// RoleLookupFunc performs one role lookup for a verified subject.
type RoleLookupFunc func(ctx context.Context, subjectID string) roles.LookupResult

// Decide runs the policy in its fixed order: identity first, and only for a
// resolved identity is the role looked up, exactly once, for that identity's
// subject. A failed identity short-circuits so no role detail is evaluated.
func Decide(ctx context.Context, id identity.Result, lookup RoleLookupFunc, req Requirement) Outcome {
	if out, done := identityOutcome(id); done {
		return out
	}
	return Evaluate(id, lookup(ctx, id.Identity.SubjectID), req)
}

// Evaluate is the pure decision table over already-gathered inputs. When
// both inputs failed, the identity failure is the one reported.
func Evaluate(id identity.Result, lookup roles.LookupResult, req Requirement) Outcome {
	if out, done := identityOutcome(id); done {
		return out
	}

	switch lookup.Status {
	case roles.LookupFound:
		if lookup.Record.SubjectID != id.Identity.SubjectID {
			return SystemError(ReasonRoleLookupFailed, nil)
		}
		ok, err := req.Allows(lookup.Record.Role)
		if err != nil {
			return SystemError(ReasonPolicyFailed, err)
		}
		if !ok {
			return Forbidden(ReasonRoleMismatch)
		}
		return Authorized(id.Identity, lookup.Record.Role)
	case roles.LookupNotFound:
		return Forbidden(ReasonNotProvisioned)
	default:
		return SystemError(ReasonRoleLookupFailed, lookup.Err)
	}
}

func identityOutcome(id identity.Result) (Outcome, bool) {
	switch id.Status {
	case identity.StatusResolved:
		if id.Identity.SubjectID == "" {
			return Unauthenticated(ReasonInvalidCredential), true
		}
		return Outcome{}, false
	case identity.StatusFailed:
		return SystemError(ReasonIdentityUnavailable, id.Err), true
	default:
		if id.Reason == identity.ReasonMissingCredential {
			return Unauthenticated(ReasonMissingCredential), true
		}
		return Unauthenticated(ReasonInvalidCredential), true
	}
}
