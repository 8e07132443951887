// Package roles adapts the external profile store into role lookups. Records
// are read fresh on every lookup; nothing here caches, so a role change made
// by an administrator applies to the very next request.
package roles

import (
	"context"
	"errors"
	"fmt"

	dErrors "careergate/pkg/domain-errors"
)

// Role is the coarse permission tier stored on a profile.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// All lists every role the policy understands.
func All() []Role { return []Role{RoleUser, RoleAdmin} }

// ParseRole accepts only the known tiers. Anything else, including "", is
// reported as unknown rather than defaulted.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), true
	default:
		return "", false
	}
}

// Record is one subject's profile entry. The store owns it; this layer only reads.
type Record struct {
	SubjectID string
	Role      Role
}

// ErrNotFound is returned by stores when the subject has no profile row.
var ErrNotFound = dErrors.New(dErrors.CodeNotProvisioned, "profile not found")

// Store is the read interface over the external profile store.
// Error contract: FindRole returns ErrNotFound for a missing profile and any
// other error for transport or storage failures. The role string is returned
// as stored.
type Store interface {
	FindRole(ctx context.Context, subjectID string) (subject string, role string, err error)
}

// LookupStatus separates "no profile" from "could not ask".
type LookupStatus int

const (
	LookupFailed LookupStatus = iota
	LookupFound
	LookupNotFound
)

// LookupResult is the typed outcome of one role lookup.
type LookupResult struct {
	Status LookupStatus
	Record Record
	Err    error
}

// Adapter performs exactly one store call per Lookup.
type Adapter struct {
	store Store
}

func NewAdapter(store Store) *Adapter {
	return &Adapter{store: store}
}

// Lookup fetches the subject's role. A row with an unrecognised role is
// treated as not provisioned, and a row for a different subject than the one
// asked about is a failure: the caller must never pair one subject's identity
// with another subject's role.
func (a *Adapter) Lookup(ctx context.Context, subjectID string) LookupResult {
	subject, raw, err := a.store.FindRole(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return LookupResult{Status: LookupNotFound}
		}
		return LookupResult{Status: LookupFailed, Err: dErrors.Wrap(err, dErrors.CodeUnavailable, "profile store unavailable")}
	}
	if subject != subjectID {
		return LookupResult{
			Status: LookupFailed,
			Err:    dErrors.New(dErrors.CodeInternal, fmt.Sprintf("profile store returned subject %q for %q", subject, subjectID)),
		}
	}
	role, ok := ParseRole(raw)
	if !ok {
		return LookupResult{Status: LookupNotFound}
	}
	return LookupResult{Status: LookupFound, Record: Record{SubjectID: subjectID, Role: role}}
}
