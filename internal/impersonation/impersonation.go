// Package impersonation lets an administrator narrow their data view to
// another subject. It never changes which permissions apply: every request
// that honours the state first re-checks the real identity.
package impersonation

import (
	"context"
	"strings"

	"careergate/internal/authz"
	"careergate/internal/identity"
	"careergate/internal/session"
	dErrors "careergate/pkg/domain-errors"
)

// Context is the impersonation state of one browser session.
type Context struct {
	values session.Values
}

// New wraps the session's values. Mutations are visible to whoever saves the
// session afterwards.
func New(values session.Values) *Context {
	if values == nil {
		values = session.Values{}
	}
	return &Context{values: values}
}

func (c *Context) Impersonate(subjectID string) error {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return dErrors.New(dErrors.CodeValidation, "subject id is required")
	}
	c.values.Set(session.KeyImpersonate, subjectID)
	return nil
}

func (c *Context) Stop() {
	c.values.Delete(session.KeyImpersonate)
}

func (c *Context) Current() (string, bool) {
	return c.values.Get(session.KeyImpersonate)
}

// Checker is the authorization entry point used to re-verify the real identity.
type Checker interface {
	Check(ctx context.Context, cred identity.Credential, capability authz.Capability) authz.Outcome
}

// View says whose data a request reads and who is reading it.
type View struct {
	SubjectID    string
	ActorID      string
	Impersonated bool
}

// DataSubject picks the subject whose data the request may read. real is the
// outcome the guard already produced for the request. With no impersonation
// state the real subject is returned unchanged. With state present the
// credential is checked again for CapabilityImpersonate and the target is
// honoured only if that check authorizes the same real subject; anything
// else is an error, never a silent fallback.
func DataSubject(ctx context.Context, checker Checker, cred identity.Credential, real authz.Outcome, c *Context) (View, error) {
	if !real.IsAuthorized() {
		if err := real.Err(); err != nil {
			return View{}, err
		}
		return View{}, dErrors.New(dErrors.CodeForbidden, "not authorized")
	}
	actor := real.Identity.SubjectID

	target, ok := c.Current()
	if !ok {
		return View{SubjectID: actor, ActorID: actor}, nil
	}

	out := checker.Check(ctx, cred, authz.CapabilityImpersonate)
	if !out.IsAuthorized() {
		if out.Kind == authz.KindSystemError {
			return View{}, out.Err()
		}
		return View{}, dErrors.New(dErrors.CodeForbidden, "impersonation not permitted")
	}
	if out.Identity.SubjectID != actor {
		return View{}, dErrors.New(dErrors.CodeForbidden, "identity changed during request")
	}
	return View{SubjectID: target, ActorID: actor, Impersonated: true}, nil
}
