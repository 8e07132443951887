package guard

import (
	"context"
	"sync"

	"careergate/internal/authz"
	"careergate/internal/identity"
)

// State is the phase of a protected view.
type State int

const (
	StateVerifying State = iota
	StateAuthorized
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateAuthorized:
		return "authorized"
	case StateDenied:
		return "denied"
	default:
		return "verifying"
	}
}

// Snapshot is the view's current outcome. Redirect is set only when Denied.
type Snapshot struct {
	State      State
	Outcome    authz.Outcome
	Redirect   string
	Generation uint64
}

// View gates one protected view. It holds a single current outcome slot.
// Each activation starts a new generation and re-verifies from scratch; a
// result is applied only if its generation is still the latest when it
// arrives, so the check that started last always decides what is shown.
type View struct {
	checker     Checker
	capability  authz.Capability
	loginPath   string
	landingPath string

	mu      sync.Mutex
	gen     uint64
	cred    identity.Credential
	current Snapshot
}

func NewView(checker Checker, capability authz.Capability, loginPath, landingPath string) *View {
	return &View{
		checker:     checker,
		capability:  capability,
		loginPath:   loginPath,
		landingPath: landingPath,
	}
}

// SignIn sets the credential used by later activations.
func (v *View) SignIn(cred identity.Credential) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cred = cred
}

// Logout forgets the credential and resets the view to Verifying. Checks
// still in flight are discarded when they finish.
func (v *View) Logout() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cred = identity.Credential{}
	v.gen++
	v.current = Snapshot{State: StateVerifying, Generation: v.gen}
}

// Current returns the outcome currently displayed.
func (v *View) Current() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Activate enters Verifying, runs a fresh check and applies it unless a
// newer activation or a logout happened meanwhile. If ctx ends first the
// view stays in Verifying. The returned snapshot is whatever is current
// once this activation is done.
func (v *View) Activate(ctx context.Context) Snapshot {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	cred := v.cred
	v.current = Snapshot{State: StateVerifying, Generation: gen}
	v.mu.Unlock()

	out := v.checker.Check(ctx, cred, v.capability)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen || ctx.Err() != nil {
		return v.current
	}
	v.current = v.snapshot(out, gen)
	return v.current
}

func (v *View) snapshot(out authz.Outcome, gen uint64) Snapshot {
	if out.IsAuthorized() {
		return Snapshot{State: StateAuthorized, Outcome: out, Generation: gen}
	}
	redirect := v.landingPath
	if out.Kind == authz.KindUnauthenticated {
		redirect = v.loginPath
	}
	return Snapshot{State: StateDenied, Outcome: out, Redirect: redirect, Generation: gen}
}
