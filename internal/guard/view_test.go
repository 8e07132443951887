package guard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careergate/internal/authz"
	"careergate/internal/identity"
	"careergate/internal/roles"
)

// scriptedChecker returns queued outcomes in call order. Each call blocks
// until its release channel is closed.
type scriptedChecker struct {
	mu      sync.Mutex
	calls   int
	steps   []step
	started chan int
}

type step struct {
	out     authz.Outcome
	release chan struct{}
}

func (c *scriptedChecker) Check(ctx context.Context, cred identity.Credential, _ authz.Capability) authz.Outcome {
	c.mu.Lock()
	i := c.calls
	c.calls++
	st := c.steps[i]
	c.mu.Unlock()

	if c.started != nil {
		c.started <- i
	}
	if st.release != nil {
		select {
		case <-st.release:
		case <-ctx.Done():
			return authz.SystemError(authz.ReasonIdentityUnavailable, ctx.Err())
		}
	}
	if !cred.Present() {
		return authz.Unauthenticated(authz.ReasonMissingCredential)
	}
	return st.out
}

func admin() authz.Outcome {
	return authz.Authorized(identity.Identity{SubjectID: subjectID}, roles.RoleAdmin)
}

func TestViewActivate(t *testing.T) {
	tests := []struct {
		name     string
		cred     identity.Credential
		out      authz.Outcome
		state    State
		redirect string
	}{
		{"authorized", identity.FromToken("tok"), admin(), StateAuthorized, ""},
		{"no credential goes to login", identity.Credential{}, admin(), StateDenied, "/login"},
		{"role mismatch goes to landing", identity.FromToken("tok"), authz.Forbidden(authz.ReasonRoleMismatch), StateDenied, "/dashboard"},
		{"not provisioned goes to landing", identity.FromToken("tok"), authz.Forbidden(authz.ReasonNotProvisioned), StateDenied, "/dashboard"},
		{"lookup failure goes to landing", identity.FromToken("tok"), authz.SystemError(authz.ReasonRoleLookupFailed, nil), StateDenied, "/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewView(&scriptedChecker{steps: []step{{out: tt.out}}}, authz.CapabilityAdminDashboard, "/login", "/dashboard")
			v.SignIn(tt.cred)

			snap := v.Activate(context.Background())

			assert.Equal(t, tt.state, snap.State)
			assert.Equal(t, tt.redirect, snap.Redirect)
			assert.Equal(t, snap, v.Current())
		})
	}
}

func TestViewStartsVerifying(t *testing.T) {
	v := NewView(&scriptedChecker{}, authz.CapabilityAdminDashboard, "/login", "/dashboard")
	assert.Equal(t, StateVerifying, v.Current().State)
}

func TestViewReverifiesOnEveryActivation(t *testing.T) {
	checker := &scriptedChecker{steps: []step{{out: admin()}, {out: authz.Forbidden(authz.ReasonRoleMismatch)}}}
	v := NewView(checker, authz.CapabilityAdminDashboard, "/login", "/dashboard")
	v.SignIn(identity.FromToken("tok"))

	assert.Equal(t, StateAuthorized, v.Activate(context.Background()).State)
	assert.Equal(t, StateDenied, v.Activate(context.Background()).State)
	assert.Equal(t, 2, checker.calls)
}

func TestViewLogoutClearsAuthorizedState(t *testing.T) {
	checker := &scriptedChecker{steps: []step{{out: admin()}, {out: admin()}}}
	v := NewView(checker, authz.CapabilityAdminDashboard, "/login", "/dashboard")
	v.SignIn(identity.FromToken("tok"))
	require.Equal(t, StateAuthorized, v.Activate(context.Background()).State)

	v.Logout()
	assert.Equal(t, StateVerifying, v.Current().State)

	snap := v.Activate(context.Background())
	assert.Equal(t, StateDenied, snap.State)
	assert.Equal(t, "/login", snap.Redirect)
}

func TestViewLatestStartedActivationWins(t *testing.T) {
	first := make(chan struct{})
	second := make(chan struct{})
	checker := &scriptedChecker{
		started: make(chan int, 2),
		steps: []step{
			{out: authz.Forbidden(authz.ReasonRoleMismatch), release: first},
			{out: admin(), release: second},
		},
	}
	v := NewView(checker, authz.CapabilityAdminDashboard, "/login", "/dashboard")
	v.SignIn(identity.FromToken("tok"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v.Activate(context.Background())
	}()
	<-checker.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		v.Activate(context.Background())
	}()
	<-checker.started

	// The later activation resolves first, then the stale one arrives.
	close(second)
	require.Eventually(t, func() bool { return v.Current().State == StateAuthorized }, time.Second, time.Millisecond)
	close(first)
	wg.Wait()

	assert.Equal(t, StateAuthorized, v.Current().State)
	assert.Equal(t, uint64(2), v.Current().Generation)
}

func TestViewLogoutDiscardsInFlightCheck(t *testing.T) {
	release := make(chan struct{})
	checker := &scriptedChecker{started: make(chan int, 1), steps: []step{{out: admin(), release: release}}}
	v := NewView(checker, authz.CapabilityAdminDashboard, "/login", "/dashboard")
	v.SignIn(identity.FromToken("tok"))

	done := make(chan Snapshot)
	go func() { done <- v.Activate(context.Background()) }()
	<-checker.started

	v.Logout()
	close(release)

	assert.Equal(t, StateVerifying, (<-done).State)
	assert.Equal(t, StateVerifying, v.Current().State)
}

func TestViewCancelledCheckStaysVerifying(t *testing.T) {
	checker := &scriptedChecker{started: make(chan int, 1), steps: []step{{out: admin(), release: make(chan struct{})}}}
	v := NewView(checker, authz.CapabilityAdminDashboard, "/login", "/dashboard")
	v.SignIn(identity.FromToken("tok"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Snapshot)
	go func() { done <- v.Activate(ctx) }()
	<-checker.started
	cancel()

	assert.Equal(t, StateVerifying, (<-done).State)
}
