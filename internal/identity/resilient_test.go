package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careergate/pkg/platform/circuit"
)

type countingProvider struct {
	calls int
	id    Identity
	err   error
}

func (p *countingProvider) VerifyCredential(context.Context, string) (Identity, error) {
	p.calls++
	return p.id, p.err
}

func TestResilientProvider(t *testing.T) {
	ctx := context.Background()
	outage := errors.New("connection refused")

	t.Run("fails through until the breaker opens", func(t *testing.T) {
		primary := &countingProvider{err: outage}
		fallback := &countingProvider{id: Identity{SubjectID: "sub-1"}}
		p := NewResilientProvider(primary, fallback, WithBreaker(circuit.New("test", circuit.WithFailureThreshold(2))))

		_, err := p.VerifyCredential(ctx, "tok")
		require.ErrorIs(t, err, outage)
		assert.Zero(t, fallback.calls)

		id, err := p.VerifyCredential(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, "sub-1", id.SubjectID)
		assert.Equal(t, 1, fallback.calls)
		assert.Equal(t, 2, primary.calls, "primary is still tried while open")
	})

	t.Run("rejections never fall back", func(t *testing.T) {
		primary := &countingProvider{err: ErrInvalidCredential}
		fallback := &countingProvider{id: Identity{SubjectID: "sub-1"}}
		p := NewResilientProvider(primary, fallback, WithBreaker(circuit.New("test", circuit.WithFailureThreshold(1))))

		for range 3 {
			_, err := p.VerifyCredential(ctx, "tok")
			assert.ErrorIs(t, err, ErrInvalidCredential)
		}
		assert.Zero(t, fallback.calls)
	})

	t.Run("recovered primary is used again", func(t *testing.T) {
		primary := &countingProvider{err: outage}
		fallback := &countingProvider{id: Identity{SubjectID: "local"}}
		breaker := circuit.New("test", circuit.WithFailureThreshold(1), circuit.WithSuccessThreshold(1))
		p := NewResilientProvider(primary, fallback, WithBreaker(breaker))

		_, _ = p.VerifyCredential(ctx, "tok")
		assert.Equal(t, circuit.StateOpen, breaker.State())

		primary.err = nil
		primary.id = Identity{SubjectID: "remote"}
		id, err := p.VerifyCredential(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, "remote", id.SubjectID)
		assert.Equal(t, circuit.StateClosed, breaker.State())
	})
}
