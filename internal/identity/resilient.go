package identity

import (
	"context"
	"errors"
	"log/slog"

	"careergate/pkg/platform/circuit"
	"careergate/pkg/requestcontext"
)

// ResilientProvider verifies with the remote provider and falls back to a
// local verifier once the remote one has failed repeatedly. Rejections are
// answers, not failures: they never move the breaker and never reach the
// fallback.
type ResilientProvider struct {
	primary  Provider
	fallback Provider
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

type ResilientOption func(*ResilientProvider)

func WithBreaker(b *circuit.Breaker) ResilientOption {
	return func(p *ResilientProvider) { p.breaker = b }
}

func WithResilientLogger(logger *slog.Logger) ResilientOption {
	return func(p *ResilientProvider) { p.logger = logger }
}

func NewResilientProvider(primary, fallback Provider, opts ...ResilientOption) *ResilientProvider {
	p := &ResilientProvider{
		primary:  primary,
		fallback: fallback,
		breaker:  circuit.New("identity_provider"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *ResilientProvider) VerifyCredential(ctx context.Context, token string) (Identity, error) {
	id, err := p.primary.VerifyCredential(ctx, token)
	if err == nil || errors.Is(err, ErrInvalidCredential) {
		if t := p.breaker.RecordSuccess(); t.Closed {
			p.logger.InfoContext(ctx, "circuit breaker closed", "circuit", p.breaker.Name())
		}
		return id, err
	}

	degrade, t := p.breaker.RecordFailure()
	if t.Opened {
		p.logger.ErrorContext(ctx, "circuit breaker opened",
			"circuit", p.breaker.Name(),
			"error", err,
		)
	}
	if !degrade {
		return Identity{}, err
	}

	p.logger.WarnContext(ctx, "verifying credential locally",
		"circuit", p.breaker.Name(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return p.fallback.VerifyCredential(ctx, token)
}
