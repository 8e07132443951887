// Package circuit is a two-state circuit breaker for calls to external
// dependencies that have a degraded alternative.
package circuit

import "sync"

type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Transition reports whether a Record call moved the breaker.
type Transition struct {
	Opened bool
	Closed bool
}

// Breaker opens after a run of consecutive failures and closes again after a
// run of consecutive successes observed while open. Callers keep trying the
// primary path while open; the breaker only tells them when to degrade.
type Breaker struct {
	mu               sync.Mutex
	name             string
	state            State
	failures         int
	successes        int
	failureThreshold int
	successThreshold int
}

type Option func(*Breaker)

// WithFailureThreshold defaults to 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold defaults to 3.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 3,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// RecordFailure counts a failed call. degrade is true once the breaker is
// open and the caller should take its fallback.
func (b *Breaker) RecordFailure() (degrade bool, t Transition) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.successes = 0
	if b.state == StateOpen {
		return true, Transition{}
	}
	if b.failures >= b.failureThreshold {
		b.state = StateOpen
		return true, Transition{Opened: true}
	}
	return false, Transition{}
}

// RecordSuccess counts a successful call.
func (b *Breaker) RecordSuccess() Transition {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state != StateOpen {
		return Transition{}
	}
	b.successes++
	if b.successes < b.successThreshold {
		return Transition{}
	}
	b.state = StateClosed
	b.successes = 0
	return Transition{Closed: true}
}
