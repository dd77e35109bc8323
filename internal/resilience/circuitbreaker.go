// Package resilience provides circuit breaker and provider failover primitives.
//
// [Breaker] is a three-state circuit breaker (closed, open, half-open) that
// shields callers from a repeatedly failing dependency. [Group] chains several
// instances of the same provider type, each behind its own breaker, so a
// failing primary is skipped in favour of healthy fallbacks. [LLMFallback] and
// [STTFallback] apply the group to the provider interfaces used by the
// analysis pipeline.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrBreakerOpen is returned by [Breaker.Do] while the breaker is open and the
// cool-down period has not yet elapsed.
var ErrBreakerOpen = errors.New("circuit breaker open")

const (
	defaultMaxFailures = 5
	defaultCoolDown    = 30 * time.Second
	defaultProbeQuota  = 3
)

// State is the operating mode of a [Breaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects calls with [ErrBreakerOpen] until the cool-down
	// elapses.
	StateOpen

	// StateHalfOpen lets a bounded number of probe calls through. All probes
	// succeeding closes the breaker; any probe failing re-opens it.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerOption customizes a [Breaker].
type BreakerOption func(*Breaker)

// WithMaxFailures sets how many consecutive failures trip the breaker.
func WithMaxFailures(n int) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.maxFailures = n
		}
	}
}

// WithCoolDown sets how long the breaker stays open before probing again.
func WithCoolDown(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.coolDown = d
		}
	}
}

// WithProbeQuota sets how many half-open probe calls must succeed before the
// breaker closes again.
func WithProbeQuota(n int) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.probeQuota = n
		}
	}
}

// withClock overrides the time source. Test hook.
func withClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) { b.now = now }
}

// Breaker implements the circuit breaker pattern around an arbitrary call.
type Breaker struct {
	name        string
	maxFailures int
	coolDown    time.Duration
	probeQuota  int
	now         func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	trippedAt   time.Time
	probeCalls  int
	probePassed int
}

// NewBreaker creates a closed [Breaker]. The name appears in log messages.
func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:        name,
		maxFailures: defaultMaxFailures,
		coolDown:    defaultCoolDown,
		probeQuota:  defaultProbeQuota,
		now:         time.Now,
		state:       StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Do runs fn if the breaker permits it. In the open state it returns
// [ErrBreakerOpen] without invoking fn. In the half-open state only the probe
// quota of calls is admitted.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	switch b.state {
	case StateOpen:
		if b.now().Sub(b.trippedAt) < b.coolDown {
			b.mu.Unlock()
			return ErrBreakerOpen
		}
		b.state = StateHalfOpen
		b.probeCalls = 0
		b.probePassed = 0
		slog.Info("circuit breaker half-open", "name", b.name)

	case StateHalfOpen:
		if b.probeCalls >= b.probeQuota {
			b.mu.Unlock()
			return ErrBreakerOpen
		}
	}

	probing := b.state == StateHalfOpen
	if probing {
		b.probeCalls++
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure(probing)
	} else {
		b.onSuccess(probing)
	}
	return err
}

// onFailure must be called with b.mu held.
func (b *Breaker) onFailure(probing bool) {
	b.trippedAt = b.now()

	if probing {
		b.state = StateOpen
		b.failures = b.maxFailures
		slog.Warn("circuit breaker re-opened", "name", b.name)
		return
	}

	b.failures++
	if b.failures >= b.maxFailures {
		b.state = StateOpen
		slog.Warn("circuit breaker opened",
			"name", b.name,
			"consecutive_failures", b.failures)
	}
}

// onSuccess must be called with b.mu held.
func (b *Breaker) onSuccess(probing bool) {
	if probing {
		b.probePassed++
		if b.probePassed >= b.probeQuota {
			b.state = StateClosed
			b.failures = 0
			b.probeCalls = 0
			b.probePassed = 0
			slog.Info("circuit breaker closed", "name", b.name)
		}
		return
	}
	b.failures = 0
}
