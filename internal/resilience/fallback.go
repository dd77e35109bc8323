package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every member of a [Group] fails or has an open
// breaker.
var ErrAllFailed = errors.New("all providers failed")

// member pairs a provider value with its dedicated breaker.
type member[T any] struct {
	name    string
	value   T
	breaker *Breaker
}

// Group chains a primary and zero or more fallback instances of the same
// provider type. Each member gets its own [Breaker] built from the options
// passed to [NewGroup]; members are tried in registration order and
// open-breaker members are skipped.
type Group[T any] struct {
	members     []member[T]
	breakerOpts []BreakerOption
}

// NewGroup creates a [Group] with primary as the first member. The breaker
// options apply to every member's breaker.
func NewGroup[T any](primaryName string, primary T, opts ...BreakerOption) *Group[T] {
	g := &Group[T]{breakerOpts: opts}
	g.Add(primaryName, primary)
	return g
}

// Add appends a fallback provider. Fallbacks are tried after the primary, in
// the order added. Add must not be called concurrently with Do.
func (g *Group[T]) Add(name string, value T) {
	g.members = append(g.members, member[T]{
		name:    name,
		value:   value,
		breaker: NewBreaker(name, g.breakerOpts...),
	})
}

// Do tries fn against each member in order until one succeeds. It returns
// [ErrAllFailed] wrapping the last error when no member succeeds.
func (g *Group[T]) Do(fn func(T) error) error {
	var lastErr error
	for i := range g.members {
		m := &g.members[i]
		err := m.breaker.Do(func() error { return fn(m.value) })
		if err == nil {
			return nil
		}
		lastErr = err
		logMemberFailure(m.name, err)
	}
	return fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}

// DoWithResult tries fn against each member of g until one succeeds and
// returns its result. A package-level function because Go methods cannot take
// extra type parameters.
func DoWithResult[T, R any](g *Group[T], fn func(T) (R, error)) (R, error) {
	var (
		lastErr error
		zero    R
	)
	for i := range g.members {
		m := &g.members[i]
		var result R
		err := m.breaker.Do(func() error {
			var callErr error
			result, callErr = fn(m.value)
			return callErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
		logMemberFailure(m.name, err)
	}
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}

func logMemberFailure(name string, err error) {
	if errors.Is(err, ErrBreakerOpen) {
		slog.Debug("skipping provider, circuit open", "provider", name)
		return
	}
	slog.Warn("provider failed, trying next", "provider", name, "error", err)
}
