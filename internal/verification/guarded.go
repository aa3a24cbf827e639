package verification

import (
	"context"
	"errors"
	"log/slog"

	"domainagent/internal/backend"
	"domainagent/pkg/platform/circuit"
)

// ErrVerificationUnavailable marks calls short-circuited by an open breaker.
var ErrVerificationUnavailable = errors.New("verification unavailable")

// Checker is the batched availability lookup.
type Checker interface {
	CheckDomains(ctx context.Context, domains []string) ([]Result, error)
}

// Guarded wraps a Checker with a circuit breaker. While the circuit is open
// and cooling down, calls fail immediately with a circuit_open transport error
// so callers fall back without waiting on a dead backend.
type Guarded struct {
	next    Checker
	breaker *circuit.Breaker
	logger  *slog.Logger
	onState func(circuit.State)
}

// GuardOption configures a Guarded checker.
type GuardOption func(*Guarded)

func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(g *Guarded) {
		g.logger = logger
	}
}

// WithStateHook is called after every transition, e.g. to export a gauge.
func WithStateHook(fn func(circuit.State)) GuardOption {
	return func(g *Guarded) {
		g.onState = fn
	}
}

// NewGuarded wraps next with breaker.
func NewGuarded(next Checker, breaker *circuit.Breaker, opts ...GuardOption) *Guarded {
	g := &Guarded{
		next:    next,
		breaker: breaker,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guarded) CheckDomains(ctx context.Context, domains []string) ([]Result, error) {
	if !g.breaker.Allow() {
		return nil, backend.NewError(backend.ErrorCircuitOpen, checkPath, "circuit open", ErrVerificationUnavailable)
	}

	results, err := g.next.CheckDomains(ctx, domains)
	if err != nil {
		// A caller that gave up says nothing about the backend's health.
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "verification circuit opened",
				"breaker", g.breaker.Name(),
				"error", err,
			)
			g.notify()
		}
		return nil, err
	}

	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "verification circuit closed", "breaker", g.breaker.Name())
		g.notify()
	}
	return results, nil
}

func (g *Guarded) notify() {
	if g.onState != nil {
		g.onState(g.breaker.State())
	}
}
