// Package rategate enforces a per-user cooldown between match runs. The
// allowance is consumed only once a run has found listings to process, so
// a run that fails early does not cost the user their window.
package rategate

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// DefaultWindow is the cooldown between successful match runs.
const DefaultWindow = 30 * time.Minute

// IdentityStore persists the last successful run per identity.
type IdentityStore interface {
	// GetLastRun returns the last committed run time, or nil when the
	// identity has never run.
	GetLastRun(ctx context.Context, identity string) (*time.Time, error)
	// SetLastRun records a committed run.
	SetLastRun(ctx context.Context, identity string, at time.Time) error
}

// Decision is the outcome of a Check.
type Decision struct {
	Allowed           bool
	RetryAfterSeconds int
	NextAllowed       time.Time
}

// Gate applies the cooldown. A passing Check reserves the identity until
// Commit or Release, so two concurrent checks for the same identity never
// both pass.
type Gate struct {
	store  IdentityStore
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// New creates a Gate over the given store. A zero window disables the gate
// entirely; a negative window selects the default.
func New(store IdentityStore, window time.Duration, opts ...Option) *Gate {
	if window < 0 {
		window = DefaultWindow
	}
	g := &Gate{
		store:    store,
		window:   window,
		now:      time.Now,
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Enabled reports whether the gate is enforcing a window.
func (g *Gate) Enabled() bool {
	return g.window > 0
}

// Check decides whether the identity may start a run. An allowed decision
// reserves the identity; the caller must follow up with Commit or Release.
func (g *Gate) Check(ctx context.Context, identity string) (Decision, error) {
	if !g.Enabled() {
		return Decision{Allowed: true}, nil
	}

	g.mu.Lock()
	if _, busy := g.inflight[identity]; busy {
		g.mu.Unlock()
		return g.denied(g.now().Add(g.window)), nil
	}
	g.inflight[identity] = struct{}{}
	g.mu.Unlock()

	last, err := g.store.GetLastRun(ctx, identity)
	if err != nil {
		g.Release(identity)
		return Decision{}, fmt.Errorf("rate gate lookup: %w", err)
	}
	if last != nil {
		next := last.Add(g.window)
		if g.now().Before(next) {
			g.Release(identity)
			return g.denied(next), nil
		}
	}
	return Decision{Allowed: true}, nil
}

// Commit persists the run time and drops the reservation. Call it once the
// run has passed the point that consumes the allowance.
func (g *Gate) Commit(ctx context.Context, identity string) error {
	defer g.Release(identity)
	if !g.Enabled() {
		return nil
	}
	if err := g.store.SetLastRun(ctx, identity, g.now()); err != nil {
		return fmt.Errorf("rate gate commit: %w", err)
	}
	return nil
}

// Release drops a reservation without consuming the allowance. Safe to
// call for identities that hold no reservation.
func (g *Gate) Release(identity string) {
	g.mu.Lock()
	delete(g.inflight, identity)
	g.mu.Unlock()
}

func (g *Gate) denied(next time.Time) Decision {
	wait := next.Sub(g.now())
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return Decision{
		Allowed:           false,
		RetryAfterSeconds: seconds,
		NextAllowed:       next,
	}
}
