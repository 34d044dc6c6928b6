package level

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Pending is a level still being generated.
type Pending struct {
	done  chan struct{}
	level *Level
	err   error
}

// Ready is closed once the level, or the error, is available.
func (p *Pending) Ready() <-chan struct{} {
	return p.done
}

// Await blocks until the level is ready or ctx is done.
func (p *Pending) Await(ctx context.Context) (*Level, error) {
	select {
	case <-p.done:
		return p.level, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Start generates a level in the background. Seeds that carve too little
// space or no room are retried with derived seeds up to cfg.Attempts
// times; any other error ends generation.
func Start(ctx context.Context, cfg Config) *Pending {
	return start(ctx, cfg, nil)
}

func start(ctx context.Context, cfg Config, publish func(*Level)) *Pending {
	p := &Pending{done: make(chan struct{})}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	base := cfg.Seed
	if base == 0 {
		base = cfg.Plan.Seed
	}
	if base == 0 {
		base = time.Now().UnixNano()
	}

	go func() {
		defer close(p.done)

		attempt := 0
		op := func() (*Level, error) {
			seed := DeriveSeed(base, attempt)
			n := attempt
			attempt++

			l, err := Generate(ctx, cfg, seed)
			switch {
			case err == nil:
				l.Attempt = n
				return l, nil
			case errors.Is(err, ErrTooSmall), errors.Is(err, ErrNoRoom):
				return nil, err
			default:
				return nil, backoff.Permanent(err)
			}
		}

		p.level, p.err = backoff.Retry(ctx, op,
			backoff.WithBackOff(&backoff.ZeroBackOff{}),
			backoff.WithMaxTries(uint(cfg.Attempts)),
			backoff.WithNotify(func(err error, _ time.Duration) {
				cfg.Log.V(1).Info("retrying level generation", "plan", cfg.Plan.ID, "attempt", attempt, "reason", err.Error())
			}),
		)
		if p.err != nil {
			cfg.Log.Error(p.err, "level generation failed", "plan", cfg.Plan.ID, "attempts", attempt)
			return
		}
		cfg.Log.Info("level ready", "id", p.level.ID, "plan", cfg.Plan.ID, "seed", p.level.Seed, "nodes", p.level.Graph.Len())
		if publish != nil {
			publish(p.level)
		}
	}()
	return p
}

// Host holds the current level and swaps in regenerated ones whole.
type Host struct {
	current atomic.Pointer[Level]
}

// Current returns the published level, or nil before the first one is ready.
func (h *Host) Current() *Level {
	return h.current.Load()
}

// Regenerate starts generating a level that replaces the current one once
// it is ready. A failed generation leaves the current level in place.
func (h *Host) Regenerate(ctx context.Context, cfg Config) *Pending {
	return start(ctx, cfg, func(l *Level) {
		h.current.Store(l)
	})
}
