package geocode

import (
	"context"
	"sync"
	"time"
)

// RateGate spaces calls at least interval apart. Callers that arrive too
// early sleep out the gap while holding the gate, so concurrent callers
// queue up behind each other.
type RateGate struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRateGate(interval time.Duration) *RateGate {
	return &RateGate{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func (g *RateGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() {
		if gap := g.interval - g.now().Sub(g.last); gap > 0 {
			if err := g.sleep(ctx, gap); err != nil {
				return err
			}
		}
	}
	g.last = g.now()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
