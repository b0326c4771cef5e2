package pace

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval keeps writes under the remote API's average request rate.
const DefaultInterval = 400 * time.Millisecond

// Clock abstracts time so the gate can be driven by a fake in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock is the wall clock.
func RealClock() Clock { return realClock{} }

// Gate enforces a minimum interval between successive calls to Wait. The
// first call never blocks.
type Gate struct {
	mu       sync.Mutex
	clk      Clock
	interval time.Duration
	last     time.Time
	used     bool
}

// NewGate builds a gate; a nil clock means the wall clock and a negative
// interval is treated as zero.
func NewGate(interval time.Duration, clk Clock) *Gate {
	if clk == nil {
		clk = RealClock()
	}
	if interval < 0 {
		interval = 0
	}
	return &Gate{clk: clk, interval: interval}
}

// Interval returns the configured minimum spacing.
func (g *Gate) Interval() time.Duration { return g.interval }

// Wait blocks until at least Interval has passed since the previous Wait
// returned, or until ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if g.used {
		if d := g.interval - g.clk.Now().Sub(g.last); d > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-g.clk.After(d):
			}
		}
	}
	g.used = true
	g.last = g.clk.Now()
	return nil
}
