package stealth

import (
	"context"
	"math/rand"
	"time"
)

// PageDelay adds randomized jitter between page fetches so a batch run does
// not hit the site with a metronome cadence.
type PageDelay struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

// NewPageDelay creates a delay generator. Zero bounds disable the delay.
func NewPageDelay(min, max time.Duration) *PageDelay {
	return &PageDelay{MinDelay: min, MaxDelay: max}
}

// Wait sleeps for a random duration within the configured range.
func (d *PageDelay) Wait(ctx context.Context) error {
	dur := d.next()
	if dur <= 0 {
		return nil
	}
	select {
	case <-time.After(dur):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *PageDelay) next() time.Duration {
	if d.MinDelay >= d.MaxDelay {
		return d.MinDelay
	}
	return d.MinDelay + time.Duration(rand.Int63n(int64(d.MaxDelay-d.MinDelay)))
}
