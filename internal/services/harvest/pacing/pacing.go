// Package pacing spaces out submissions to the extraction pool
package pacing

import (
	"context"
	"time"
)

// PauseKind names the rule that produced a pause
type PauseKind string

const (
	// KindRequest is the per request delay
	KindRequest PauseKind = "request"
	// KindBatch is the pause at a batch boundary
	KindBatch PauseKind = "batch"
)

// Pause is one sleep taken before a submission
type Pause struct {
	Kind PauseKind
	D    time.Duration
}

// Limiter holds the pacing policy
// the zero value never sleeps
type Limiter struct {
	PerRequest time.Duration
	BatchDelay time.Duration
	BatchSize  int

	// OnPause observes every pause before it is taken
	OnPause func(index int, p Pause)
}

var sleep = sleepCtx

// Pauses lists the sleeps due before submission index (0-based)
// index 0 never pauses; the request delay comes before the batch pause
func (l Limiter) Pauses(index int) []Pause {
	if index <= 0 {
		return nil
	}
	var out []Pause
	if l.PerRequest > 0 {
		out = append(out, Pause{Kind: KindRequest, D: l.PerRequest})
	}
	if l.BatchSize > 0 && l.BatchDelay > 0 && index%l.BatchSize == 0 {
		out = append(out, Pause{Kind: KindBatch, D: l.BatchDelay})
	}
	return out
}

// BeforeSubmit blocks for the pauses due at index
// it returns ctx.Err() when cancelled mid sleep
func (l Limiter) BeforeSubmit(ctx context.Context, index int) error {
	for _, p := range l.Pauses(index) {
		if l.OnPause != nil {
			l.OnPause(index, p)
		}
		if err := sleep(ctx, p.D); err != nil {
			return err
		}
	}
	return nil
}

// EffectiveWorkers is the pool size to use
// a per request delay forces a single worker so pacing holds between fetches
func (l Limiter) EffectiveWorkers(configured int) int {
	if l.PerRequest > 0 {
		return 1
	}
	return max(configured, 1)
}

// Enabled reports whether any rule can pause
func (l Limiter) Enabled() bool {
	return l.PerRequest > 0 || (l.BatchSize > 0 && l.BatchDelay > 0)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
