// Package guardrails bounds every outbound call of a run
package guardrails

import (
	"context"
	"time"
)

// Timeouts is the per call budget bundle
// zero values mean no extra timeout at that level
type Timeouts struct {
	// Render caps each browser call
	Render time.Duration

	// Fetch caps each metadata fetch
	Fetch time.Duration

	// Export caps each report export
	Export time.Duration
}

// ForRender returns a sub context for one browser call
func ForRender(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Render)
}

// ForFetch returns a sub context for one metadata fetch
func ForFetch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Fetch)
}

// ForExport returns a sub context for one export sink
func ForExport(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Export)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout picks the tighter of d and the parent remainder
// it never extends the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
