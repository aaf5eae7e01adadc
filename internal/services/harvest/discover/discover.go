// Package discover collects the video list of a channel from a rendered page
package discover

import (
	"context"
	"time"

	perr "tubemail/internal/platform/errors"
	"tubemail/internal/platform/logger"
	"tubemail/internal/services/harvest/domain"
	"tubemail/internal/services/harvest/guardrails"
)

// Config tunes the discovery protocol
type Config struct {
	InitialSettle time.Duration // after navigation
	ConsentSettle time.Duration // after a consent click
	ScrollWait    time.Duration // after each extension
	MaxIterations int           // snapshot ceiling
	StaleRounds   int           // identical counts in a row that mean converged
	Timeouts      guardrails.Timeouts
}

// DefaultConfig mirrors the page timings that work against the live site
func DefaultConfig() Config {
	return Config{
		InitialSettle: 5 * time.Second,
		ConsentSettle: 3 * time.Second,
		ScrollWait:    2 * time.Second,
		MaxIterations: 30,
		StaleRounds:   3,
		Timeouts:      guardrails.Timeouts{Render: 60 * time.Second},
	}
}

// Result is the outcome of one discovery
type Result struct {
	Items      []domain.ItemRef
	State      domain.DiscoverState
	Iterations int
}

// Summary converts r for the report
func (r Result) Summary() domain.DiscoverySummary {
	return domain.DiscoverySummary{State: r.State, Iterations: r.Iterations, Items: len(r.Items)}
}

// Discoverer drives a Renderer until the list converges or the target is reached
// it is single use per session and not safe for concurrent calls
type Discoverer struct {
	r   domain.Renderer
	cfg Config
}

// New returns a Discoverer over r
func New(r domain.Renderer, cfg Config) *Discoverer {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	if cfg.StaleRounds <= 0 {
		cfg.StaleRounds = DefaultConfig().StaleRounds
	}
	return &Discoverer{r: r, cfg: cfg}
}

// Discover returns at most target unique items in first-seen order
// target <= 0 collects until convergence or the iteration ceiling
// any renderer failure is fatal and wrapped as a discovery error
func (d *Discoverer) Discover(ctx context.Context, channelURL string, target int) (Result, error) {
	log := logger.NamedC(ctx, "discover")

	if err := d.call(ctx, func(c context.Context) error { return d.r.Navigate(c, channelURL) }); err != nil {
		return Result{}, perr.Discoveryf(err, "navigate %s", channelURL)
	}
	if err := d.settle(ctx, d.cfg.InitialSettle); err != nil {
		return Result{}, err
	}

	cctx, cancel := guardrails.ForRender(ctx, d.cfg.Timeouts)
	clicked := d.r.DismissConsent(cctx)
	cancel()
	if clicked {
		log.Info().Msg("cookie consent accepted")
		if err := d.settle(ctx, d.cfg.ConsentSettle); err != nil {
			return Result{}, err
		}
	}

	t := newTracker(target, d.cfg.MaxIterations, d.cfg.StaleRounds)
	for {
		var snap []domain.ItemRef
		err := d.call(ctx, func(c context.Context) error {
			var e error
			snap, e = d.r.Snapshot(c)
			return e
		})
		if err != nil {
			return Result{}, perr.Discoveryf(err, "snapshot %d", t.iterations+1)
		}

		state := t.step(snap)
		log.Debug().
			Int("iteration", t.iterations).
			Int("snapshot", len(snap)).
			Int("unique", len(t.items)).
			Str("state", state.String()).
			Msg("snapshot")

		if state.Terminal() {
			res := t.result()
			log.Info().
				Int("items", len(res.Items)).
				Int("iterations", res.Iterations).
				Str("state", res.State.String()).
				Msg("discovery finished")
			return res, nil
		}

		if err := d.call(ctx, d.r.Extend); err != nil {
			return Result{}, perr.Discoveryf(err, "extend after snapshot %d", t.iterations)
		}
		if err := d.settle(ctx, d.cfg.ScrollWait); err != nil {
			return Result{}, err
		}
	}
}

// call runs fn under the render timeout and classifies deadline overruns
func (d *Discoverer) call(ctx context.Context, fn func(context.Context) error) error {
	cctx, cancel := guardrails.ForRender(ctx, d.cfg.Timeouts)
	defer cancel()
	return perr.FromContext(fn(cctx), "render call timed out")
}

func (d *Discoverer) settle(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return nil
	}
	if err := d.r.Settle(ctx, wait); err != nil {
		return perr.Discoveryf(err, "settle %s", wait)
	}
	return nil
}
