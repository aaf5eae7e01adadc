package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tubemail/internal/core/emails"
	perr "tubemail/internal/platform/errors"
	"tubemail/internal/platform/metrics"
	kit "tubemail/internal/platform/testkit"
	"tubemail/internal/services/harvest/discover"
	"tubemail/internal/services/harvest/domain"
	"tubemail/internal/services/harvest/pacing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubRenderer struct {
	items   []domain.ItemRef
	snapErr error
	closed  atomic.Int32
	url     string
}

func (s *stubRenderer) Navigate(_ context.Context, url string) error       { s.url = url; return nil }
func (s *stubRenderer) Settle(context.Context, time.Duration) error        { return nil }
func (s *stubRenderer) DismissConsent(context.Context) bool                { return false }
func (s *stubRenderer) Extend(context.Context) error                       { return nil }
func (s *stubRenderer) Close() error                                       { s.closed.Add(1); return nil }
func (s *stubRenderer) Snapshot(context.Context) ([]domain.ItemRef, error) { return s.items, s.snapErr }

// stubFetcher answers by video id and tracks concurrency
type stubFetcher struct {
	calls    atomic.Int32
	inflight atomic.Int32
	peak     atomic.Int32
	hold     time.Duration
	answer   func(url string) (domain.Metadata, error)
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (domain.Metadata, error) {
	f.calls.Add(1)
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.hold > 0 {
		select {
		case <-time.After(f.hold):
		case <-ctx.Done():
			return domain.Metadata{}, ctx.Err()
		}
	}
	if f.answer == nil {
		return domain.Metadata{Title: "t", Description: "no contact"}, nil
	}
	return f.answer(url)
}

func items(n int) []domain.ItemRef {
	out := make([]domain.ItemRef, n)
	for i := range out {
		id := fmt.Sprintf("v%03d", i)
		out[i] = domain.ItemRef{ID: id, URL: "https://www.youtube.com/watch?v=" + id, Title: "discovered " + id}
	}
	return out
}

func newService(r domain.Renderer, f domain.MetadataFetcher, lim pacing.Limiter, workers int, m *Metrics) *Service {
	cfg := Config{Workers: workers, Discover: discover.Config{MaxIterations: 30, StaleRounds: 3}}
	s := New(r, f, emails.New(true), lim, cfg, m)
	s.newID = func() string { return "run-test" }
	return s
}

func TestRun_ResultCountInvariant(t *testing.T) {
	const n = 40
	f := &stubFetcher{answer: func(url string) (domain.Metadata, error) {
		switch {
		case strings.HasSuffix(url, "7"):
			return domain.Metadata{}, errors.New("private video")
		case strings.HasSuffix(url, "3"):
			panic("decoder blew up")
		case strings.HasSuffix(url, "5"):
			return domain.Metadata{Title: "biz", Description: "business: biz@studio.io"}, nil
		}
		return domain.Metadata{Title: "ok", Description: "hello"}, nil
	}}
	r := &stubRenderer{items: items(n)}
	reg := metrics.NewBare()
	m := NewMetrics(reg)

	rep, err := newService(r, f, pacing.Limiter{}, 6, m).Run(context.Background(), domain.Request{Channel: "@studio", MaxItems: 300})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Counters.Analyzed != n {
		t.Fatalf("analyzed = %d, want %d", rep.Counters.Analyzed, n)
	}
	// ids ending in 3 panic and ids ending in 7 fail: 4 each
	if rep.Counters.Failed != 8 {
		t.Fatalf("failed = %d, want 8", rep.Counters.Failed)
	}
	if rep.Counters.WithEmails != 4 || rep.Counters.UniqueEmails != 1 || rep.Counters.EmailOccurrences != 4 {
		t.Fatalf("email counters = %+v", rep.Counters)
	}
	if rep.Channel != "https://www.youtube.com/@studio/videos" || r.url != rep.Channel {
		t.Fatalf("channel not normalized: %q navigated %q", rep.Channel, r.url)
	}
	if r.closed.Load() != 1 {
		t.Fatalf("renderer closed %d times", r.closed.Load())
	}
	if rep.RunID != "run-test" || rep.Discovery.State != domain.StateConverged {
		t.Fatalf("meta = %+v", rep.Discovery)
	}

	if got := testutil.ToFloat64(m.extractions.WithLabelValues(outcomeFailed)); got != 8 {
		t.Fatalf("failed metric = %v", got)
	}
	if got := testutil.ToFloat64(m.emailsFound); got != 4 {
		t.Fatalf("emails metric = %v", got)
	}
	if got := testutil.ToFloat64(m.discovered); got != n {
		t.Fatalf("discovered metric = %v", got)
	}
}

func TestRun_PanicPlaceholderKeepsRef(t *testing.T) {
	f := &stubFetcher{answer: func(string) (domain.Metadata, error) { panic("boom") }}
	s := newService(&stubRenderer{items: items(1)}, f, pacing.Limiter{}, 1, nil)

	res := s.extractAll(context.Background(), items(1), 1)
	if len(res) != 1 || !res[0].Failed() || res[0].Title != "discovered v000" || res[0].URL != items(1)[0].URL {
		t.Fatalf("placeholder = %+v", res)
	}
}

func TestRun_ZeroDiscoverySkipsExtraction(t *testing.T) {
	f := &stubFetcher{}
	r := &stubRenderer{}

	rep, err := newService(r, f, pacing.Limiter{}, 4, nil).Run(context.Background(), domain.Request{Channel: "@empty"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rep.Empty() || f.calls.Load() != 0 {
		t.Fatalf("extraction ran on an empty discovery: analyzed=%d calls=%d", rep.Counters.Analyzed, f.calls.Load())
	}
	if r.closed.Load() != 1 {
		t.Fatalf("renderer not closed")
	}
}

func TestRun_DiscoveryFailureIsFatal(t *testing.T) {
	f := &stubFetcher{}
	r := &stubRenderer{snapErr: errors.New("target closed")}

	_, err := newService(r, f, pacing.Limiter{}, 4, nil).Run(context.Background(), domain.Request{Channel: "@x"})
	if !perr.IsCode(err, perr.ErrorCodeDiscovery) || perr.ExitCode(err) != perr.ExitFailure {
		t.Fatalf("err = %v", err)
	}
	if r.closed.Load() != 1 || f.calls.Load() != 0 {
		t.Fatalf("closed=%d calls=%d", r.closed.Load(), f.calls.Load())
	}
}

func TestRun_EmptyChannelIsConfigError(t *testing.T) {
	_, err := newService(&stubRenderer{}, &stubFetcher{}, pacing.Limiter{}, 1, nil).Run(context.Background(), domain.Request{Channel: "  "})
	if perr.ExitCode(err) != perr.ExitConfig {
		t.Fatalf("err = %v", err)
	}
}

func TestRun_PerRequestDelayForcesOneWorker(t *testing.T) {
	f := &stubFetcher{hold: 2 * time.Millisecond}
	lim := pacing.Limiter{PerRequest: time.Millisecond}

	rep, err := newService(&stubRenderer{items: items(6)}, f, lim, 8, nil).Run(context.Background(), domain.Request{Channel: "@x"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Counters.Analyzed != 6 || f.peak.Load() != 1 {
		t.Fatalf("analyzed=%d peak=%d, want 6 and 1", rep.Counters.Analyzed, f.peak.Load())
	}
}

func TestRun_PoolIsBounded(t *testing.T) {
	f := &stubFetcher{hold: 5 * time.Millisecond}

	rep, err := newService(&stubRenderer{items: items(30)}, f, pacing.Limiter{}, 3, nil).Run(context.Background(), domain.Request{Channel: "@x"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Counters.Analyzed != 30 {
		t.Fatalf("analyzed = %d", rep.Counters.Analyzed)
	}
	if p := f.peak.Load(); p > 3 || p < 1 {
		t.Fatalf("peak concurrency = %d, want 1..3", p)
	}
}

func TestExtractAll_CancelledContextStillReturnsAll(t *testing.T) {
	f := &stubFetcher{hold: time.Hour}
	s := newService(&stubRenderer{}, f, pacing.Limiter{PerRequest: time.Hour, BatchDelay: time.Hour, BatchSize: 2}, 4, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := s.extractAll(ctx, items(5), 1)
	if len(got) != 5 {
		t.Fatalf("results = %d, want 5", len(got))
	}
	for _, r := range got {
		if !r.Failed() {
			t.Fatalf("expected cancelled fetch to fail: %+v", r)
		}
	}
}

func TestRun_PacingMetrics(t *testing.T) {
	m := NewMetrics(metrics.NewBare())
	lim := pacing.Limiter{BatchDelay: time.Millisecond, BatchSize: 2}

	if _, err := newService(&stubRenderer{items: items(5)}, &stubFetcher{}, lim, 2, m).Run(context.Background(), domain.Request{Channel: "@x"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// pauses before index 2 and 4
	if got := testutil.ToFloat64(m.pacingSleep.WithLabelValues("batch")); got != 0.002 {
		t.Fatalf("batch sleep seconds = %v", got)
	}
}

func TestNew_PanicsOnMissingCollaborators(t *testing.T) {
	kit.MustPanic(t, func() {
		New(nil, &stubFetcher{}, nil, pacing.Limiter{}, Config{}, nil)
	})
}
