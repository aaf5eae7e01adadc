// Package module provides the harvest module implementation
package module

import (
	"io"

	"tubemail/internal/adapters/meta/watchpage"
	"tubemail/internal/adapters/meta/ytdlp"
	"tubemail/internal/adapters/render/rodpage"
	"tubemail/internal/core/emails"
	"tubemail/internal/modkit"
	modreg "tubemail/internal/modkit/module"
	"tubemail/internal/services/harvest/domain"
	"tubemail/internal/services/harvest/report"
	"tubemail/internal/services/harvest/repo"
	"tubemail/internal/services/harvest/service"

	"github.com/prometheus/client_golang/prometheus"
)

// Name is the registry key of the harvest module
const Name = "harvest"

// Ports defines the harvest module ports
type Ports struct {
	Runner    domain.RunnerPort
	Publisher domain.PublisherPort

	// Request is the run described by configuration
	Request domain.Request
}

// Module implements the harvest module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

// Option overrides a collaborator, mostly for tests
type Option func(*wiring)

type wiring struct {
	render  domain.Renderer
	fetch   domain.MetadataFetcher
	summary io.Writer
}

// WithRenderer replaces the go-rod page
func WithRenderer(r domain.Renderer) Option { return func(w *wiring) { w.render = r } }

// WithFetcher replaces the configured metadata backend
func WithFetcher(f domain.MetadataFetcher) Option { return func(w *wiring) { w.fetch = f } }

// WithSummary sends the console summary to out
func WithSummary(out io.Writer) Option { return func(w *wiring) { w.summary = out } }

// New constructs the harvest module from CORE_HARVEST_* in deps.Cfg
// it validates options before anything is launched and registers its ports
func New(deps modkit.Deps, opts ...Option) (*Module, error) {
	o := FromConfig(deps.Cfg)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	lim, _ := o.Limiter()

	w := wiring{}
	for _, fn := range opts {
		fn(&w)
	}
	if w.render == nil {
		w.render = rodpage.New(rodpage.Options{Headless: o.Headless, Bin: o.ChromeBin})
	}
	if w.fetch == nil {
		w.fetch = newFetcher(o)
	}

	var reg prometheus.Registerer
	if deps.Metrics != nil {
		reg = deps.Metrics
	}

	svc := service.New(
		w.render, w.fetch, emails.New(o.EmailFold), lim,
		service.Config{
			Workers:  o.Workers,
			Discover: o.Discover(),
			Timeouts: o.Timeouts(),
		},
		service.NewMetrics(reg),
	)

	pub := &report.Publisher{
		Prefix:      o.Output,
		Out:         w.summary,
		Sinks:       sinks(deps, o),
		Registry:    deps.Metrics,
		MetricsFile: o.MetricsFile,
		Timeouts:    o.Timeouts(),
	}

	m := &Module{deps: deps, opts: o}
	m.ports = Ports{
		Runner:    svc,
		Publisher: pub,
		Request:   domain.Request{Channel: o.Channel, MaxItems: o.MaxVideos},
	}
	modreg.Register(m)

	deps.Log.Info().
		Str("meta", o.Meta).
		Int("workers", lim.EffectiveWorkers(o.Workers)).
		Int("sinks", len(pub.Sinks)).
		Msg("harvest module ready")
	return m, nil
}

func newFetcher(o Options) domain.MetadataFetcher {
	if o.Meta == MetaWatchPage {
		return watchpage.New(nil, o.WatchRPS)
	}
	return ytdlp.New(o.YTDLPBin)
}

func sinks(deps modkit.Deps, o Options) []domain.ReportSink {
	var out []domain.ReportSink
	if deps.PG != nil {
		out = append(out, repo.NewPGSink(deps.PG, o.PGStatementTimeout))
	}
	if deps.CH != nil {
		out = append(out, repo.NewCHSink(deps.CH))
	}
	return out
}

// Name returns the module name
func (m *Module) Name() string { return Name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Options returns the validated options
func (m *Module) Options() Options { return m.opts }
