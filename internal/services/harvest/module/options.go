package module

import (
	"time"

	"tubemail/internal/platform/config"
	"tubemail/internal/platform/validate"
	"tubemail/internal/services/harvest/discover"
	"tubemail/internal/services/harvest/guardrails"
	"tubemail/internal/services/harvest/pacing"
)

// Meta backends
const (
	MetaYTDLP     = "ytdlp"
	MetaWatchPage = "watchpage"
)

// Options holds configuration options for the harvest service
type Options struct {
	Channel   string `env:"CHANNEL" validate:"required"`
	MaxVideos int    `env:"MAX_VIDEOS" validate:"min=1"`
	Workers   int    `env:"WORKERS" validate:"min=1,max=64"`

	// pacing input, parsed by Limiter
	Delay      string `env:"DELAY"`
	BatchDelay string `env:"BATCH_DELAY"`

	Output      string `env:"OUTPUT" validate:"required"`
	MetricsFile string `env:"METRICS_FILE"`
	EmailFold   bool   `env:"EMAIL_FOLD"`

	// collaborators
	Headless  bool    `env:"HEADLESS"`
	ChromeBin string  `env:"CHROME_BIN"`
	Meta      string  `env:"META" validate:"oneof=ytdlp watchpage"`
	YTDLPBin  string  `env:"YTDLP_BIN"`
	WatchRPS  float64 `env:"WATCH_RPS" validate:"gte=0"`

	// page timings
	Settle        time.Duration `env:"SETTLE" validate:"gte=0"`
	ConsentSettle time.Duration `env:"CONSENT_SETTLE" validate:"gte=0"`
	ScrollWait    time.Duration `env:"SCROLL_WAIT" validate:"gte=0"`
	MaxIterations int           `env:"MAX_ITERATIONS" validate:"min=1"`
	StaleRounds   int           `env:"STALE_ROUNDS" validate:"min=1"`

	RenderTimeout      time.Duration `env:"RENDER_TIMEOUT" validate:"gte=0"`
	FetchTimeout       time.Duration `env:"FETCH_TIMEOUT" validate:"gte=0"`
	ExportTimeout      time.Duration `env:"EXPORT_TIMEOUT" validate:"gte=0"`
	PGStatementTimeout string        `env:"PG_STATEMENT_TIMEOUT"`
}

// FromConfig reads the harvest options with the CORE_HARVEST_ prefix
// the unprefixed legacy names are honored as fallbacks
func FromConfig(cfg config.Conf) Options {
	h := cfg.Prefix("CORE_HARVEST_")
	d := discover.DefaultConfig()
	return Options{
		Channel:   h.MayString("CHANNEL", cfg.MayString("YOUTUBE_CHANNEL_URL", "")),
		MaxVideos: h.MayInt("MAX_VIDEOS", cfg.MayInt("MAX_VIDEOS", 300)),
		Workers:   h.MayInt("WORKERS", cfg.MayInt("MAX_THREADS", 10)),

		Delay:      h.MayString("DELAY", ""),
		BatchDelay: h.MayString("BATCH_DELAY", ""),

		Output:      h.MayString("OUTPUT", "emails_youtube"),
		MetricsFile: h.MayString("METRICS_FILE", ""),
		EmailFold:   h.MayBool("EMAIL_FOLD", false),

		Headless:  h.MayBool("HEADLESS", true),
		ChromeBin: h.MayString("CHROME_BIN", ""),
		Meta:      h.MayString("META", MetaYTDLP),
		YTDLPBin:  h.MayString("YTDLP_BIN", ""),
		WatchRPS:  h.MayFloat64("WATCH_RPS", 0),

		Settle:        h.MayDuration("SETTLE", d.InitialSettle),
		ConsentSettle: h.MayDuration("CONSENT_SETTLE", d.ConsentSettle),
		ScrollWait:    h.MayDuration("SCROLL_WAIT", d.ScrollWait),
		MaxIterations: h.MayInt("MAX_ITERATIONS", d.MaxIterations),
		StaleRounds:   h.MayInt("STALE_ROUNDS", d.StaleRounds),

		RenderTimeout:      h.MayDuration("RENDER_TIMEOUT", d.Timeouts.Render),
		FetchTimeout:       h.MayDuration("FETCH_TIMEOUT", 60*time.Second),
		ExportTimeout:      h.MayDuration("EXPORT_TIMEOUT", 30*time.Second),
		PGStatementTimeout: h.MayString("PG_STATEMENT_TIMEOUT", "15s"),
	}
}

// Validate checks field rules then the pacing syntax
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return err
	}
	_, err := o.Limiter()
	return err
}

// Limiter parses the pacing options
func (o Options) Limiter() (pacing.Limiter, error) {
	return pacing.FromStrings(o.Delay, o.BatchDelay)
}

// Timeouts bundles the per call budgets
func (o Options) Timeouts() guardrails.Timeouts {
	return guardrails.Timeouts{Render: o.RenderTimeout, Fetch: o.FetchTimeout, Export: o.ExportTimeout}
}

// Discover returns the page protocol settings
func (o Options) Discover() discover.Config {
	return discover.Config{
		InitialSettle: o.Settle,
		ConsentSettle: o.ConsentSettle,
		ScrollWait:    o.ScrollWait,
		MaxIterations: o.MaxIterations,
		StaleRounds:   o.StaleRounds,
		Timeouts:      o.Timeouts(),
	}
}
