// Command tubemail collects the videos of a YouTube channel and extracts contact emails from their descriptions
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"tubemail/internal/core/version"
	"tubemail/internal/modkit"
	modreg "tubemail/internal/modkit/module"
	"tubemail/internal/platform/config"
	perr "tubemail/internal/platform/errors"
	"tubemail/internal/platform/logger"
	"tubemail/internal/platform/metrics"
	"tubemail/internal/platform/store"

	harvestmod "tubemail/internal/services/harvest/module"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

// extraOptions are appended to the harvest module options, tests swap in stub collaborators
var extraOptions []harvestmod.Option

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one harvest and returns the process exit status
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tubemail", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		fChannel    string
		fMax        int
		fThreads    int
		fDelay      string
		fOutput     string
		fBatch      = fs.String("batch-delay", "", "pause DELAY before every Nth submission, e.g. 3s/50")
		fNoHeadless = fs.Bool("no-headless", false, "show the browser window")
		fMeta       = fs.String("meta", "", "metadata backend: ytdlp | watchpage")
		fConfig     = fs.String("config", "", "YAML file consulted for keys missing from the environment")
		fVersion    = fs.Bool("version", false, "print build info and exit")
	)
	fs.StringVar(&fChannel, "c", "", "channel handle or URL, e.g. @name")
	fs.StringVar(&fChannel, "channel", "", "channel handle or URL, e.g. @name")
	fs.IntVar(&fMax, "m", 300, "maximum number of videos")
	fs.IntVar(&fMax, "max-videos", 300, "maximum number of videos")
	fs.IntVar(&fThreads, "t", 10, "extraction workers (forced to 1 with -delay)")
	fs.IntVar(&fThreads, "threads", 10, "extraction workers (forced to 1 with -delay)")
	fs.StringVar(&fDelay, "d", "", "delay between requests, e.g. 500ms, 1.5s or 0.5")
	fs.StringVar(&fDelay, "delay", "", "delay between requests, e.g. 500ms, 1.5s or 0.5")
	fs.StringVar(&fOutput, "o", "", "output file prefix (default emails_youtube)")
	fs.StringVar(&fOutput, "output", "", "output file prefix (default emails_youtube)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return perr.ExitOK
		}
		return perr.ExitConfig
	}

	if *fVersion {
		fmt.Fprintln(stdout, version.Info().String())
		return perr.ExitOK
	}

	root, err := config.Load(*fConfig)
	if err != nil {
		fmt.Fprintln(stderr, "tubemail:", err)
		return perr.ExitConfig
	}

	// only flags given on the command line override env and file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "c", "channel":
			mustSetEnv("CORE_HARVEST_CHANNEL", fChannel)
		case "m", "max-videos":
			mustSetEnv("CORE_HARVEST_MAX_VIDEOS", strconv.Itoa(fMax))
		case "t", "threads":
			mustSetEnv("CORE_HARVEST_WORKERS", strconv.Itoa(fThreads))
		case "d", "delay":
			mustSetEnv("CORE_HARVEST_DELAY", fDelay)
		case "batch-delay":
			mustSetEnv("CORE_HARVEST_BATCH_DELAY", *fBatch)
		case "o", "output":
			mustSetEnv("CORE_HARVEST_OUTPUT", fOutput)
		case "no-headless":
			mustSetEnv("CORE_HARVEST_HEADLESS", strconv.FormatBool(!*fNoHeadless))
		case "meta":
			mustSetEnv("CORE_HARVEST_META", *fMeta)
		}
	})

	l := logger.Get()
	defer func() { _ = logger.Close() }()
	l.Info().Str("version", version.Info().Version).Msg("tubemail starting")

	// export backends are optional, a DBURL enables each one; an unreachable backend only skips its export
	scfg := store.FromConfig(root)
	st, err := store.Open(ctx, scfg, store.WithLogger(*l))
	if err != nil {
		l.Warn().Err(err).Msg("store.Open failed, exports disabled")
		st = &store.Store{}
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	if st.Enabled() {
		if err := st.Guard(ctx, scfg.PG.PingTimeout); err != nil {
			l.Warn().Err(err).Msg("export backend not reachable, skipping it")
		}
	}

	deps := modkit.Deps{
		Cfg:     root,
		Log:     *l,
		Metrics: metrics.New(),
	}.FromStore(st)
	if !deps.HasExport() {
		l.Debug().Msg("no export backend, writing files only")
	}

	opts := append([]harvestmod.Option{harvestmod.WithSummary(stdout)}, extraOptions...)
	if _, err := harvestmod.New(deps, opts...); err != nil {
		l.Error().Err(err).Msg("invalid configuration")
		return perr.ExitCode(err)
	}
	ports, err := modreg.Lookup[harvestmod.Ports](harvestmod.Name)
	if err != nil {
		l.Error().Err(err).Msg("harvest module not registered")
		return perr.ExitCode(err)
	}

	rep, err := ports.Runner.Run(ctx, ports.Request)
	if err != nil {
		l.Error().Err(err).Msg("harvest failed")
		return perr.ExitCode(err)
	}
	if _, err := ports.Publisher.Publish(ctx, rep); err != nil {
		l.Error().Err(err).Msg("writing report failed")
		return perr.ExitFailure
	}
	return perr.ExitOK
}
