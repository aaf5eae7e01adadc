// Package service runs one harvest: discovery, paced extraction and aggregation
package service

import (
	"context"
	"sync"
	"time"

	"tubemail/internal/core/channel"
	"tubemail/internal/core/emails"
	perr "tubemail/internal/platform/errors"
	"tubemail/internal/platform/logger"
	"tubemail/internal/services/harvest/discover"
	"tubemail/internal/services/harvest/domain"
	"tubemail/internal/services/harvest/extract"
	"tubemail/internal/services/harvest/guardrails"
	"tubemail/internal/services/harvest/pacing"
	"tubemail/internal/services/harvest/report"

	"github.com/google/uuid"
)

// Config holds the pipeline knobs
type Config struct {
	Workers  int // configured pool size; <= 0 -> 1
	Discover discover.Config
	Timeouts guardrails.Timeouts // Fetch caps each metadata call
}

// Service implements domain.RunnerPort
type Service struct {
	Render  domain.Renderer
	Fetch   domain.MetadataFetcher
	Finder  *emails.Finder
	Limiter pacing.Limiter
	Cfg     Config
	Metrics *Metrics

	now   func() time.Time
	newID func() string
}

// New constructs the harvest service
func New(r domain.Renderer, f domain.MetadataFetcher, finder *emails.Finder, lim pacing.Limiter, cfg Config, m *Metrics) *Service {
	if r == nil {
		panic("harvest.Service requires a non nil Renderer")
	}
	if f == nil {
		panic("harvest.Service requires a non nil MetadataFetcher")
	}
	return &Service{
		Render:  r,
		Fetch:   f,
		Finder:  finder,
		Limiter: lim,
		Cfg:     cfg,
		Metrics: m,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Run implements domain.RunnerPort
// a discovery failure aborts the run with no report; per video failures are counted
func (s *Service) Run(ctx context.Context, req domain.Request) (domain.RunReport, error) {
	ch := channel.Normalize(req.Channel)
	if ch == "" {
		return domain.RunReport{}, perr.WithField(perr.Configf("channel is required"), "channel")
	}

	runID := s.newID()
	ctx = logger.WithRun(ctx, runID, ch)
	log := logger.NamedC(ctx, "harvest")
	meta := report.Meta{RunID: runID, Channel: ch, StartedAt: s.now()}

	log.Info().Int("max_videos", req.MaxItems).Msg("phase 1: collecting videos")
	res, err := discover.New(s.Render, s.Cfg.Discover).Discover(ctx, ch, req.MaxItems)
	if cerr := s.Render.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("closing browser session")
	}
	if err != nil {
		return domain.RunReport{}, err
	}
	s.Metrics.observeDiscovery(res)
	meta.Discovery = res.Summary()

	if len(res.Items) == 0 {
		log.Warn().Msg("no videos found")
		meta.FinishedAt = s.now()
		return report.Build(meta, nil), nil
	}

	workers := s.Limiter.EffectiveWorkers(s.Cfg.Workers)
	ev := log.Info().Int("videos", len(res.Items)).Int("workers", workers)
	if s.Limiter.PerRequest > 0 {
		ev = ev.Dur("delay", s.Limiter.PerRequest)
	}
	if s.Limiter.BatchSize > 0 {
		ev = ev.Dur("batch_delay", s.Limiter.BatchDelay).Int("batch_size", s.Limiter.BatchSize)
	}
	ev.Msg("phase 2: extracting emails")

	results := s.extractAll(ctx, res.Items, workers)

	meta.FinishedAt = s.now()
	return report.Build(meta, results), nil
}

// extractAll submits items in order on the calling goroutine and collects exactly one result per item
// pacing happens here, before a slot is taken, so it spaces dispatch regardless of pool size
func (s *Service) extractAll(ctx context.Context, items []domain.ItemRef, workers int) []domain.ExtractionResult {
	log := logger.NamedC(ctx, "harvest")
	x := extract.New(s.Fetch, s.Finder, s.Cfg.Timeouts)

	lim := s.Limiter
	lim.OnPause = func(index int, p pacing.Pause) {
		s.Metrics.observePause(p)
		if p.Kind == pacing.KindBatch {
			log.Info().Dur("pause", p.D).Int("submitted", index).Msg("batch pause")
		}
	}

	results := make(chan domain.ExtractionResult, workers)
	collected := make(chan []domain.ExtractionResult, 1)
	go func() { collected <- s.aggregate(ctx, len(items), results) }()

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	paceErr := false
	for i, ref := range items {
		// after cancellation pacing stops sleeping and fetches fail fast, the count still holds
		if err := lim.BeforeSubmit(ctx, i); err != nil && !paceErr {
			paceErr = true
			log.Warn().Err(err).Int("submitted", i).Msg("pacing interrupted")
		}
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem; wg.Done() }()
			results <- s.extractOne(ctx, x, i, ref)
		}()
	}
	wg.Wait()
	close(results)
	return <-collected
}

// extractOne never panics; a panic becomes a placeholder error result for ref
func (s *Service) extractOne(ctx context.Context, x *extract.Extractor, index int, ref domain.ItemRef) (res domain.ExtractionResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.NamedC(ctx, "harvest").Error().Interface("panic", r).Str("url", ref.URL).Msg("extraction panicked")
			res = extract.Recovered(index, ref, r)
		}
		s.Metrics.observeExtraction(res, time.Since(start))
	}()
	return x.Extract(ctx, index, ref)
}

// aggregate is the only owner of the accumulator
func (s *Service) aggregate(ctx context.Context, total int, in <-chan domain.ExtractionResult) []domain.ExtractionResult {
	log := logger.NamedC(ctx, "harvest")
	acc := make([]domain.ExtractionResult, 0, total)
	for r := range in {
		acc = append(acc, r)
		done := len(acc)

		switch {
		case r.Failed():
			log.Warn().Int("done", done).Int("total", total).Str("url", r.URL).Str("error", r.Err).Msg("extraction failed")
		case r.HasEmails():
			log.Info().Int("done", done).Int("total", total).Strs("emails", r.Emails).Str("title", r.Title).Msg("emails found")
		case done <= 5 || done%20 == 0:
			msg := "no email"
			if !r.HasDescription {
				msg = "no description"
			}
			log.Info().Int("done", done).Int("total", total).Msg(msg)
		}
	}
	return acc
}
