package report

import (
	"context"
	"io"

	"tubemail/internal/platform/logger"
	"tubemail/internal/platform/metrics"
	"tubemail/internal/services/harvest/domain"
	"tubemail/internal/services/harvest/guardrails"
)

// Publisher implements domain.PublisherPort
// artifact files are required; the summary, metrics textfile and sinks are best effort
type Publisher struct {
	Prefix      string
	Out         io.Writer // console summary, nil disables it
	Sinks       []domain.ReportSink
	Registry    *metrics.Registry
	MetricsFile string
	Timeouts    guardrails.Timeouts
}

// Publish writes the artifacts then fans out to the optional destinations
func (p *Publisher) Publish(ctx context.Context, rep domain.RunReport) (domain.Artifacts, error) {
	log := logger.NamedC(logger.WithRun(ctx, rep.RunID, rep.Channel), "report")

	paths, err := Save(p.Prefix, rep)
	if err != nil {
		return domain.Artifacts{}, err
	}
	log.Info().Str("json", paths.JSON).Str("csv", paths.CSV).Int("results", len(rep.Results)).Msg("report saved")

	for _, s := range p.Sinks {
		sctx, cancel := guardrails.ForExport(ctx, p.Timeouts)
		err := s.SaveReport(sctx, rep)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("sink", s.Name()).Msg("export failed")
			continue
		}
		log.Info().Str("sink", s.Name()).Msg("report exported")
	}

	if err := p.Registry.WriteTextfile(p.MetricsFile); err != nil {
		log.Warn().Err(err).Str("path", p.MetricsFile).Msg("metrics textfile not written")
	}

	if p.Out != nil {
		if err := PrintSummary(p.Out, rep, paths); err != nil {
			log.Warn().Err(err).Msg("summary not printed")
		}
	}
	return paths, nil
}
