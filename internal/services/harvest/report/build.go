// Package report builds the RunReport and renders it to files and the console
package report

import (
	"slices"
	"time"

	"tubemail/internal/services/harvest/domain"
)

// Meta is everything about a run that is not derived from results
type Meta struct {
	RunID      string
	Channel    string
	StartedAt  time.Time
	FinishedAt time.Time
	Discovery  domain.DiscoverySummary
}

// Build aggregates results into a report
// the outcome does not depend on the order of results
func Build(m Meta, results []domain.ExtractionResult) domain.RunReport {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b domain.ExtractionResult) int { return a.Index - b.Index })

	rep := domain.RunReport{
		RunID:      m.RunID,
		Channel:    m.Channel,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
		Discovery:  m.Discovery,
		Results:    []domain.ExtractionResult{},
		Emails:     []string{},
	}

	unique := map[string]struct{}{}
	for _, r := range sorted {
		rep.Counters.Analyzed++
		if r.Failed() {
			rep.Counters.Failed++
		}
		if r.HasDescription {
			rep.Counters.WithDescription++
		}
		if !r.HasEmails() {
			continue
		}
		rep.Counters.WithEmails++
		rep.Counters.EmailOccurrences += len(r.Emails)
		for _, e := range r.Emails {
			unique[e] = struct{}{}
		}
		r.Emails = slices.Clone(r.Emails)
		rep.Results = append(rep.Results, r)
	}

	for e := range unique {
		rep.Emails = append(rep.Emails, e)
	}
	slices.Sort(rep.Emails)
	rep.Counters.UniqueEmails = len(rep.Emails)
	return rep
}
