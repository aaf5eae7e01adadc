// Package repo provides the database exporters for finished reports
package repo

import (
	"context"
	"fmt"

	"tubemail/internal/modkit/repokit"
	perr "tubemail/internal/platform/errors"
	"tubemail/internal/services/harvest/domain"
)

type (
	// PG is a Postgres binder for domain.RunStore
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.RunStore
func NewPG() repokit.Binder[domain.RunStore] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.RunStore { return &queries{q: q} }

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS harvest_runs (
		run_id            text PRIMARY KEY,
		channel           text NOT NULL,
		started_at        timestamptz NOT NULL,
		finished_at       timestamptz NOT NULL,
		discover_state    text NOT NULL,
		iterations        int NOT NULL,
		analyzed          int NOT NULL,
		with_description  int NOT NULL,
		with_emails       int NOT NULL,
		failed            int NOT NULL,
		email_occurrences int NOT NULL,
		unique_emails     int NOT NULL
	);
	CREATE TABLE IF NOT EXISTS harvest_results (
		run_id          text NOT NULL REFERENCES harvest_runs (run_id) ON DELETE CASCADE,
		ord             int NOT NULL,
		title           text NOT NULL,
		url             text NOT NULL,
		emails          text[] NOT NULL,
		has_description boolean NOT NULL,
		PRIMARY KEY (run_id, ord)
	)
`

// EnsureSchema creates the export tables when missing
func (r *queries) EnsureSchema(ctx context.Context) error {
	_, err := r.q.Exec(ctx, schemaSQL)
	return err
}

// InsertRun records the run header (idempotent on run_id)
func (r *queries) InsertRun(ctx context.Context, rep domain.RunReport) error {
	c := rep.Counters
	_, err := r.q.Exec(ctx, `
		INSERT INTO harvest_runs (
			run_id, channel, started_at, finished_at, discover_state, iterations,
			analyzed, with_description, with_emails, failed, email_occurrences, unique_emails
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (run_id) DO NOTHING
	`,
		rep.RunID, rep.Channel, rep.StartedAt.UTC(), rep.FinishedAt.UTC(),
		rep.Discovery.State.String(), rep.Discovery.Iterations,
		c.Analyzed, c.WithDescription, c.WithEmails, c.Failed, c.EmailOccurrences, c.UniqueEmails,
	)
	return err
}

// InsertResults stores the email bearing results and returns how many rows were new
func (r *queries) InsertResults(ctx context.Context, runID string, rs []domain.ExtractionResult) (int, error) {
	const insertResultSQL = `
		INSERT INTO harvest_results (run_id, ord, title, url, emails, has_description)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (run_id, ord) DO NOTHING
	`
	inserted := 0
	for _, res := range rs {
		emails := res.Emails
		if emails == nil {
			emails = []string{}
		}
		tag, err := r.q.Exec(ctx, insertResultSQL, runID, res.Index, res.Title, res.URL, emails, res.HasDescription)
		if err != nil {
			return inserted, fmt.Errorf("insert result %s[%d]: %w", runID, res.Index, err)
		}
		if tag != nil && tag.RowsAffected() > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// PGSink exports a report into Postgres inside one transaction
type PGSink struct {
	tx     repokit.TxRunner
	binder repokit.Binder[domain.RunStore]
}

// NewPGSink binds the run store to tx; statementTimeout like "5s" bounds each statement, "" disables it
func NewPGSink(tx repokit.TxRunner, statementTimeout string) *PGSink {
	if statementTimeout != "" {
		tx = repokit.WithBeginHooks(tx, repokit.StatementTimeout(statementTimeout))
	}
	return &PGSink{tx: tx, binder: NewPG()}
}

// Name implements domain.ReportSink
func (s *PGSink) Name() string { return "pg" }

// SaveReport implements domain.ReportSink
func (s *PGSink) SaveReport(ctx context.Context, rep domain.RunReport) error {
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		st := repokit.MustBind(s.binder, q)
		if err := st.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		if err := st.InsertRun(ctx, rep); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		_, err := st.InsertResults(ctx, rep.RunID, rep.Results)
		return err
	})
	return perr.FromPostgresf(err, "export run %s", rep.RunID)
}
