package repo

import (
	"context"
	"fmt"

	"tubemail/internal/modkit/repokit"
	"tubemail/internal/services/harvest/domain"
)

// EmailsTable is the ClickHouse table receiving one row per (result, email)
const EmailsTable = "harvest_emails"

const chSchemaSQL = `
	CREATE TABLE IF NOT EXISTS ` + EmailsTable + ` (
		run_id   String,
		channel  String,
		url      String,
		title    String,
		email    String,
		found_at DateTime64(3, 'UTC')
	)
	ENGINE = MergeTree
	ORDER BY (email, run_id)
`

// CHSink exports the email rows of a report into ClickHouse
type CHSink struct {
	ch repokit.Columnar
}

// NewCHSink returns a sink writing through ch
func NewCHSink(ch repokit.Columnar) *CHSink { return &CHSink{ch: ch} }

// Name implements domain.ReportSink
func (s *CHSink) Name() string { return "clickhouse" }

// SaveReport implements domain.ReportSink
func (s *CHSink) SaveReport(ctx context.Context, rep domain.RunReport) error {
	if err := s.ch.Exec(ctx, chSchemaSQL); err != nil {
		return fmt.Errorf("ensure %s: %w", EmailsTable, err)
	}
	rows := emailRows(rep)
	if len(rows) == 0 {
		return nil
	}
	if err := s.ch.Insert(ctx, EmailsTable, rows); err != nil {
		return fmt.Errorf("insert %s: %w", EmailsTable, err)
	}
	return nil
}

// emailRows flattens results to positional rows in table column order
func emailRows(rep domain.RunReport) [][]any {
	var rows [][]any
	found := rep.FinishedAt.UTC()
	for _, r := range rep.Results {
		for _, e := range r.Emails {
			rows = append(rows, []any{rep.RunID, rep.Channel, r.URL, r.Title, e, found})
		}
	}
	return rows
}
