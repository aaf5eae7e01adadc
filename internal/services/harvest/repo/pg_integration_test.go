//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"tubemail/internal/platform/store"

	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres launches a disposable Postgres and returns DSN + stop func
func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mp.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func TestPGSink_Integration_SaveTwice(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	s, err := store.Open(ctx, store.Config{
		AppName: "tubemail-pg-integration",
		PG: store.PGConfig{
			Enabled:        true,
			URL:            dsn,
			MaxConns:       2,
			ConnectRetries: 10,
			PingTimeout:    5 * time.Second,
		},
	}, store.WithLogger(zerolog.New(io.Discard)))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = s.Close(ctx) }()

	sink := NewPGSink(s.PG, "5s")
	rep := sampleReport()

	// a rerun of the same report must not duplicate rows
	for i := 0; i < 2; i++ {
		if err := sink.SaveReport(ctx, rep); err != nil {
			t.Fatalf("SaveReport #%d: %v", i+1, err)
		}
	}

	var runs, results int
	if err := s.PG.QueryRow(ctx, `select count(*) from harvest_runs`).Scan(&runs); err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if err := s.PG.QueryRow(ctx, `select count(*) from harvest_results where run_id = $1`, rep.RunID).Scan(&results); err != nil {
		t.Fatalf("count results: %v", err)
	}
	if runs != 1 || results != 2 {
		t.Fatalf("runs=%d results=%d, want 1 and 2", runs, results)
	}

	var state string
	var emails []string
	if err := s.PG.QueryRow(ctx, `
		select r.discover_state, x.emails
		from harvest_runs r join harvest_results x using (run_id)
		where x.ord = 2
	`).Scan(&state, &emails); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if state != "converged" || len(emails) != 2 || emails[1] != "b@x.io" {
		t.Fatalf("state=%q emails=%v", state, emails)
	}
}
