package domain

import (
	"context"
	"time"
)

// RunnerPort is the public port exposed by the module
type RunnerPort interface {
	Run(ctx context.Context, req Request) (RunReport, error)
}

// PublisherPort writes a finished report to its destinations
type PublisherPort interface {
	Publish(ctx context.Context, rep RunReport) (Artifacts, error)
}

// Renderer is a headless browser session showing the channel page
// one session is driven sequentially by a single caller
type Renderer interface {
	// Navigate loads url and waits for the load event
	Navigate(ctx context.Context, url string) error

	// Settle waits d for client side rendering to catch up
	Settle(ctx context.Context, d time.Duration) error

	// DismissConsent clicks a cookie consent button when one is shown
	// it never fails, clicked reports whether a button was found
	DismissConsent(ctx context.Context) (clicked bool)

	// Snapshot returns every video currently rendered on the page
	Snapshot(ctx context.Context) ([]ItemRef, error)

	// Extend asks the page to render more items
	Extend(ctx context.Context) error

	// Close ends the session
	Close() error
}

// MetadataFetcher retrieves title and description of one video without downloading media
type MetadataFetcher interface {
	Fetch(ctx context.Context, url string) (Metadata, error)
}

// ReportSink stores a finished report in an external system
type ReportSink interface {
	Name() string
	SaveReport(ctx context.Context, rep RunReport) error
}

// RunStore is the SQL repository for reports, bound to a Queryer per transaction
type RunStore interface {
	EnsureSchema(ctx context.Context) error
	InsertRun(ctx context.Context, rep RunReport) error
	InsertResults(ctx context.Context, runID string, rs []ExtractionResult) (int, error)
}
