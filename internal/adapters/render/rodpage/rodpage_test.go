package rodpage

import (
	"context"
	"testing"
	"time"

	"tubemail/internal/services/harvest/domain"
)

func TestParseRecords(t *testing.T) {
	t.Parallel()

	in := []any{
		map[string]any{"id": "abc", "url": "https://www.youtube.com/watch?v=abc", "title": "  Studio tour \n"},
		map[string]any{"id": "def", "url": "https://www.youtube.com/watch?v=def"},
		map[string]any{"id": "", "url": "https://www.youtube.com/watch?v="},
		map[string]any{"id": 12, "url": "https://www.youtube.com/watch?v=12"},
		map[string]any{"id": "ghi"},
		"not a record",
		nil,
	}
	got := parseRecords(in)
	want := []domain.ItemRef{
		{ID: "abc", URL: "https://www.youtube.com/watch?v=abc", Title: "Studio tour"},
		{ID: "def", URL: "https://www.youtube.com/watch?v=def"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d refs: %+v", len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ref[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	if parseRecords(map[string]any{"id": "x"}) != nil || parseRecords(nil) != nil {
		t.Fatalf("non list input should yield nil")
	}
}

func TestPage_UnlaunchedSession(t *testing.T) {
	t.Parallel()

	p := New(Options{Headless: true})
	if p.opts.Width != 1920 || p.opts.Height != 1080 {
		t.Fatalf("default viewport = %dx%d", p.opts.Width, p.opts.Height)
	}
	ctx := context.Background()
	if _, err := p.Snapshot(ctx); err == nil {
		t.Fatalf("snapshot before navigate should fail")
	}
	if err := p.Extend(ctx); err == nil {
		t.Fatalf("extend before navigate should fail")
	}
	if p.DismissConsent(ctx) {
		t.Fatalf("consent cannot be clicked without a page")
	}
	for i := 0; i < 2; i++ {
		if err := p.Close(); err != nil {
			t.Fatalf("Close #%d: %v", i+1, err)
		}
	}
}

func TestSettle_HonorsContext(t *testing.T) {
	t.Parallel()

	p := New(Options{})
	if err := p.Settle(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Settle(ctx, time.Hour); err == nil {
		t.Fatalf("cancelled settle should return an error")
	}
}
