package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"tubemail/internal/platform/metrics"
	"tubemail/internal/platform/testkit"
	"tubemail/internal/services/harvest/domain"

	"github.com/mattn/go-runewidth"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func meta() Meta {
	return Meta{
		RunID:      "run-1",
		Channel:    "https://www.youtube.com/@x/videos",
		StartedAt:  t0,
		FinishedAt: t0.Add(4 * time.Second),
		Discovery:  domain.DiscoverySummary{State: domain.StateConverged, Iterations: 5, Items: 4},
	}
}

func sample() []domain.ExtractionResult {
	// completion order, not submission order
	return []domain.ExtractionResult{
		{Index: 3, Title: `Say "hi" <b>`, URL: "https://www.youtube.com/watch?v=d", Emails: []string{"b@x.io", "a@x.io"}, HasDescription: true},
		{Index: 1, Title: "failed", URL: "https://www.youtube.com/watch?v=b", Err: "unavailable"},
		{Index: 0, Title: "first", URL: "https://www.youtube.com/watch?v=a", Emails: []string{"a@x.io"}, HasDescription: true},
		{Index: 2, Title: "plain", URL: "https://www.youtube.com/watch?v=c", HasDescription: true},
	}
}

func TestBuild_CountersAndOrder(t *testing.T) {
	rep := Build(meta(), sample())

	want := domain.Counters{Analyzed: 4, WithDescription: 3, WithEmails: 2, Failed: 1, EmailOccurrences: 3, UniqueEmails: 2}
	if rep.Counters != want {
		t.Fatalf("counters = %+v, want %+v", rep.Counters, want)
	}
	if len(rep.Results) != 2 || rep.Results[0].Index != 0 || rep.Results[1].Index != 3 {
		t.Fatalf("results not ordered by index: %+v", rep.Results)
	}
	if !reflect.DeepEqual(rep.Emails, []string{"a@x.io", "b@x.io"}) {
		t.Fatalf("emails = %v", rep.Emails)
	}
	if rep.Elapsed() != 4*time.Second || rep.RunID != "run-1" {
		t.Fatalf("meta not carried: %+v", rep)
	}
}

func TestBuild_OrderIndependent(t *testing.T) {
	in := sample()
	rev := make([]domain.ExtractionResult, len(in))
	for i := range in {
		rev[len(in)-1-i] = in[i]
	}
	if !reflect.DeepEqual(Build(meta(), in), Build(meta(), rev)) {
		t.Fatalf("report depends on completion order")
	}
}

func TestBuild_Empty(t *testing.T) {
	rep := Build(meta(), nil)
	if !rep.Empty() || rep.Results == nil || rep.Emails == nil {
		t.Fatalf("empty report should have non-nil empty slices: %+v", rep)
	}
}

func TestWriteJSON_Shape(t *testing.T) {
	var b bytes.Buffer
	if err := WriteJSON(&b, Build(meta(), sample())); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	want := `[
  {
    "title": "first",
    "url": "https://www.youtube.com/watch?v=a",
    "emails": [
      "a@x.io"
    ],
    "has_description": true
  },
  {
    "title": "Say \"hi\" <b>",
    "url": "https://www.youtube.com/watch?v=d",
    "emails": [
      "b@x.io",
      "a@x.io"
    ],
    "has_description": true
  }
]
`
	testkit.MustEqualBytes(t, b.Bytes(), []byte(want))

	b.Reset()
	if err := WriteJSON(&b, Build(meta(), nil)); err != nil || b.String() != "[]\n" {
		t.Fatalf("empty JSON = %q, %v", b.String(), err)
	}
}

func TestWriteCSV_QuotesEverything(t *testing.T) {
	var b bytes.Buffer
	if err := WriteCSV(&b, Build(meta(), sample())); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "Title,URL,Emails\n" +
		`"first","https://www.youtube.com/watch?v=a","a@x.io"` + "\n" +
		`"Say ""hi"" <b>","https://www.youtube.com/watch?v=d","b@x.io; a@x.io"` + "\n"
	testkit.MustEqualBytes(t, b.Bytes(), []byte(want))
}

func TestSave_AtomicAndByteIdentical(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "out", "emails_youtube")
	rep := Build(meta(), sample())

	paths, err := Save(prefix, rep)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	j1 := testkit.MustReadFile(t, paths.JSON)
	c1 := testkit.MustReadFile(t, paths.CSV)

	if _, err := Save(prefix, rep); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	testkit.MustEqualBytes(t, testkit.MustReadFile(t, paths.JSON), j1)
	testkit.MustEqualBytes(t, testkit.MustReadFile(t, paths.CSV), c1)

	entries, err := os.ReadDir(filepath.Dir(prefix))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestSave_EmptyReportStillWritesCSVHeader(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "none")
	paths, err := Save(prefix, Build(meta(), nil))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := string(testkit.MustReadFile(t, paths.CSV)); got != "Title,URL,Emails\n" {
		t.Fatalf("csv = %q", got)
	}
}

func TestPrintSummary(t *testing.T) {
	var b bytes.Buffer
	rep := Build(meta(), sample())
	if err := PrintSummary(&b, rep, Paths("out")); err != nil {
		t.Fatalf("PrintSummary: %v", err)
	}
	out := b.String()
	testkit.MustContain(t, out, "Extraction completed in 4.00 seconds")
	testkit.MustContain(t, out, "Speed: 1.00 videos/second")
	testkit.MustContain(t, out, "4 videos analyzed")
	testkit.MustContain(t, out, "1 videos failed")
	testkit.MustContain(t, out, "3 emails found (2 unique)")
	testkit.MustContain(t, out, "   - a@x.io\n   - b@x.io\n")
	testkit.MustContain(t, out, "out.json")
	testkit.MustContain(t, out, "out.csv")
	testkit.MustNotContain(t, out, "No emails found")

	b.Reset()
	noEmails := Build(meta(), []domain.ExtractionResult{{Index: 0, Title: "t", URL: "u", HasDescription: true}})
	_ = PrintSummary(&b, noEmails, Paths("out"))
	testkit.MustContain(t, b.String(), "No emails found")
	testkit.MustNotContain(t, b.String(), "Unique emails found")
}

func TestFit_DisplayWidth(t *testing.T) {
	cases := []string{
		"short",
		strings.Repeat("x", 80),
		strings.Repeat("日本", 40),
		"multi   space\ttitle",
	}
	for _, in := range cases {
		got := fit(in, 20)
		if w := runewidth.StringWidth(got); w != 20 {
			t.Fatalf("fit(%q) width = %d", in, w)
		}
	}
}

type fakeSink struct {
	name  string
	err   error
	calls int
}

func (f *fakeSink) Name() string { return f.name }
func (f *fakeSink) SaveReport(context.Context, domain.RunReport) error {
	f.calls++
	return f.err
}

func TestPublisher_SinkFailuresAreNotFatal(t *testing.T) {
	dir := t.TempDir()
	bad := &fakeSink{name: "pg", err: errors.New("connection refused")}
	good := &fakeSink{name: "ch"}
	var out bytes.Buffer

	p := &Publisher{
		Prefix:      filepath.Join(dir, "emails"),
		Out:         &out,
		Sinks:       []domain.ReportSink{bad, good},
		Registry:    metrics.NewBare(),
		MetricsFile: filepath.Join(dir, "textfile", "tubemail.prom"),
	}
	paths, err := p.Publish(context.Background(), Build(meta(), sample()))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if bad.calls != 1 || good.calls != 1 {
		t.Fatalf("sinks not called: %d %d", bad.calls, good.calls)
	}
	if _, err := os.Stat(paths.JSON); err != nil {
		t.Fatalf("json missing: %v", err)
	}
	if _, err := os.Stat(p.MetricsFile); err != nil {
		t.Fatalf("metrics textfile missing: %v", err)
	}
	testkit.MustContain(t, out.String(), "Unique emails found")
}

func TestPublisher_FileErrorIsFatal(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	p := &Publisher{Prefix: filepath.Join(blocker, "emails")}
	if _, err := p.Publish(context.Background(), Build(meta(), nil)); err == nil {
		t.Fatalf("expected error writing under a regular file")
	}
}
