package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	perr "tubemail/internal/platform/errors"
	kit "tubemail/internal/platform/testkit"
)

// fakeYTDLP reruns the test binary as a stand in for yt-dlp
// GO_YTDLP_MODE selects what the helper prints
func fakeYTDLP(t *testing.T, mode string) *[]string {
	t.Helper()
	var seen []string
	kit.Swap(t, &execCommand, func(ctx context.Context, name string, args ...string) *exec.Cmd {
		seen = append([]string{name}, args...)
		cs := append([]string{"-test.run=TestHelperProcess", "--"}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "GO_YTDLP_MODE="+mode)
		return cmd
	})
	return &seen
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("GO_YTDLP_MODE") {
	case "ok":
		fmt.Fprintln(os.Stdout, `{"id":"abc","title":"Studio tour","description":"Business: hello@studio.io","duration":61}`)
		fmt.Fprintln(os.Stdout, `{"id":"ignored"}`)
	case "private":
		fmt.Fprintln(os.Stderr, "ERROR: [youtube] abc: Private video. Sign in if you've been granted access")
		os.Exit(1)
	case "garbage":
		fmt.Fprintln(os.Stdout, "<html>")
	case "hang":
		time.Sleep(10 * time.Second)
	}
	os.Exit(0)
}

func TestFetch_DecodesFirstDocument(t *testing.T) {
	kit.Serial(t)
	seen := fakeYTDLP(t, "ok")

	md, err := New("").Fetch(context.Background(), "https://www.youtube.com/watch?v=abc")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if md.Title != "Studio tour" || md.Description != "Business: hello@studio.io" {
		t.Fatalf("metadata = %+v", md)
	}
	got := strings.Join(*seen, " ")
	want := "yt-dlp --dump-json --skip-download --no-warnings --quiet --no-playlist https://www.youtube.com/watch?v=abc"
	if got != want {
		t.Fatalf("command = %q\nwant      %q", got, want)
	}
}

func TestFetch_NonZeroExitCarriesStderr(t *testing.T) {
	kit.Serial(t)
	fakeYTDLP(t, "private")

	_, err := New("/opt/yt-dlp").Fetch(context.Background(), "https://www.youtube.com/watch?v=abc")
	if !perr.IsCode(err, perr.ErrorCodeExtraction) {
		t.Fatalf("code = %v (%v)", perr.CodeOf(err), err)
	}
	kit.MustContain(t, err.Error(), "exited 1")
	kit.MustContain(t, err.Error(), "Private video")
}

func TestFetch_BadJSON(t *testing.T) {
	kit.Serial(t)
	fakeYTDLP(t, "garbage")

	_, err := New("").Fetch(context.Background(), "u")
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("code = %v (%v)", perr.CodeOf(err), err)
	}
}

func TestFetch_Timeout(t *testing.T) {
	kit.Serial(t)
	fakeYTDLP(t, "hang")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := New("").Fetch(ctx, "u")
	if !perr.IsCode(err, perr.ErrorCodeTimeout) {
		t.Fatalf("code = %v (%v)", perr.CodeOf(err), err)
	}
}

func TestTail(t *testing.T) {
	t.Parallel()

	if tail("  ") != "no output" {
		t.Fatalf("blank stderr")
	}
	long := strings.Repeat("x", stderrTail+50) + "END"
	got := tail(long)
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "END") || len([]rune(got)) != stderrTail+3 {
		t.Fatalf("tail = %d runes", len([]rune(got)))
	}
}
