// Package ytdlp fetches video metadata by running yt-dlp
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"

	perr "tubemail/internal/platform/errors"
	"tubemail/internal/services/harvest/domain"
)

// DefaultBin is looked up on PATH
const DefaultBin = "yt-dlp"

const stderrTail = 300

var execCommand = exec.CommandContext

// Client implements domain.MetadataFetcher
type Client struct {
	Bin string
}

// New returns a Client using bin, or DefaultBin when empty
func New(bin string) *Client {
	if strings.TrimSpace(bin) == "" {
		bin = DefaultBin
	}
	return &Client{Bin: bin}
}

type dump struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Args are the flags passed before the url
func Args(url string) []string {
	return []string{"--dump-json", "--skip-download", "--no-warnings", "--quiet", "--no-playlist", url}
}

// Fetch implements domain.MetadataFetcher
func (c *Client) Fetch(ctx context.Context, url string) (domain.Metadata, error) {
	var stdout, stderr bytes.Buffer
	cmd := execCommand(ctx, c.Bin, Args(url)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return domain.Metadata{}, perr.FromContext(ctx.Err(), "yt-dlp")
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return domain.Metadata{}, perr.Extractionf("yt-dlp exited %d: %s", ee.ExitCode(), tail(stderr.String()))
		}
		return domain.Metadata{}, perr.Wrap(err, perr.ErrorCodeExtraction, "run yt-dlp")
	}

	var d dump
	if err := json.Unmarshal(firstLine(stdout.Bytes()), &d); err != nil {
		return domain.Metadata{}, perr.Wrap(err, perr.ErrorCodeJSON, "decode yt-dlp output")
	}
	return domain.Metadata{Title: d.Title, Description: d.Description}, nil
}

// firstLine keeps the first JSON document when yt-dlp prints several
func firstLine(b []byte) []byte {
	b = bytes.TrimSpace(b)
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[:i]
	}
	return b
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "no output"
	}
	if r := []rune(s); len(r) > stderrTail {
		return "..." + string(r[len(r)-stderrTail:])
	}
	return s
}

var _ domain.MetadataFetcher = (*Client)(nil)
