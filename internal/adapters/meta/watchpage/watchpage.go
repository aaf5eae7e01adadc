// Package watchpage reads video metadata from the public watch page HTML
package watchpage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	perr "tubemail/internal/platform/errors"
	"tubemail/internal/services/harvest/domain"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// MaxBody caps how much of a watch page is read
const MaxBody = 8 << 20

const (
	userAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	playerIntro = "ytInitialPlayerResponse"
)

// Client implements domain.MetadataFetcher over plain HTTP
// one Client is shared by all workers so its limiter paces the whole pool
type Client struct {
	HTTP    *http.Client
	Limiter *rate.Limiter
}

// New returns a Client; rps <= 0 disables the politeness limiter
func New(hc *http.Client, rps float64) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		lim = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &Client{HTTP: hc, Limiter: lim}
}

// Fetch implements domain.MetadataFetcher
func (c *Client) Fetch(ctx context.Context, url string) (domain.Metadata, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return domain.Metadata{}, perr.FromContext(err, "watch page rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Metadata{}, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "build watch page request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Metadata{}, perr.FromContext(ctx.Err(), "watch page")
		}
		return domain.Metadata{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "get watch page")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.Metadata{}, perr.Newf(perr.ErrorCodeTooManyRequests, "watch page status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return domain.Metadata{}, perr.Extractionf("watch page status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBody))
	if err != nil {
		return domain.Metadata{}, perr.Wrap(err, perr.ErrorCodeExtraction, "read watch page")
	}
	return Parse(body)
}

type playerResponse struct {
	VideoDetails struct {
		VideoID          string `json:"videoId"`
		Title            string `json:"title"`
		ShortDescription string `json:"shortDescription"`
	} `json:"videoDetails"`
}

// Parse extracts title and description from watch page HTML
// the inline player response wins and its description is never replaced by the meta excerpt
// meta tags supply the description only when no player response is present
func Parse(body []byte) (domain.Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.Metadata{}, perr.Wrap(err, perr.ErrorCodeExtraction, "parse watch page")
	}

	var (
		md     domain.Metadata
		player bool
	)
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		pr, ok := playerFromScript(s.Text())
		if !ok {
			return true
		}
		player = true
		md.Title = pr.VideoDetails.Title
		md.Description = pr.VideoDetails.ShortDescription
		return false
	})

	if md.Title == "" {
		md.Title = metaContent(doc, `meta[name="title"]`, `meta[property="og:title"]`)
	}
	if !player {
		md.Description = metaContent(doc, `meta[name="description"]`, `meta[property="og:description"]`)
	}
	if md.Title == "" && md.Description == "" {
		return domain.Metadata{}, perr.Extractionf("no metadata on watch page")
	}
	return md, nil
}

// playerFromScript decodes the object assigned to ytInitialPlayerResponse
func playerFromScript(js string) (playerResponse, bool) {
	var pr playerResponse
	i := strings.Index(js, playerIntro)
	if i < 0 {
		return pr, false
	}
	rest := js[i+len(playerIntro):]
	j := strings.IndexByte(rest, '{')
	if j < 0 {
		return pr, false
	}
	// Decode stops after the first value, trailing script is ignored
	if err := json.NewDecoder(strings.NewReader(rest[j:])).Decode(&pr); err != nil {
		return pr, false
	}
	d := pr.VideoDetails
	return pr, d.VideoID != "" || d.Title != "" || d.ShortDescription != ""
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

var _ domain.MetadataFetcher = (*Client)(nil)
