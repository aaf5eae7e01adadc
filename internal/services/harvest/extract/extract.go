// Package extract turns one discovered video into an ExtractionResult
package extract

import (
	"context"
	"fmt"

	"tubemail/internal/core/emails"
	perr "tubemail/internal/platform/errors"
	"tubemail/internal/services/harvest/domain"
	"tubemail/internal/services/harvest/guardrails"
)

// Extractor fetches metadata and scans the description for addresses
// it performs no retries
type Extractor struct {
	fetch    domain.MetadataFetcher
	finder   *emails.Finder
	timeouts guardrails.Timeouts
}

// New returns an Extractor
func New(f domain.MetadataFetcher, finder *emails.Finder, t guardrails.Timeouts) *Extractor {
	if finder == nil {
		finder = emails.New(false)
	}
	return &Extractor{fetch: f, finder: finder, timeouts: t}
}

// Extract never fails: a fetch error is folded into the result
func (x *Extractor) Extract(ctx context.Context, index int, ref domain.ItemRef) domain.ExtractionResult {
	fctx, cancel := guardrails.ForFetch(ctx, x.timeouts)
	defer cancel()

	md, err := x.fetch.Fetch(fctx, ref.URL)
	if err != nil {
		return Failure(index, ref, perr.FromContext(err, "metadata fetch timed out"))
	}

	title := md.Title
	if title == "" {
		title = ref.Title
	}
	return domain.ExtractionResult{
		Index:          index,
		Title:          title,
		URL:            ref.URL,
		Emails:         x.finder.Find(md.Description),
		HasDescription: md.Description != "",
	}
}

// Failure builds the error result for ref
func Failure(index int, ref domain.ItemRef, err error) domain.ExtractionResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return domain.ExtractionResult{Index: index, Title: ref.Title, URL: ref.URL, Err: msg}
}

// Recovered builds the placeholder result for a panic caught while processing ref
func Recovered(index int, ref domain.ItemRef, r any) domain.ExtractionResult {
	return Failure(index, ref, perr.PanicErrf("extraction panicked: %s", fmt.Sprint(r)))
}
