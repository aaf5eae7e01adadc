// Package emails finds email-like substrings in free text
// Matching is purely syntactic: local part of letters, digits and _.+-
// then @ then a dotted domain of letters, digits and -
package emails

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Pattern is the address expression applied to descriptions
const Pattern = `[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`

var re = regexp.MustCompile(Pattern)

// pool of fresh transformer chains
var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			runes.Map(formatToSpace), // format characters become boundaries
			width.Fold,
		)
	},
}

// Finder scans text for addresses
// the zero value scans raw text; Fold maps fullwidth and compatibility forms to ASCII first
// and turns format characters into word boundaries
type Finder struct {
	Fold bool
}

// New returns a Finder
func New(fold bool) *Finder { return &Finder{Fold: fold} }

// Find returns the distinct matches in first-seen order
// nil when there are none
func (f *Finder) Find(text string) []string {
	if text == "" {
		return nil
	}
	if f != nil && f.Fold {
		text = fold(text)
	}
	raw := re.FindAllString(text, -1)
	matches := raw[:0]
	for _, m := range raw {
		if m = trimDomain(m); m != "" {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	return Dedupe(matches)
}

// trimDomain drops sentence punctuation trailing the domain
// empty when no dotted domain is left
func trimDomain(m string) string {
	m = strings.TrimRight(m, ".")
	at := strings.IndexByte(m, '@')
	if at < 0 || !strings.Contains(m[at+1:], ".") {
		return ""
	}
	return m
}

// Dedupe keeps the first occurrence of each value
func Dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func formatToSpace(r rune) rune {
	if unicode.Is(unicode.Cf, r) {
		return ' '
	}
	return r
}

func fold(s string) string {
	s = strings.ToValidUTF8(s, "")
	tr := foldPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		return s
	}
	return out
}
