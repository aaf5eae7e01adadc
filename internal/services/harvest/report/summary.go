package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"tubemail/internal/services/harvest/domain"

	"github.com/mattn/go-runewidth"
)

// titleWidth is the display width of the title column
const titleWidth = 50

var rule = strings.Repeat("=", 60)

// PrintSummary writes the human readable end of run summary
func PrintSummary(w io.Writer, rep domain.RunReport, paths domain.Artifacts) error {
	var b strings.Builder
	c := rep.Counters
	elapsed := rep.Elapsed()

	fmt.Fprintf(&b, "\n%s\n", rule)
	fmt.Fprintf(&b, "Extraction completed in %.2f seconds\n", elapsed.Seconds())
	fmt.Fprintf(&b, "Speed: %.2f videos/second\n", speed(c.Analyzed, elapsed))
	fmt.Fprintf(&b, "Discovery: %s after %d snapshot(s)\n", rep.Discovery.State, rep.Discovery.Iterations)
	fmt.Fprintf(&b, "%d videos analyzed\n", c.Analyzed)
	fmt.Fprintf(&b, "%d videos had a description\n", c.WithDescription)
	fmt.Fprintf(&b, "%d videos contain emails\n", c.WithEmails)
	if c.Failed > 0 {
		fmt.Fprintf(&b, "%d videos failed\n", c.Failed)
	}
	fmt.Fprintf(&b, "%d emails found (%d unique)\n", c.EmailOccurrences, c.UniqueEmails)

	switch {
	case rep.Empty():
		b.WriteString("\n[!] No videos found on this channel\n")
	case len(rep.Emails) == 0:
		b.WriteString("\n[!] No emails found. Possible causes:\n")
		b.WriteString("    - Videos on this channel don't have emails in descriptions\n")
		b.WriteString("    - Descriptions are not loading correctly\n")
		b.WriteString("    - Try with another YouTube channel\n")
	default:
		b.WriteString("\nUnique emails found:\n")
		for _, e := range rep.Emails {
			fmt.Fprintf(&b, "   - %s\n", e)
		}
		b.WriteString("\nVideos with emails:\n")
		for _, r := range rep.Results {
			fmt.Fprintf(&b, "   %s  %d  %s\n", fit(r.Title, titleWidth), len(r.Emails), r.URL)
		}
	}

	b.WriteString("\nResults saved to:\n")
	fmt.Fprintf(&b, "   - %s\n", paths.JSON)
	fmt.Fprintf(&b, "   - %s\n", paths.CSV)

	_, err := io.WriteString(w, b.String())
	return err
}

// fit truncates or pads s to exactly width display cells
func fit(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "...")
	}
	return runewidth.FillRight(s, width)
}

func speed(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}
