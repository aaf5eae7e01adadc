// Package channel normalizes channel addresses and parses video links
package channel

import (
	"net/url"
	"strings"
)

// Base is the site root used for bare handles
const Base = "https://www.youtube.com"

const videosSuffix = "/videos"

// Normalize turns a handle or channel address into its videos tab address
// "@bbc" becomes https://www.youtube.com/@bbc/videos and a full address gains /videos once
// an empty input yields ""
func Normalize(in string) string {
	s := strings.TrimSpace(in)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "http") {
		return Base + "/" + strings.Trim(s, "/") + videosSuffix
	}
	if strings.HasSuffix(s, videosSuffix) {
		return s
	}
	return strings.TrimRight(s, "/") + videosSuffix
}

// VideoID extracts the v query value of a watch link
// ok is false for anything that is not a watch link with an id
func VideoID(link string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", false
	}
	if !strings.HasSuffix(u.Path, "/watch") {
		return "", false
	}
	id := u.Query().Get("v")
	return id, id != ""
}

// IsShort reports whether link points at short-form content
func IsShort(link string) bool { return strings.Contains(link, "/shorts/") }
