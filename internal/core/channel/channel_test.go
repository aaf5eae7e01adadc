package channel

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"   ", ""},
		{"@bbc", "https://www.youtube.com/@bbc/videos"},
		{" @france24 ", "https://www.youtube.com/@france24/videos"},
		{"https://www.youtube.com/@bbc", "https://www.youtube.com/@bbc/videos"},
		{"https://www.youtube.com/@bbc/", "https://www.youtube.com/@bbc/videos"},
		{"https://www.youtube.com/@bbc/videos", "https://www.youtube.com/@bbc/videos"},
		{"https://www.youtube.com/channel/UC123", "https://www.youtube.com/channel/UC123/videos"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Fatalf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestVideoID(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"https://www.youtube.com/watch?v=abc123", "abc123", true},
		{"https://www.youtube.com/watch?v=abc123&list=PL1&t=30s", "abc123", true},
		{"/watch?v=xyz", "xyz", true},
		{"https://www.youtube.com/watch", "", false},
		{"https://www.youtube.com/shorts/abc123", "", false},
		{"%zz", "", false},
	}
	for _, c := range cases {
		got, ok := VideoID(c.in)
		if got != c.want || ok != c.wantOK {
			t.Fatalf("VideoID(%q) = (%q,%v), want (%q,%v)", c.in, got, ok, c.want, c.wantOK)
		}
	}
}

func TestIsShort(t *testing.T) {
	if !IsShort("https://www.youtube.com/shorts/abc") {
		t.Fatalf("shorts link not detected")
	}
	if IsShort("https://www.youtube.com/watch?v=abc") {
		t.Fatalf("watch link flagged as short")
	}
}
