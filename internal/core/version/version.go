// Package version provides build information for the binary
package version

// BuildInfo holds version information about the build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information
// set at build time with -ldflags "-X 'tubemail/internal/core/version.version=v0.1.0'"
func Info() BuildInfo {
	return BuildInfo{
		Service: "tubemail",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// String renders a one line banner
func (b BuildInfo) String() string {
	return b.Service + " " + b.Version + " (" + b.Commit + ", " + b.Date + ")"
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
