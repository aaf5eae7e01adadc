// Package metrics owns the process prometheus registry.
// Nothing is served over HTTP; the registry is flushed to a node exporter textfile at the end of a run
package metrics

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace prefixes every metric name
const Namespace = "tubemail"

// Registry wraps a prometheus registry so callers do not depend on the global default
type Registry struct {
	*prometheus.Registry
}

// New returns a registry with the go runtime and process collectors attached
func New() *Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{Registry: r}
}

// NewBare returns an empty registry, handy for tests that assert exact output
func NewBare() *Registry { return &Registry{Registry: prometheus.NewRegistry()} }

// WriteTextfile writes the registry in text exposition format to path.
// The parent directory is created when missing; an empty path is a no-op
func (r *Registry) WriteTextfile(path string) error {
	if r == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return prometheus.WriteToTextfile(path, r.Registry)
}
