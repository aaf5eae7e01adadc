// Package raw provides a minimal key reader used during bootstrap.
// It intentionally has NO dependency on the logger package to avoid import cycles.
// Values come from the process environment first, then from an optional file overlay
package raw

import (
	"os"
	"strings"
	"sync"
)

var (
	overlayMu sync.RWMutex
	overlay   map[string]string
)

// SetOverlay installs a process wide fallback for keys missing from the environment.
// Keys are upper snake case (CORE_HARVEST_WORKERS). A nil map clears the overlay
func SetOverlay(m map[string]string) {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[strings.ToUpper(k)] = v
	}
	overlayMu.Lock()
	overlay = cp
	overlayMu.Unlock()
}

// Lookup returns the trimmed value for a fully qualified key and whether it was set.
// The environment wins over the overlay; whitespace-only values count as unset
func Lookup(key string) (string, bool) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v, true
	}
	overlayMu.RLock()
	v, ok := overlay[key]
	overlayMu.RUnlock()
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Conf is a namespaced view over configuration keys (e.g., "CORE_", "LOG_")
type Conf struct{ prefix string }

// New returns a root Conf (no prefix)
func New() Conf { return Conf{} }

// Prefix returns a child Conf with an additional prefix (e.g. "LOG_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// key composes the fully-qualified key
func (c Conf) key(k string) string { return c.prefix + k }

// Get returns the trimmed value or the provided default if empty
func (c Conf) Get(key, def string) string {
	if v, ok := Lookup(c.key(key)); ok {
		return v
	}
	return def
}

// GetBool parses a bool-like value ("1|true|yes") with default fallback
func (c Conf) GetBool(key string, def bool) bool {
	v, ok := Lookup(c.key(key))
	if !ok {
		return def
	}
	v = strings.ToLower(v)
	return v == "1" || v == "true" || v == "yes"
}

// GetInt parses a positive integer with default fallback; non-numeric -> def
func (c Conf) GetInt(key string, def int) int {
	s, ok := Lookup(c.key(key))
	if !ok {
		return def
	}
	n := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < '0' || ch > '9' {
			return def
		}
		n = n*10 + int(ch-'0')
	}
	return n
}
