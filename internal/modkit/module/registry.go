package module

import (
	"sync"

	perr "tubemail/internal/platform/errors"
)

// process wide table of port sets, filled by module constructors and read by main
var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register publishes m's ports under m.Name(), replacing any earlier entry
func Register(m Module) {
	mu.Lock()
	reg[m.Name()] = m.Ports()
	mu.Unlock()
}

// Lookup returns the ports registered for name as T
func Lookup[T any](name string) (T, error) {
	var zero T
	mu.RLock()
	v, ok := reg[name]
	mu.RUnlock()
	if !ok {
		return zero, perr.NotFoundf("module %q is not registered", name)
	}
	out, ok := v.(T)
	if !ok {
		return zero, perr.Internalf("module %q exposes %T, not %T", name, v, zero)
	}
	return out, nil
}

// Reset clears the table for tests
func Reset() {
	mu.Lock()
	reg = map[string]any{}
	mu.Unlock()
}
