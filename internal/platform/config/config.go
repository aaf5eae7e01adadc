// Package config handles application configuration via environment variables
// with an optional YAML file overlay (see Load)
package config

import (
	"strconv"
	"time"

	"tubemail/internal/platform/config/raw"
	"tubemail/internal/platform/logger"
)

// Conf is a namespaced view over configuration keys (e.g., "CORE_HARVEST_", "SERVICE_PGSQL_")
// Use New() for global access, or Prefix("CORE_") for module scopes.
type Conf struct{ prefix string }

// New creates a root Conf (no prefix)
func New() Conf { return Conf{} }

// Prefix creates a child Conf with an additional prefix, e.g. cfg.Prefix("CORE_HARVEST_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// key composes the fully-qualified key name
func (c Conf) key(k string) string { return c.prefix + k }

// Lookup returns the trimmed value and whether the key is set (env first, then file)
func (c Conf) Lookup(key string) (string, bool) { return raw.Lookup(c.key(key)) }

// Has reports whether the key is set to a non-empty value
func (c Conf) Has(key string) bool {
	_, ok := c.Lookup(key)
	return ok
}

// MayString returns the value or def if missing/empty
func (c Conf) MayString(key, def string) string {
	if v, ok := c.Lookup(key); ok {
		return v
	}
	return def
}

// MayInt returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayInt(key string, def int) int {
	s, ok := c.Lookup(key)
	if !ok {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Int("default", def).Msg("invalid int; using default")
	return def
}

// MayFloat64 returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayFloat64(key string, def float64) float64 {
	s, ok := c.Lookup(key)
	if !ok {
		return def
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Float64("default", def).
		Msg("invalid float64; using default")
	return def
}

// MayBool returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayBool(key string, def bool) bool {
	s, ok := c.Lookup(key)
	if !ok {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Bool("default", def).Msg("invalid bool; using default")
	return def
}

// MayDuration returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s, ok := c.Lookup(key)
	if !ok {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Dur("default", def).Msg("invalid duration; using default")
	return def
}

// First returns the value of the first key that is set, or def
// handy for legacy aliases such as CORE_HARVEST_CHANNEL then YOUTUBE_CHANNEL_URL
func (c Conf) First(def string, keys ...string) string {
	for _, k := range keys {
		if v, ok := c.Lookup(k); ok {
			return v
		}
	}
	return def
}
