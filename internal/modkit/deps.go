// Package modkit provides module wiring and core deps
package modkit

import (
	"tubemail/internal/modkit/repokit"
	"tubemail/internal/platform/config"
	"tubemail/internal/platform/logger"
	"tubemail/internal/platform/metrics"
	"tubemail/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// PG, CH and Metrics are optional and may be nil
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	PG      repokit.TxRunner
	CH      store.Clickhouse
	Metrics *metrics.Registry
}

// FromStore copies the enabled backends of s into d
func (d Deps) FromStore(s *store.Store) Deps {
	if s == nil {
		return d
	}
	d.PG = s.PG
	d.CH = s.CH
	return d
}

// HasExport reports whether at least one export backend is wired
func (d Deps) HasExport() bool { return d.PG != nil || d.CH != nil }
