package store

import (
	"time"

	"tubemail/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int           // ping attempts before giving up
	PingTimeout    time.Duration // per attempt
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled    bool
	URL        string
	ClientName string
	ClientTag  string
}

// FromConfig reads backend settings from the SERVICE_ namespace
// a backend is enabled when its DBURL is set
func FromConfig(root config.Conf) Config {
	pgc := root.Prefix("SERVICE_PGSQL_")
	chc := root.Prefix("SERVICE_CLICKHOUSE_")

	cfg := Config{
		AppName: root.MayString("APP_NAME", "tubemail"),
		PG: PGConfig{
			URL:            pgc.MayString("DBURL", ""),
			MaxConns:       int32(pgc.MayInt("MAX_CONNS", 4)),
			LogSQL:         pgc.MayBool("LOG_SQL", false),
			SlowQueryMs:    pgc.MayInt("SLOW_MS", 500),
			ConnectRetries: pgc.MayInt("CONNECT_RETRIES", 6),
			PingTimeout:    pgc.MayDuration("PING_TIMEOUT", 5*time.Second),
		},
		CH: CHConfig{
			URL:        chc.MayString("DBURL", ""),
			ClientName: chc.MayString("CLIENT_ROLE", "harvest"),
			ClientTag:  chc.MayString("CLIENT_TAG", "tubemail"),
		},
	}
	cfg.PG.Enabled = cfg.PG.URL != ""
	cfg.CH.Enabled = cfg.CH.URL != ""
	return cfg
}
