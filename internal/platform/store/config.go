package store

import "findtime/internal/platform/config"

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG  PGConfig
	CH  CHConfig
	RDS RedisConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int
}

// CHConfig configures clickhouse connectivity and tracing
type CHConfig struct {
	Enabled     bool
	URL         string
	Database    string
	ClientName  string
	ClientTag   string
	MaxConns    int
	LogSQL      bool
	SlowQueryMs int
}

// RedisConfig configures redis connectivity
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// ConfigFrom reads SERVICE_CLICKHOUSE_*, SERVICE_PGSQL_* and SERVICE_REDIS_*
// a backend is enabled when its URL or address is set
func ConfigFrom(root config.Conf, appName, clientTag string) Config {
	ch := root.Prefix("SERVICE_CLICKHOUSE_")
	pg := root.Prefix("SERVICE_PGSQL_")
	rd := root.Prefix("SERVICE_REDIS_")

	c := Config{AppName: appName}
	c.CH = CHConfig{
		URL:         ch.MayString("DBURL", ""),
		Database:    ch.MayString("DATABASE", ""),
		ClientTag:   clientTag,
		MaxConns:    ch.MayInt("MAX_CONNS", 8),
		LogSQL:      ch.MayBool("LOG_SQL", false),
		SlowQueryMs: ch.MayInt("SLOW_MS", 500),
	}
	c.CH.Enabled = c.CH.URL != ""
	c.PG = PGConfig{
		URL:         pg.MayString("DBURL", ""),
		MaxConns:    int32(pg.MayInt("MAX_CONNS", 4)),
		LogSQL:      pg.MayBool("LOG_SQL", false),
		SlowQueryMs: pg.MayInt("SLOW_MS", 500),
	}
	c.PG.Enabled = c.PG.URL != ""
	c.RDS = RedisConfig{
		Addr:     rd.MayString("ADDR", ""),
		Password: rd.MayString("PASSWORD", ""),
		DB:       rd.MayInt("DB", 0),
	}
	c.RDS.Enabled = c.RDS.Addr != ""
	return c
}
