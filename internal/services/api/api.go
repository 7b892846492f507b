// Package api assembles the HTTP API: global middleware, probes and the v1 modules
package api

import (
	"net/http"
	"time"

	"findtime/internal/core/version"
	"findtime/internal/modkit"
	"findtime/internal/modkit/swaggerkit"
	"findtime/internal/platform/config"
	"findtime/internal/platform/metrics"
	phttp "findtime/internal/platform/net/http"
	"findtime/internal/platform/net/middleware"
	"findtime/internal/platform/store"

	metamod "findtime/internal/services/api/meta/module"
	fthttp "findtime/internal/services/findtime/http"
	findtimemod "findtime/internal/services/findtime/module"
)

// Options are the API options
type Options struct {
	// Config is the root config; modules read their own prefixes from it
	Config  config.Conf
	Store   *store.Store
	Metrics *metrics.Metrics

	// Timeout bounds one request, including a whole find-time evaluation
	Timeout time.Duration
	// SlowRequest marks access log lines as warn at or above it
	SlowRequest    time.Duration
	CORSOrigins    []string
	EnableProfiler bool
	// EnableDocs serves the Swagger UI at /api/docs
	EnableDocs bool
}

// OptionsFromConfig reads FINDTIME_API_* settings
func OptionsFromConfig(root config.Conf) Options {
	ac := root.Prefix("FINDTIME_API_")
	return Options{
		Config:         root,
		Timeout:        ac.MayDuration("TIMEOUT", 90*time.Second),
		SlowRequest:    time.Duration(ac.MayInt("SLOW_MS", 2000)) * time.Millisecond,
		CORSOrigins:    ac.MayCSV("CORS_ORIGINS", []string{"*"}),
		EnableProfiler: ac.MayBool("PROFILER", false),
		EnableDocs:     ac.MayBool("DOCS", false),
	}
}

// Mount installs middleware and every route on r and returns the mounted modules
// r must be fresh: chi refuses middleware after routes
func Mount(r phttp.Router, opt Options) []modkit.Module {
	if opt.Timeout <= 0 {
		opt.Timeout = 90 * time.Second
	}
	r.Use(middleware.Defaults(opt.Timeout)...)
	r.Use(
		middleware.AccessLog(middleware.AccessLogOptions{Slow: opt.SlowRequest, Observe: opt.Metrics.HTTP}),
		middleware.Heartbeat("/health"),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: opt.CORSOrigins, MaxAge: 300}),
	)

	r.Handle("/metrics", opt.Metrics.Handler())
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
	swaggerkit.Mount(r, opt.EnableDocs, "findtime API", version.Info().Version, fthttp.Docs)

	deps := modkit.DepsFrom(opt.Config, opt.Store, opt.Metrics)
	mods := []modkit.Module{
		metamod.New(deps),
		findtimemod.New(deps),
	}
	modkit.MountAPI(r, "v1", []func(http.Handler) http.Handler{}, mods...)
	return mods
}
