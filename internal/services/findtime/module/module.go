// Package module wires find-time into the API using modkit
package module

import (
	"net/http"

	"findtime/internal/core/calendar"
	"findtime/internal/core/pyramid"
	"findtime/internal/modkit"
	perr "findtime/internal/platform/errors"
	phttp "findtime/internal/platform/net/http"
	"findtime/internal/services/findtime/domain"
	fthttp "findtime/internal/services/findtime/http"
	"findtime/internal/services/findtime/repo"
	"findtime/internal/services/findtime/service"
)

// Ports exposed by the find-time module
type Ports struct {
	Service domain.ServicePort
	// Repo is nil when the configured backend is not open
	Repo repo.Repo
}

// Module implements the find-time module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler

	register func(phttp.Router)
	ports    Ports
}

// New constructs the module from deps and FINDTIME_* config
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	return NewWithOptions(deps, FromConfig(deps.Cfg), opts...)
}

// NewWithOptions is New with explicit settings
func NewWithOptions(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("findtime")}, opts...)...)

	var runner service.Runner
	r, err := OpenRepo(deps, o)
	if err != nil {
		deps.Log.Warn().Err(err).Str("backend", string(o.Backend)).Msg("find-time backend unavailable; queries will fail")
	} else {
		runner = pyramid.New(r, r, pyramid.Config{Parallelism: o.Parallelism, Finest: calendar.Day})
	}
	svc := service.New(runner, deps.Metrics, service.Config{Aggregation: o.Aggregation, MaxHours: o.MaxHours})

	m := &Module{deps: deps, name: b.Name, prefix: b.Prefix, mws: b.Mw}
	m.ports = Ports{Service: svc, Repo: r}

	external := b.Register
	m.register = func(rr phttp.Router) {
		fthttp.Register(rr, svc)
		external(rr)
	}
	return m
}

// OpenRepo picks the backend adapter for o over the open seams in deps
// with the cache enabled and Redis open, bounds go through Redis and rollups invalidate them
func OpenRepo(deps modkit.Deps, o Options) (repo.Repo, error) {
	var r repo.Repo
	switch o.Backend {
	case repo.BackendClickHouse:
		if deps.CH == nil {
			return nil, perr.Unavailablef("clickhouse backend selected but not connected")
		}
		r = repo.NewClickHouse(deps.CH)
	case repo.BackendPostgres:
		if deps.PG == nil {
			return nil, perr.Unavailablef("postgres backend selected but not connected")
		}
		r = repo.NewPostgres(deps.PG)
	default:
		return nil, perr.InvalidArgf("unknown backend %q", o.Backend)
	}
	if o.CacheEnabled {
		r = repo.NewCachedRepo(r, deps.RDS, o.CacheTTL, deps.Metrics)
	}
	return r, nil
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r phttp.Router) { modkit.Mount(r, m.prefix, m.mws, m.register) }

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }
