// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"net/http"
	"time"

	"findtime/internal/modkit"
	phttp "findtime/internal/platform/net/http"
	metahttp "findtime/internal/services/api/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	name     string
	prefix   string
	mws      []func(http.Handler) http.Handler
	register func(phttp.Router)

	startedAt time.Time
}

// New constructs a meta module reporting on the seams in deps
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("meta")}, opts...)...)

	m := &Module{
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		startedAt: time.Now(),
	}

	seams := map[string]any{"ch": deps.CH, "pg": deps.PG, "redis": deps.RDS}
	external := b.Register
	m.register = func(r phttp.Router) {
		metahttp.Register(r, metahttp.Deps{
			ServiceName: "findtime-api",
			StartedAt:   m.startedAt,
			Seams:       seams,
		})
		external(r)
	}
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r phttp.Router) { modkit.Mount(r, m.prefix, m.mws, m.register) }

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.name }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
