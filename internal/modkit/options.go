package modkit

import (
	"net/http"

	phttp "findtime/internal/platform/net/http"
)

// Option mutates build configuration for a module
type Option func(*buildCfg)

type buildCfg struct {
	name     string
	prefix   string
	mw       []func(http.Handler) http.Handler
	register func(phttp.Router)
}

// Built is the resolved option set a module keeps
type Built struct {
	Name     string
	Prefix   string
	Mw       []func(http.Handler) http.Handler
	Register func(phttp.Router)
}

// WithName sets a module name used in logs
func WithName(name string) Option { return func(c *buildCfg) { c.name = name } }

// WithPrefix mounts a module under a path prefix
func WithPrefix(prefix string) Option { return func(c *buildCfg) { c.prefix = prefix } }

// WithMiddlewares attaches per module middleware in order
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(c *buildCfg) { c.mw = append(c.mw, mw...) }
}

// WithRegister adds extra endpoints next to the module's own
func WithRegister(fn func(phttp.Router)) Option { return func(c *buildCfg) { c.register = fn } }

// Build applies opts in order; later options win
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	if c.register == nil {
		c.register = func(phttp.Router) {}
	}
	return Built{
		Name:     c.name,
		Prefix:   c.prefix,
		Mw:       append([]func(http.Handler) http.Handler(nil), c.mw...),
		Register: c.register,
	}
}

// Mount mounts register under prefix with mw applied; an empty prefix mounts in place
func Mount(r phttp.Router, prefix string, mw []func(http.Handler) http.Handler, register func(phttp.Router)) {
	if prefix == "" {
		r.Group(func(g phttp.Router) {
			g.Use(mw...)
			register(g)
		})
		return
	}
	r.Route(prefix, func(sub phttp.Router) {
		sub.Use(mw...)
		register(sub)
	})
}

// MountAPI mounts every module under /api/{version}
func MountAPI(r phttp.Router, version string, mw []func(http.Handler) http.Handler, mods ...Module) {
	Mount(r, "/api/"+version, mw, func(api phttp.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})
}
