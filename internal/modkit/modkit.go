// Package modkit wires service modules onto the api router
package modkit

import (
	"findtime/internal/platform/config"
	"findtime/internal/platform/logger"
	"findtime/internal/platform/metrics"
	phttp "findtime/internal/platform/net/http"
	"findtime/internal/platform/store"
)

// Module is the common surface for API modules
type Module interface {
	// MountRoutes mounts HTTP routes under the provided router seam
	MountRoutes(r phttp.Router)
	// Ports returns a module specific port set for cross wiring
	Ports() any
	Name() string
}

// Deps holds the shared dependencies passed to modules
// any store seam may be nil when its backend is disabled
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	PG      store.TxRunner
	CH      store.Clickhouse
	RDS     store.Redis
	Metrics *metrics.Metrics
}

// DepsFrom copies the open seams of st into Deps
func DepsFrom(cfg config.Conf, st *store.Store, m *metrics.Metrics) Deps {
	d := Deps{Cfg: cfg, Metrics: m}
	if st != nil {
		d.Log, d.PG, d.CH, d.RDS = st.Log, st.PG, st.CH, st.RDS
	}
	return d
}
