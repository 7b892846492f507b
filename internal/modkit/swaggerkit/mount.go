// Package swaggerkit serves an OpenAPI document and the Swagger UI over it
package swaggerkit

import (
	"encoding/json"
	"net/http"

	phttp "findtime/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// SpecMutator lets a module add its paths and schemas to the document
type SpecMutator func(map[string]any)

// Mount the Swagger UI and its doc.json under /api/docs if enabled
func Mount(r phttp.Router, enabled bool, title, version string, mutators ...SpecMutator) {
	if !enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", serveDocJSON(title, version, mutators))
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("api"),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}

// serveDocJSON builds the document per request so mutators never share state
func serveDocJSON(title, version string, mutators []SpecMutator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec := Build(title, version, mutators...)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}
