// Package http provides http transport for find-time
package http

import (
	stdhttp "net/http"

	"findtime/internal/modkit/swaggerkit"
	phttp "findtime/internal/platform/net/http"
	"findtime/internal/services/findtime/domain"
)

// Register mounts find-time endpoints on the given router
func Register(r phttp.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	// boolean series of when the predicate holds
	phttp.PostJSON[domain.FindTimeInput](r, "/find-time", h.findTime)

	// supported variable names
	phttp.GetJSON(r, "/meta/variables", h.variables)
}

type handlers struct{ svc domain.ServicePort }

// POST /find-time
// body domain.FindTimeInput, 200 domain.FindTimeResult
func (h *handlers) findTime(r *stdhttp.Request, in domain.FindTimeInput) (any, error) {
	return h.svc.FindTime(r.Context(), in)
}

// GET /meta/variables
func (h *handlers) variables(r *stdhttp.Request) (any, error) {
	return h.svc.Variables(r.Context())
}

// Docs describes the find-time routes in the API document
func Docs(spec map[string]any) {
	swaggerkit.AddOperation(spec, stdhttp.MethodPost, "/find-time", map[string]any{
		"tags":        []any{"findtime"},
		"summary":     "Hours at which the aggregated variable satisfies the predicate",
		"operationId": "findTime",
		"requestBody": swaggerkit.JSONBody(swaggerkit.SchemaOf(domain.FindTimeInput{})),
		"responses": map[string]any{
			"200": swaggerkit.OK("Boolean series as runs, and points on request", swaggerkit.SchemaOf(domain.FindTimeResult{})),
			"422": swaggerkit.ErrorRef("Invalid query"),
			"502": swaggerkit.ErrorRef("Backend query failed"),
			"503": swaggerkit.ErrorRef("Backend not connected"),
		},
	})
	swaggerkit.AddOperation(spec, stdhttp.MethodGet, "/meta/variables", map[string]any{
		"tags":        []any{"findtime"},
		"summary":     "Supported variables",
		"operationId": "listVariables",
		"responses": map[string]any{
			"200": swaggerkit.OK("Variables with long and short names", swaggerkit.SchemaOf([]domain.Variable{})),
		},
	})
}
