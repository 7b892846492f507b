package swaggerkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	phttp "findtime/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
)

type sampleIn struct {
	Name    string     `json:"name" validate:"required,max=8" example:"t2m"`
	Value   *float64   `json:"value" validate:"required" example:"300"`
	Limit   int        `json:"limit,omitempty" example:"ten"`
	Verbose bool       `json:"verbose,omitempty" example:"true"`
	At      time.Time  `json:"at"`
	Tags    []string   `json:"tags"`
	Nested  sampleItem `json:"nested"`
	Skipped string     `json:"-"`
}

type sampleItem struct {
	N int `json:"n"`
}

func TestSchemaOf(t *testing.T) {
	got := SchemaOf(sampleIn{})
	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":    map[string]any{"type": "string", "example": "t2m"},
			"value":   map[string]any{"type": "number", "format": "double", "example": 300.0},
			"limit":   map[string]any{"type": "integer", "example": "ten"},
			"verbose": map[string]any{"type": "boolean", "example": true},
			"at":      map[string]any{"type": "string", "format": "date-time"},
			"tags":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"nested": map[string]any{"type": "object", "properties": map[string]any{
				"n": map[string]any{"type": "integer"},
			}},
		},
		"required": []any{"name", "value"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("schema (-want +got):\n%s", diff)
	}
}

func TestBuild_AddsDefaultErrors(t *testing.T) {
	spec := Build("t", "v1", func(s map[string]any) {
		AddOperation(s, http.MethodGet, "/x", map[string]any{
			"responses": map[string]any{"400": ErrorRef("custom")},
		})
	}, nil)
	op := spec["paths"].(map[string]any)["/x"].(map[string]any)["get"].(map[string]any)
	resps := op["responses"].(map[string]any)
	if resps["400"].(map[string]any)["description"] != "custom" {
		t.Fatalf("declared 400 was replaced")
	}
	if resps["500"] == nil {
		t.Fatalf("missing default 500")
	}
}

func TestMount(t *testing.T) {
	mux := chi.NewRouter()
	Mount(phttp.AdaptChi(mux), false, "t", "v1")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("disabled docs = %d", rec.Code)
	}

	mux = chi.NewRouter()
	Mount(phttp.AdaptChi(mux), true, "t", "v1", func(s map[string]any) {
		AddOperation(s, http.MethodPost, "/y", map[string]any{})
	})
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("doc.json = %d", rec.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["openapi"] != "3.0.3" || doc["paths"].(map[string]any)["/y"] == nil {
		t.Fatalf("doc = %v", doc)
	}
}
