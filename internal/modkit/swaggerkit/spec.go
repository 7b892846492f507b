package swaggerkit

import (
	"reflect"
	"strconv"
	"strings"
	"time"
)

// BasePath is where the v1 modules are mounted
const BasePath = "/api/v1"

// Build assembles an OAS3 document from the mutators and adds the shared error responses
func Build(title, version string, mutators ...SpecMutator) map[string]any {
	spec := map[string]any{
		"openapi": "3.0.3",
		"info":    map[string]any{"title": title, "version": version},
		"servers": []any{map[string]any{"url": BasePath}},
		"paths":   map[string]any{},
		"components": map[string]any{
			"schemas": map[string]any{"ErrorResponse": errorResponse()},
		},
	}
	for _, m := range mutators {
		if m != nil {
			m(spec)
		}
	}
	addDefaultResponse(spec, "400", "Bad Request", 400, "start: cannot parse \"yesterday\"")
	addDefaultResponse(spec, "500", "Internal Server Error", 500, "panic recovered")
	return spec
}

// AddOperation registers one operation under path
func AddOperation(spec map[string]any, method, path string, op map[string]any) {
	paths, _ := spec["paths"].(map[string]any)
	if paths == nil {
		paths = map[string]any{}
		spec["paths"] = paths
	}
	node, _ := paths[path].(map[string]any)
	if node == nil {
		node = map[string]any{}
		paths[path] = node
	}
	node[strings.ToLower(method)] = op
}

// JSONBody describes a required application/json request body
func JSONBody(schema map[string]any) map[string]any {
	return map[string]any{
		"required": true,
		"content":  map[string]any{"application/json": map[string]any{"schema": schema}},
	}
}

// OK describes a 200 envelope whose data field carries schema
func OK(description string, data map[string]any) map[string]any {
	env := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer", "example": 200},
			"status":      map[string]any{"type": "string", "example": "OK"},
			"request_id":  map[string]any{"type": "string"},
			"data":        data,
		},
		"required": []any{"status_code", "status", "data"},
	}
	return map[string]any{
		"description": description,
		"content":     map[string]any{"application/json": map[string]any{"schema": env}},
	}
}

// ErrorRef describes an error envelope response
func ErrorRef(description string) map[string]any {
	return map[string]any{
		"description": description,
		"content": map[string]any{"application/json": map[string]any{
			"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
		}},
	}
}

func errorResponse() map[string]any {
	return map[string]any{
		"type":        "object",
		"description": "Standard error response",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer", "format": "int32"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "integer", "format": "int32"},
			"error":       map[string]any{"type": "string"},
			"field":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
		},
		"required": []any{"status_code", "status"},
	}
}

// addDefaultResponse injects status into every operation that does not declare it
func addDefaultResponse(spec map[string]any, status, text string, code int, msg string) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		return
	}
	resp := ErrorRef(text)
	resp["content"].(map[string]any)["application/json"].(map[string]any)["example"] = map[string]any{
		"status_code": code,
		"status":      text,
		"error":       msg,
		"request_id":  "579f33bf50b1/abc-000001",
	}
	for _, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			responses, ok := op["responses"].(map[string]any)
			if !ok {
				responses = map[string]any{}
				op["responses"] = responses
			}
			if _, exists := responses[status]; !exists {
				responses[status] = resp
			}
		}
	}
}

var timeType = reflect.TypeOf(time.Time{})

// SchemaOf derives a JSON schema from v's type using its json, validate and example tags
func SchemaOf(v any) map[string]any { return schemaOf(reflect.TypeOf(v)) }

func schemaOf(t reflect.Type) map[string]any {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return map[string]any{}
	}
	if t == timeType {
		return map[string]any{"type": "string", "format": "date-time"}
	}
	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number", "format": "double"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": schemaOf(t.Elem())}
	case reflect.Map:
		return map[string]any{"type": "object", "additionalProperties": schemaOf(t.Elem())}
	case reflect.Struct:
		return structSchema(t)
	}
	return map[string]any{}
}

func structSchema(t reflect.Type) map[string]any {
	props := map[string]any{}
	var required []any
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		s := schemaOf(f.Type)
		if ex, ok := f.Tag.Lookup("example"); ok {
			s["example"] = example(s["type"], ex)
		}
		props[name] = s
		if rules := f.Tag.Get("validate"); rules == "required" || strings.HasPrefix(rules, "required,") {
			required = append(required, name)
		}
	}
	out := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// example converts a tag value to the schema's JSON type; unparsable values stay strings
func example(typ any, raw string) any {
	switch typ {
	case "number":
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case "integer":
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	case "boolean":
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	return raw
}
