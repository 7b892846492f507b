package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "findtime/internal/platform/errors"
)

type boxIn struct {
	Name   string  `json:"name" validate:"required,min=2"`
	Res    string  `json:"res" validate:"omitempty,oneof=hour day"`
	MinLat float64 `json:"min_lat" validate:"gte=-90,lte=90"`
	MaxLat float64 `json:"max_lat" validate:"gte=-90,lte=90,gtefield=MinLat"`
}

func TestParseJSON(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		code  perr.ErrorCode
		field string
		msg   string
	}{
		{name: "ok", body: `{"name":"ab","min_lat":1,"max_lat":2}`},
		{name: "empty", body: ``, code: perr.ErrorCodeJSON, msg: "empty body"},
		{name: "malformed", body: `{"name":`, code: perr.ErrorCodeJSON, msg: "invalid JSON"},
		{name: "unknown field", body: `{"name":"ab","zzz":1}`, code: perr.ErrorCodeJSON, msg: "zzz"},
		{name: "trailing", body: `{"name":"ab"} {}`, code: perr.ErrorCodeJSON, msg: "trailing"},
		{name: "required", body: `{"min_lat":1,"max_lat":2}`, code: perr.ErrorCodeValidation, field: "name", msg: "name is a required field"},
		{name: "short min", body: `{"name":"a"}`, code: perr.ErrorCodeValidation, field: "name", msg: "name must be at least 2"},
		{name: "lat range", body: `{"name":"ab","min_lat":-91}`, code: perr.ErrorCodeValidation, field: "min_lat", msg: "min_lat must be at least -90"},
		{name: "inverted box", body: `{"name":"ab","min_lat":5,"max_lat":1}`, code: perr.ErrorCodeValidation, field: "max_lat", msg: "max_lat must not be less than min_lat"},
		{name: "oneof", body: `{"name":"ab","res":"week"}`, code: perr.ErrorCodeValidation, field: "res", msg: "res must be one of [hour day]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			got, err := ParseJSON[boxIn](req)
			if tc.code == perr.ErrorCodeUnknown {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Name != "ab" || got.MaxLat != 2 {
					t.Fatalf("got %+v", got)
				}
				return
			}
			if perr.CodeOf(err) != tc.code {
				t.Fatalf("code got %v want %v (%v)", perr.CodeOf(err), tc.code, err)
			}
			if !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("error %q missing %q", err, tc.msg)
			}
			if tc.field != "" {
				e, _ := perr.As(err)
				if e == nil || e.Field() != tc.field {
					t.Fatalf("field got %v want %q", e, tc.field)
				}
			}
		})
	}
}

func TestParseJSONBodyLimit(t *testing.T) {
	big := `{"name":"` + strings.Repeat("x", MaxBytes) + `"}`
	_, err := ParseJSON[boxIn](httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big)))
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("oversized body should be a JSON error, got %v", err)
	}
}

func TestValidationFieldAndMessage(t *testing.T) {
	if f, m := ValidationFieldAndMessage(nil); f != "" || m != "" {
		t.Fatalf("nil error gave %q %q", f, m)
	}
	if f, m := ValidationFieldAndMessage(perr.JSONErrf("x")); f != "" || m != "x" {
		t.Fatalf("plain error gave %q %q", f, m)
	}
	err := Get().Validator.Struct(boxIn{Name: "ab", MinLat: 100})
	if f, _ := ValidationFieldAndMessage(err); f != "min_lat" {
		t.Fatalf("field got %q", f)
	}
}

func TestSnake(t *testing.T) {
	for in, want := range map[string]string{"MinLat": "min_lat", "Start": "start", "x": "x"} {
		if got := snake(in); got != want {
			t.Fatalf("snake(%q) = %q want %q", in, got, want)
		}
	}
}
