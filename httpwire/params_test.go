package httpwire_test

import (
	"errors"
	"testing"

	"github.com/hioload/httpd/httpwire"
)

func TestGetPathParamTyped(t *testing.T) {
	req := &httpwire.Request{Params: map[string]string{"id": "42", "name": "world", "ratio": "0.5"}}

	id, err := httpwire.GetPathParam[int](req, "id")
	if err != nil || id != 42 {
		t.Fatalf("int param: got %d, %v", id, err)
	}
	wide, err := httpwire.GetPathParam[int64](req, "id")
	if err != nil || wide != 42 {
		t.Fatalf("int64 param: got %d, %v", wide, err)
	}
	name, err := httpwire.GetPathParam[string](req, "name")
	if err != nil || name != "world" {
		t.Fatalf("string param: got %q, %v", name, err)
	}
	raw, err := httpwire.GetPathParam[[]byte](req, "name")
	if err != nil || string(raw) != "world" {
		t.Fatalf("[]byte param: got %q, %v", raw, err)
	}
	ratio, err := httpwire.GetPathParam[float64](req, "ratio")
	if err != nil || ratio != 0.5 {
		t.Fatalf("float64 param: got %v, %v", ratio, err)
	}
}

func TestGetPathParamErrors(t *testing.T) {
	req := &httpwire.Request{Params: map[string]string{"name": "world"}}

	if _, err := httpwire.GetPathParam[string](req, "missing"); !errors.Is(err, httpwire.ErrParamNotFound) {
		t.Fatalf("expected ErrParamNotFound, got %v", err)
	}
	if _, err := httpwire.GetPathParam[int](req, "name"); !errors.Is(err, httpwire.ErrParamInvalid) {
		t.Fatalf("expected ErrParamInvalid for non-numeric value, got %v", err)
	}

	var pe *httpwire.ParamError
	_, err := httpwire.GetPathParam[int](req, "name")
	if !errors.As(err, &pe) || pe.Name != "name" {
		t.Fatalf("expected ParamError naming the parameter, got %v", err)
	}
}
