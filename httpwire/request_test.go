package httpwire_test

import (
	"testing"

	"github.com/hioload/httpd/httpwire"
)

func TestParseHelloRoot(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	req, err := httpwire.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Method != "GET" || req.URI != "/" || req.Version != "HTTP/1.1" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if v, ok := req.Header("Host"); !ok || v != "x" {
		t.Fatalf("expected Host: x, got %q ok=%v", v, ok)
	}
	if len(req.Body) != 0 {
		t.Fatalf("expected empty body, got %q", req.Body)
	}
}

func TestParseWithBody(t *testing.T) {
	raw := []byte("POST /world HTTP/1.1\r\nHost: x\r\nContent-Length: 5\r\n\r\nhello")
	req, err := httpwire.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if string(req.Body) != "hello" {
		t.Fatalf("expected body %q, got %q", "hello", req.Body)
	}
}

func TestParseDuplicateHeaderOverwrites(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nX: 1\r\nX: 2\r\n\r\n")
	req, err := httpwire.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v, _ := req.Header("X"); v != "2" {
		t.Fatalf("expected duplicate header to overwrite to %q, got %q", "2", v)
	}
}

func TestParseBadMethod(t *testing.T) {
	_, err := httpwire.Parse([]byte("NOTAMETHOD / HTTP/1.1\r\n\r\n"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	pe, ok := err.(*httpwire.ParseError)
	if !ok || pe.Phase != httpwire.PhaseMethod {
		t.Fatalf("expected method-phase ParseError, got %#v", err)
	}
}

func TestParseBadVersion(t *testing.T) {
	_, err := httpwire.Parse([]byte("GET / HTTP/1.0\r\n\r\n"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	pe, ok := err.(*httpwire.ParseError)
	if !ok || pe.Phase != httpwire.PhaseVersion {
		t.Fatalf("expected version-phase ParseError, got %#v", err)
	}
}

func TestParseBadURI(t *testing.T) {
	_, err := httpwire.Parse([]byte("GET nope HTTP/1.1\r\n\r\n"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	pe, ok := err.(*httpwire.ParseError)
	if !ok || pe.Phase != httpwire.PhaseURI {
		t.Fatalf("expected uri-phase ParseError, got %#v", err)
	}
}

func TestRequestRoundTrip(t *testing.T) {
	req := &httpwire.Request{
		Method:  "GET",
		URI:     "/world",
		Version: "HTTP/1.1",
		Headers: map[string]string{"Host": "x"},
	}
	out, err := httpwire.Parse(req.Serialize())
	if err != nil {
		t.Fatalf("parse(serialize(req)): %v", err)
	}
	if out.Method != req.Method || out.URI != req.URI || out.Version != req.Version {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, req)
	}
	if v, _ := out.Header("Host"); v != "x" {
		t.Fatalf("expected Host header preserved, got %q", v)
	}
}
