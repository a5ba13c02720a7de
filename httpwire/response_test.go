package httpwire_test

import (
	"strings"
	"testing"

	"github.com/hioload/httpd/httpwire"
)

func TestResponseHelloRoot(t *testing.T) {
	resp := httpwire.NewResponse(200)
	resp.SetBody([]byte("Hello, world!"))
	out := string(resp.Serialize())

	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("unexpected status line: %q", out)
	}
	if !strings.Contains(out, "Connection: close\r\n") {
		t.Fatalf("expected Connection: close, got %q", out)
	}
	if !strings.Contains(out, "Content-Length: 13\r\n") {
		t.Fatalf("expected Content-Length: 13, got %q", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\nHello, world!") {
		t.Fatalf("expected body after CRLFCRLF, got %q", out)
	}
}

func TestSetBodyEmptyRemovesContentLength(t *testing.T) {
	resp := httpwire.NewResponse(200)
	resp.SetBody([]byte("x"))
	resp.SetBody(nil)
	if _, ok := resp.Headers["Content-Length"]; ok {
		t.Fatal("expected Content-Length removed after empty SetBody")
	}
}

func TestResponseRoundTrip(t *testing.T) {
	resp := httpwire.NewResponse(404)
	resp.SetBody([]byte("404 Not found"))
	out, err := httpwire.ParseResponse(resp.Serialize())
	if err != nil {
		t.Fatalf("parse(serialize(resp)): %v", err)
	}
	if out.Status != 404 || string(out.Body()) != "404 Not found" {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}
