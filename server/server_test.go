package server_test

import (
	"testing"

	"github.com/hioload/httpd/httpwire"
	"github.com/hioload/httpd/server"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	srv, err := server.New(server.DefaultConfig())
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	return srv
}

func TestDispatchHelloRoot(t *testing.T) {
	srv := newTestServer(t)
	if _, err := srv.AddRoute("/", func(req *httpwire.Request, resp *httpwire.Response) {
		resp.SetBody([]byte("Hello, world!"))
	}); err != nil {
		t.Fatalf("AddRoute: %v", err)
	}

	req, err := httpwire.Parse([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	resp := srv.Dispatch(req)
	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if string(resp.Body()) != "Hello, world!" {
		t.Fatalf("expected body %q, got %q", "Hello, world!", resp.Body())
	}
}

func TestDispatchPathParameterAndMethodMismatch(t *testing.T) {
	srv := newTestServer(t)
	if _, err := srv.AddRoute("/:name", func(req *httpwire.Request, resp *httpwire.Response) {
		name, err := httpwire.GetPathParam[string](req, "name")
		if err != nil {
			resp.Status = 400
			return
		}
		resp.SetBody([]byte("Hello, " + name + "!"))
	}, "POST"); err != nil {
		t.Fatalf("AddRoute: %v", err)
	}

	req, err := httpwire.Parse([]byte("POST /world HTTP/1.1\r\nHost: x\r\nContent-Length: 0\r\n\r\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	resp := srv.Dispatch(req)
	if resp.Status != 200 || string(resp.Body()) != "Hello, world!" {
		t.Fatalf("unexpected response: %d %q", resp.Status, resp.Body())
	}

	getReq, err := httpwire.Parse([]byte("GET /world HTTP/1.1\r\nHost: x\r\n\r\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	getResp := srv.Dispatch(getReq)
	if getResp.Status != 405 {
		t.Fatalf("expected 405 for unregistered method, got %d", getResp.Status)
	}
}

func TestDispatchUnknownRouteIs404(t *testing.T) {
	srv := newTestServer(t)
	req, err := httpwire.Parse([]byte("GET /nope HTTP/1.1\r\nHost: x\r\n\r\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	resp := srv.Dispatch(req)
	if resp.Status != 404 {
		t.Fatalf("expected 404, got %d", resp.Status)
	}
}

func TestErrorResponseDefaultsToReasonPhrase(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.ErrorResponse(404)
	if resp.Status != 404 || string(resp.Body()) != resp.Reason() {
		t.Fatalf("expected default 404 body to be the reason phrase, got %q", resp.Body())
	}
}

func TestAddErrorHandlerOverridesDefault(t *testing.T) {
	srv := newTestServer(t)
	srv.AddErrorHandler(404, func(status int, resp *httpwire.Response) {
		resp.Status = status
		resp.SetBody([]byte("custom not found"))
	})
	resp := srv.ErrorResponse(404)
	if string(resp.Body()) != "custom not found" {
		t.Fatalf("expected overridden handler body, got %q", resp.Body())
	}
}

func TestAddStaticRouteRegistersGetOnly(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	if _, err := srv.AddStaticRoute("/pub", dir); err != nil {
		t.Fatalf("AddStaticRoute: %v", err)
	}

	req, err := httpwire.Parse([]byte("GET /pub/missing.txt HTTP/1.1\r\nHost: x\r\n\r\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	resp := srv.Dispatch(req)
	if resp.Status != 404 {
		t.Fatalf("expected 404 for missing static file, got %d", resp.Status)
	}

	postReq, err := httpwire.Parse([]byte("POST /pub/missing.txt HTTP/1.1\r\nHost: x\r\nContent-Length: 0\r\n\r\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	postResp := srv.Dispatch(postReq)
	if postResp.Status != 405 {
		t.Fatalf("expected 405 for POST against a GET-only static route, got %d", postResp.Status)
	}
}
