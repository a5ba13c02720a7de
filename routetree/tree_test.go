package routetree

import (
	"testing"

	"github.com/hioload/httpd/httpwire"
	"github.com/hioload/httpd/routepath"
)

func mustAdd(t *testing.T, tree *Tree, raw string) *Node {
	t.Helper()
	p, err := routepath.New(raw)
	if err != nil {
		t.Fatalf("routepath.New(%q): %v", raw, err)
	}
	n, err := tree.AddRoute(p)
	if err != nil {
		t.Fatalf("AddRoute(%q): %v", raw, err)
	}
	return n
}

func TestRootRoutesToRootNode(t *testing.T) {
	tree := New()
	root := mustAdd(t, tree, "/")
	root.AddHandler("GET", func(*httpwire.Request, *httpwire.Response) {})

	n, matched, _ := tree.FindRouteWithParams("/")
	if !matched || n != root {
		t.Fatalf("expected root match, got node=%v matched=%v", n, matched)
	}
}

func TestLiteralPreemptsPathParameter(t *testing.T) {
	tree := New()
	lit := mustAdd(t, tree, "/users/me")
	param := mustAdd(t, tree, "/users/:id")

	n, matched, params := tree.FindRouteWithParams("/users/me")
	if !matched || n != lit {
		t.Fatalf("expected literal match for /users/me, got %v matched=%v", n, matched)
	}
	if len(params) != 0 {
		t.Fatalf("literal match should bind no params, got %v", params)
	}

	n, matched, params = tree.FindRouteWithParams("/users/42")
	if !matched || n != param {
		t.Fatalf("expected param match for /users/42, got %v matched=%v", n, matched)
	}
	if params["id"] != "42" {
		t.Fatalf("expected id=42, got %v", params)
	}
}

func TestDuplicatePathParameterConflict(t *testing.T) {
	tree := New()
	mustAdd(t, tree, "/items/:id")
	p, _ := routepath.New("/items/:name")
	if _, err := tree.AddRoute(p); err == nil {
		t.Fatal("expected path-parameter conflict error")
	}
}

func TestTrailingSlashDistinctFromWithout(t *testing.T) {
	tree := New()
	mustAdd(t, tree, "/pub")

	_, matched, _ := tree.FindRouteWithParams("/pub/")
	if matched {
		t.Fatal("/pub/ must not match node registered as /pub")
	}
}

func TestIdempotentRegistration(t *testing.T) {
	tree := New()
	a := mustAdd(t, tree, "/a/b")
	b := mustAdd(t, tree, "/a/b")
	if a != b {
		t.Fatal("re-registering the same path must yield the same node")
	}
}

func TestMissingHandlerIsMethodNotAllowed(t *testing.T) {
	tree := New()
	n := mustAdd(t, tree, "/widgets")
	n.AddHandler("POST", func(*httpwire.Request, *httpwire.Response) {})

	if n.HandlerFor("GET") != nil {
		t.Fatal("no GET handler should be registered")
	}
	if !n.HasAnyHandler() {
		t.Fatal("node has a POST handler, HasAnyHandler should be true")
	}
}
