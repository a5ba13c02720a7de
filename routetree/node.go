// File: routetree/node.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Radix-like trie of URI segments: literal children matched by segment
// equality, a single path-parameter child per node, per-method handler
// slots. The segment-walked tree gives longest-prefix matching with
// literal-over-parameter tie-breaks at every level.

package routetree

import (
	"strings"

	"github.com/hioload/httpd/httpwire"
)

// Handler is invoked by the server once routing and method lookup succeed.
// It populates resp in place; the zero value of resp already carries
// Connection: close (see httpwire.NewResponse).
type Handler func(req *httpwire.Request, resp *httpwire.Response)

// numMethods is the fixed slot count: GET, HEAD, POST, PUT, DELETE,
// CONNECT, OPTIONS, TRACE, PATCH.
const numMethods = 9

// MethodIndex maps a method token to its handler-slot index, or -1 if the
// method is not one of the nine recognized tokens.
func MethodIndex(method string) int {
	switch method {
	case "GET":
		return 0
	case "HEAD":
		return 1
	case "POST":
		return 2
	case "PUT":
		return 3
	case "DELETE":
		return 4
	case "CONNECT":
		return 5
	case "OPTIONS":
		return 6
	case "TRACE":
		return 7
	case "PATCH":
		return 8
	default:
		return -1
	}
}

// Node represents one URI segment. A node has at most one path-parameter
// child, enforced in addChild: paramChild always aliases an entry already
// present in children, it never owns a separate reference.
type Node struct {
	segment         string
	isPathParameter bool
	paramName       string

	handlers [numMethods]Handler

	children   []*Node
	paramChild *Node

	// fsLocation and isStaticMount are set by ServeFiles; the static
	// handler installed on the GET slot closes over this node so it can
	// recompute the served path from the request URI at request time.
	fsLocation    string
	isStaticMount bool
}

// ErrPathParamConflict is returned by addChild when a node would acquire a
// second path-parameter child.
type ErrPathParamConflict struct {
	Parent string
	First  string
	Second string
}

func (e *ErrPathParamConflict) Error() string {
	return "routetree: node " + e.Parent + " already has path-parameter child :" + e.First + ", cannot add :" + e.Second
}

// childFor returns an existing literal child matching segment, or nil.
func (n *Node) childFor(segment string) *Node {
	for _, c := range n.children {
		if !c.isPathParameter && c.segment == segment {
			return c
		}
	}
	return nil
}

// addChild returns the child for segment, creating it if absent. A
// segment beginning with ':' creates (or reuses) the node's single
// path-parameter child; registering a second, differently-named
// path-parameter child on the same node is a registration error.
func (n *Node) addChild(segment string) (*Node, error) {
	if strings.HasPrefix(segment, ":") {
		name := segment[1:]
		if n.paramChild != nil {
			if n.paramChild.paramName == name {
				return n.paramChild, nil
			}
			return nil, &ErrPathParamConflict{Parent: n.segment, First: n.paramChild.paramName, Second: name}
		}
		child := &Node{segment: segment, isPathParameter: true, paramName: name}
		n.children = append(n.children, child)
		n.paramChild = child
		return child, nil
	}
	if existing := n.childFor(segment); existing != nil {
		return existing, nil
	}
	child := &Node{segment: segment}
	n.children = append(n.children, child)
	return child, nil
}

// AddHandler stores handler in the per-method slot for method, overwriting
// any previous handler for that method. Unrecognized methods are a no-op;
// callers that want registration-time feedback should validate the method
// against MethodIndex themselves.
func (n *Node) AddHandler(method string, h Handler) {
	idx := MethodIndex(method)
	if idx < 0 {
		return
	}
	n.handlers[idx] = h
}

// HandlerFor returns the handler registered for method on this node, or nil.
func (n *Node) HandlerFor(method string) Handler {
	idx := MethodIndex(method)
	if idx < 0 {
		return nil
	}
	return n.handlers[idx]
}

// IsStaticMount reports whether ServeFiles registered this node as a
// static-file mount point. A static mount matches any URI beneath its
// registration path, not just the exact segment sequence, since the
// handler itself resolves the remaining suffix against the filesystem.
func (n *Node) IsStaticMount() bool { return n.isStaticMount }

// HasAnyHandler reports whether this node has a handler for at least one
// method, used by the server to distinguish 404 (no such node) from 405
// (node exists, wrong method).
func (n *Node) HasAnyHandler() bool {
	for _, h := range n.handlers {
		if h != nil {
			return true
		}
	}
	return n.isStaticMount
}
