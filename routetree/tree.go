// File: routetree/tree.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package routetree

import "github.com/hioload/httpd/routepath"

// Tree owns the root node and implements the routing walk: literal
// children preempt the path-parameter child, and at most one
// path-parameter child is permitted per node. Registration is expected
// before Server.Start; the tree is never locked, so registering while
// serving is undefined.
type Tree struct {
	root *Node

	// unknown is the sentinel "unknown route" node handed out by Unknown.
	// FindRouteWithParams does not return it: on a miss it returns the last
	// node reached. It carries no handlers and is never a real match target.
	unknown *Node
}

// New constructs an empty tree with a bare root node.
func New() *Tree {
	return &Tree{
		root:    &Node{segment: ""},
		unknown: &Node{segment: "<unknown>"},
	}
}

// AddRoute walks segments from the root, descending into an existing child
// whose segment equals the next part or creating one, and returns the
// terminal node. Re-registering the same path is idempotent: it returns
// the same node both times.
func (t *Tree) AddRoute(p *routepath.Path) (*Node, error) {
	n := t.root
	for _, part := range p.Parts() {
		child, err := n.addChild(part)
		if err != nil {
			return nil, err
		}
		n = child
	}
	return n, nil
}

// FindRouteWithParams splits uri on '/' and walks the tree, preferring a
// literal child over the path-parameter child at every level. It returns
// the last node reached, whether every segment was consumed (a full
// match), and the path-parameter bindings accumulated along the way,
// partial on a miss, complete on a match.
func (t *Tree) FindRouteWithParams(uri string) (*Node, bool, map[string]string) {
	segments := routepath.Segments(uri)
	n := t.root
	params := make(map[string]string)

	for _, seg := range segments {
		if child := n.childFor(seg); child != nil {
			n = child
			continue
		}
		if n.paramChild != nil && seg != "" {
			params[n.paramChild.paramName] = seg
			n = n.paramChild
			continue
		}
		return n, false, params
	}
	return n, true, params
}

// Unknown returns the sentinel "unknown route" node, a handler-less node
// distinct from every registered one. FindRouteWithParams signals a miss
// through its bool result, not by returning this node.
func (t *Tree) Unknown() *Node {
	return t.unknown
}
