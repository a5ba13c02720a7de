// File: routepath/path.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Route path validation and segmentation. Paths are validated once at
// registration and pre-split into segments, since the route tree
// (routetree) walks segments one at a time rather than matching a whole
// path in one shot.

package routepath

import (
	"fmt"
	"strings"
)

// InvalidPathError reports why a candidate route path was rejected.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("routepath: invalid path %q: %s", e.Path, e.Reason)
}

// isPathByte reports whether b is permitted in a route registration path:
// A-Z a-z 0-9 - _ . ~ ! $ & ' ( ) * + , ; = : @ /
func isPathByte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '-', '_', '.', '~', '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=', ':', '@', '/':
		return true
	}
	return false
}

// Path is a validated route registration path: non-empty, starting with
// '/', containing only the permitted byte set.
type Path struct {
	raw   string
	parts []string
}

// New validates raw and, on success, returns a Path with its segments
// pre-split. Hosts are expected to call this at route-registration time, so
// a malformed literal fails fast before the server ever starts.
func New(raw string) (*Path, error) {
	if raw == "" {
		return nil, &InvalidPathError{Path: raw, Reason: "empty path"}
	}
	if raw[0] != '/' {
		return nil, &InvalidPathError{Path: raw, Reason: "must start with '/'"}
	}
	for i := 0; i < len(raw); i++ {
		if !isPathByte(raw[i]) {
			return nil, &InvalidPathError{Path: raw, Reason: fmt.Sprintf("invalid byte %q at offset %d", raw[i], i)}
		}
	}
	return &Path{raw: raw, parts: splitSegments(raw)}, nil
}

// MustNew is New, panicking on a malformed literal. Intended for
// package-level route tables where the path is a compile-time constant and
// a typo should fail loudly at program startup rather than surface as a
// routing bug.
func MustNew(raw string) *Path {
	p, err := New(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the original path text.
func (p *Path) String() string { return p.raw }

// Parts returns the segments between '/' delimiters, in order. The root
// path "/" yields an empty slice; a trailing '/' yields a trailing empty
// segment (see splitSegments).
func (p *Path) Parts() []string { return p.parts }

// splitSegments splits raw on '/', dropping only the single leading empty
// segment every absolute path produces. The root path "/" yields no
// segments at all. A trailing slash is kept as a trailing empty segment on
// purpose: "/pub/" and "/pub" must segment to different-length slices so
// the route tree's tie-break ("a URI ending in '/' does not match a node
// registered without one, and vice versa") falls out of plain segment-count
// comparison instead of needing a special case in the tree walk.
func splitSegments(raw string) []string {
	if raw == "/" {
		return nil
	}
	parts := strings.Split(raw, "/")
	return parts[1:] // drop the leading "" before the first '/'
}

// Segments splits an arbitrary request URI the same way New's argument is
// split, without the validation pass: the HTTP codec already restricted
// the byte set, and a request URI trailing slash must still be
// distinguishable from the same path without one at the routing layer (see
// routetree), so this mirrors splitSegments exactly.
func Segments(uri string) []string {
	return splitSegments(uri)
}
