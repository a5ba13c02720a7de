// File: routetree/static.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Static-file mount point: a GET handler installed on a route node that
// serves files rooted at a filesystem location, with a directory-traversal
// guard. The handler resolves the request-URI suffix against the mount
// location at request time, so files added after registration are served
// without re-registering.

package routetree

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hioload/httpd/httpwire"
)

const (
	notFoundBody = "404 Not found"
	indexFile    = "index.html"
)

// ServeFiles registers a GET handler on n that serves files under
// location. mountPath is the route's own registration path (e.g. "/pub"),
// used to compute the suffix of the request URI that names a file inside
// location when location is a directory.
func (n *Node) ServeFiles(mountPath, location string) {
	n.fsLocation = location
	n.isStaticMount = true
	n.AddHandler("GET", staticHandler(mountPath, location))
}

// staticHandler serves the mount: missing location → 404; regular file →
// 200 with its bytes; directory → resolve the URI suffix after mountPath
// (index.html if empty), rejecting traversal attempts in the suffix.
func staticHandler(mountPath, location string) Handler {
	return func(req *httpwire.Request, resp *httpwire.Response) {
		info, err := os.Stat(location)
		if err != nil {
			writeNotFound(resp)
			return
		}
		if !info.IsDir() {
			serveFile(resp, location)
			return
		}

		suffix := strings.TrimPrefix(req.URI, mountPath)
		suffix = strings.TrimPrefix(suffix, "/")
		if suffix == "" {
			suffix = indexFile
		}
		if isTraversal(suffix) {
			writeNotFound(resp)
			return
		}
		serveFile(resp, filepath.Join(location, filepath.FromSlash(suffix)))
	}
}

// isTraversal rejects "..", "//", and "~" anywhere in the resolved suffix.
func isTraversal(suffix string) bool {
	return strings.Contains(suffix, "..") ||
		strings.Contains(suffix, "//") ||
		strings.Contains(suffix, "~")
}

func serveFile(resp *httpwire.Response, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		writeNotFound(resp)
		return
	}
	resp.Status = 200
	resp.SetBody(data)
}

func writeNotFound(resp *httpwire.Response) {
	resp.Status = 404
	resp.SetBody([]byte(notFoundBody))
}
