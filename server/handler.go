// File: server/handler.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package server

import (
	"github.com/hioload/httpd/httpwire"
	"github.com/hioload/httpd/routetree"
)

// Handler is the host-supplied request handler: it reads the request and
// populates the response in place.
type Handler = routetree.Handler

// ErrorHandler populates resp's body/status for a failure status code that
// the normal dispatch path could not produce a response for: a parse
// failure, a routing miss, or a method-not-allowed.
type ErrorHandler func(status int, resp *httpwire.Response)

// defaultErrorHandler sets the matching status and the canonical reason
// phrase as the body.
func defaultErrorHandler(status int, resp *httpwire.Response) {
	resp.Status = status
	resp.SetBody([]byte(resp.Reason()))
}
