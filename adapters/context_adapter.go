// File: adapters/context_adapter.go
package adapters

import (
	"github.com/hioload/httpd/api"
	"github.com/hioload/httpd/internal/connctx"
)

// ContextAdapter implements api.ContextFactory by producing new context stores.
type ContextAdapter struct{}

// NewContextAdapter returns an instance of the context factory.
func NewContextAdapter() api.ContextFactory {
	return &ContextAdapter{}
}

// NewContext returns a new Context backed by internal/connctx's store.
func (a *ContextAdapter) NewContext() api.Context {
	return connctx.NewContextStore()
}
