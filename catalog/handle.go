package catalog

import (
	"context"

	"mcpchat/model"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Handle is the tool capability as it was when a turn started. It is a value
// type; copying it is how a turn pins its provider.
type Handle struct {
	catalog  *Catalog
	provider model.ToolProvider
	version  uint64
}

// Version is the provider version the handle was captured at.
func (h Handle) Version() uint64 {
	return h.version
}

// Tools lists tools through the catalog cache while the handle is current.
func (h Handle) Tools(ctx context.Context) ([]mcptypes.Tool, error) {
	if h.catalog == nil {
		return nil, nil
	}
	return h.catalog.toolsFor(ctx, h.version, h.provider)
}

// Executor returns the captured provider as a ToolExecutor when it is one.
func (h Handle) Executor() model.ToolExecutor {
	if exec, ok := h.provider.(model.ToolExecutor); ok {
		return exec
	}
	return nil
}
