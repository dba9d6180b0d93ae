package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// StreamClient opens one provider stream for a turn.
//
// This interface is defined in the model package (not provider package) to avoid
// import cycles: provider implementations import model, and the chat package
// consumes StreamClient without importing any concrete provider.
type StreamClient interface {
	// Stream sends the full history plus the available tools and returns the
	// provider's reply as a normalized event sequence.
	Stream(ctx context.Context, history []Message, tools []mcptypes.Tool) (Stream, error)

	// Name identifies the provider and model for status display.
	Name() string
}

// Stream is a lazy, finite, non-restartable sequence of events. Recv returns
// io.EOF after the last event.
type Stream interface {
	Recv() (StreamEvent, error)
	Close() error
}

// ToolProvider lists the tools a backend exposes.
type ToolProvider interface {
	ListTools(ctx context.Context) ([]mcptypes.Tool, error)
}

// ToolExecutor runs a named tool. A false second return is the only failure
// signal; there is no distinguished error payload.
type ToolExecutor interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, bool)
}
