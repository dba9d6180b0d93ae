package chat

import (
	"errors"

	"mcpchat/catalog"
)

var (
	// ErrProviderUnavailable means tool listing or opening the stream could
	// not reach its backend. The conversation stays usable.
	ErrProviderUnavailable = catalog.ErrProviderUnavailable

	// ErrArgumentParse means a tool call's accumulated arguments were not a
	// JSON object. Only that call is skipped.
	ErrArgumentParse = errors.New("tool arguments are not valid JSON")

	// ErrToolExecutionFailure means the executor returned no result.
	ErrToolExecutionFailure = errors.New("tool execution failed")

	// ErrStreamTransport means the event sequence ended abnormally.
	ErrStreamTransport = errors.New("stream transport error")

	// ErrTurnLimitExceeded means a send used up its turn budget or timeout.
	ErrTurnLimitExceeded = errors.New("turn limit exceeded")

	ErrBusy            = errors.New("a response is already in progress")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrUnknownToolCall = errors.New("tool result does not match a pending tool call")
)

// ToolFailureMarker is the tool-result content recorded when a tool returns
// nothing, or when its call was cut short by Stop or a failed send, so the
// model's next turn knows the call did not succeed.
const ToolFailureMarker = "Error: Tool execution failed"
