package testutil

import (
	"mcpchat/model"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// TestMessages returns a sample conversation including one tool round trip.
func TestMessages() []model.Message {
	return []model.Message{
		model.SystemText("You are a helpful assistant."),
		model.UserText("What's the weather in Paris?"),
		model.AssistantToolCalls("Let me check.", []model.ToolCall{
			{ID: "call_1", Name: "get_weather", Arguments: `{"location":"Paris"}`},
		}),
		model.ToolResultMessage("call_1", "get_weather", "Sunny, 21C", false),
		model.AssistantText("It is sunny and 21C in Paris."),
	}
}

// TestMCPTools returns sample MCP tools for testing
func TestMCPTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        "get_weather",
			Description: "Get the current weather for a location",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"location": map[string]any{
						"type":        "string",
						"description": "The city and state, e.g. San Francisco, CA",
					},
				},
				Required: []string{"location"},
			},
		},
		{
			Name:        "list_files",
			Description: "List files in the working directory",
			InputSchema: mcptypes.ToolInputSchema{
				Type:       "object",
				Properties: map[string]any{},
			},
		},
		{
			Name:        "delete_repo",
			Description: "Delete a repository",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"name": map[string]any{"type": "string"},
				},
				Required: []string{"name"},
			},
		},
	}
}

// ToolTurn scripts one turn that ends by calling tools. Each call gets its
// own slot in order.
func ToolTurn(text string, calls ...model.ToolCall) []model.StreamEvent {
	var events []model.StreamEvent
	if text != "" {
		events = append(events, model.ContentDelta(text))
	}
	for i, c := range calls {
		events = append(events, model.ToolCallDelta(i, c.ID, c.Name, c.Arguments))
	}
	return append(events, model.Terminal(model.OutcomeToolCalls, text))
}

// TextTurn scripts one turn that streams chunks and stops.
func TextTurn(chunks ...string) []model.StreamEvent {
	var events []model.StreamEvent
	full := ""
	for _, c := range chunks {
		events = append(events, model.ContentDelta(c))
		full += c
	}
	return append(events, model.Terminal(model.OutcomeStop, full))
}
