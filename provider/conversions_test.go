package provider

import (
	"testing"

	"mcpchat/model"
)

func toolConversation() []model.Message {
	return []model.Message{
		model.SystemText("Be brief."),
		model.UserText("List files and the weather"),
		model.AssistantToolCalls("Checking.", []model.ToolCall{
			{ID: "call_1", Name: "list_files", Arguments: `{"path":"/tmp"}`},
			{ID: "call_2", Name: "get_weather", Arguments: `{"location":"Paris"}`},
		}),
		model.ToolResultMessage("call_1", "list_files", "a.txt", false),
		model.ToolResultMessage("call_2", "get_weather", "Error: Tool execution failed", true),
		model.AssistantText("Done."),
	}
}

func TestConvertToOpenAIMessages(t *testing.T) {
	result := ConvertToOpenAIMessages(toolConversation())

	if len(result) != 6 {
		t.Fatalf("got %d messages, want 6", len(result))
	}
	if result[0].OfSystem == nil || result[1].OfUser == nil {
		t.Error("system and user messages should keep their roles")
	}

	assistant := result[2].OfAssistant
	if assistant == nil {
		t.Fatal("message 2 should be an assistant message")
	}
	if !assistant.Content.OfString.Valid() || assistant.Content.OfString.Value != "Checking." {
		t.Errorf("assistant text = %+v", assistant.Content.OfString)
	}
	if len(assistant.ToolCalls) != 2 {
		t.Fatalf("got %d tool calls, want 2", len(assistant.ToolCalls))
	}
	fn := assistant.ToolCalls[1].OfFunction
	if fn == nil || fn.ID != "call_2" || fn.Function.Name != "get_weather" || fn.Function.Arguments != `{"location":"Paris"}` {
		t.Errorf("second call = %+v", fn)
	}

	for i, wantID := range []string{"call_1", "call_2"} {
		tool := result[3+i].OfTool
		if tool == nil || tool.ToolCallID != wantID {
			t.Errorf("message %d should answer %s, got %+v", 3+i, wantID, tool)
		}
	}
	if result[5].OfAssistant == nil || len(result[5].OfAssistant.ToolCalls) != 0 {
		t.Error("plain assistant message should carry no tool calls")
	}
}

func TestConvertToOpenAIMessagesSanitizedNames(t *testing.T) {
	history := []model.Message{
		model.AssistantToolCalls("", []model.ToolCall{{ID: "c", Name: "github.list_repos", Arguments: "{}"}}),
	}

	result := convertToOpenAIMessages(history, nameMap{})
	got := result[0].OfAssistant.ToolCalls[0].OfFunction.Function.Name
	if got != "github_list_repos" {
		t.Errorf("wire name = %q", got)
	}
	if result[0].OfAssistant.Content.OfString.Valid() {
		t.Error("empty assistant text should be omitted")
	}
}

func TestConvertToAnthropicMessages(t *testing.T) {
	messages, system := ConvertToAnthropicMessages(toolConversation())

	if len(system) != 1 || system[0].Text != "Be brief." {
		t.Errorf("system = %+v", system)
	}

	// user, assistant(tool_use x2), user(tool_result x2), assistant
	if len(messages) != 4 {
		t.Fatalf("got %d messages, want 4", len(messages))
	}

	roles := []string{"user", "assistant", "user", "assistant"}
	for i, want := range roles {
		if string(messages[i].Role) != want {
			t.Errorf("message %d role = %q, want %q", i, messages[i].Role, want)
		}
	}

	blocks := messages[1].Content
	if len(blocks) != 3 || blocks[0].OfText == nil || blocks[1].OfToolUse == nil {
		t.Fatalf("assistant blocks = %+v", blocks)
	}
	if blocks[1].OfToolUse.ID != "call_1" || blocks[1].OfToolUse.Name != "list_files" {
		t.Errorf("tool use = %+v", blocks[1].OfToolUse)
	}

	results := messages[2].Content
	if len(results) != 2 {
		t.Fatalf("tool results should merge into one message, got %d blocks", len(results))
	}
	if results[0].OfToolResult == nil || results[0].OfToolResult.ToolUseID != "call_1" {
		t.Errorf("first result = %+v", results[0].OfToolResult)
	}
	if results[1].OfToolResult == nil || results[1].OfToolResult.ToolUseID != "call_2" {
		t.Errorf("second result = %+v", results[1].OfToolResult)
	}
}

func TestConvertToOllamaMessages(t *testing.T) {
	result := ConvertToOllamaMessages(toolConversation())

	if len(result) != 6 {
		t.Fatalf("got %d messages, want 6", len(result))
	}

	wantRoles := []string{"system", "user", "assistant", "tool", "tool", "assistant"}
	for i, want := range wantRoles {
		if result[i].Role != want {
			t.Errorf("message %d role = %q, want %q", i, result[i].Role, want)
		}
	}

	calls := result[2].ToolCalls
	if len(calls) != 2 || calls[0].Function.Name != "list_files" {
		t.Fatalf("tool calls = %+v", calls)
	}
	if calls[0].Function.Arguments["path"] != "/tmp" {
		t.Errorf("arguments = %v", calls[0].Function.Arguments)
	}

	if result[3].ToolName != "list_files" || result[3].Content != "a.txt" {
		t.Errorf("tool message = %+v", result[3])
	}
}

func TestParseToolArguments(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
	}{
		{name: "object", input: `{"a":1,"b":"two"}`, wantLen: 2},
		{name: "empty", input: "", wantLen: 0},
		{name: "null", input: "null", wantLen: 0},
		{name: "malformed", input: `{"a":`, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := ParseToolArguments(tt.input)
			if args == nil {
				t.Fatal("ParseToolArguments should never return nil")
			}
			if len(args) != tt.wantLen {
				t.Errorf("got %d args, want %d", len(args), tt.wantLen)
			}
		})
	}
}
