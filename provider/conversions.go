package provider

import (
	"encoding/json"
	"strings"

	"mcpchat/model"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

// ParseToolArguments parses a JSON arguments string into a map. Providers
// that need structured arguments in history get an empty map for text that
// does not parse; the chat loop has already reported such calls.
func ParseToolArguments(argsJSON string) map[string]any {
	args := make(map[string]any)
	if strings.TrimSpace(argsJSON) == "" {
		return args
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil || args == nil {
		return make(map[string]any)
	}
	return args
}

// ConvertToOpenAIMessages converts history to OpenAI chat messages.
func ConvertToOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	return convertToOpenAIMessages(messages, nil)
}

func convertToOpenAIMessages(messages []model.Message, names nameMap) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Text()))

		case model.RoleUser:
			result = append(result, openai.UserMessage(msg.Text()))

		case model.RoleAssistant:
			calls := msg.ToolCalls()
			if len(calls) == 0 {
				result = append(result, openai.AssistantMessage(msg.Text()))
				continue
			}

			assistant := &openai.ChatCompletionAssistantMessageParam{}
			if text := msg.Text(); text != "" {
				assistant.Content.OfString = openai.String(text)
			}
			for _, call := range calls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: call.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      names.encode(call.Name),
							Arguments: call.Arguments,
						},
					},
				})
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})

		case model.RoleTool:
			if tr, ok := msg.ToolResult(); ok {
				result = append(result, openai.ToolMessage(tr.Content, tr.CallID))
			}
		}
	}

	return result
}

// ConvertToAnthropicMessages converts history to Anthropic message params.
// System messages become the separate system block list. Consecutive tool
// results are merged into one user message.
func ConvertToAnthropicMessages(messages []model.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var system []anthropic.TextBlockParam
	result := make([]anthropic.MessageParam, 0, len(messages))

	var results []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(results) > 0 {
			result = append(result, anthropic.NewUserMessage(results...))
			results = nil
		}
	}

	for _, msg := range messages {
		if msg.Role == model.RoleTool {
			if tr, ok := msg.ToolResult(); ok {
				results = append(results, anthropic.NewToolResultBlock(tr.CallID, tr.Content, tr.IsError))
			}
			continue
		}
		flush()

		switch msg.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Text()})

		case model.RoleUser:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text())))

		case model.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if text := msg.Text(); text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(text))
			}
			for _, call := range msg.ToolCalls() {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, ParseToolArguments(call.Arguments), call.Name))
			}
			if len(blocks) == 0 {
				continue
			}
			result = append(result, anthropic.NewAssistantMessage(blocks...))
		}
	}
	flush()

	return result, system
}

// ConvertToOllamaMessages converts history to Ollama api messages.
func ConvertToOllamaMessages(messages []model.Message) []api.Message {
	result := make([]api.Message, 0, len(messages))

	for _, msg := range messages {
		out := api.Message{
			Role:    string(msg.Role),
			Content: msg.Text(),
		}
		for _, call := range msg.ToolCalls() {
			out.ToolCalls = append(out.ToolCalls, api.ToolCall{
				Function: api.ToolCallFunction{
					Name:      call.Name,
					Arguments: ParseToolArguments(call.Arguments),
				},
			})
		}
		if tr, ok := msg.ToolResult(); ok {
			out.ToolName = tr.Name
		}
		result = append(result, out)
	}

	return result
}
