package provider

import (
	"context"
	"fmt"
	"io"
	"strings"

	"mcpchat/config"
	"mcpchat/model"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
)

// OpenAIClient streams chat completions from OpenAI or any compatible
// endpoint using the official OpenAI Go SDK.
type OpenAIClient struct {
	client   openai.Client
	model    string
	label    string
	sanitize bool // rewrite tool names to the [A-Za-z0-9_-] alphabet
}

// NewOpenAIClient creates a new OpenAI stream client.
//
// Parameters:
//   - baseURL: API base URL (default: "https://api.openai.com/v1")
//   - apiKey: OpenAI API key (required)
//   - model: model to use (default: "gpt-4o-mini")
func NewOpenAIClient(baseURL, apiKey, model string) (*OpenAIClient, error) {
	if baseURL == "" {
		baseURL = config.DefaultBaseURL("openai")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIClient{
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(apiKey),
		),
		model: model,
		label: "OpenAI",
	}, nil
}

func (c *OpenAIClient) Name() string {
	return c.label + " " + c.model
}

// Stream implements model.StreamClient.
func (c *OpenAIClient) Stream(ctx context.Context, history []model.Message, tools []mcptypes.Tool) (model.Stream, error) {
	var names nameMap
	if c.sanitize {
		names = make(nameMap, len(tools))
		renamed := make([]mcptypes.Tool, len(tools))
		for i, tool := range tools {
			wire := sanitizeToolName(tool.Name)
			names[wire] = tool.Name
			renamed[i] = tool
			renamed[i].Name = wire
		}
		tools = renamed
	}

	params := openai.ChatCompletionNewParams{
		Messages: convertToOpenAIMessages(history, names),
		Model:    openai.ChatModel(c.model),
	}
	if len(tools) > 0 {
		params.Tools = ToOpenAITools(tools)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[%s] Streaming %d messages, %d tools, model=%s", c.label, len(history), len(tools), c.model)
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%s request failed: %w", c.label, err)
	}

	return &openaiStream{stream: stream, names: names, label: c.label}, nil
}

type openaiStream struct {
	stream   *ssestream.Stream[openai.ChatCompletionChunk]
	names    nameMap
	label    string
	queue    eventQueue
	content  strings.Builder
	finished bool
}

func (s *openaiStream) Recv() (model.StreamEvent, error) {
	for {
		if ev, ok := s.queue.pop(); ok {
			return ev, nil
		}
		if s.finished {
			return model.StreamEvent{}, io.EOF
		}
		if !s.stream.Next() {
			s.finished = true
			if err := s.stream.Err(); err != nil {
				return model.StreamEvent{}, fmt.Errorf("%s streaming error: %w", s.label, err)
			}
			continue
		}
		s.handle(s.stream.Current())
	}
}

func (s *openaiStream) handle(chunk openai.ChatCompletionChunk) {
	if len(chunk.Choices) == 0 {
		return
	}
	choice := chunk.Choices[0]

	if choice.Delta.Content != "" {
		s.content.WriteString(choice.Delta.Content)
		s.queue.push(model.ContentDelta(choice.Delta.Content))
	}

	for _, tc := range choice.Delta.ToolCalls {
		s.queue.push(model.ToolCallDelta(
			int(tc.Index),
			tc.ID,
			s.names.decode(tc.Function.Name),
			tc.Function.Arguments,
		))
	}

	if choice.FinishReason != "" {
		s.queue.push(model.Terminal(openaiOutcome(string(choice.FinishReason)), s.content.String()))
		s.finished = true
	}
}

func (s *openaiStream) Close() error {
	return s.stream.Close()
}

func openaiOutcome(reason string) model.Outcome {
	switch reason {
	case "tool_calls", "function_call":
		return model.OutcomeToolCalls
	case "length":
		return model.OutcomeLength
	default:
		return model.OutcomeStop
	}
}
