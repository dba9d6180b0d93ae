package provider

import (
	"context"
	"fmt"
	"io"
	"strings"

	"mcpchat/config"
	"mcpchat/model"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicClient streams messages from the Anthropic API.
type AnthropicClient struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicClient creates a new Anthropic stream client.
//
// Parameters:
//   - baseURL: API base URL (default: "https://api.anthropic.com")
//   - apiKey: Anthropic API key (required)
//   - model: model to use (default: Claude Sonnet 4.5)
//   - maxTokens: response cap, required by the API (default: 4096)
func NewAnthropicClient(baseURL, apiKey, model string, maxTokens int) (*AnthropicClient, error) {
	if baseURL == "" {
		baseURL = config.DefaultBaseURL("anthropic")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	anthropicModel := anthropic.ModelClaudeSonnet4_5_20250929
	if model != "" {
		anthropicModel = anthropic.Model(model)
	}
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	return &AnthropicClient{
		client: anthropic.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(apiKey),
		),
		model:     anthropicModel,
		maxTokens: int64(maxTokens),
	}, nil
}

func (c *AnthropicClient) Name() string {
	return "Anthropic " + string(c.model)
}

// Stream implements model.StreamClient.
func (c *AnthropicClient) Stream(ctx context.Context, history []model.Message, tools []mcptypes.Tool) (model.Stream, error) {
	messages, system := ConvertToAnthropicMessages(history)

	params := anthropic.MessageNewParams{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(tools) > 0 {
		params.Tools = ToAnthropicTools(tools)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Anthropic] Streaming %d messages, %d tools, model=%s", len(messages), len(tools), c.model)
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("Anthropic request failed: %w", err)
	}

	return &anthropicStream{stream: stream}, nil
}

type anthropicStream struct {
	stream     *ssestream.Stream[anthropic.MessageStreamEventUnion]
	queue      eventQueue
	content    strings.Builder
	stopReason anthropic.StopReason
	finished   bool
}

func (s *anthropicStream) Recv() (model.StreamEvent, error) {
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
				return model.StreamEvent{}, fmt.Errorf("Anthropic streaming error: %w", err)
			}
			continue
		}
		s.handle(s.stream.Current())
	}
}

// handle maps content blocks onto slots by block index. Text blocks share
// the index space but never produce tool deltas.
func (s *anthropicStream) handle(event anthropic.MessageStreamEventUnion) {
	switch ev := event.AsAny().(type) {
	case anthropic.ContentBlockStartEvent:
		if toolUse, ok := ev.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
			s.queue.push(model.ToolCallDelta(int(ev.Index), toolUse.ID, toolUse.Name, ""))
		}

	case anthropic.ContentBlockDeltaEvent:
		switch delta := ev.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			s.content.WriteString(delta.Text)
			s.queue.push(model.ContentDelta(delta.Text))
		case anthropic.InputJSONDelta:
			if delta.PartialJSON != "" {
				s.queue.push(model.ToolCallDelta(int(ev.Index), "", "", delta.PartialJSON))
			}
		}

	case anthropic.MessageDeltaEvent:
		s.stopReason = ev.Delta.StopReason

	case anthropic.MessageStopEvent:
		s.queue.push(model.Terminal(anthropicOutcome(s.stopReason), s.content.String()))
		s.finished = true
	}
}

func (s *anthropicStream) Close() error {
	return s.stream.Close()
}

func anthropicOutcome(reason anthropic.StopReason) model.Outcome {
	switch reason {
	case anthropic.StopReasonToolUse:
		return model.OutcomeToolCalls
	case anthropic.StopReasonMaxTokens:
		return model.OutcomeLength
	default:
		return model.OutcomeStop
	}
}
