package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"mcpchat/config"
	"mcpchat/model"
	"mcpchat/ollama"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
)

// OllamaClient wraps ollama.Client to implement model.StreamClient.
//
// Ollama delivers each tool call whole rather than in fragments, so every
// call becomes a single tool call delta in its own slot.
type OllamaClient struct {
	client *ollama.Client
}

// NewOllamaClient creates a new Ollama stream client.
//
// Parameters:
//   - baseURL: Ollama server URL (default: ollama.DefaultBaseURL)
//   - model: model name (default: ollama.DefaultModel)
func NewOllamaClient(baseURL, model string) (*OllamaClient, error) {
	client, err := ollama.NewClient(baseURL, model)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	return &OllamaClient{client: client}, nil
}

func (c *OllamaClient) Name() string {
	return "Ollama " + c.client.Model()
}

// Stream implements model.StreamClient. The Ollama client pushes responses
// through a callback, so a goroutine forwards them to Recv. Stream waits for
// the first event so an unreachable server or unknown model fails here
// rather than on the first Recv.
func (c *OllamaClient) Stream(ctx context.Context, history []model.Message, tools []mcptypes.Tool) (model.Stream, error) {
	if len(tools) > 0 && !c.client.SupportsTools() && config.DebugLog != nil {
		config.DebugLog.Printf("[Ollama] Model %s is not known to support tool calling", c.client.Model())
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &ollamaStream{
		events: make(chan model.StreamEvent),
		cancel: cancel,
	}

	messages := ConvertToOllamaMessages(history)
	ollamaTools := ToOllamaTools(tools)

	go func() {
		defer close(s.events)
		s.err = c.client.StreamChat(ctx, messages, ollamaTools, s.forward(ctx))
	}()

	first, ok := <-s.events
	if !ok {
		cancel()
		if s.err == nil {
			return nil, fmt.Errorf("ollama %s: stream closed before any response", c.client.Model())
		}
		return nil, s.err
	}
	s.first = &first
	return s, nil
}

type ollamaStream struct {
	events chan model.StreamEvent
	cancel context.CancelFunc
	err    error // written before events is closed
	first  *model.StreamEvent

	// owned by the forwarding goroutine
	slot     int
	content  strings.Builder
	terminal bool
}

func (s *ollamaStream) forward(ctx context.Context) ollama.ChunkHandler {
	send := func(ev model.StreamEvent) error {
		select {
		case s.events <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return func(resp api.ChatResponse) error {
		if s.terminal {
			return nil
		}
		if resp.Message.Content != "" {
			s.content.WriteString(resp.Message.Content)
			if err := send(model.ContentDelta(resp.Message.Content)); err != nil {
				return err
			}
		}

		for _, call := range resp.Message.ToolCalls {
			args, err := json.Marshal(call.Function.Arguments)
			if err != nil {
				return fmt.Errorf("failed to encode arguments for %s: %w", call.Function.Name, err)
			}
			if err := send(model.ToolCallDelta(s.slot, "", call.Function.Name, string(args))); err != nil {
				return err
			}
			s.slot++
		}

		if resp.Done {
			s.terminal = true
			return send(model.Terminal(s.outcome(resp.DoneReason), s.content.String()))
		}
		return nil
	}
}

func (s *ollamaStream) outcome(doneReason string) model.Outcome {
	switch {
	case s.slot > 0:
		return model.OutcomeToolCalls
	case doneReason == "length":
		return model.OutcomeLength
	default:
		return model.OutcomeStop
	}
}

func (s *ollamaStream) Recv() (model.StreamEvent, error) {
	if s.first != nil {
		ev := *s.first
		s.first = nil
		return ev, nil
	}
	ev, ok := <-s.events
	if ok {
		return ev, nil
	}
	if s.err != nil {
		return model.StreamEvent{}, s.err
	}
	return model.StreamEvent{}, io.EOF
}

// Close cancels the request and drains the forwarder.
func (s *ollamaStream) Close() error {
	s.cancel()
	for range s.events {
	}
	return nil
}
