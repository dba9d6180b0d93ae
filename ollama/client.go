// Package ollama wraps the Ollama API client with the defaults and model
// knowledge the chat stream needs.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.1:latest"
)

type Client struct {
	api     *api.Client
	model   string
	baseURL string
}

// ChunkHandler receives every streamed response chunk, including the final
// one with Done set. Returning an error aborts the request.
type ChunkHandler func(resp api.ChatResponse) error

func NewClient(baseURL, model string) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid Ollama URL %q: want scheme://host[:port]", baseURL)
	}

	return &Client{
		api:     api.NewClient(u, http.DefaultClient),
		model:   model,
		baseURL: baseURL,
	}, nil
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// StreamChat runs one streaming chat request. It blocks until the server
// finishes, the context ends or handle returns an error.
func (c *Client) StreamChat(ctx context.Context, messages []api.Message, tools []api.Tool, handle ChunkHandler) error {
	stream := true
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
	}
	if len(tools) > 0 {
		req.Tools = tools
	}

	if err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		if handle == nil {
			return nil
		}
		return handle(resp)
	}); err != nil {
		return fmt.Errorf("ollama chat with %s: %w", c.model, err)
	}
	return nil
}

// toolFamilies lists model name prefixes and whether Ollama's tool calling
// works with them. More specific prefixes come first: llama3.2 must match
// before llama3.
var toolFamilies = []struct {
	prefix string
	tools  bool
}{
	{"llama3.3", true},
	{"llama3.2", true},
	{"llama3.1", true},
	{"llama3-gradient", false},
	{"command-r", true},
	{"qwen", true},
	{"mistral", true},
	{"nemotron", true},
	{"granite3", true},
	{"codellama", false},
	{"llama3", false},
	{"deepseek", false},
	{"phi", false},
	{"gemma", false},
}

// SupportsTools reports whether the model belongs to a family known to
// handle tool calls. Unknown families report false.
func (c *Client) SupportsTools() bool {
	name := strings.ToLower(c.model)
	for _, f := range toolFamilies {
		if strings.HasPrefix(name, f.prefix) {
			return f.tools
		}
	}
	return false
}
