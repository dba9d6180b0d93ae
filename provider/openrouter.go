package provider

import (
	"fmt"

	"mcpchat/config"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// NewOpenRouterClient creates a stream client for OpenRouter, which speaks
// the OpenAI chat completions protocol.
//
// OpenRouter rejects dotted tool names (e.g. "github.list_repos"), so tool
// names are rewritten on the way out and restored on the way back.
func NewOpenRouterClient(baseURL, apiKey, model string) (*OpenAIClient, error) {
	if baseURL == "" {
		baseURL = config.DefaultBaseURL("openrouter")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}
	if model == "" {
		model = "meta-llama/llama-3.3-70b-instruct"
	}

	return &OpenAIClient{
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(apiKey),
			option.WithHeader("X-Title", "mcpchat"),
		),
		model:    model,
		label:    "OpenRouter",
		sanitize: true,
	}, nil
}
