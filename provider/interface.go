// Package provider adapts model provider SDKs to model.StreamClient.
//
// Every client turns its SDK's streaming response into the same
// model.StreamEvent sequence: content deltas, tool call deltas keyed by
// slot, then exactly one terminal event. The chat package never sees a
// provider-specific type.
//
// # Usage
//
//	client, err := provider.NewStreamClient(provider.Config{
//	    Type:   provider.ProviderTypeAnthropic,
//	    Model:  "claude-sonnet-4-5",
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	})
//	stream, err := client.Stream(ctx, history, tools)
//	for {
//	    ev, err := stream.Recv()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
package provider

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type      ProviderType
	BaseURL   string
	Model     string
	APIKey    string // unused for Ollama
	MaxTokens int    // Anthropic only; defaults to 4096
}
