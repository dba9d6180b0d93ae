package provider

import (
	"fmt"

	"mcpchat/config"
	"mcpchat/model"
)

// NewStreamClient creates a stream client based on configuration.
//
// Returns an error if the provider type is unknown or the provider-specific
// constructor fails (missing API key, invalid URL).
func NewStreamClient(cfg Config) (model.StreamClient, error) {
	var (
		client model.StreamClient
		err    error
	)

	// A failed constructor must not leave a typed nil in client.
	switch cfg.Type {
	case ProviderTypeOllama:
		var c *OllamaClient
		if c, err = NewOllamaClient(cfg.BaseURL, cfg.Model); err == nil {
			client = c
		}
	case ProviderTypeOpenRouter:
		var c *OpenAIClient
		if c, err = NewOpenRouterClient(cfg.BaseURL, cfg.APIKey, cfg.Model); err == nil {
			client = c
		}
	case ProviderTypeOpenAI:
		var c *OpenAIClient
		if c, err = NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model); err == nil {
			client = c
		}
	case ProviderTypeAnthropic:
		var c *AnthropicClient
		if c, err = NewAnthropicClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.MaxTokens); err == nil {
			client = c
		}
	default:
		err = fmt.Errorf("unknown provider type: %s", cfg.Type)
	}

	if err != nil {
		return nil, err
	}
	return client, nil
}

// FromConfig builds the factory Config from loaded application settings.
func FromConfig(cfg *config.Config) Config {
	return Config{
		Type:      MapProviderIDToType(cfg.Provider.Type),
		BaseURL:   cfg.Provider.BaseURL,
		Model:     cfg.Provider.Model,
		APIKey:    cfg.APIKey(),
		MaxTokens: cfg.Provider.MaxTokens,
	}
}

// MapProviderIDToType converts a config provider ID to a ProviderType.
// Unknown IDs pass through unchanged so the factory reports them.
func MapProviderIDToType(id string) ProviderType {
	switch id {
	case "ollama":
		return ProviderTypeOllama
	case "openrouter":
		return ProviderTypeOpenRouter
	case "openai":
		return ProviderTypeOpenAI
	case "anthropic":
		return ProviderTypeAnthropic
	default:
		return ProviderType(id)
	}
}
