package config

import (
	"fmt"
	"strings"
)

var providerTypes = []string{"openai", "openrouter", "anthropic", "ollama"}

// IsKnownProvider reports whether t names a supported provider type.
func IsKnownProvider(t string) bool {
	for _, known := range providerTypes {
		if t == known {
			return true
		}
	}
	return false
}

// UpdateProviderField updates a single [provider] field in config.toml.
//
// Fields: "type", "model", "base_url", "api_key_env"
func UpdateProviderField(dataDir, fieldName, value string) error {
	cfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch fieldName {
	case "type":
		if !IsKnownProvider(value) {
			return fmt.Errorf("unknown provider: %s (want one of %s)", value, strings.Join(providerTypes, ", "))
		}
		cfg.Provider.Type = value
	case "model":
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("model cannot be empty")
		}
		cfg.Provider.Model = value
	case "base_url":
		cfg.Provider.BaseURL = value
	case "api_key_env":
		cfg.Provider.APIKeyEnv = value
	default:
		return fmt.Errorf("unknown provider field: %s", fieldName)
	}

	if err := SaveUserConfig(cfg, dataDir); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// ProviderDisplayName returns the display name for a provider type
func ProviderDisplayName(providerType string) string {
	switch providerType {
	case "ollama":
		return "Ollama"
	case "openrouter":
		return "OpenRouter"
	case "anthropic":
		return "Anthropic"
	case "openai":
		return "OpenAI"
	default:
		return providerType
	}
}

// DefaultBaseURL returns the default base URL for a provider type
func DefaultBaseURL(providerType string) string {
	switch providerType {
	case "openrouter":
		return "https://openrouter.ai/api/v1"
	case "anthropic":
		return "https://api.anthropic.com"
	case "openai":
		return "https://api.openai.com/v1"
	case "ollama":
		return "http://localhost:11434"
	default:
		return ""
	}
}
