package config

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/mcpchat",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Provider: ProviderSettings{
			Type:  "openai",
			Model: "gpt-4o-mini",
		},
		Chat: ChatSettings{
			MaxTurns:      20,
			TurnTimeout:   "5m",
			ToolCacheTTL:  "5m",
			ExcludedTools: []string{"create_pull_request_review"},
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# mcpchat System Configuration
# Location: ~/.config/mcpchat/settings.toml
# This file uses TOML format: https://toml.io

# Directory where user config, server store and debug log live
data_directory = "~/.local/share/mcpchat"
`
}

func GenerateUserConfigTemplate() string {
	return `# mcpchat User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

[provider]
# openai | openrouter | anthropic | ollama
type = "openai"
model = "gpt-4o-mini"

# Leave empty for the provider default
base_url = ""

# Environment variable that holds the API key. Leave empty for the
# provider's usual one (OPENAI_API_KEY, OPENROUTER_API_KEY, ANTHROPIC_API_KEY).
api_key_env = ""

[chat]
# Optional system prompt sent before every conversation
system_prompt = ""

# Upper bound on model round trips for one message
max_turns = 20

# Upper bound on wall time for one message
turn_timeout = "5m"

# How long a fetched tool list is reused
tool_cache_ttl = "5m"

# Tools never offered to the model
excluded_tools = ["create_pull_request_review"]

# MCP tool servers. The first enabled one is used unless active_server is set.
# Servers are copied into the server store on first run.
#
# [[servers]]
# name = "files"
# kind = "filesystem"
# path = "~/projects"
# enabled = true
#
# [[servers]]
# name = "github"
# kind = "github"
# env = { GITHUB_PERSONAL_ACCESS_TOKEN = "..." }
# enabled = true
`
}
