package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

// ProviderSettings selects the model provider.
type ProviderSettings struct {
	Type      string `toml:"type"` // openai | openrouter | anthropic | ollama
	BaseURL   string `toml:"base_url,omitempty"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env,omitempty"` // name of the env var holding the key
	MaxTokens int    `toml:"max_tokens,omitempty"`
}

type ChatSettings struct {
	SystemPrompt  string   `toml:"system_prompt,omitempty"`
	MaxTurns      int      `toml:"max_turns"`
	TurnTimeout   string   `toml:"turn_timeout"`
	ToolCacheTTL  string   `toml:"tool_cache_ttl"`
	ExcludedTools []string `toml:"excluded_tools"`
}

// ServerConfig describes one MCP tool server.
type ServerConfig struct {
	ID      string            `toml:"id,omitempty"`
	Name    string            `toml:"name"`
	Kind    string            `toml:"kind"` // github | filesystem | sqlite | custom | sse | http
	Command string            `toml:"command,omitempty"`
	Args    []string          `toml:"args,omitempty"`
	Env     map[string]string `toml:"env,omitempty"`
	Path    string            `toml:"path,omitempty"` // filesystem root or sqlite db
	URL     string            `toml:"url,omitempty"`
	Headers map[string]string `toml:"headers,omitempty"`
	Enabled bool              `toml:"enabled"`
}

type UserConfig struct {
	Provider     ProviderSettings `toml:"provider"`
	Chat         ChatSettings     `toml:"chat"`
	ActiveServer string           `toml:"active_server,omitempty"`
	Servers      []ServerConfig   `toml:"servers,omitempty"`
}

type Config struct {
	DataDirectory string
	Provider      ProviderSettings

	SystemPrompt  string
	MaxTurns      int
	TurnTimeout   time.Duration
	ToolCacheTTL  time.Duration
	ExcludedTools []string

	Servers      []ServerConfig
	ActiveServer string
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// APIKey reads the provider key from the environment. The variable name
// comes from api_key_env, falling back to the provider's usual one.
func (c *Config) APIKey() string {
	name := c.Provider.APIKeyEnv
	if name == "" {
		name = defaultAPIKeyEnv(c.Provider.Type)
	}
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

func defaultAPIKeyEnv(providerType string) string {
	switch providerType {
	case "openai":
		return "OPENAI_API_KEY"
	case "openrouter":
		return "OPENROUTER_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("MCPCHAT_PROVIDER"); p != "" {
		c.Provider.Type = p
	}
	if model := os.Getenv("MCPCHAT_MODEL"); model != "" {
		c.Provider.Model = model
	}
	if url := os.Getenv("MCPCHAT_BASE_URL"); url != "" {
		c.Provider.BaseURL = url
	}
}

func CheckDebug() bool {
	debug := os.Getenv("MCPCHAT_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: prompts and tool output end up in here
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (MCPCHAT_DEBUG=%s) ===", os.Getenv("MCPCHAT_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

func Load() (*Config, error) {
	systemCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}

	cfg := &Config{DataDirectory: systemCfg.DataDirectory}
	if dataDir := os.Getenv("MCPCHAT_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
	}

	dataDir := cfg.DataDir()
	if err := ensurePrivateDir(dataDir); err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	if err := cfg.applyUserConfig(userCfg); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyUserConfig(u *UserConfig) error {
	defaults := DefaultUserConfig()

	c.Provider = u.Provider
	if c.Provider.Type == "" {
		c.Provider.Type = defaults.Provider.Type
	}

	c.SystemPrompt = u.Chat.SystemPrompt
	c.MaxTurns = u.Chat.MaxTurns
	if c.MaxTurns <= 0 {
		c.MaxTurns = defaults.Chat.MaxTurns
	}

	var err error
	if c.TurnTimeout, err = parseDuration(u.Chat.TurnTimeout, defaults.Chat.TurnTimeout); err != nil {
		return fmt.Errorf("invalid chat.turn_timeout: %w", err)
	}
	if c.ToolCacheTTL, err = parseDuration(u.Chat.ToolCacheTTL, defaults.Chat.ToolCacheTTL); err != nil {
		return fmt.Errorf("invalid chat.tool_cache_ttl: %w", err)
	}

	c.ExcludedTools = u.Chat.ExcludedTools
	if c.ExcludedTools == nil {
		c.ExcludedTools = defaults.Chat.ExcludedTools
	}

	c.Servers = u.Servers
	c.ActiveServer = u.ActiveServer
	return nil
}

func parseDuration(value, fallback string) (time.Duration, error) {
	if value == "" {
		value = fallback
	}
	return time.ParseDuration(value)
}
