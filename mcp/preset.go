package mcp

import (
	"fmt"
	"os"
	"strings"

	"mcpchat/config"
)

// Server kinds accepted in config.ServerConfig.Kind.
const (
	KindGitHub     = "github"
	KindFilesystem = "filesystem"
	KindSQLite     = "sqlite"
	KindCustom     = "custom"
	KindSSE        = "sse"
	KindHTTP       = "http"
)

const githubTokenEnv = "GITHUB_PERSONAL_ACCESS_TOKEN"

// Preset turns a stored server configuration into something that can be
// launched or dialed.
type Preset struct {
	Config config.ServerConfig
}

func NewPreset(cfg config.ServerConfig) Preset {
	return Preset{Config: cfg}
}

func (p Preset) Name() string {
	if p.Config.Name != "" {
		return p.Config.Name
	}
	return p.Config.Kind
}

func (p Preset) Enabled() bool {
	return p.Config.Enabled
}

// Remote reports whether the preset dials a URL instead of spawning a process.
func (p Preset) Remote() bool {
	return p.Config.Kind == KindSSE || p.Config.Kind == KindHTTP
}

// Validate checks the fields each kind needs.
func (p Preset) Validate() error {
	c := p.Config
	switch c.Kind {
	case KindGitHub:
		if c.Env[githubTokenEnv] == "" && os.Getenv(githubTokenEnv) == "" {
			return fmt.Errorf("%s is required for the github server", githubTokenEnv)
		}
	case KindFilesystem:
		if strings.TrimSpace(c.Path) == "" {
			return fmt.Errorf("filesystem server needs a path")
		}
	case KindSQLite:
		if !strings.HasSuffix(c.Path, ".db") {
			return fmt.Errorf("sqlite server needs a path ending in .db, got %q", c.Path)
		}
	case KindCustom:
		if strings.TrimSpace(c.Command) == "" {
			return fmt.Errorf("custom server needs a command")
		}
	case KindSSE, KindHTTP:
		if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
			return fmt.Errorf("%s server needs an http(s) URL, got %q", c.Kind, c.URL)
		}
	default:
		return fmt.Errorf("unknown server kind: %q", c.Kind)
	}
	return nil
}

// Command returns the executable, arguments and extra environment for a
// local preset.
func (p Preset) Command() (string, []string, map[string]string) {
	c := p.Config
	switch c.Kind {
	case KindGitHub:
		return "npx", []string{"-y", "@modelcontextprotocol/server-github"}, c.Env
	case KindFilesystem:
		return "npx", []string{"-y", "@modelcontextprotocol/server-filesystem", config.ExpandPath(c.Path)}, c.Env
	case KindSQLite:
		return "uvx", []string{"mcp-server-sqlite", "--db-path", config.ExpandPath(c.Path)}, c.Env
	default:
		return c.Command, c.Args, c.Env
	}
}

// environ layers extra variables over the current environment so PATH and
// friends survive.
func environ(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
