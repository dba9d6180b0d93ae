package mcp

import (
	"strings"
	"testing"

	"mcpchat/config"
)

func TestPresetValidate(t *testing.T) {
	t.Setenv(githubTokenEnv, "")

	tests := []struct {
		name    string
		cfg     config.ServerConfig
		wantErr string
	}{
		{
			name:    "github without token",
			cfg:     config.ServerConfig{Kind: KindGitHub},
			wantErr: githubTokenEnv,
		},
		{
			name: "github with token",
			cfg:  config.ServerConfig{Kind: KindGitHub, Env: map[string]string{githubTokenEnv: "ghp_x"}},
		},
		{
			name:    "filesystem without path",
			cfg:     config.ServerConfig{Kind: KindFilesystem},
			wantErr: "path",
		},
		{
			name:    "sqlite wrong extension",
			cfg:     config.ServerConfig{Kind: KindSQLite, Path: "/tmp/data.sqlite"},
			wantErr: ".db",
		},
		{
			name: "sqlite ok",
			cfg:  config.ServerConfig{Kind: KindSQLite, Path: "/tmp/data.db"},
		},
		{
			name:    "custom without command",
			cfg:     config.ServerConfig{Kind: KindCustom},
			wantErr: "command",
		},
		{
			name:    "sse bad url",
			cfg:     config.ServerConfig{Kind: KindSSE, URL: "localhost:8080"},
			wantErr: "URL",
		},
		{
			name: "http ok",
			cfg:  config.ServerConfig{Kind: KindHTTP, URL: "https://mcp.example.com/mcp"},
		},
		{
			name:    "unknown kind",
			cfg:     config.ServerConfig{Kind: "telepathy"},
			wantErr: "unknown server kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPreset(tt.cfg).Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestPresetCommand(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	tests := []struct {
		name     string
		cfg      config.ServerConfig
		wantCmd  string
		wantLast string
	}{
		{
			name:     "github",
			cfg:      config.ServerConfig{Kind: KindGitHub},
			wantCmd:  "npx",
			wantLast: "@modelcontextprotocol/server-github",
		},
		{
			name:     "filesystem expands home",
			cfg:      config.ServerConfig{Kind: KindFilesystem, Path: "~/src"},
			wantCmd:  "npx",
			wantLast: "/home/tester/src",
		},
		{
			name:     "sqlite",
			cfg:      config.ServerConfig{Kind: KindSQLite, Path: "/tmp/app.db"},
			wantCmd:  "uvx",
			wantLast: "/tmp/app.db",
		},
		{
			name:     "custom",
			cfg:      config.ServerConfig{Kind: KindCustom, Command: "my-server", Args: []string{"--stdio"}},
			wantCmd:  "my-server",
			wantLast: "--stdio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, _ := NewPreset(tt.cfg).Command()
			if cmd != tt.wantCmd {
				t.Errorf("command = %q, want %q", cmd, tt.wantCmd)
			}
			if len(args) == 0 || args[len(args)-1] != tt.wantLast {
				t.Errorf("args = %v, want last %q", args, tt.wantLast)
			}
		})
	}
}

func TestPresetName(t *testing.T) {
	if got := NewPreset(config.ServerConfig{Kind: KindSQLite}).Name(); got != "sqlite" {
		t.Errorf("unnamed preset should fall back to kind, got %q", got)
	}
	p := NewPreset(config.ServerConfig{Name: "files", Kind: KindFilesystem, Enabled: true})
	if p.Name() != "files" || !p.Enabled() || p.Remote() {
		t.Errorf("preset = %+v", p)
	}
	if !NewPreset(config.ServerConfig{Kind: KindHTTP}).Remote() {
		t.Error("http preset should be remote")
	}
}
