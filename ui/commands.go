package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"mcpchat/catalog"
	"mcpchat/config"
	"mcpchat/mcp"
	"mcpchat/provider"
)

const connectTimeout = 30 * time.Second

type command struct {
	name string
	args []string
}

// parseCommand splits a slash command into its name and arguments. Input
// that does not start with a slash is not a command.
func parseCommand(input string) (command, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") || len(input) == 1 {
		return command{}, false
	}
	fields := strings.Fields(input[1:])
	return command{name: strings.ToLower(fields[0]), args: fields[1:]}, true
}

func (c command) arg(i int) string {
	if i < len(c.args) {
		return c.args[i]
	}
	return ""
}

type toolsListedMsg struct {
	query string
	tools []mcptypes.Tool
	err   error
}

func (m toolsListedMsg) render() string {
	if m.err != nil {
		return ErrorStyle.Render("Listing tools failed: " + m.err.Error())
	}
	if len(m.tools) == 0 {
		if m.query != "" {
			return DimStyle.Render(fmt.Sprintf("No tools match %q.", m.query))
		}
		return DimStyle.Render("No tools available.")
	}

	var b strings.Builder
	b.WriteString(HighlightStyle.Render(fmt.Sprintf("%d tools", len(m.tools))))
	for _, t := range m.tools {
		b.WriteString("\n  " + AssistantStyle.Render(t.Name))
		if desc := firstLine(t.Description); desc != "" {
			b.WriteString(DimStyle.Render("  " + desc))
		}
	}
	return b.String()
}

type serverConnectedMsg struct {
	cfg    config.ServerConfig
	server *mcp.Server
	err    error
}

func (a App) runCommand(c command) (App, tea.Cmd) {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[UI] Command /%s %v", c.name, c.args)
	}

	switch c.name {
	case "help":
		a.showHelp = true
		return a, nil

	case "clear":
		a.orch.Clear()
		a.notices = nil
		a.snapshot = a.orch.Snapshot()
		a.refresh(true)
		return a, nil

	case "tools":
		return a, listTools(a.tools, strings.Join(c.args, " "))

	case "servers":
		a.addNotice(a.serverList())
		return a, nil

	case "server":
		return a.startServerSwitch(c.arg(0))

	case "model":
		a.switchModel(c.arg(0))
		return a, nil

	case "provider":
		a.switchProvider(c.arg(0), c.arg(1))
		return a, nil

	default:
		a.addNotice(WarningStyle.Render(fmt.Sprintf("Unknown command /%s. Try /help.", c.name)))
		return a, nil
	}
}

// listTools fetches through the catalog so the cache is warm before the
// fuzzy match runs against it.
func listTools(tools *catalog.Catalog, query string) tea.Cmd {
	return func() tea.Msg {
		if tools == nil {
			return toolsListedMsg{query: query}
		}
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if _, err := tools.Tools(ctx); err != nil {
			return toolsListedMsg{query: query, err: err}
		}
		return toolsListedMsg{query: query, tools: tools.Find(query)}
	}
}

func (a App) serverList() string {
	if a.store == nil {
		return DimStyle.Render("No server store.")
	}
	servers, err := a.store.List()
	if err != nil {
		return ErrorStyle.Render("Listing servers failed: " + err.Error())
	}
	if len(servers) == 0 {
		return DimStyle.Render("No tool servers configured. Add [[servers]] to config.toml.")
	}

	var b strings.Builder
	b.WriteString(HighlightStyle.Render("Tool servers"))
	for _, s := range servers {
		marker := "  "
		if a.server != nil && a.server.Name() == s.Name {
			marker = "* "
		}
		line := fmt.Sprintf("%s%s (%s)", marker, s.Name, s.Kind)
		if !s.Enabled {
			line += " disabled"
		}
		b.WriteString("\n  " + line)
	}
	return b.String()
}

func (a App) startServerSwitch(name string) (App, tea.Cmd) {
	if name == "" {
		a.addNotice(WarningStyle.Render("Usage: /server NAME"))
		return a, nil
	}
	if a.store == nil {
		a.addNotice(ErrorStyle.Render("No server store."))
		return a, nil
	}
	cfg, err := a.store.FindByName(name)
	if err != nil {
		a.addNotice(ErrorStyle.Render(err.Error()))
		return a, nil
	}
	if cfg == nil {
		a.addNotice(WarningStyle.Render(fmt.Sprintf("No server named %q. See /servers.", name)))
		return a, nil
	}

	a.connecting = cfg.Name
	target := *cfg
	return a, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		server, err := mcp.Connect(ctx, mcp.NewPreset(target))
		return serverConnectedMsg{cfg: target, server: server, err: err}
	}
}

// handleServerConnected swaps the catalog onto the new server. Turns already
// running keep the old one through their handle, so it is only closed once
// the orchestrator is idle.
func (a App) handleServerConnected(msg serverConnectedMsg) (tea.Model, tea.Cmd) {
	a.connecting = ""
	if msg.err != nil {
		a.addNotice(ErrorStyle.Render(fmt.Sprintf("Connecting to %s failed: %v", msg.cfg.Name, msg.err)))
		return a, nil
	}

	old := a.server
	a.server = msg.server
	if a.tools != nil {
		a.tools.SetProvider(msg.server)
	}
	if a.store != nil {
		if err := a.store.SetActive(msg.cfg.ID); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Saving active server: %v", err)
		}
	}
	a.addNotice(DimStyle.Render("Switched tools to " + msg.cfg.Name + "."))

	if old == nil {
		return a, nil
	}
	if a.orch.Snapshot().Processing {
		a.retired = append(a.retired, old)
		return a, nil
	}
	return a, closeServers([]*mcp.Server{old})
}

func (a *App) switchModel(name string) {
	if name == "" {
		a.addNotice(WarningStyle.Render("Usage: /model NAME"))
		return
	}
	if err := config.UpdateProviderField(a.cfg.DataDir(), "model", name); err != nil {
		a.addNotice(ErrorStyle.Render(err.Error()))
		return
	}
	a.cfg.Provider.Model = name
	a.rebuildClient()
}

// switchProvider changes provider type. The base URL and key variable belong
// to the old provider and are reset to the new one's defaults.
func (a *App) switchProvider(providerType, modelName string) {
	if providerType == "" {
		a.addNotice(WarningStyle.Render("Usage: /provider TYPE [MODEL]"))
		return
	}
	dataDir := a.cfg.DataDir()
	updates := [][2]string{{"type", providerType}, {"base_url", ""}, {"api_key_env", ""}}
	if modelName != "" {
		updates = append(updates, [2]string{"model", modelName})
	}
	for _, u := range updates {
		if err := config.UpdateProviderField(dataDir, u[0], u[1]); err != nil {
			a.addNotice(ErrorStyle.Render(err.Error()))
			return
		}
	}

	a.cfg.Provider.Type = providerType
	a.cfg.Provider.BaseURL = ""
	a.cfg.Provider.APIKeyEnv = ""
	a.cfg.Provider.Model = modelName
	a.rebuildClient()
}

func (a *App) rebuildClient() {
	client, err := provider.NewStreamClient(provider.FromConfig(a.cfg))
	if err != nil {
		a.addNotice(ErrorStyle.Render("Provider setup failed: " + err.Error()))
		return
	}
	a.orch.SetClient(client)
	a.clientName = client.Name()
	a.addNotice(DimStyle.Render("Now using " + client.Name() + "."))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
