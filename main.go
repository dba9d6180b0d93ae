package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mcpchat/catalog"
	"mcpchat/chat"
	"mcpchat/config"
	"mcpchat/mcp"
	"mcpchat/provider"
	"mcpchat/storage"
	"mcpchat/ui"
)

const Version = "v0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		showFatal("Configuration Error", fmt.Sprintf("Failed to load config:\n\n%v", err))
		os.Exit(1)
	}

	config.InitDebugLog(cfg.DataDir())
	if config.DebugLog != nil {
		config.DebugLog.Printf("mcpchat %s starting, data dir %s", Version, cfg.DataDir())
	}

	store, err := storage.NewServerStore(cfg.DataDir())
	if err != nil {
		showFatal("Storage Error", fmt.Sprintf("Failed to open server store:\n\n%v", err))
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Seed(cfg.Servers, cfg.ActiveServer); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("Warning: seeding server store: %v", err)
	}

	var notices []string
	server, notice := connectActive(store)
	if notice != "" {
		notices = append(notices, ui.WarningStyle.Render(notice))
	}

	tools := catalog.New(nil,
		catalog.WithExpiry(cfg.ToolCacheTTL),
		catalog.WithExcluded(cfg.ExcludedTools...),
	)
	if server != nil {
		tools.SetProvider(server)
	}

	clientName := ""
	client, err := provider.NewStreamClient(provider.FromConfig(cfg))
	if err != nil {
		notices = append(notices, ui.ErrorStyle.Render(fmt.Sprintf("Provider setup failed: %v. Use /provider or /model to fix it.", err)))
	} else {
		clientName = client.Name()
	}

	updates := ui.NewNotifier()
	orch := chat.NewOrchestrator(client, tools,
		chat.WithMaxTurns(cfg.MaxTurns),
		chat.WithTimeout(cfg.TurnTimeout),
		chat.WithSystemPrompt(cfg.SystemPrompt),
		chat.WithOnUpdate(updates.Notify),
	)

	app := ui.New(ui.Deps{
		Config:       cfg,
		Orchestrator: orch,
		Catalog:      tools,
		Store:        store,
		Server:       server,
		ClientName:   clientName,
		Updates:      updates,
		Notices:      notices,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	final, err := p.Run()

	orch.Stop()
	orch.Wait()
	if a, ok := final.(ui.App); ok && a.Server() != nil {
		if cerr := a.Server().Close(); cerr != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Warning: closing tool server: %v", cerr)
		}
	}

	if err != nil {
		fmt.Printf("Error running mcpchat: %v\n", err)
		os.Exit(1)
	}
}

// connectActive connects to the selected tool server. Failure is not fatal:
// the chat works without tools and /server can retry.
func connectActive(store *storage.ServerStore) (*mcp.Server, string) {
	active, err := store.Active()
	if err != nil {
		return nil, fmt.Sprintf("Could not read active server: %v", err)
	}
	if active == nil {
		return nil, ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	server, err := mcp.Connect(ctx, mcp.NewPreset(*active))
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("Connecting to %s failed: %v", active.Name, err)
		}
		return nil, fmt.Sprintf("Tool server %s unavailable: %v", active.Name, err)
	}
	return server, ""
}

func showFatal(title, message string) {
	p := tea.NewProgram(ui.NewErrorModal(title, message), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
	}
}
