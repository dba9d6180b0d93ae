package ui

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"mcpchat/chat"
	"mcpchat/config"
	"mcpchat/mcp"
)

// updateMsg means the orchestrator state changed.
type updateMsg struct{}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		// title, separator, textarea (3 lines), status bar
		a.viewport.Width = a.width
		a.viewport.Height = max(a.height-6, 1)
		a.textarea.SetWidth(a.width)
		a.render.setWidth(a.width)

		a.ready = true
		a.refresh(true)
		return a, nil

	case updateMsg:
		a.snapshot = a.orch.Snapshot()
		a.refresh(false)
		if !a.snapshot.Processing && len(a.retired) > 0 {
			cmds = append(cmds, closeServers(a.retired))
			a.retired = nil
		}
		if a.updates != nil {
			cmds = append(cmds, a.updates.wait())
		}
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		a.spinner, cmd = a.spinner.Update(msg)
		if a.awaiting() {
			a.refresh(false)
		}
		return a, cmd

	case toolsListedMsg:
		a.addNotice(msg.render())
		return a, nil

	case serverConnectedMsg:
		return a.handleServerConnected(msg)

	case tea.KeyMsg:
		if model, cmd, handled := a.handleKey(msg); handled {
			return model, cmd
		}
		// Keys go to the input only; the viewport binds j, k and space.
		a.textarea, cmd = a.textarea.Update(msg)
		return a, cmd
	}

	a.textarea, cmd = a.textarea.Update(msg)
	cmds = append(cmds, cmd)
	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if a.showHelp {
		switch msg.String() {
		case "esc", "alt+h", "q", "enter":
			a.showHelp = false
		case "ctrl+c", "alt+q":
			return a, tea.Quit, true
		}
		return a, nil, true
	}

	switch msg.String() {
	case "ctrl+c", "alt+q":
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Quit requested")
		}
		a.orch.Stop()
		return a, tea.Quit, true

	case "alt+h":
		a.showHelp = true
		return a, nil, true

	case "esc":
		if a.snapshot.Processing {
			a.orch.Stop()
		}
		return a, nil, true

	case "alt+y":
		a.copyLast()
		return a, nil, true

	case "enter":
		input := strings.TrimSpace(a.textarea.Value())
		if input == "" {
			return a, nil, true
		}
		a.textarea.Reset()

		if cmd, ok := parseCommand(input); ok {
			model, teaCmd := a.runCommand(cmd)
			return model, teaCmd, true
		}

		if err := a.orch.Send(input); err != nil {
			switch {
			case errors.Is(err, chat.ErrBusy):
				a.textarea.SetValue(input)
				a.addNotice(WarningStyle.Render("Still answering. Press Esc to stop first."))
			default:
				a.addNotice(ErrorStyle.Render(err.Error()))
			}
			return a, nil, true
		}
		a.snapshot = a.orch.Snapshot()
		a.refresh(true)
		return a, nil, true

	case "pgup", "pgdown":
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd, true
	}

	return a, nil, false
}

// copyLast puts the newest code block on the clipboard, or the newest reply
// when there is no code.
func (a *App) copyLast() {
	text, ok := lastCode(a.snapshot.Messages)
	what := "code block"
	if !ok {
		text, ok = lastReply(a.snapshot.Messages)
		what = "response"
	}
	if !ok {
		a.addNotice(DimStyle.Render("Nothing to copy yet."))
		return
	}
	if err := clipboard.WriteAll(text); err != nil {
		a.addNotice(ErrorStyle.Render("Copy failed: " + err.Error()))
		return
	}
	a.addNotice(DimStyle.Render("Copied last " + what + " to clipboard."))
}

func (a *App) addNotice(line string) {
	a.notices = append(a.notices, line)
	a.refresh(true)
}

// awaiting reports whether the streaming entry still waits for its first
// token, which is when the spinner frame needs repainting.
func (a App) awaiting() bool {
	for _, m := range a.snapshot.Messages {
		if m.ID == a.snapshot.InFlight {
			return m.Awaiting
		}
	}
	return false
}

// refresh re-renders the viewport. It follows the bottom when asked to or
// when the user had not scrolled away from it.
func (a *App) refresh(gotoBottom bool) {
	if !a.ready {
		return
	}
	follow := gotoBottom || a.viewport.AtBottom()

	var b strings.Builder
	if len(a.snapshot.Messages) == 0 && len(a.notices) == 0 {
		b.WriteString(DimStyle.Render("No messages yet. Start chatting!"))
	}
	b.WriteString(a.render.messages(a.snapshot.Messages, a.snapshot.InFlight, a.spinner.View()))
	if a.snapshot.Err != "" && !a.lastEntryHasError() {
		b.WriteString(ErrorStyle.Render("Error: "+a.snapshot.Err) + "\n\n")
	}
	for _, n := range a.notices {
		b.WriteString(n + "\n")
	}

	a.viewport.SetContent(b.String())
	if follow {
		a.viewport.GotoBottom()
	}
}

func (a App) lastEntryHasError() bool {
	msgs := a.snapshot.Messages
	return len(msgs) > 0 && msgs[len(msgs)-1].Error != ""
}

func closeServers(servers []*mcp.Server) tea.Cmd {
	return func() tea.Msg {
		for _, s := range servers {
			if err := s.Close(); err != nil && config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Closing server %s: %v", s.Name(), err)
			}
		}
		return nil
	}
}
