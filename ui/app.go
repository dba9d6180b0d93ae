// Package ui is the terminal front end. It owns no conversation state: it
// renders chat.Orchestrator snapshots and forwards input and slash commands.
package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mcpchat/catalog"
	"mcpchat/chat"
	"mcpchat/config"
	"mcpchat/mcp"
	"mcpchat/storage"
)

// Notifier coalesces orchestrator change callbacks into a channel the App
// listens on. Pass Notify to chat.WithOnUpdate.
type Notifier chan struct{}

func NewNotifier() Notifier {
	return make(Notifier, 1)
}

func (n Notifier) Notify() {
	select {
	case n <- struct{}{}:
	default:
	}
}

func (n Notifier) wait() tea.Cmd {
	return func() tea.Msg {
		<-n
		return updateMsg{}
	}
}

// Deps is everything the App drives. Server may be nil when no tool server
// is configured or the connection failed.
type Deps struct {
	Config       *config.Config
	Orchestrator *chat.Orchestrator
	Catalog      *catalog.Catalog
	Store        *storage.ServerStore
	Server       *mcp.Server
	ClientName   string
	Updates      Notifier
	Notices      []string
}

type App struct {
	cfg     *config.Config
	orch    *chat.Orchestrator
	tools   *catalog.Catalog
	store   *storage.ServerStore
	server  *mcp.Server
	updates Notifier

	// retired servers are closed once no turn can still be using them
	retired []*mcp.Server

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	render   *renderer

	snapshot   chat.Display
	notices    []string
	clientName string
	connecting string

	width    int
	height   int
	ready    bool
	showHelp bool
}

func New(deps Deps) App {
	ta := textarea.New()
	ta.Placeholder = "Type a message, or /help for commands..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter for newline, Enter alone sends
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = AssistantStyle

	return App{
		cfg:        deps.Config,
		orch:       deps.Orchestrator,
		tools:      deps.Catalog,
		store:      deps.Store,
		server:     deps.Server,
		updates:    deps.Updates,
		viewport:   viewport.New(0, 0),
		textarea:   ta,
		spinner:    sp,
		render:     newRenderer(),
		notices:    deps.Notices,
		clientName: deps.ClientName,
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, a.spinner.Tick}
	if a.updates != nil {
		cmds = append(cmds, a.updates.wait())
	}
	return tea.Batch(cmds...)
}

// Server is the tool server connected when the program exited. The caller
// closes it.
func (a App) Server() *mcp.Server {
	return a.server
}

func (a App) View() string {
	if !a.ready {
		return "Loading mcpchat..."
	}
	if a.showHelp {
		return renderHelp(a.width, a.height)
	}

	title := TitleStyle.Render("mcpchat")
	if a.clientName != "" {
		title += DimStyle.Render("  " + a.clientName)
	}
	separator := DimStyle.Render(statusLine(repeatRule(a.width), a.width))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		separator,
		a.viewport.View(),
		a.textarea.View(),
		a.statusBar(),
	)
}

func (a App) statusBar() string {
	server := "no tool server"
	switch {
	case a.connecting != "":
		server = fmt.Sprintf("connecting to %s...", a.connecting)
	case a.server != nil:
		server = "tools: " + a.server.Name()
	}

	state := ""
	switch {
	case a.snapshot.Processing:
		state = a.spinner.View() + " working  "
	case a.snapshot.Err != "":
		state = ErrorStyle.Render("error") + "  "
	}

	hints := FormatFooter("Enter", "Send", "Esc", "Stop", "Alt+Y", "Copy", "Alt+H", "Help", "Alt+Q", "Quit")
	return state + StatusStyle.Render(statusLine(server, a.width/3)) + "  " + hints
}

func repeatRule(width int) string {
	if width <= 0 {
		return ""
	}
	b := make([]rune, width)
	for i := range b {
		b[i] = '─'
	}
	return string(b)
}
