package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"mcpchat/catalog"
	"mcpchat/chat"
	"mcpchat/config"
	"mcpchat/provider/testutil"
)

func newTestApp(t *testing.T, client *testutil.MockStreamClient) App {
	t.Helper()
	exec := testutil.NewMockToolExecutor(nil)
	tools := catalog.New(testutil.NewMockToolProvider(testutil.TestMCPTools(), exec))
	orch := chat.NewOrchestrator(client, tools)

	app := New(Deps{
		Config:       &config.Config{DataDirectory: t.TempDir()},
		Orchestrator: orch,
		Catalog:      tools,
		ClientName:   client.Name(),
	})
	return step(t, app, tea.WindowSizeMsg{Width: 100, Height: 40})
}

func step(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	next, _ := a.Update(msg)
	app, ok := next.(App)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return app
}

func typeLine(t *testing.T, a App, text string) App {
	t.Helper()
	a = step(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return step(t, a, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in       string
		wantOK   bool
		wantName string
		wantArgs []string
	}{
		{in: "/tools", wantOK: true, wantName: "tools", wantArgs: []string{}},
		{in: "  /Server files  ", wantOK: true, wantName: "server", wantArgs: []string{"files"}},
		{in: "/provider anthropic claude-sonnet-4-5", wantOK: true, wantName: "provider", wantArgs: []string{"anthropic", "claude-sonnet-4-5"}},
		{in: "/", wantOK: false},
		{in: "hello /tools", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, ok := parseCommand(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if c.name != tt.wantName {
				t.Errorf("name = %q, want %q", c.name, tt.wantName)
			}
			if strings.Join(c.args, ",") != strings.Join(tt.wantArgs, ",") {
				t.Errorf("args = %v, want %v", c.args, tt.wantArgs)
			}
		})
	}
}

func TestAppSendShowsReply(t *testing.T) {
	client := testutil.NewScriptedStreamClient(testutil.TextTurn("Hello ", "from the model"))
	app := newTestApp(t, client)

	app = typeLine(t, app, "hi there")
	app.orch.Wait()
	app = step(t, app, updateMsg{})

	view := app.View()
	if !strings.Contains(view, "hi there") {
		t.Error("user message missing from view")
	}
	if !strings.Contains(view, "from the model") {
		t.Errorf("reply missing from view:\n%s", view)
	}
	if app.textarea.Value() != "" {
		t.Error("input should be cleared after sending")
	}
	if app.snapshot.Processing {
		t.Error("snapshot still processing after Wait")
	}
}

func TestAppCommands(t *testing.T) {
	client := testutil.NewScriptedStreamClient()
	app := newTestApp(t, client)

	app = typeLine(t, app, "/bogus")
	if !strings.Contains(app.viewport.View(), "Unknown command /bogus") {
		t.Error("unknown command notice missing")
	}

	app = typeLine(t, app, "/clear")
	if len(app.notices) != 0 {
		t.Errorf("notices after /clear = %v", app.notices)
	}

	app = typeLine(t, app, "/help")
	if !app.showHelp {
		t.Error("/help should open the help view")
	}
	app = step(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.showHelp {
		t.Error("esc should close the help view")
	}

	app = typeLine(t, app, "/server")
	if !strings.Contains(app.viewport.View(), "Usage: /server NAME") {
		t.Error("usage notice missing")
	}
}

func TestAppToolsCommand(t *testing.T) {
	app := newTestApp(t, testutil.NewScriptedStreamClient())

	msg := listTools(app.tools, "weather")()
	listed, ok := msg.(toolsListedMsg)
	if !ok {
		t.Fatalf("listTools returned %T", msg)
	}
	if listed.err != nil {
		t.Fatalf("listTools err: %v", listed.err)
	}
	if len(listed.tools) != 1 || listed.tools[0].Name != "get_weather" {
		t.Errorf("tools = %v", listed.tools)
	}

	app = step(t, app, listed)
	if !strings.Contains(app.viewport.View(), "get_weather") {
		t.Error("tool listing not shown")
	}
}

func TestAppServerConnectFailure(t *testing.T) {
	app := newTestApp(t, testutil.NewScriptedStreamClient())
	app.connecting = "files"

	app = step(t, app, serverConnectedMsg{
		cfg: config.ServerConfig{Name: "files"},
		err: errors.New("npx not found"),
	})

	if app.connecting != "" {
		t.Error("connecting flag not cleared")
	}
	if app.server != nil {
		t.Error("failed connection must not replace the server")
	}
	if !strings.Contains(app.viewport.View(), "Connecting to files failed") {
		t.Error("failure notice missing")
	}
}

func TestNotifierCoalesces(t *testing.T) {
	n := NewNotifier()
	n.Notify()
	n.Notify()
	n.Notify()

	if msg := n.wait()(); msg != (updateMsg{}) {
		t.Errorf("wait() = %T", msg)
	}
	select {
	case <-n:
		t.Error("notifications should coalesce into one")
	default:
	}
}
