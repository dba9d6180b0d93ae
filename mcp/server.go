package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os/exec"
	"strings"
	"sync"
	"time"

	"mcpchat/config"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

const protocolVersion = "2025-06-18"

// retryDelay is the pause before the single reconnect attempt.
var retryDelay = 3 * time.Second

// dialFunc produces a started but uninitialized client.
type dialFunc func(ctx context.Context) (*client.Client, *exec.Cmd, error)

// Server is one connected MCP server. It satisfies model.ToolProvider and
// model.ToolExecutor.
type Server struct {
	name   string
	client *client.Client
	cmd    *exec.Cmd // nil for remote servers

	mu     sync.Mutex
	closed bool
}

// Connect validates the preset, starts or dials the server and runs the
// MCP handshake. A network failure is retried once after a short pause.
func Connect(ctx context.Context, preset Preset) (*Server, error) {
	if err := preset.Validate(); err != nil {
		return nil, err
	}

	var dial dialFunc
	switch preset.Config.Kind {
	case KindSSE:
		dial = dialSSE(preset)
	case KindHTTP:
		dial = dialStreamableHTTP(preset)
	default:
		dial = spawnStdio(preset)
	}

	return connectWithRetry(ctx, preset.Name(), dial)
}

func connectWithRetry(ctx context.Context, name string, dial dialFunc) (*Server, error) {
	srv, err := connect(ctx, name, dial)
	if err == nil || !isRetryable(err) {
		return srv, err
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Connect to '%s' failed (%v), retrying in %s", name, err, retryDelay)
	}

	select {
	case <-time.After(retryDelay):
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to connect to %s: %w", name, err)
	}
	return connect(ctx, name, dial)
}

func connect(ctx context.Context, name string, dial dialFunc) (*Server, error) {
	c, cmd, err := dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	srv := &Server{name: name, client: c, cmd: cmd}
	if err := srv.initialize(ctx); err != nil {
		srv.Close()
		return nil, err
	}
	return srv, nil
}

func (s *Server) initialize(ctx context.Context) error {
	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: protocolVersion,
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    "mcpchat",
				Version: "1.0.0",
			},
		},
	}

	if _, err := s.client.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("failed to initialize %s: %w", s.name, err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Initialized server '%s'", s.name)
	}
	return nil
}

func (s *Server) Name() string {
	return s.name
}

// ListTools implements model.ToolProvider.
func (s *Server) ListTools(ctx context.Context) ([]mcptypes.Tool, error) {
	result, err := s.client.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools for %s: %w", s.name, err)
	}
	return result.Tools, nil
}

// CallTool implements model.ToolExecutor. Transport errors and results the
// server flags as errors both report false; details go to the debug log.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, bool) {
	result, err := s.client.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] CallTool(%s) on '%s' failed: %v", name, s.name, err)
		}
		return "", false
	}

	content := resultText(result)
	if result.IsError {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] CallTool(%s) on '%s' returned an error result: %s", name, s.name, content)
		}
		return "", false
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Tool %s result: %d chars", name, len(content))
	}
	return content, true
}

// resultText joins text content; anything else is kept as JSON.
func resultText(result *mcptypes.CallToolResult) string {
	if len(result.Content) == 0 {
		return "Tool executed successfully (no output)"
	}

	parts := make([]string, 0, len(result.Content))
	for _, item := range result.Content {
		if text, ok := mcptypes.AsTextContent(item); ok {
			parts = append(parts, text.Text)
			continue
		}
		raw, err := json.Marshal(item)
		if err != nil {
			parts = append(parts, fmt.Sprintf("Tool result (marshal error): %v", err))
			continue
		}
		parts = append(parts, string(raw))
	}
	return strings.Join(parts, "\n")
}

// Close shuts the client down, giving it one second before the process is
// killed.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	closed := false
	closeDone := make(chan error, 1)
	go func() {
		closeDone <- s.client.Close()
	}()

	select {
	case err := <-closeDone:
		if err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] Close: error closing '%s': %v", s.name, err)
		}
		closed = err == nil
	case <-time.After(1 * time.Second):
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] Close: timeout for '%s'", s.name)
		}
	}

	if !closed && s.cmd != nil && s.cmd.Process != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] Close: killing '%s' (PID: %d)", s.name, s.cmd.Process.Pid)
		}
		return s.cmd.Process.Kill()
	}
	return nil
}

func spawnStdio(preset Preset) dialFunc {
	return func(ctx context.Context) (*client.Client, *exec.Cmd, error) {
		command, args, extraEnv := preset.Command()
		var captured *exec.Cmd

		cmdFunc := func(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
			cmd := exec.CommandContext(ctx, command, args...)
			cmd.Env = env
			captured = cmd
			return cmd, nil
		}

		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] Starting '%s': %s %v", preset.Name(), command, args)
		}

		c, err := client.NewStdioMCPClientWithOptions(command, environ(extraEnv), args, transport.WithCommandFunc(cmdFunc))
		if err != nil {
			return nil, nil, err
		}
		return c, captured, nil
	}
}

func dialSSE(preset Preset) dialFunc {
	return func(ctx context.Context) (*client.Client, *exec.Cmd, error) {
		var opts []transport.ClientOption
		if len(preset.Config.Headers) > 0 {
			opts = append(opts, transport.WithHeaders(preset.Config.Headers))
		}

		c, err := client.NewSSEMCPClient(preset.Config.URL, opts...)
		if err != nil {
			return nil, nil, err
		}
		// SSE transport must be started before Initialize
		if err := c.GetTransport().Start(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to start SSE transport: %w", err)
		}
		return c, nil, nil
	}
}

func dialStreamableHTTP(preset Preset) dialFunc {
	return func(ctx context.Context) (*client.Client, *exec.Cmd, error) {
		var opts []transport.StreamableHTTPCOption
		if len(preset.Config.Headers) > 0 {
			opts = append(opts, transport.WithHTTPHeaders(preset.Config.Headers))
		}

		c, err := client.NewStreamableHttpClient(preset.Config.URL, opts...)
		if err != nil {
			return nil, nil, err
		}
		if err := c.GetTransport().Start(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to start HTTP transport: %w", err)
		}
		return c, nil, nil
	}
}

// isRetryable reports whether err looks like a network, connection or
// timeout failure.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"connection refused", "connection reset", "timeout", "timed out", "network", "eof"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
