package testutil

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"mcpchat/model"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// StreamCall records what a stream client was asked to send.
type StreamCall struct {
	History []model.Message
	Tools   []mcptypes.Tool
}

// MockStreamClient implements model.StreamClient for testing.
type MockStreamClient struct {
	// Configurable behaviour; defaults to replaying Turns in order.
	StreamFunc func(ctx context.Context, history []model.Message, tools []mcptypes.Tool) (model.Stream, error)

	// Turns holds one event script per Stream call.
	Turns [][]model.StreamEvent

	mu    sync.Mutex
	calls []StreamCall
	next  int
}

// NewScriptedStreamClient replays one script per turn.
func NewScriptedStreamClient(turns ...[]model.StreamEvent) *MockStreamClient {
	m := &MockStreamClient{Turns: turns}
	m.StreamFunc = m.defaultStream
	return m
}

// ErrNoScript is returned once every scripted turn has been used.
var ErrNoScript = errors.New("no scripted turn left")

func (m *MockStreamClient) defaultStream(ctx context.Context, history []model.Message, tools []mcptypes.Tool) (model.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.next >= len(m.Turns) {
		return nil, ErrNoScript
	}
	events := m.Turns[m.next]
	m.next++
	return NewSliceStream(ctx, events...), nil
}

func (m *MockStreamClient) Stream(ctx context.Context, history []model.Message, tools []mcptypes.Tool) (model.Stream, error) {
	m.mu.Lock()
	h := make([]model.Message, len(history))
	copy(h, history)
	m.calls = append(m.calls, StreamCall{History: h, Tools: tools})
	m.mu.Unlock()

	return m.StreamFunc(ctx, history, tools)
}

func (m *MockStreamClient) Name() string {
	return "mock"
}

// Calls returns every Stream invocation so far.
func (m *MockStreamClient) Calls() []StreamCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]StreamCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// SliceStream replays a fixed list of events.
type SliceStream struct {
	ctx    context.Context
	events []model.StreamEvent
	pos    int

	// Err is returned instead of io.EOF once the events run out.
	Err error

	// BlockAt makes Recv wait for context cancellation before emitting the
	// event at that index. Negative disables blocking.
	BlockAt int

	closed bool
}

func NewSliceStream(ctx context.Context, events ...model.StreamEvent) *SliceStream {
	return &SliceStream{ctx: ctx, events: events, BlockAt: -1}
}

func (s *SliceStream) Recv() (model.StreamEvent, error) {
	if err := s.ctx.Err(); err != nil {
		return model.StreamEvent{}, err
	}
	if s.pos == s.BlockAt {
		<-s.ctx.Done()
		return model.StreamEvent{}, s.ctx.Err()
	}
	if s.pos >= len(s.events) {
		if s.Err != nil {
			return model.StreamEvent{}, s.Err
		}
		return model.StreamEvent{}, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}

// ToolInvocation records one CallTool call.
type ToolInvocation struct {
	Name string
	Args map[string]any
}

// MockToolExecutor implements model.ToolExecutor for testing.
type MockToolExecutor struct {
	CallFunc func(ctx context.Context, name string, args map[string]any) (string, bool)

	// Results maps tool names to output; a missing name means no result.
	Results map[string]string
	// Delays makes a tool take a while, to check ordering under latency.
	Delays map[string]time.Duration

	mu    sync.Mutex
	calls []ToolInvocation
}

func NewMockToolExecutor(results map[string]string) *MockToolExecutor {
	m := &MockToolExecutor{Results: results, Delays: map[string]time.Duration{}}
	m.CallFunc = m.defaultCall
	return m
}

func (m *MockToolExecutor) defaultCall(ctx context.Context, name string, args map[string]any) (string, bool) {
	if d := m.Delays[name]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return "", false
		}
	}
	out, ok := m.Results[name]
	return out, ok
}

func (m *MockToolExecutor) CallTool(ctx context.Context, name string, args map[string]any) (string, bool) {
	m.mu.Lock()
	m.calls = append(m.calls, ToolInvocation{Name: name, Args: args})
	m.mu.Unlock()
	return m.CallFunc(ctx, name, args)
}

func (m *MockToolExecutor) Calls() []ToolInvocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ToolInvocation, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockToolProvider implements model.ToolProvider, and model.ToolExecutor
// through Exec when set.
type MockToolProvider struct {
	ListFunc func(ctx context.Context) ([]mcptypes.Tool, error)
	Exec     *MockToolExecutor

	mu        sync.Mutex
	listCalls int
}

func NewMockToolProvider(tools []mcptypes.Tool, exec *MockToolExecutor) *MockToolProvider {
	return &MockToolProvider{
		ListFunc: func(ctx context.Context) ([]mcptypes.Tool, error) {
			return tools, nil
		},
		Exec: exec,
	}
}

func (m *MockToolProvider) ListTools(ctx context.Context) ([]mcptypes.Tool, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	return m.ListFunc(ctx)
}

func (m *MockToolProvider) CallTool(ctx context.Context, name string, args map[string]any) (string, bool) {
	if m.Exec == nil {
		return "", false
	}
	return m.Exec.CallTool(ctx, name, args)
}

// ListCalls reports how many times the provider was asked for tools.
func (m *MockToolProvider) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}
