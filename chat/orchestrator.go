// Package chat drives a tool-augmented conversation with a streaming model
// provider.
//
// An Orchestrator owns the conversation State. Each Send starts one
// cancellable unit of work that loops over turns: open a stream, fold its
// events into the in-flight display entry, and either finish on a stop
// outcome or run the requested tools in slot order and go round again. The
// loop is capped by WithMaxTurns and WithTimeout.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"mcpchat/catalog"
	"mcpchat/config"
	"mcpchat/markdown"
	"mcpchat/model"
)

// DefaultMaxTurns bounds the number of provider round trips per Send.
const DefaultMaxTurns = 20

// Display is what the presentation layer observes.
type Display struct {
	Messages   []model.DisplayMessage
	Processing bool
	Err        string

	// InFlight is the ID of the entry currently being streamed into, or
	// empty when nothing is.
	InFlight string
}

type Orchestrator struct {
	mu sync.Mutex

	client  model.StreamClient
	tools   *catalog.Catalog
	exec    model.ToolExecutor
	state   *State
	parser  *markdown.Parser
	current *run

	maxTurns     int
	timeout      time.Duration
	systemPrompt string
	onUpdate     func()

	processing bool
	errMsg     string
	done       chan struct{}
}

type Option func(*Orchestrator)

func WithMaxTurns(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxTurns = n
		}
	}
}

// WithTimeout bounds the whole unit of work started by one Send. Zero means
// no timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

func WithSystemPrompt(prompt string) Option {
	return func(o *Orchestrator) { o.systemPrompt = prompt }
}

// WithExecutor overrides the executor otherwise taken from the catalog's
// tool provider.
func WithExecutor(exec model.ToolExecutor) Option {
	return func(o *Orchestrator) { o.exec = exec }
}

// WithOnUpdate registers a callback fired after every state change. It is
// called without the orchestrator lock held.
func WithOnUpdate(fn func()) Option {
	return func(o *Orchestrator) { o.onUpdate = fn }
}

// NewOrchestrator creates an orchestrator. tools may be nil when no tool
// provider is configured.
func NewOrchestrator(client model.StreamClient, tools *catalog.Catalog, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:   client,
		tools:    tools,
		state:    NewState(),
		parser:   markdown.NewParser(),
		maxTurns: DefaultMaxTurns,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Send appends the user message and starts streaming the reply. It returns
// ErrBusy while a previous Send is still running.
func (o *Orchestrator) Send(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	o.mu.Lock()
	if o.processing {
		o.mu.Unlock()
		return ErrBusy
	}
	if o.client == nil {
		o.mu.Unlock()
		return fmt.Errorf("%w: no model provider configured", ErrProviderUnavailable)
	}

	o.state.AppendUser(text)
	slot := o.state.BeginResponse()
	o.parser.Reset()
	o.processing = true
	o.errMsg = ""

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if o.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), o.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	var handle catalog.Handle
	if o.tools != nil {
		handle = o.tools.Current()
	}
	exec := o.exec
	if exec == nil {
		exec = handle.Executor()
	}

	r := &run{
		o:        o,
		ctx:      ctx,
		cancel:   cancel,
		slot:     slot,
		client:   o.client,
		handle:   handle,
		exec:     exec,
		maxTurns: o.maxTurns,
	}
	o.current = r
	done := make(chan struct{})
	o.done = done
	o.mu.Unlock()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Chat] Send: %d chars, tools version %d", len(text), handle.Version())
	}
	o.notify()

	go func() {
		defer close(done)
		defer cancel()
		r.finish(r.loop())
	}()

	return nil
}

// Stop cancels the active unit of work. The in-flight entry keeps whatever
// text and flags it had. Tool calls issued but not yet answered get an error
// result so the next Send can continue the conversation.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	r := o.current
	if r == nil {
		o.mu.Unlock()
		return
	}
	r.cancel()
	o.current = nil
	o.processing = false
	abandoned := o.state.AbandonPending(ToolFailureMarker)
	o.state.DetachInFlight()
	o.mu.Unlock()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Chat] Stop requested, %d pending tool calls abandoned", abandoned)
	}
	o.notify()
}

// Clear cancels any active work and wipes the conversation.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	if o.current != nil {
		o.current.cancel()
		o.current = nil
	}
	o.state.Reset()
	o.parser.Reset()
	o.processing = false
	o.errMsg = ""
	o.mu.Unlock()

	o.notify()
}

// Wait blocks until the most recently started unit of work has exited.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done != nil {
		<-done
	}
}

// SetClient swaps the stream client used by future sends.
func (o *Orchestrator) SetClient(c model.StreamClient) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.client = c
}

// Snapshot returns a copy of everything the presentation layer shows.
func (o *Orchestrator) Snapshot() Display {
	o.mu.Lock()
	defer o.mu.Unlock()
	d := Display{
		Messages:   o.state.Display(),
		Processing: o.processing,
		Err:        o.errMsg,
	}
	if slot := o.state.InFlight(); slot != nil {
		d.InFlight = slot.ID()
	}
	return d
}

// History returns a copy of the wire history.
func (o *Orchestrator) History() []model.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.History()
}

func (o *Orchestrator) notify() {
	if o.onUpdate != nil {
		o.onUpdate()
	}
}

// run is one Send's unit of work.
type run struct {
	o      *Orchestrator
	ctx    context.Context
	cancel context.CancelFunc
	slot   *Slot

	client   model.StreamClient
	handle   catalog.Handle
	exec     model.ToolExecutor
	maxTurns int

	// shown is the display text built up across turns of this send.
	shown string
}

// apply runs fn against the state under the lock, unless this run has been
// stopped, cleared or cancelled in the meantime.
func (r *run) apply(fn func(s *State) error) error {
	o := r.o
	o.mu.Lock()
	if o.current != r {
		o.mu.Unlock()
		return context.Canceled
	}
	if err := r.ctx.Err(); err != nil {
		o.mu.Unlock()
		return err
	}
	err := fn(o.state)
	o.mu.Unlock()

	o.notify()
	return err
}

func (r *run) render(text string) error {
	return r.apply(func(s *State) error {
		s.UpdateInFlight(r.slot, text, r.o.parser.Parse(text, false))
		return nil
	})
}

// notice appends a status line to the in-flight text.
func (r *run) notice(line string) error {
	r.shown = paragraph(r.shown) + line
	return r.render(r.shown)
}

func (r *run) loop() error {
	for turn := 1; ; turn++ {
		if turn > r.maxTurns {
			return fmt.Errorf("%w: stopped after %d turns", ErrTurnLimitExceeded, r.maxTurns)
		}

		done, err := r.turn(turn)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// turn runs one stream to its terminal event. It reports true when the
// conversation is finished and false when tools ran and another turn is due.
func (r *run) turn(n int) (bool, error) {
	tools, err := r.handle.Tools(r.ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list tools: %w", err)
	}

	r.o.mu.Lock()
	history := r.o.state.History()
	prompt := r.o.systemPrompt
	r.o.mu.Unlock()
	if prompt != "" {
		history = append([]model.Message{model.SystemText(prompt)}, history...)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Chat] Turn %d: %d messages, %d tools via %s", n, len(history), len(tools), r.client.Name())
	}

	stream, err := r.client.Stream(r.ctx, history, tools)
	if err != nil {
		if ctxErr := r.ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer stream.Close()

	base := paragraph(r.shown)
	acc := NewAccumulator()

	for {
		ev, err := stream.Recv()
		if ctxErr := r.ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		if errors.Is(err, io.EOF) {
			return false, fmt.Errorf("%w: stream ended without a completion signal", ErrStreamTransport)
		}
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrStreamTransport, err)
		}

		switch ev.Type {
		case model.EventContentDelta:
			acc.AddText(ev.Text)
			r.shown = base + acc.Text()
			if err := r.render(r.shown); err != nil {
				return false, err
			}

		case model.EventToolCallDelta:
			acc.AddToolDelta(ev.Slot, ev.CallID, ev.Name, ev.Arguments)

		case model.EventTerminal:
			text := acc.Text()
			if text == "" && ev.Content != "" {
				text = ev.Content
				r.shown = base + text
				if err := r.render(r.shown); err != nil {
					return false, err
				}
			}

			if ev.Outcome == model.OutcomeToolCalls {
				calls := acc.Calls()
				if len(calls) > 0 {
					return false, r.runTools(text, calls)
				}
				if config.DebugLog != nil {
					config.DebugLog.Printf("[Chat] Turn %d: tool_calls outcome with no calls, finishing", n)
				}
			}

			if err := r.apply(func(s *State) error {
				s.AppendAssistant(text)
				return nil
			}); err != nil {
				return false, err
			}
			return true, nil
		}
	}
}

// runTools records the invocation message and executes each call in order.
func (r *run) runTools(text string, calls []model.ToolCall) error {
	if err := r.apply(func(s *State) error {
		s.AppendAssistantToolCalls(text, calls)
		return nil
	}); err != nil {
		return err
	}

	for _, call := range calls {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		if err := r.notice(fmt.Sprintf("Using tool: %s...", call.Name)); err != nil {
			return err
		}

		args, err := parseArguments(call.Arguments)
		if err != nil {
			perr := fmt.Errorf("%w: %s: %v", ErrArgumentParse, call.Name, err)
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Chat] Skipping tool call %s: %v", call.ID, perr)
			}
			if err := r.notice(fmt.Sprintf("Skipped tool %s: its arguments could not be parsed.", call.Name)); err != nil {
				return err
			}
			if err := r.recordResult(call, "Error: "+perr.Error(), true); err != nil {
				return err
			}
			continue
		}

		var out string
		ok := false
		if r.exec != nil {
			out, ok = r.exec.CallTool(r.ctx, call.Name, args)
		}
		if err := r.ctx.Err(); err != nil {
			return err
		}

		if !ok {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Chat] %v: %s (%s)", ErrToolExecutionFailure, call.Name, call.ID)
			}
			if err := r.notice(fmt.Sprintf("There was an error using the tool %s.", call.Name)); err != nil {
				return err
			}
			if err := r.recordResult(call, ToolFailureMarker, true); err != nil {
				return err
			}
			continue
		}

		if config.DebugLog != nil {
			config.DebugLog.Printf("[Chat] Tool %s result: %d chars", call.Name, len(out))
		}
		if err := r.recordResult(call, out, false); err != nil {
			return err
		}
	}

	return nil
}

func (r *run) recordResult(call model.ToolCall, content string, isError bool) error {
	return r.apply(func(s *State) error {
		return s.AppendToolResult(call.ID, call.Name, content, isError)
	})
}

// finish settles the display once the loop returns.
func (r *run) finish(err error) {
	o := r.o
	o.mu.Lock()
	if o.current != r {
		// Stopped or cleared; whatever was shown stays as it is.
		o.mu.Unlock()
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: timed out after %s", ErrTurnLimitExceeded, o.timeout)
	}

	if r.shown != "" {
		o.state.UpdateInFlight(r.slot, r.shown, o.parser.Parse(r.shown, true))
	}
	if err != nil {
		o.state.FailInFlight(r.slot, fmt.Sprintf("Sorry, there was an error: %v", err))
		o.errMsg = err.Error()
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Chat] Send failed: %v", err)
		}
	}
	if n := o.state.AbandonPending(ToolFailureMarker); n > 0 && config.DebugLog != nil {
		config.DebugLog.Printf("[Chat] %d tool calls left unanswered, recorded as failed", n)
	}
	o.state.FinalizeInFlight()
	o.processing = false
	o.current = nil
	o.mu.Unlock()

	o.notify()
}

// parseArguments decodes a tool call's argument text. Empty text means no
// arguments.
func parseArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// paragraph ends s with a blank line so the next text starts a new block.
func paragraph(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimRight(s, "\n") + "\n\n"
}
