package chat

import (
	"fmt"
	"slices"
	"time"

	"mcpchat/markdown"
	"mcpchat/model"

	"github.com/google/uuid"
)

// Slot is a reference to the display entry currently being streamed into.
// Writes through a slot that is no longer in flight are ignored.
type Slot struct {
	id    string
	entry *model.DisplayMessage
}

func (s *Slot) ID() string {
	return s.id
}

// State holds the wire history sent to the provider and the display list
// shown to the user. It does no locking; the orchestrator serializes access.
type State struct {
	history []model.Message
	display []*model.DisplayMessage

	inflight *Slot

	// pending holds tool calls that have been issued but not answered, in
	// the order they were issued.
	pending  []model.ToolCall
	answered map[string]bool
}

func NewState() *State {
	return &State{answered: make(map[string]bool)}
}

// AppendUser records a user message in both the history and the display.
func (s *State) AppendUser(text string) {
	msg := model.UserText(text)
	s.history = append(s.history, msg)
	s.display = append(s.display, &model.DisplayMessage{
		ID:   uuid.NewString(),
		Role: model.RoleUser,
		Text: text,
		Time: msg.Timestamp,
	})
}

// AppendAssistant records a completed assistant reply in the history. The
// display side is carried by the in-flight entry.
func (s *State) AppendAssistant(text string) {
	s.history = append(s.history, model.AssistantText(text))
}

// AppendAssistantToolCalls records the assistant message that issued calls.
// A call whose ID was already issued in this conversation is given a fresh
// one in place, so results stay unambiguous.
func (s *State) AppendAssistantToolCalls(text string, calls []model.ToolCall) {
	for i := range calls {
		if s.issued(calls[i].ID) {
			calls[i].ID = newCallID()
		}
		s.pending = append(s.pending, calls[i])
	}
	s.history = append(s.history, model.AssistantToolCalls(text, calls))
}

func (s *State) issued(id string) bool {
	if s.answered[id] {
		return true
	}
	for _, c := range s.pending {
		if c.ID == id {
			return true
		}
	}
	return false
}

// AppendToolResult records a tool's output. callID must name an issued call
// that has not been answered yet.
func (s *State) AppendToolResult(callID, name, text string, isError bool) error {
	i := slices.IndexFunc(s.pending, func(c model.ToolCall) bool { return c.ID == callID })
	if i < 0 {
		if s.answered[callID] {
			return fmt.Errorf("%w: %s already answered", ErrUnknownToolCall, callID)
		}
		return fmt.Errorf("%w: %s", ErrUnknownToolCall, callID)
	}
	s.pending = slices.Delete(s.pending, i, i+1)
	s.answered[callID] = true
	s.history = append(s.history, model.ToolResultMessage(callID, name, text, isError))
	return nil
}

// AbandonPending answers every issued but unanswered call with an error
// result carrying content, so the history stays acceptable to providers
// after a cancelled or failed tool round. It reports how many it answered.
func (s *State) AbandonPending(content string) int {
	n := len(s.pending)
	for _, c := range s.pending {
		s.answered[c.ID] = true
		s.history = append(s.history, model.ToolResultMessage(c.ID, c.Name, content, true))
	}
	s.pending = nil
	return n
}

// Pending reports how many issued calls still lack a result.
func (s *State) Pending() int {
	return len(s.pending)
}

// BeginResponse appends an awaiting placeholder and returns its slot. Any
// previous in-flight entry is finalized first.
func (s *State) BeginResponse() *Slot {
	s.FinalizeInFlight()

	entry := &model.DisplayMessage{
		ID:       uuid.NewString(),
		Role:     model.RoleAssistant,
		Awaiting: true,
		Time:     time.Now(),
	}
	s.display = append(s.display, entry)
	s.inflight = &Slot{id: entry.ID, entry: entry}
	return s.inflight
}

// UpdateInFlight replaces the text of the slot's entry.
func (s *State) UpdateInFlight(slot *Slot, text string, segments []markdown.Segment) {
	if !s.isInFlight(slot) {
		return
	}
	slot.entry.Text = text
	slot.entry.Segments = segments
	if text != "" {
		slot.entry.Awaiting = false
	}
}

// FailInFlight attaches a user-visible error to the slot's entry.
func (s *State) FailInFlight(slot *Slot, msg string) {
	if !s.isInFlight(slot) {
		return
	}
	slot.entry.Error = msg
	slot.entry.Awaiting = false
}

// DetachInFlight ends streaming into the in-flight entry without touching
// its text or flags. An entry still awaiting its first token stays awaiting.
func (s *State) DetachInFlight() {
	s.inflight = nil
}

// FinalizeInFlight demotes the in-flight entry to a completed one. Calling
// it with nothing in flight is a no-op.
func (s *State) FinalizeInFlight() {
	if s.inflight == nil {
		return
	}
	s.inflight.entry.Awaiting = false
	s.inflight = nil
}

// InFlight returns the current slot or nil.
func (s *State) InFlight() *Slot {
	return s.inflight
}

func (s *State) isInFlight(slot *Slot) bool {
	return slot != nil && s.inflight == slot
}

// History returns a copy of the wire history.
func (s *State) History() []model.Message {
	out := make([]model.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Display returns a copy of the display list.
func (s *State) Display() []model.DisplayMessage {
	out := make([]model.DisplayMessage, len(s.display))
	for i, d := range s.display {
		out[i] = *d
	}
	return out
}

// Reset wipes everything.
func (s *State) Reset() {
	*s = *NewState()
}
