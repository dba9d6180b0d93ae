package model

// EventType identifies the shape of a StreamEvent.
type EventType int

const (
	EventContentDelta EventType = iota
	EventToolCallDelta
	EventTerminal
)

func (t EventType) String() string {
	switch t {
	case EventContentDelta:
		return "content_delta"
	case EventToolCallDelta:
		return "tool_call_delta"
	case EventTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Outcome is how a turn ended.
type Outcome string

const (
	OutcomeStop      Outcome = "stop"
	OutcomeToolCalls Outcome = "tool_calls"
	OutcomeLength    Outcome = "length"
)

// StreamEvent is the provider-neutral unit every stream client emits.
//
//   - EventContentDelta: Text holds the new text.
//   - EventToolCallDelta: Slot keys the call; CallID and Name are set on the
//     fragment that introduces them; Arguments is the next JSON text fragment.
//   - EventTerminal: Outcome and the provider's accumulated Content.
type StreamEvent struct {
	Type EventType

	Text string

	Slot      int
	CallID    string
	Name      string
	Arguments string

	Outcome Outcome
	Content string
}

func ContentDelta(text string) StreamEvent {
	return StreamEvent{Type: EventContentDelta, Text: text}
}

func ToolCallDelta(slot int, id, name, args string) StreamEvent {
	return StreamEvent{Type: EventToolCallDelta, Slot: slot, CallID: id, Name: name, Arguments: args}
}

func Terminal(outcome Outcome, content string) StreamEvent {
	return StreamEvent{Type: EventTerminal, Outcome: outcome, Content: content}
}
