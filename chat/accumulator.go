package chat

import (
	"sort"
	"strings"

	"mcpchat/model"

	"github.com/google/uuid"
)

// toolSlot collects the fragments of one streamed tool call.
type toolSlot struct {
	id   string
	name string
	args strings.Builder
}

// Accumulator gathers one turn's text and tool-call fragments.
type Accumulator struct {
	text  strings.Builder
	slots map[int]*toolSlot
	order []int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{slots: make(map[int]*toolSlot)}
}

func (a *Accumulator) AddText(s string) {
	a.text.WriteString(s)
}

func (a *Accumulator) Text() string {
	return a.text.String()
}

// AddToolDelta routes a fragment to its slot, creating the slot on first
// sight. The first non-empty id and name stick; argument text is appended in
// arrival order.
func (a *Accumulator) AddToolDelta(index int, id, name, args string) {
	slot, ok := a.slots[index]
	if !ok {
		slot = &toolSlot{}
		a.slots[index] = slot
		a.order = append(a.order, index)
	}
	if slot.id == "" && id != "" {
		slot.id = id
	}
	if slot.name == "" && name != "" {
		slot.name = name
	}
	if args != "" {
		slot.args.WriteString(args)
	}
}

func (a *Accumulator) HasCalls() bool {
	return len(a.slots) > 0
}

// Calls freezes the slots into tool calls ordered by slot index. Calls the
// provider sent without an ID, or with an ID an earlier slot already used,
// get a generated one so each result links back to exactly one call.
func (a *Accumulator) Calls() []model.ToolCall {
	indices := make([]int, len(a.order))
	copy(indices, a.order)
	sort.Ints(indices)

	calls := make([]model.ToolCall, 0, len(indices))
	seen := make(map[string]bool, len(indices))
	for _, idx := range indices {
		slot := a.slots[idx]
		if slot.name == "" {
			continue
		}
		id := slot.id
		if id == "" || seen[id] {
			id = newCallID()
		}
		seen[id] = true
		calls = append(calls, model.ToolCall{
			ID:        id,
			Name:      slot.name,
			Arguments: slot.args.String(),
		})
	}
	return calls
}

func newCallID() string {
	return "call_" + uuid.NewString()
}
