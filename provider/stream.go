package provider

import (
	"strings"

	"mcpchat/model"
)

// eventQueue buffers the events decoded from one SDK chunk. A single chunk
// can carry text, several tool fragments and the finish reason at once.
type eventQueue struct {
	pending []model.StreamEvent
}

func (q *eventQueue) push(ev model.StreamEvent) {
	q.pending = append(q.pending, ev)
}

func (q *eventQueue) pop() (model.StreamEvent, bool) {
	if len(q.pending) == 0 {
		return model.StreamEvent{}, false
	}
	ev := q.pending[0]
	q.pending = q.pending[1:]
	return ev, true
}

// nameMap maps wire tool names back to catalog names for providers that
// restrict the tool name alphabet. A nil map is the identity.
type nameMap map[string]string

func (m nameMap) encode(name string) string {
	if m == nil {
		return name
	}
	return sanitizeToolName(name)
}

func (m nameMap) decode(name string) string {
	if original, ok := m[name]; ok {
		return original
	}
	return name
}

// sanitizeToolName replaces everything outside [A-Za-z0-9_-].
func sanitizeToolName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}
