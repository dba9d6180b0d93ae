package markdown

import (
	"strings"

	"github.com/google/uuid"
)

// triggers are the markers that can change segment structure. A chunk that
// contains none of them (together with the tail of the previous buffer) can be
// appended to the last segment without reclassifying.
var triggers = []string{Fence, "#", "*", "-", "[", "|", ">", "\n\n"}

// tailWindow is how much of the previous buffer is rechecked for triggers so
// a marker split across two chunks is still seen.
const tailWindow = 10

// Parser follows one growing buffer. It is not safe for concurrent use; the
// owner serializes calls.
type Parser struct {
	last     string
	segments []Segment

	inFence      bool
	pendingLabel bool

	reparses int
}

func NewParser() *Parser {
	return &Parser{}
}

// Reset drops all cached state. Call it before a new response starts.
func (p *Parser) Reset() {
	*p = Parser{}
}

// Parse returns the segments for buffer. An unchanged buffer returns the
// cached slice itself. The returned slice must not be modified by callers.
func (p *Parser) Parse(buffer string, final bool) []Segment {
	if buffer == p.last && !final {
		return p.segments
	}

	if final || !strings.HasPrefix(buffer, p.last) {
		return p.reparse(buffer)
	}

	chunk := buffer[len(p.last):]
	if p.needsReparse(chunk) {
		return p.reparse(buffer)
	}

	p.appendChunk(chunk)
	p.last = buffer
	return p.segments
}

func (p *Parser) needsReparse(chunk string) bool {
	window := tail(p.last, tailWindow) + chunk
	for _, t := range triggers {
		if strings.Contains(window, t) {
			return true
		}
	}

	if p.inFence && p.pendingLabel {
		return true
	}

	if len(p.segments) == 0 {
		return p.inFence
	}

	lastKind := p.segments[len(p.segments)-1].Kind
	if p.inFence {
		return lastKind != Code
	}
	return lastKind != Plain
}

// appendChunk grows the last segment. Earlier segments are carried over
// untouched; the slice itself is copied because callers may still hold the
// previous one.
func (p *Parser) appendChunk(chunk string) {
	if len(p.segments) == 0 {
		p.segments = []Segment{{
			ID:         uuid.NewString(),
			Kind:       Plain,
			Text:       chunk,
			Terminated: true,
		}}
		return
	}

	next := make([]Segment, len(p.segments))
	copy(next, p.segments)
	next[len(next)-1].Text += chunk
	p.segments = next
}

func (p *Parser) reparse(buffer string) []Segment {
	fresh := Classify(buffer)

	// Keep IDs stable by position so renderers can reuse per-segment caches.
	for i := range fresh {
		if i < len(p.segments) && p.segments[i].Kind == fresh[i].Kind {
			fresh[i].ID = p.segments[i].ID
		}
	}

	p.last = buffer
	p.segments = fresh
	p.inFence, p.pendingLabel = inOpenFence(buffer)
	p.reparses++
	return p.segments
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
