// Package markdown splits a streamed assistant reply into plain-text and
// fenced-code segments.
//
// Classify performs a full segmentation of a complete buffer. Parser wraps it
// with the state needed to follow a buffer that grows one chunk at a time,
// appending to the last segment when the new chunk cannot change the
// structure and falling back to Classify when it can.
//
// This is deliberately not a CommonMark parser. Only the triple-backtick
// fence is structural here; everything else (headings, lists, tables) is left
// inside plain segments for the renderer.
package markdown

import (
	"strings"

	"github.com/google/uuid"
)

// Fence is the delimiter that opens and closes a code segment.
const Fence = "```"

// Kind distinguishes plain text from fenced code.
type Kind int

const (
	Plain Kind = iota
	Code
)

func (k Kind) String() string {
	switch k {
	case Code:
		return "code"
	default:
		return "plain"
	}
}

// Segment is one contiguous piece of the buffer.
type Segment struct {
	ID       string // stable across incremental appends
	Kind     Kind
	Language string // code only, empty when the fence carried no label
	Text     string

	// Terminated reports whether the closing fence of a code segment has
	// arrived. Plain segments are always terminated.
	Terminated bool
}

// SameContent compares two segments ignoring their IDs.
func (s Segment) SameContent(o Segment) bool {
	return s.Kind == o.Kind &&
		s.Language == o.Language &&
		s.Text == o.Text &&
		s.Terminated == o.Terminated
}

// Classify splits buffer on the fence delimiter. Components at odd positions
// are code. An odd number of fences leaves the trailing component as an
// unterminated code segment so an in-progress block renders as code while it
// streams. Empty components are dropped and order is preserved.
func Classify(buffer string) []Segment {
	if buffer == "" {
		return nil
	}

	components := strings.Split(buffer, Fence)
	segments := make([]Segment, 0, len(components))

	for i, component := range components {
		if component == "" {
			continue
		}

		if i%2 == 0 {
			segments = append(segments, Segment{
				ID:         uuid.NewString(),
				Kind:       Plain,
				Text:       component,
				Terminated: true,
			})
			continue
		}

		terminated := i < len(components)-1
		lang, body := splitLanguage(component, terminated)
		segments = append(segments, Segment{
			ID:         uuid.NewString(),
			Kind:       Code,
			Language:   lang,
			Text:       body,
			Terminated: terminated,
		})
	}

	return segments
}

// splitLanguage takes the first line of a code component as its language
// label. A terminated component with no newline (```inline```) is all body.
// An unterminated one with no newline is a label still being typed.
func splitLanguage(component string, terminated bool) (string, string) {
	idx := strings.IndexByte(component, '\n')
	if idx < 0 {
		if terminated {
			return "", component
		}
		return strings.TrimSpace(component), ""
	}

	lang := strings.TrimSpace(component[:idx])
	body := component[idx+1:]
	if terminated {
		body = strings.TrimSuffix(body, "\n")
	}
	return lang, body
}

// inOpenFence reports whether the end of buffer sits inside an unterminated
// fence, and whether that fence's label line is still incomplete.
func inOpenFence(buffer string) (open bool, pendingLabel bool) {
	if strings.Count(buffer, Fence)%2 == 0 {
		return false, false
	}
	tail := buffer[strings.LastIndex(buffer, Fence)+len(Fence):]
	return true, !strings.Contains(tail, "\n")
}
