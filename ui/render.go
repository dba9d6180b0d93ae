package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	termmd "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mattn/go-runewidth"

	"mcpchat/config"
	"mcpchat/markdown"
	"mcpchat/model"
)

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s\x1b]+)`)
)

const minRenderWidth = 20

// renderer turns display messages into viewport text. Rendered plain
// segments are cached by segment ID; while a reply streams only its last
// segment changes.
type renderer struct {
	width int
	cache map[string]cachedSegment
}

type cachedSegment struct {
	text string
	out  string
}

func newRenderer() *renderer {
	return &renderer{width: 80, cache: make(map[string]cachedSegment)}
}

// setWidth drops the cache when the width changes.
func (r *renderer) setWidth(width int) {
	if width < minRenderWidth {
		width = minRenderWidth
	}
	if width == r.width {
		return
	}
	r.width = width
	r.cache = make(map[string]cachedSegment)
}

// messages renders the whole conversation. spin is the current spinner frame,
// shown while the entry with ID inflight waits for its first token.
func (r *renderer) messages(msgs []model.DisplayMessage, inflight, spin string) string {
	var b strings.Builder
	live := make(map[string]bool)

	for _, m := range msgs {
		timestamp := DimStyle.Render(m.Time.Format("[15:04]"))
		switch m.Role {
		case model.RoleUser:
			b.WriteString(formatUserMessage(timestamp, runewidth.Wrap(m.Text, r.width-2)))
		default:
			b.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, AssistantStyle.Render("Assistant"), r.assistantBody(m, m.ID == inflight, spin, live)))
		}
	}

	// Forget segments that left the conversation.
	for id := range r.cache {
		if !live[id] {
			delete(r.cache, id)
		}
	}
	return b.String()
}

func (r *renderer) assistantBody(m model.DisplayMessage, streaming bool, spin string, live map[string]bool) string {
	switch {
	case m.Awaiting && streaming:
		return spin + " Waiting for response..."
	case m.Awaiting:
		return DimStyle.Render("Stopped before a response arrived.")
	}

	var parts []string
	segments := m.Segments
	if len(segments) == 0 && m.Text != "" {
		segments = markdown.Classify(m.Text)
	}
	for _, seg := range segments {
		live[seg.ID] = true
		switch seg.Kind {
		case markdown.Code:
			parts = append(parts, frameCode(seg, r.width))
		default:
			parts = append(parts, r.plain(seg))
		}
	}

	if m.Error != "" {
		parts = append(parts, ErrorStyle.Render(m.Error))
	}
	return strings.Join(parts, "\n")
}

func (r *renderer) plain(seg markdown.Segment) string {
	if c, ok := r.cache[seg.ID]; ok && c.text == seg.Text {
		return c.out
	}
	out := renderMarkdown(seg.Text, r.width)
	r.cache[seg.ID] = cachedSegment{text: seg.Text, out: out}
	return out
}

// renderMarkdown renders prose with go-term-markdown. Autolink stays off so
// URLs remain plain text the terminal can detect.
func renderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	start := time.Now()

	content = preprocessLinks(content)
	p := parser.NewWithExtensions(termmd.Extensions() &^ parser.Autolink)
	doc := p.Parse([]byte(content))
	rendered := gomarkdown.Render(doc, termmd.NewRenderer(width-4, 0))

	out := fixMarkdownLinks(fixInlineCode(strings.TrimRight(string(rendered), "\n")))
	if config.DebugLog != nil && time.Since(start) > 50*time.Millisecond {
		config.DebugLog.Printf("[UI] Slow markdown render: %d chars in %v", len(content), time.Since(start))
	}
	return out
}

// frameCode draws a code segment between two rules with its language label
// in the top one. A fence that has not closed yet is marked as streaming and
// has no bottom rule.
func frameCode(seg markdown.Segment, width int) string {
	label := "[code]"
	if seg.Language != "" {
		label = "[" + seg.Language + "]"
	}
	if !seg.Terminated {
		label += " streaming"
	}

	lineLen := width - 4
	labelLen := runewidth.StringWidth(label)
	if lineLen < labelLen+2 {
		lineLen = labelLen + 2
	}
	left := (lineLen - labelLen) / 2
	right := lineLen - labelLen - left

	top := CodeBorderStyle.Render(strings.Repeat("━", left)) +
		CodeLabelStyle.Render(label) +
		CodeBorderStyle.Render(strings.Repeat("━", right))

	lines := []string{"", top, "", strings.TrimRight(seg.Text, "\n"), ""}
	if seg.Terminated {
		lines = append(lines, CodeBorderStyle.Render(strings.Repeat("━", lineLen)))
	}
	return strings.Join(lines, "\n")
}

func formatUserMessage(timestamp, content string) string {
	bar := UserStyle.Render("┃")

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s %s %s\n", bar, timestamp, UserStyle.Render("You")))
	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")
	return result.String()
}

// preprocessLinks strips [text](url) down to the bare url.
func preprocessLinks(content string) string {
	return mdLinkRegex.ReplaceAllString(content, "$2")
}

// fixInlineCode swaps go-term-markdown's blue italic inline code for red text.
func fixInlineCode(s string) string {
	return inlineCodeRegex.ReplaceAllString(s, "\x1b[31m$1\x1b[0m")
}

func fixMarkdownLinks(s string) string {
	return urlRegex.ReplaceAllString(s, "\x1b[31m$1\x1b[0m")
}

// statusLine fits s to width, truncating with an ellipsis.
func statusLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// lastCode returns the text of the newest code segment in msgs.
func lastCode(msgs []model.DisplayMessage) (string, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != model.RoleAssistant {
			continue
		}
		segs := msgs[i].Segments
		for j := len(segs) - 1; j >= 0; j-- {
			if segs[j].Kind == markdown.Code && segs[j].Text != "" {
				return segs[j].Text, true
			}
		}
	}
	return "", false
}

// lastReply returns the text of the newest assistant entry with content.
func lastReply(msgs []model.DisplayMessage) (string, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleAssistant && msgs[i].Text != "" {
			return msgs[i].Text, true
		}
	}
	return "", false
}
