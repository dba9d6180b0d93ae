package ui

import (
	"strings"
	"testing"
	"time"

	"mcpchat/markdown"
	"mcpchat/model"
)

func TestFrameCode(t *testing.T) {
	tests := []struct {
		name       string
		seg        markdown.Segment
		wantLabel  string
		wantBottom bool
	}{
		{
			name:       "labelled and closed",
			seg:        markdown.Segment{Kind: markdown.Code, Language: "go", Text: "fmt.Println(1)\n", Terminated: true},
			wantLabel:  "[go]",
			wantBottom: true,
		},
		{
			name:       "no label",
			seg:        markdown.Segment{Kind: markdown.Code, Text: "x", Terminated: true},
			wantLabel:  "[code]",
			wantBottom: true,
		},
		{
			name:      "still streaming",
			seg:       markdown.Segment{Kind: markdown.Code, Language: "sh", Text: "ls -"},
			wantLabel: "[sh] streaming",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := frameCode(tt.seg, 40)
			if !strings.Contains(out, tt.wantLabel) {
				t.Errorf("missing label %q in %q", tt.wantLabel, out)
			}
			if !strings.Contains(out, strings.TrimRight(tt.seg.Text, "\n")) {
				t.Errorf("missing body in %q", out)
			}
			lines := strings.Split(out, "\n")
			hasBottom := strings.Contains(lines[len(lines)-1], "━")
			if hasBottom != tt.wantBottom {
				t.Errorf("bottom rule = %v, want %v", hasBottom, tt.wantBottom)
			}
		})
	}
}

func TestRendererMessages(t *testing.T) {
	r := newRenderer()
	r.setWidth(60)
	now := time.Now()

	msgs := []model.DisplayMessage{
		{ID: "u1", Role: model.RoleUser, Text: "list my files", Time: now},
		{ID: "a1", Role: model.RoleAssistant, Awaiting: true, Time: now},
	}
	out := r.messages(msgs, "a1", "*")
	if !strings.Contains(out, "list my files") {
		t.Error("user text not rendered")
	}
	if !strings.Contains(out, "* Waiting for response...") {
		t.Errorf("awaiting entry not rendered with spinner: %q", out)
	}

	out = r.messages(msgs, "", "*")
	if strings.Contains(out, "* Waiting") || !strings.Contains(out, "Stopped before a response arrived.") {
		t.Errorf("stopped awaiting entry should not spin: %q", out)
	}

	segs := markdown.Classify("Here you go\n```go\nx := 1\n```\n")
	msgs[1] = model.DisplayMessage{ID: "a1", Role: model.RoleAssistant, Text: "Here you go", Segments: segs, Time: now}
	out = r.messages(msgs, "a1", "*")
	if !strings.Contains(out, "Here you go") || !strings.Contains(out, "x := 1") || !strings.Contains(out, "[go]") {
		t.Errorf("segments not rendered: %q", out)
	}
	if len(r.cache) == 0 {
		t.Error("plain segment was not cached")
	}

	msgs[1].Error = "Sorry, there was an error: stream transport error"
	out = r.messages(msgs, "a1", "*")
	if !strings.Contains(out, "Sorry, there was an error: stream transport error") {
		t.Error("entry error not rendered")
	}

	r.messages(nil, "", "*")
	if len(r.cache) != 0 {
		t.Errorf("cache kept %d segments after they left the conversation", len(r.cache))
	}
}

func TestRendererWidthResetsCache(t *testing.T) {
	r := newRenderer()
	r.plain(markdown.Segment{ID: "p", Kind: markdown.Plain, Text: "hello"})
	r.setWidth(100)
	if len(r.cache) != 0 {
		t.Error("cache should be dropped on width change")
	}
	r.setWidth(5)
	if r.width != minRenderWidth {
		t.Errorf("width = %d, want floor %d", r.width, minRenderWidth)
	}
}

func TestLastCodeAndReply(t *testing.T) {
	msgs := []model.DisplayMessage{
		{Role: model.RoleAssistant, Text: "old", Segments: markdown.Classify("```\nfirst\n```")},
		{Role: model.RoleUser, Text: "again"},
		{Role: model.RoleAssistant, Text: "no code here", Segments: markdown.Classify("no code here")},
	}

	code, ok := lastCode(msgs)
	if !ok || code != "first" {
		t.Errorf("lastCode = %q, %v", code, ok)
	}
	reply, ok := lastReply(msgs)
	if !ok || reply != "no code here" {
		t.Errorf("lastReply = %q, %v", reply, ok)
	}

	if _, ok := lastCode(nil); ok {
		t.Error("empty conversation has no code")
	}
}

func TestStatusLine(t *testing.T) {
	if got := statusLine("tools: filesystem", 8); got != "tools: …" {
		t.Errorf("statusLine = %q", got)
	}
	if got := statusLine("short", 20); got != "short" {
		t.Errorf("statusLine = %q", got)
	}
}

func TestPreprocessLinks(t *testing.T) {
	got := preprocessLinks("see [the docs](https://example.com/x) now")
	if got != "see https://example.com/x now" {
		t.Errorf("preprocessLinks = %q", got)
	}
}
