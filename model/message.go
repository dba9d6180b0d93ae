package model

import (
	"strings"
	"time"
)

// Role identifies who produced a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// PartType identifies the kind of content a Part carries.
type PartType string

const (
	PartText       PartType = "text"
	PartToolCall   PartType = "tool_call"
	PartToolResult PartType = "tool_result"
)

// ToolCall is one tool invocation requested by the assistant. Arguments is
// the raw JSON text exactly as the provider streamed it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolResult links a tool's output back to the ToolCall that asked for it.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// Part is one piece of a Message.
type Part struct {
	Type       PartType
	Text       string
	ToolCall   *ToolCall
	ToolResult *ToolResult
}

// Message is an entry in the wire history sent to the provider.
type Message struct {
	Role      Role
	Parts     []Part
	Timestamp time.Time
}

func SystemText(text string) Message {
	return Message{Role: RoleSystem, Parts: []Part{{Type: PartText, Text: text}}, Timestamp: time.Now()}
}

func UserText(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{{Type: PartText, Text: text}}, Timestamp: time.Now()}
}

func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Parts: []Part{{Type: PartText, Text: text}}, Timestamp: time.Now()}
}

// AssistantToolCalls builds the assistant message that carries tool
// invocations, with any text the model produced before asking for them.
func AssistantToolCalls(text string, calls []ToolCall) Message {
	parts := make([]Part, 0, len(calls)+1)
	if text != "" {
		parts = append(parts, Part{Type: PartText, Text: text})
	}
	for i := range calls {
		call := calls[i]
		parts = append(parts, Part{Type: PartToolCall, ToolCall: &call})
	}
	return Message{Role: RoleAssistant, Parts: parts, Timestamp: time.Now()}
}

func ToolResultMessage(callID, name, content string, isError bool) Message {
	return Message{
		Role: RoleTool,
		Parts: []Part{{
			Type: PartToolResult,
			ToolResult: &ToolResult{
				CallID:  callID,
				Name:    name,
				Content: content,
				IsError: isError,
			},
		}},
		Timestamp: time.Now(),
	}
}

// Text concatenates the message's text parts. For tool messages it returns
// the result content.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		switch p.Type {
		case PartText:
			sb.WriteString(p.Text)
		case PartToolResult:
			if p.ToolResult != nil {
				sb.WriteString(p.ToolResult.Content)
			}
		}
	}
	return sb.String()
}

// ToolCalls returns the tool invocations carried by the message in order.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, p := range m.Parts {
		if p.Type == PartToolCall && p.ToolCall != nil {
			calls = append(calls, *p.ToolCall)
		}
	}
	return calls
}

// ToolResult returns the result part of a tool message, if any.
func (m Message) ToolResult() (ToolResult, bool) {
	for _, p := range m.Parts {
		if p.Type == PartToolResult && p.ToolResult != nil {
			return *p.ToolResult, true
		}
	}
	return ToolResult{}, false
}
