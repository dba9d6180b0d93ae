package model

import (
	"time"

	"mcpchat/markdown"
)

// DisplayMessage is the UI-facing view of one conversation entry. It can
// briefly diverge from the wire history, for example while an assistant
// reply is still waiting for its first token.
type DisplayMessage struct {
	ID       string
	Role     Role
	Text     string
	Awaiting bool   // no text has arrived yet
	Error    string // user-visible failure for this entry
	Segments []markdown.Segment
	Time     time.Time
}
