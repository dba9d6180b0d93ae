package chat

import (
	"errors"
	"testing"

	"mcpchat/markdown"
	"mcpchat/model"
)

func TestStateToolResultLinking(t *testing.T) {
	s := NewState()
	s.AppendUser("hi")
	s.AppendAssistantToolCalls("", []model.ToolCall{{ID: "c1", Name: "list_files"}})

	tests := []struct {
		name    string
		callID  string
		wantErr error
	}{
		{name: "unknown id", callID: "nope", wantErr: ErrUnknownToolCall},
		{name: "issued id", callID: "c1", wantErr: nil},
		{name: "already answered", callID: "c1", wantErr: ErrUnknownToolCall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.AppendToolResult(tt.callID, "list_files", "out", false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if n := len(s.History()); n != 3 {
		t.Errorf("history has %d messages, want 3", n)
	}
}

func TestStateInFlightSlot(t *testing.T) {
	s := NewState()
	s.AppendUser("question")

	slot := s.BeginResponse()
	display := s.Display()
	if len(display) != 2 || !display[1].Awaiting || display[1].Text != "" {
		t.Fatalf("placeholder = %+v", display)
	}

	segs := markdown.Classify("partial")
	s.UpdateInFlight(slot, "partial", segs)
	s.UpdateInFlight(slot, "partial answer", segs)

	display = s.Display()
	if len(display) != 2 {
		t.Fatalf("updates must not grow the display, got %d entries", len(display))
	}
	if display[1].Text != "partial answer" || display[1].Awaiting {
		t.Errorf("in-flight entry = %+v", display[1])
	}

	s.FinalizeInFlight()
	s.FinalizeInFlight()
	if s.InFlight() != nil {
		t.Error("finalize should clear the slot")
	}

	// Writes through a finalized slot are ignored.
	s.UpdateInFlight(slot, "late", nil)
	s.FailInFlight(slot, "late error")
	display = s.Display()
	if display[1].Text != "partial answer" || display[1].Error != "" {
		t.Errorf("stale slot wrote to entry: %+v", display[1])
	}
}

func TestStateBeginResponseFinalizesPrevious(t *testing.T) {
	s := NewState()
	first := s.BeginResponse()
	second := s.BeginResponse()

	if s.InFlight() != second || first == second {
		t.Error("only the newest slot should be in flight")
	}
	display := s.Display()
	if display[0].Awaiting {
		t.Error("previous placeholder should have been finalized")
	}
}

func TestStateDisplayIsACopy(t *testing.T) {
	s := NewState()
	s.AppendUser("original")

	display := s.Display()
	display[0].Text = "changed"

	if s.Display()[0].Text != "original" {
		t.Error("Display should return copies")
	}
}

func TestStateReset(t *testing.T) {
	s := NewState()
	s.AppendUser("hi")
	s.AppendAssistantToolCalls("", []model.ToolCall{{ID: "c1", Name: "x"}})
	s.BeginResponse()

	s.Reset()

	if len(s.History()) != 0 || len(s.Display()) != 0 || s.InFlight() != nil {
		t.Error("reset should wipe everything")
	}
	if err := s.AppendToolResult("c1", "x", "", false); !errors.Is(err, ErrUnknownToolCall) {
		t.Error("pending calls should not survive reset")
	}
}

func TestStateAbandonPending(t *testing.T) {
	s := NewState()
	s.AppendUser("hi")
	s.AppendAssistantToolCalls("", []model.ToolCall{
		{ID: "c1", Name: "list_files"},
		{ID: "c2", Name: "read_file"},
	})
	if err := s.AppendToolResult("c1", "list_files", "a.txt", false); err != nil {
		t.Fatalf("AppendToolResult: %v", err)
	}

	if n := s.AbandonPending(ToolFailureMarker); n != 1 {
		t.Errorf("abandoned %d calls, want 1", n)
	}
	if s.Pending() != 0 {
		t.Errorf("%d calls still pending", s.Pending())
	}

	history := s.History()
	if len(history) != 4 {
		t.Fatalf("history has %d messages, want 4", len(history))
	}
	result, ok := history[3].ToolResult()
	if !ok || result.CallID != "c2" || !result.IsError || result.Content != ToolFailureMarker {
		t.Errorf("abandoned result = %+v", result)
	}
	if err := s.AppendToolResult("c2", "read_file", "late", false); !errors.Is(err, ErrUnknownToolCall) {
		t.Errorf("late result err = %v, want ErrUnknownToolCall", err)
	}

	if n := s.AbandonPending(ToolFailureMarker); n != 0 {
		t.Errorf("second abandon answered %d calls", n)
	}
}

func TestStateReissuedCallIDGetsFreshOne(t *testing.T) {
	s := NewState()
	s.AppendAssistantToolCalls("", []model.ToolCall{{ID: "call_0", Name: "list_files"}})
	if err := s.AppendToolResult("call_0", "list_files", "a.txt", false); err != nil {
		t.Fatal(err)
	}

	next := []model.ToolCall{{ID: "call_0", Name: "read_file"}}
	s.AppendAssistantToolCalls("", next)
	if next[0].ID == "call_0" {
		t.Fatal("reused ID was not replaced")
	}
	if got := s.History()[2].ToolCalls()[0].ID; got != next[0].ID {
		t.Errorf("history records %q, caller sees %q", got, next[0].ID)
	}
	if err := s.AppendToolResult(next[0].ID, "read_file", "text", false); err != nil {
		t.Errorf("result for renamed call: %v", err)
	}
}

func TestStateDetachKeepsAwaiting(t *testing.T) {
	s := NewState()
	s.AppendUser("hi")
	slot := s.BeginResponse()

	s.DetachInFlight()

	if s.InFlight() != nil {
		t.Error("slot should be released")
	}
	if d := s.Display(); !d[1].Awaiting {
		t.Error("detached entry should keep its awaiting flag")
	}
	s.UpdateInFlight(slot, "late", nil)
	if d := s.Display(); d[1].Text != "" {
		t.Errorf("write through a detached slot landed: %q", d[1].Text)
	}
}
