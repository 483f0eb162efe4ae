package escalation

import (
	"strings"
	"testing"
	"time"
)

func TestStageMessages(t *testing.T) {
	due := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

	msg1 := StageMessage(1, "Alice", "file report", due)
	if !strings.Contains(msg1, "Alice") || !strings.Contains(msg1, "file report") {
		t.Errorf("stage 1 message missing interpolations: %q", msg1)
	}
	if !strings.Contains(msg1, "2:30 PM") {
		t.Errorf("stage 1 message missing formatted due time: %q", msg1)
	}
	if !strings.Contains(msg1, "1/3") {
		t.Errorf("stage 1 message missing stage marker: %q", msg1)
	}

	msg2 := StageMessage(2, "Alice", "file report", due)
	if !strings.Contains(msg2, "2/3") || strings.Contains(msg2, "2:30 PM") {
		t.Errorf("stage 2 message wrong: %q", msg2)
	}

	msg3 := StageMessage(3, "Alice", "file report", due)
	if !strings.Contains(msg3, "3/3") || !strings.Contains(msg3, "late") {
		t.Errorf("stage 3 message wrong: %q", msg3)
	}

	if StageMessage(4, "Alice", "x", due) != "" {
		t.Error("unknown stage should produce empty message")
	}
}

func TestEndOfDayMessage(t *testing.T) {
	msg := EndOfDayMessage("Bob")
	if !strings.Contains(msg, "Bob") {
		t.Errorf("end-of-day message missing user name: %q", msg)
	}
}
