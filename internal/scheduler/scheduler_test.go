package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"taskmate/internal/logging"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.New(t.TempDir(), "error")
	if err != nil {
		t.Fatalf("logger init failed: %v", err)
	}
	return logger
}

func TestEveryRejectsSubSecondInterval(t *testing.T) {
	s := New(testLogger(t))
	if err := s.Every(100*time.Millisecond, "too fast", func() {}); err == nil {
		t.Error("sub-second interval accepted")
	}
}

func TestScheduledJobRuns(t *testing.T) {
	s := New(testLogger(t))
	var runs atomic.Int32
	if err := s.Every(time.Second, "counter", func() { runs.Add(1) }); err != nil {
		t.Fatalf("Every failed: %v", err)
	}

	s.Start()
	time.Sleep(1500 * time.Millisecond)
	s.Stop()

	if runs.Load() < 1 {
		t.Error("job never ran")
	}

	// After Stop, no further runs.
	after := runs.Load()
	time.Sleep(1200 * time.Millisecond)
	if runs.Load() != after {
		t.Error("job ran after Stop")
	}
}
