package escalation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"taskmate/internal/logging"
	"taskmate/internal/models"
)

type fakeTask struct {
	id         int64
	user       int64
	name       string
	due        time.Time
	status     string
	alertCount int
	sentAt     [3]*time.Time
}

// fakeStore applies the same eligibility predicates and conditional
// writes the SQL store does, over an in-memory task table.
type fakeStore struct {
	mu    sync.Mutex
	tasks map[int64]*fakeTask
	users map[int64]models.Contact
}

func newFakeStore() *fakeStore {
	return &fakeStore{tasks: make(map[int64]*fakeTask), users: make(map[int64]models.Contact)}
}

func (s *fakeStore) addUser(id int64, name string) {
	s.users[id] = models.Contact{UserID: id, Name: name, Phone: fmt.Sprintf("+1555000%04d", id)}
}

func (s *fakeStore) addTask(id, user int64, name string, due time.Time) {
	s.tasks[id] = &fakeTask{id: id, user: user, name: name, due: due, status: models.StatusPending}
}

func (s *fakeStore) eligible(t *fakeTask, stage int, now time.Time, dwell time.Duration) bool {
	if t.status != models.StatusPending || t.alertCount != stage-1 {
		return false
	}
	if stage == 1 {
		return !t.due.After(now)
	}
	prev := t.sentAt[stage-2]
	return prev != nil && !prev.After(now.Add(-dwell))
}

func (s *fakeStore) StageEligible(_ context.Context, stage int, now time.Time, dwell time.Duration) ([]models.AlertCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AlertCandidate
	for _, t := range s.tasks {
		if !s.eligible(t, stage, now, dwell) {
			continue
		}
		var prev *time.Time
		if stage > 1 {
			prev = t.sentAt[stage-2]
		}
		out = append(out, models.AlertCandidate{
			TaskID:      t.id,
			TaskName:    t.name,
			DueAt:       t.due,
			AlertCount:  t.alertCount,
			LastAlertAt: prev,
			User:        s.users[t.user],
		})
	}
	return out, nil
}

func (s *fakeStore) AdvanceStage(_ context.Context, taskID int64, stage int, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return false, nil
	}
	if t.status != models.StatusPending || t.alertCount != stage-1 {
		return false, nil
	}
	if stage == 1 && t.due.After(now) {
		return false, nil
	}
	if stage > 1 && t.sentAt[stage-2] == nil {
		return false, nil
	}
	stamp := now
	t.alertCount = stage
	t.sentAt[stage-1] = &stamp
	return true, nil
}

func (s *fakeStore) UsersAllDone(_ context.Context, date string) ([]models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Contact
	for id, contact := range s.users {
		total, pending := 0, 0
		for _, t := range s.tasks {
			if t.user != id || t.due.Format("2006-01-02") != date {
				continue
			}
			total++
			if t.status == models.StatusPending {
				pending++
			}
		}
		if total > 0 && pending == 0 {
			out = append(out, contact)
		}
	}
	return out, nil
}

func (s *fakeStore) reschedule(taskID int64, due time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[taskID].due = due
}

func (s *fakeStore) complete(taskID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tasks[taskID]
	t.status = models.FinalStatus(t.alertCount)
}

func (s *fakeStore) task(id int64) fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tasks[id]
}

type fakeLedger struct {
	mu     sync.Mutex
	claims map[string]bool
}

func newFakeLedger() *fakeLedger { return &fakeLedger{claims: make(map[string]bool)} }

func (l *fakeLedger) TryClaim(_ context.Context, userID int64, date string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := fmt.Sprintf("%d/%s", userID, date)
	if l.claims[key] {
		return false, nil
	}
	l.claims[key] = true
	return true, nil
}

type sentMessage struct {
	user int64
	text string
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	failUser map[int64]bool
	onSend   func(to models.Contact)
}

func newFakeSender() *fakeSender { return &fakeSender{failUser: make(map[int64]bool)} }

func (f *fakeSender) Send(_ context.Context, to models.Contact, text string) error {
	if f.onSend != nil {
		f.onSend(to)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUser[to.UserID] {
		return fmt.Errorf("gateway unavailable")
	}
	f.sent = append(f.sent, sentMessage{user: to.UserID, text: text})
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.New(t.TempDir(), "error")
	if err != nil {
		t.Fatalf("logger init failed: %v", err)
	}
	return logger
}

func newTestEngine(t *testing.T, store *fakeStore, ledger *fakeLedger, sender *fakeSender, clock func() time.Time) *Engine {
	t.Helper()
	return New(store, ledger, sender, testLogger(t), Options{
		StageDwell:  10 * time.Minute,
		SendTimeout: time.Second,
		MaxWorkers:  4,
		Clock:       clock,
	})
}

func TestEscalationProgression(t *testing.T) {
	due := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	now := due
	store := newFakeStore()
	store.addUser(1, "Alice")
	store.addTask(100, 1, "file report", due)
	sender := newFakeSender()
	engine := newTestEngine(t, store, newFakeLedger(), sender, func() time.Time { return now })
	ctx := context.Background()

	// Stage 1 fires at the due instant.
	engine.RunAlertTick(ctx)
	if got := store.task(100); got.alertCount != 1 || got.sentAt[0] == nil {
		t.Fatalf("after first tick: alertCount=%d firstSent=%v", got.alertCount, got.sentAt[0])
	}
	if sender.count() != 1 {
		t.Fatalf("expected 1 send, got %d", sender.count())
	}

	// Immediate re-run changes nothing: the dwell has not elapsed.
	engine.RunAlertTick(ctx)
	if sender.count() != 1 {
		t.Fatalf("idempotent re-run produced sends: %d", sender.count())
	}

	// Stage 2 after the dwell, stage 3 after another dwell.
	now = now.Add(10 * time.Minute)
	engine.RunAlertTick(ctx)
	now = now.Add(10 * time.Minute)
	engine.RunAlertTick(ctx)

	got := store.task(100)
	if got.alertCount != 3 {
		t.Fatalf("alertCount = %d, want 3", got.alertCount)
	}
	if got.status != models.StatusPending {
		t.Fatalf("stage 3 must not change status, got %s", got.status)
	}
	// Timestamps weakly increase with stage number.
	for i := 1; i < 3; i++ {
		if got.sentAt[i].Before(*got.sentAt[i-1]) {
			t.Fatalf("sentAt[%d]=%v before sentAt[%d]=%v", i, got.sentAt[i], i-1, got.sentAt[i-1])
		}
	}
	if sender.count() != 3 {
		t.Fatalf("expected 3 sends total, got %d", sender.count())
	}
}

func TestStageDwellNotElapsed(t *testing.T) {
	due := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	now := due
	store := newFakeStore()
	store.addUser(1, "Alice")
	store.addTask(100, 1, "file report", due)
	sender := newFakeSender()
	engine := newTestEngine(t, store, newFakeLedger(), sender, func() time.Time { return now })
	ctx := context.Background()

	engine.RunAlertTick(ctx)

	// One second short of the dwell: stage 2 must not fire.
	now = now.Add(10*time.Minute - time.Second)
	engine.RunAlertTick(ctx)
	if got := store.task(100); got.alertCount != 1 {
		t.Fatalf("stage 2 fired before dwell: alertCount=%d", got.alertCount)
	}

	now = now.Add(time.Second)
	engine.RunAlertTick(ctx)
	if got := store.task(100); got.alertCount != 2 {
		t.Fatalf("stage 2 did not fire at dwell: alertCount=%d", got.alertCount)
	}
}

func TestStageSkippedWithoutPriorStamp(t *testing.T) {
	// A task carrying alert_count=1 without a recorded first stamp must
	// never fire stage 2.
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.addUser(1, "Alice")
	store.addTask(100, 1, "broken row", now.Add(-time.Hour))
	store.tasks[100].alertCount = 1

	sender := newFakeSender()
	engine := newTestEngine(t, store, newFakeLedger(), sender, func() time.Time { return now })
	engine.RunAlertTick(context.Background())

	if sender.count() != 0 {
		t.Fatalf("stage 2 fired without first stamp: %d sends", sender.count())
	}
}

func TestDeliveryFailureIsolation(t *testing.T) {
	due := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	now := due
	store := newFakeStore()
	store.addUser(1, "Alice")
	store.addUser(2, "Bob")
	store.addTask(100, 1, "task a", due)
	store.addTask(200, 2, "task b", due)
	sender := newFakeSender()
	sender.failUser[1] = true
	engine := newTestEngine(t, store, newFakeLedger(), sender, func() time.Time { return now })
	ctx := context.Background()

	engine.RunAlertTick(ctx)
	if got := store.task(100); got.alertCount != 0 {
		t.Fatalf("failed delivery advanced task a: alertCount=%d", got.alertCount)
	}
	if got := store.task(200); got.alertCount != 1 {
		t.Fatalf("task b did not advance: alertCount=%d", got.alertCount)
	}

	// Gateway recovers; the next tick retries task a.
	sender.mu.Lock()
	sender.failUser[1] = false
	sender.mu.Unlock()
	now = now.Add(time.Minute)
	engine.RunAlertTick(ctx)
	if got := store.task(100); got.alertCount != 1 {
		t.Fatalf("task a not retried: alertCount=%d", got.alertCount)
	}
}

func TestStaleEligibilityIsANoOp(t *testing.T) {
	due := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.addUser(1, "Alice")
	store.addTask(100, 1, "completed mid-flight", due)
	sender := newFakeSender()
	// The owner completes the task between selection and the write.
	sender.onSend = func(models.Contact) { store.complete(100) }
	engine := newTestEngine(t, store, newFakeLedger(), sender, func() time.Time { return due })

	engine.RunAlertTick(context.Background())

	got := store.task(100)
	if got.status != models.StatusDone {
		t.Fatalf("status = %s, want done", got.status)
	}
	if got.alertCount != 0 || got.sentAt[0] != nil {
		t.Fatalf("conditional write applied to completed task: alertCount=%d", got.alertCount)
	}
}

func TestRescheduleDuringFirstAlertSend(t *testing.T) {
	due := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.addUser(1, "Alice")
	store.addTask(100, 1, "moved to tomorrow", due)
	sender := newFakeSender()
	// The owner pushes the task into the future between selection and
	// the write. The no-longer-due task must keep its clean state.
	sender.onSend = func(models.Contact) { store.reschedule(100, due.Add(24*time.Hour)) }
	engine := newTestEngine(t, store, newFakeLedger(), sender, func() time.Time { return due })

	engine.RunAlertTick(context.Background())

	got := store.task(100)
	if got.alertCount != 0 || got.sentAt[0] != nil {
		t.Fatalf("stage 1 recorded against rescheduled task: alertCount=%d firstSent=%v",
			got.alertCount, got.sentAt[0])
	}
}

func TestEndOfDayAtMostOnce(t *testing.T) {
	now := time.Date(2025, 6, 2, 21, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.addUser(1, "Alice")
	store.addTask(100, 1, "done task", now.Add(-2*time.Hour))
	store.tasks[100].status = models.StatusDone
	sender := newFakeSender()
	ledger := newFakeLedger()
	engine := newTestEngine(t, store, ledger, sender, func() time.Time { return now })
	ctx := context.Background()

	// Two overlapping coarse ticks race for the same (user, date).
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine.RunEndOfDayTick(ctx)
		}()
	}
	wg.Wait()

	if sender.count() != 1 {
		t.Fatalf("expected exactly 1 end-of-day send, got %d", sender.count())
	}

	// Later ticks on the same date stay silent.
	engine.RunEndOfDayTick(ctx)
	if sender.count() != 1 {
		t.Fatalf("repeat tick re-sent the reminder: %d", sender.count())
	}
}

func TestEndOfDaySkipsUsersWithPendingTasks(t *testing.T) {
	now := time.Date(2025, 6, 2, 21, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.addUser(1, "Alice")
	store.addTask(100, 1, "done", now.Add(-3*time.Hour))
	store.tasks[100].status = models.StatusDone
	store.addTask(101, 1, "still open", now.Add(-time.Hour))
	sender := newFakeSender()
	engine := newTestEngine(t, store, newFakeLedger(), sender, func() time.Time { return now })

	engine.RunEndOfDayTick(context.Background())
	if sender.count() != 0 {
		t.Fatalf("reminder sent despite pending task: %d", sender.count())
	}
}

func TestEndOfDayClaimLostToGatewayFailure(t *testing.T) {
	now := time.Date(2025, 6, 2, 21, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.addUser(1, "Alice")
	store.addTask(100, 1, "done task", now.Add(-2*time.Hour))
	store.tasks[100].status = models.StatusLate
	sender := newFakeSender()
	sender.failUser[1] = true
	ledger := newFakeLedger()
	engine := newTestEngine(t, store, ledger, sender, func() time.Time { return now })
	ctx := context.Background()

	engine.RunEndOfDayTick(ctx)
	if sender.count() != 0 {
		t.Fatalf("unexpected delivery: %d", sender.count())
	}

	// Claim-before-send: the reminder is forfeit for the day even after
	// the gateway recovers.
	sender.mu.Lock()
	sender.failUser[1] = false
	sender.mu.Unlock()
	engine.RunEndOfDayTick(ctx)
	if sender.count() != 0 {
		t.Fatalf("forfeited reminder was re-sent: %d", sender.count())
	}
}

func TestEligible(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	earlier := now.Add(-10 * time.Minute)
	recent := now.Add(-5 * time.Minute)
	dwell := 10 * time.Minute

	cases := []struct {
		name  string
		c     models.AlertCandidate
		stage int
		want  bool
	}{
		{"stage 1 due now", models.AlertCandidate{AlertCount: 0, DueAt: now}, 1, true},
		{"stage 1 due in future", models.AlertCandidate{AlertCount: 0, DueAt: now.Add(time.Minute)}, 1, false},
		{"stage 1 wrong counter", models.AlertCandidate{AlertCount: 1, DueAt: earlier}, 1, false},
		{"stage 2 dwell elapsed", models.AlertCandidate{AlertCount: 1, LastAlertAt: &earlier}, 2, true},
		{"stage 2 dwell not elapsed", models.AlertCandidate{AlertCount: 1, LastAlertAt: &recent}, 2, false},
		{"stage 2 missing stamp", models.AlertCandidate{AlertCount: 1}, 2, false},
		{"stage 3 dwell elapsed", models.AlertCandidate{AlertCount: 2, LastAlertAt: &earlier}, 3, true},
		{"stage 4 invalid", models.AlertCandidate{AlertCount: 3, LastAlertAt: &earlier}, 4, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Eligible(tc.c, tc.stage, now, dwell); got != tc.want {
				t.Errorf("Eligible() = %v, want %v", got, tc.want)
			}
		})
	}
}
