package escalation

import (
	"context"
	"sync"
	"time"

	"taskmate/internal/logging"
	"taskmate/internal/models"
)

// Store is the slice of the task store the engine reads and
// conditionally mutates.
type Store interface {
	StageEligible(ctx context.Context, stage int, now time.Time, dwell time.Duration) ([]models.AlertCandidate, error)
	AdvanceStage(ctx context.Context, taskID int64, stage int, now time.Time) (bool, error)
	UsersAllDone(ctx context.Context, date string) ([]models.Contact, error)
}

// Ledger records end-of-day reminders at most once per user per date.
type Ledger interface {
	TryClaim(ctx context.Context, userID int64, date string) (bool, error)
}

// Sender delivers one message to one user. A nil error means the
// gateway accepted the message; anything else is treated as a transient
// failure and the work is retried on a later tick.
type Sender interface {
	Send(ctx context.Context, to models.Contact, text string) error
}

// Events receives committed engine effects, for live feeds. All
// callbacks run on engine goroutines and must not block.
type Events interface {
	TaskAlerted(userID, taskID int64, stage int)
	AllTasksDone(userID int64, date string)
}

type noopEvents struct{}

func (noopEvents) TaskAlerted(int64, int64, int) {}
func (noopEvents) AllTasksDone(int64, string)    {}

// Options tune the engine's timing and fan-out.
type Options struct {
	StageDwell  time.Duration // minimum elapsed time between stages
	SendTimeout time.Duration // per-attempt delivery bound
	MaxWorkers  int           // parallel sends per tick
	Events      Events        // optional
	Clock       func() time.Time
}

// Engine is the alert-escalation state machine. Each alert tick walks
// the three stages, sends the due alerts, and records every advance
// through a conditional write; each end-of-day tick claims the ledger
// row before sending. The engine itself holds no state between ticks,
// so overlapping ticks and concurrent instances are safe: a lost
// conditional write is a silent skip, not an error.
type Engine struct {
	store  Store
	ledger Ledger
	sender Sender
	events Events
	logger *logging.Logger
	opts   Options
	now    func() time.Time
}

func New(store Store, ledger Ledger, sender Sender, logger *logging.Logger, opts Options) *Engine {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 1
	}
	if opts.Events == nil {
		opts.Events = noopEvents{}
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:  store,
		ledger: ledger,
		sender: sender,
		events: opts.Events,
		logger: logger,
		opts:   opts,
		now:    now,
	}
}

// RunAlertTick evaluates all three stages once. Per-task failures are
// isolated; the tick always runs to completion.
func (e *Engine) RunAlertTick(ctx context.Context) {
	now := e.now()
	for stage := 1; stage <= models.MaxAlerts; stage++ {
		candidates, err := e.store.StageEligible(ctx, stage, now, e.opts.StageDwell)
		if err != nil {
			e.logger.Errorf("Stage %d eligibility query failed: %v", stage, err)
			continue
		}
		if len(candidates) == 0 {
			continue
		}
		e.dispatch(ctx, stage, now, candidates)
	}
}

// dispatch fans the stage's candidates out over a bounded worker set
// and waits for all of them, so a tick is fully settled when it
// returns.
func (e *Engine) dispatch(ctx context.Context, stage int, now time.Time, candidates []models.AlertCandidate) {
	sem := make(chan struct{}, e.opts.MaxWorkers)
	var wg sync.WaitGroup
	for _, c := range candidates {
		// The query applied the same predicate, but the row may have
		// been read a while ago on a slow tick.
		if !Eligible(c, stage, now, e.opts.StageDwell) {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(c models.AlertCandidate) {
			defer wg.Done()
			defer func() { <-sem }()
			e.sendStage(ctx, stage, c)
		}(c)
	}
	wg.Wait()
}

func (e *Engine) sendStage(ctx context.Context, stage int, c models.AlertCandidate) {
	text := StageMessage(stage, c.User.Name, c.TaskName, c.DueAt)

	sctx, cancel := context.WithTimeout(ctx, e.opts.SendTimeout)
	err := e.sender.Send(sctx, c.User, text)
	cancel()
	if err != nil {
		// Task stays eligible; the next tick retries.
		e.logger.Warnf("Stage %d alert for task %d not delivered, retrying next tick: %v", stage, c.TaskID, err)
		return
	}

	applied, err := e.store.AdvanceStage(ctx, c.TaskID, stage, e.now())
	if err != nil {
		e.logger.Errorf("Stage %d advance for task %d failed: %v", stage, c.TaskID, err)
		return
	}
	if !applied {
		// The row changed between selection and write: completed,
		// edited, or another instance won the race.
		e.logger.Debugf("Stage %d advance for task %d not applied, skipping", stage, c.TaskID)
		return
	}

	e.logger.Infof("Stage %d alert sent for task %d (user %d)", stage, c.TaskID, c.User.UserID)
	e.events.TaskAlerted(c.User.UserID, c.TaskID, stage)
}

// Eligible re-evaluates a stage predicate against a candidate row:
// stage 1 requires the due instant to have passed, stages 2 and 3
// require the previous stage's stamp plus the dwell time.
func Eligible(c models.AlertCandidate, stage int, now time.Time, dwell time.Duration) bool {
	if c.AlertCount != stage-1 {
		return false
	}
	switch stage {
	case 1:
		return !c.DueAt.After(now)
	case 2, 3:
		return c.LastAlertAt != nil && now.Sub(*c.LastAlertAt) >= dwell
	default:
		return false
	}
}

// RunEndOfDayTick sends at most one congratulation per user per date.
// The ledger claim happens strictly before the send: a claim lost to a
// gateway failure is an accepted missed reminder, never a double send.
func (e *Engine) RunEndOfDayTick(ctx context.Context) {
	now := e.now()
	date := now.Format("2006-01-02")

	users, err := e.store.UsersAllDone(ctx, date)
	if err != nil {
		e.logger.Errorf("End-of-day eligibility query failed: %v", err)
		return
	}

	for _, u := range users {
		claimed, err := e.ledger.TryClaim(ctx, u.UserID, date)
		if err != nil {
			e.logger.Errorf("Reminder claim for user %d failed: %v", u.UserID, err)
			continue
		}
		if !claimed {
			// Already sent for this date.
			continue
		}

		sctx, cancel := context.WithTimeout(ctx, e.opts.SendTimeout)
		err = e.sender.Send(sctx, u, EndOfDayMessage(u.Name))
		cancel()
		if err != nil {
			e.logger.Errorf("End-of-day reminder for user %d claimed but not delivered: %v", u.UserID, err)
			continue
		}

		e.logger.Infof("End-of-day reminder sent to user %d for %s", u.UserID, date)
		e.events.AllTasksDone(u.UserID, date)
	}
}
