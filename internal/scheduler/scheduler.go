package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"taskmate/internal/logging"
)

// Scheduler owns the service's periodic activities: registration,
// start, and a Stop that waits for in-flight jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *logging.Logger
}

func New(logger *logging.Logger) *Scheduler {
	return &Scheduler{cron: cron.New(), logger: logger}
}

// Every registers job to run at the given interval. Jobs must tolerate
// overlapping runs; the scheduler does not serialize them.
func (s *Scheduler) Every(interval time.Duration, name string, job func()) error {
	if interval < time.Second {
		return fmt.Errorf("interval for %s must be at least a second, got %v", name, interval)
	}
	spec := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		job()
		s.logger.Debugf("%s tick finished in %v", name, time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.logger.Infof("Scheduled %s every %v", name, interval)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts ticking and blocks until running jobs finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
