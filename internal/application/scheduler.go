package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) (model.RunResult, error)
}

// runRequest represents a manual run trigger.
type runRequest struct {
	done chan runOutcome
}

type runOutcome struct {
	result model.RunResult
	err    error
}

var scheduleParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseSchedule parses a six-field cron expression with a leading seconds
// field, e.g. "0 0 7 * * 0" for 07:00:00 every Sunday.
func ParseSchedule(expr string) (cron.Schedule, error) {
	s, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, err)
	}
	return s, nil
}

// ScheduleService fires runs on a cron schedule and on manual triggers. Both
// kinds execute on the Start goroutine, so runs never overlap.
type ScheduleService struct {
	runner    Runner
	schedule  cron.Schedule
	location  *time.Location
	triggerCh chan runRequest
	now       func() time.Time
}

// NewScheduleService creates a ScheduleService. expr is evaluated in loc.
func NewScheduleService(runner Runner, expr string, loc *time.Location) (*ScheduleService, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ScheduleService{
		runner:    runner,
		schedule:  schedule,
		location:  loc,
		triggerCh: make(chan runRequest),
		now:       time.Now,
	}, nil
}

// Next returns the first scheduled fire time after t.
func (s *ScheduleService) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.location))
}

// Start runs the schedule loop until ctx is canceled. It does not run at
// startup; the first run happens at the next scheduled time or trigger.
func (s *ScheduleService) Start(ctx context.Context) {
	for {
		next := s.Next(s.now())
		slog.Info("next scheduled run", "at", next)
		timer := time.NewTimer(next.Sub(s.now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("schedule service stopped")
			return
		case <-timer.C:
			if _, err := s.runner.Run(ctx); err != nil {
				slog.Error("scheduled run failed", "error", err)
			}
		case req := <-s.triggerCh:
			timer.Stop()
			result, err := s.runner.Run(ctx)
			req.done <- runOutcome{result: result, err: err}
		}
	}
}

// TriggerNow queues a manual run and waits for its result. It blocks while a
// scheduled run is in progress, and returns ctx.Err() if ctx ends first.
func (s *ScheduleService) TriggerNow(ctx context.Context) (model.RunResult, error) {
	done := make(chan runOutcome, 1)

	select {
	case s.triggerCh <- runRequest{done: done}:
	case <-ctx.Done():
		return model.RunResult{}, ctx.Err()
	}

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return model.RunResult{}, ctx.Err()
	}
}
