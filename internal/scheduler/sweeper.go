// Package scheduler drives the publication loop: a cron-invoked sweep
// claims due schedules and hands them to the worker pool, and a startup
// recovery pass re-arms schedules a previous process left in flight.
package scheduler

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/publora/publora/internal/queue"
	"github.com/publora/publora/internal/repository"
)

type Sweeper struct {
	sr      repository.ScheduleRepository
	clock   func() time.Time
	enqueue func(scheduleID string) error
}

func NewSweeper(sr repository.ScheduleRepository, client *asynq.Client) *Sweeper {
	return &Sweeper{
		sr:    sr,
		clock: time.Now,
		enqueue: func(scheduleID string) error {
			return queue.EnqueueSchedule(client, queue.PublishSchedulePayload{ScheduleID: scheduleID})
		},
	}
}

// ProcessDueSchedules is invoked by cron on every tick. Each due schedule
// is claimed with an optimistic status update before enqueueing, so
// overlapping ticks and concurrent process instances never dispatch the
// same schedule twice. One schedule's failure never stops the sweep.
func (s *Sweeper) ProcessDueSchedules() {
	ctx := context.Background()
	now := s.clock().UTC()

	due, err := s.sr.ListDue(ctx, now)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if len(due) == 0 {
		return
	}

	log.Printf("Found %d due schedules at %s", len(due), now.Format(time.RFC3339))

	for _, sched := range due {
		claimed, err := s.sr.Claim(ctx, sched.ID)
		if err != nil {
			slog.Info(err.Error())
			continue
		}
		if !claimed {
			// Another tick or a cancellation got there first.
			continue
		}

		if err := s.enqueueOnce(sched.ID); err != nil {
			slog.Info(err.Error())
			// Put the schedule back so the next tick can retry the
			// hand-off.
			if rerr := s.sr.Release(ctx, sched.ID); rerr != nil {
				slog.Info(rerr.Error())
			}
		}
	}
}

// Recover re-arms schedules stuck in the publishing state, typically
// after a crash between claim and completion. The worker's terminal-state
// check makes replays of already-finished work harmless.
func (s *Sweeper) Recover(ctx context.Context) error {
	ids, err := s.sr.ListInFlight(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	log.Printf("Re-enqueueing %d in-flight schedules", len(ids))
	for _, id := range ids {
		if err := s.enqueueOnce(id); err != nil {
			slog.Info(err.Error())
		}
	}
	return nil
}

func (s *Sweeper) enqueueOnce(scheduleID string) error {
	err := s.enqueue(scheduleID)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		// Already pending in the queue.
		return nil
	}
	return err
}
