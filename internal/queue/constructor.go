package queue

import (
	"github.com/publora/publora/internal/dispatch"
	"github.com/publora/publora/internal/metrics"
	"github.com/publora/publora/internal/repository"
)

// Worker executes claimed schedules delivered through the task queue.
type Worker struct {
	sr   repository.ScheduleRepository
	cr   repository.ContentRepository
	exec *dispatch.Executor
	sink metrics.Sink
}

func NewWorker(
	sr repository.ScheduleRepository,
	cr repository.ContentRepository,
	exec *dispatch.Executor,
	sink metrics.Sink) *Worker {
	if sink == nil {
		sink = metrics.Noop{}
	}
	return &Worker{
		sr:   sr,
		cr:   cr,
		exec: exec,
		sink: sink,
	}
}

const TaskTypePublishSchedule = "schedule:publish"

type PublishSchedulePayload struct {
	ScheduleID string `json:"schedule_id"`
}
