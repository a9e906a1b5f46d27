package queue

import (
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

// EnqueueSchedule hands one claimed schedule to the worker pool. The task
// id is derived from the schedule id so replays (startup reconciliation)
// collapse onto the pending task instead of duplicating it.
func EnqueueSchedule(asynqClient *asynq.Client, payload PublishSchedulePayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishSchedule, taskPayload)

	_, err = asynqClient.Enqueue(task, asynq.TaskID("schedule:"+payload.ScheduleID))
	if err != nil {
		return err
	}

	log.Printf("Task enqueued: %+v", payload)
	return nil
}
