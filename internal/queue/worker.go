package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/publora/publora/internal/dispatch"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/platform"
)

func (w *Worker) HandlePublishScheduleTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishSchedulePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return w.ExecuteSchedule(ctx, payload.ScheduleID)
}

// ExecuteSchedule runs the full pipeline for one claimed schedule: resolve
// the payload, fan out to every requested platform, reduce the results and
// persist the outcome. A replayed task for a schedule that already reached
// a terminal state is a no-op.
func (w *Worker) ExecuteSchedule(ctx context.Context, scheduleID string) error {
	sched, err := w.sr.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if sched == nil {
		log.Printf("Schedule %s no longer exists, dropping task", scheduleID)
		return nil
	}
	if sched.Status != models.ScheduleStatusPublishing {
		log.Printf("Schedule %s is %s, skipping", scheduleID, sched.Status)
		return nil
	}

	post, err := w.composePayload(ctx, sched)
	if err != nil {
		// The referenced content is gone; retrying cannot fix that.
		results := models.ResultMap{"error": err.Error()}
		if uerr := w.sr.SetOutcome(ctx, sched.ID, models.ScheduleStatusFailed, results); uerr != nil {
			return uerr
		}
		w.sink.PublishOutcome(models.ScheduleStatusFailed)
		return nil
	}

	results := w.exec.Publish(ctx, sched.UserID, sched.Platforms, post)
	status := dispatch.ReducePublish(results)

	if err := w.sr.SetOutcome(ctx, sched.ID, status, dispatch.Ledger(results)); err != nil {
		return err
	}

	w.sink.PublishOutcome(status)
	log.Printf("Schedule %s finished as %s", sched.ID, status)
	return nil
}

// composePayload resolves the referenced content record, falling back to
// the schedule's inline fields when none is set.
func (w *Worker) composePayload(ctx context.Context, sched *models.Schedule) (platform.PostPayload, error) {
	if !sched.ContentID.Valid {
		return platform.PostPayload{
			Message:  sched.Caption,
			Title:    sched.Title,
			ImageURL: sched.ImageURL,
			VideoURL: sched.VideoURL,
		}, nil
	}

	content, err := w.cr.GetByID(ctx, sched.ContentID.Int64)
	if err != nil {
		return platform.PostPayload{}, err
	}
	if content == nil {
		return platform.PostPayload{}, errors.New("content not found")
	}

	return platform.PostPayload{
		Message:  composeMessage(content),
		Title:    content.Title,
		ImageURL: content.ImageURL,
		VideoURL: content.VideoURL,
	}, nil
}

// composeMessage builds the outgoing text: caption, call to action and
// hashtags separated by blank lines, skipping empty sections.
func composeMessage(content *models.Content) string {
	parts := make([]string, 0, 3)
	if content.Caption != "" {
		parts = append(parts, content.Caption)
	}
	if content.CallToAction != "" {
		parts = append(parts, content.CallToAction)
	}
	if len(content.Hashtags) > 0 {
		parts = append(parts, strings.Join(content.Hashtags, " "))
	}
	return strings.Join(parts, "\n\n")
}
