package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/platform"
	"github.com/publora/publora/internal/repository"
	"github.com/publora/publora/internal/transfer"
)

type ScheduleService interface {
	Create(ctx context.Context, userID int64, sc *transfer.ScheduleCreation) (string, error)
	List(ctx context.Context, userID int64) ([]*models.Schedule, error)
	ScheduleInfo(ctx context.Context, scheduleID string, userID int64) (*models.Schedule, error)
	Cancel(ctx context.Context, scheduleID string, userID int64) error
}

type scheduleService struct {
	sr  repository.ScheduleRepository
	cr  repository.ContentRepository
	reg *platform.Registry
}

func NewScheduleService(sr repository.ScheduleRepository, cr repository.ContentRepository, reg *platform.Registry) ScheduleService {
	return &scheduleService{
		sr:  sr,
		cr:  cr,
		reg: reg,
	}
}

func (s *scheduleService) Create(ctx context.Context, userID int64, sc *transfer.ScheduleCreation) (string, error) {
	var err error

	if sc == nil {
		err = errors.New("schedule creation data is nil")
		slog.Info(err.Error())
		return "", err
	}

	platforms := s.reg.Normalize(sc.Platforms)
	if len(platforms) == 0 {
		err = errors.New("no platforms selected")
		slog.Info(err.Error())
		return "", err
	}
	for _, name := range platforms {
		if _, ok := s.reg.Publisher(name); !ok {
			err = fmt.Errorf("unknown platform: %s", name)
			slog.Info(err.Error())
			return "", err
		}
	}

	runAt, err := time.Parse(time.RFC3339, sc.RunAt)
	if err != nil {
		err = fmt.Errorf("invalid run time format: %w", err)
		slog.Info(err.Error())
		return "", err
	}

	var contentID sql.NullInt64
	if sc.ContentID != nil {
		exists, err := s.cr.CheckByUserID(ctx, *sc.ContentID, userID)
		if err != nil {
			return "", err
		}
		if !exists {
			err = errors.New("content doesn't exist")
			slog.Info(err.Error())
			return "", err
		}
		contentID = sql.NullInt64{Int64: *sc.ContentID, Valid: true}
	} else if sc.Caption == "" && sc.ImageURL == "" && sc.VideoURL == "" {
		err = errors.New("schedule has nothing to publish")
		slog.Info(err.Error())
		return "", err
	}

	timezone := sc.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	schedule := models.Schedule{
		ID:        uuid.NewString(),
		UserID:    userID,
		ContentID: contentID,
		Caption:   sc.Caption,
		Title:     sc.Title,
		ImageURL:  sc.ImageURL,
		VideoURL:  sc.VideoURL,
		Platforms: pq.StringArray(platforms),
		RunAt:     runAt.UTC(),
		Timezone:  timezone,
		Status:    models.ScheduleStatusUpcoming,
	}

	id, err := s.sr.Create(ctx, nil, &schedule)
	if err != nil {
		return "", fmt.Errorf("error creating schedule: %w", err)
	}

	return id, nil
}

func (s *scheduleService) List(ctx context.Context, userID int64) ([]*models.Schedule, error) {
	schedules, err := s.sr.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting schedules")
	}
	return schedules, nil
}

func (s *scheduleService) ScheduleInfo(ctx context.Context, scheduleID string, userID int64) (*models.Schedule, error) {
	var err error

	if scheduleID == "" {
		err = errors.New("schedule id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	schedule, err := s.sr.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("Error getting schedule info")
	}

	if schedule == nil || schedule.UserID != userID {
		err = errors.New("Schedule doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	return schedule, nil
}

// Cancel withdraws an upcoming schedule. Once the scheduler has claimed
// it the publication is already in flight and can no longer be stopped.
func (s *scheduleService) Cancel(ctx context.Context, scheduleID string, userID int64) error {
	var err error

	if scheduleID == "" {
		err = errors.New("schedule id is not valid")
		slog.Info(err.Error())
		return err
	}

	cancelled, err := s.sr.Cancel(ctx, scheduleID, userID)
	if err != nil {
		return fmt.Errorf("Error cancelling schedule")
	}

	if !cancelled {
		err = errors.New("schedule is no longer upcoming")
		slog.Info(err.Error())
		return err
	}

	return nil
}
