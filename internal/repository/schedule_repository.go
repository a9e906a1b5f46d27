package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/publora/publora/internal/models"
)

type ScheduleRepository interface {
	Create(ctx context.Context, tx *sql.Tx, s *models.Schedule) (string, error)
	GetByID(ctx context.Context, id string) (*models.Schedule, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Schedule, error)
	// ListDue returns schedules whose run time has passed and whose status
	// is still upcoming. Read-only; safe to call on every tick.
	ListDue(ctx context.Context, now time.Time) ([]*models.Schedule, error)
	// Claim atomically moves a schedule from upcoming to publishing.
	// Returns false when another tick (or a cancellation) got there first.
	Claim(ctx context.Context, id string) (bool, error)
	// Release undoes a claim whose hand-off to the queue failed.
	Release(ctx context.Context, id string) error
	// ListInFlight returns ids of schedules stuck in publishing, for
	// startup reconciliation.
	ListInFlight(ctx context.Context) ([]string, error)
	// SetOutcome persists the aggregate status and the per-platform
	// ledger. Only a publishing row is updated; terminal rows never move.
	SetOutcome(ctx context.Context, id, status string, results models.ResultMap) error
	// Cancel flips an upcoming schedule to cancelled. Returns false once
	// the schedule has been claimed or finished.
	Cancel(ctx context.Context, id string, userID int64) (bool, error)
}

type scheduleRepository struct {
	db *sql.DB
}

func NewScheduleRepository(db *sql.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

const scheduleColumns = `id, user_id, content_id, caption, title, image_url, video_url, platforms, run_at, timezone, status, results, created_at, updated_at`

func (r *scheduleRepository) Create(ctx context.Context, tx *sql.Tx, s *models.Schedule) (string, error) {
	query := `
		INSERT INTO schedules (id, user_id, content_id, caption, title, image_url, video_url, platforms, run_at, timezone, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	var id string
	var err error

	args := []interface{}{
		s.ID, s.UserID, s.ContentID, s.Caption, s.Title, s.ImageURL, s.VideoURL,
		pq.Array([]string(s.Platforms)), s.RunAt, s.Timezone, models.ScheduleStatusUpcoming,
	}

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return id, nil
}

func (r *scheduleRepository) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	s, err := scanSchedule(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return s, nil
}

func (r *scheduleRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE user_id = $1 ORDER BY run_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectSchedules(rows)
}

func (r *scheduleRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE status = $1 AND run_at <= $2 ORDER BY run_at`
	rows, err := r.db.QueryContext(ctx, query, models.ScheduleStatusUpcoming, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectSchedules(rows)
}

func (r *scheduleRepository) Claim(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE schedules
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query, models.ScheduleStatusPublishing, id, models.ScheduleStatusUpcoming)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *scheduleRepository) Release(ctx context.Context, id string) error {
	query := `
		UPDATE schedules
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.ScheduleStatusUpcoming, id, models.ScheduleStatusPublishing)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduleRepository) ListInFlight(ctx context.Context) ([]string, error) {
	query := `SELECT id FROM schedules WHERE status = $1`
	rows, err := r.db.QueryContext(ctx, query, models.ScheduleStatusPublishing)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return ids, nil
}

func (r *scheduleRepository) SetOutcome(ctx context.Context, id, status string, results models.ResultMap) error {
	query := `
		UPDATE schedules
		SET status = $1, results = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND status = $4
	`
	_, err := r.db.ExecContext(ctx, query, status, results, id, models.ScheduleStatusPublishing)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduleRepository) Cancel(ctx context.Context, id string, userID int64) (bool, error) {
	query := `
		UPDATE schedules
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND user_id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.ScheduleStatusCancelled, id, userID, models.ScheduleStatusUpcoming)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSchedule(row rowScanner) (*models.Schedule, error) {
	var s models.Schedule
	err := row.Scan(&s.ID, &s.UserID, &s.ContentID, &s.Caption, &s.Title, &s.ImageURL, &s.VideoURL,
		&s.Platforms, &s.RunAt, &s.Timezone, &s.Status, &s.Results, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSchedules(rows *sql.Rows) ([]*models.Schedule, error) {
	var schedules []*models.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return schedules, nil
}
