package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"
	"github.com/publora/publora/internal/models"
)

type ContentRepository interface {
	Create(ctx context.Context, tx *sql.Tx, c *models.Content) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Content, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Content, error)
	CheckByUserID(ctx context.Context, contentID, userID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type contentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) ContentRepository {
	return &contentRepository{db: db}
}

const contentColumns = `id, user_id, title, caption, call_to_action, hashtags, image_url, video_url, created_at, updated_at`

func (r *contentRepository) Create(ctx context.Context, tx *sql.Tx, c *models.Content) (int64, error) {
	query := `
		INSERT INTO contents (user_id, title, caption, call_to_action, hashtags, image_url, video_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	var err error

	args := []interface{}{c.UserID, c.Title, c.Caption, c.CallToAction, pq.Array([]string(c.Hashtags)), c.ImageURL, c.VideoURL}

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *contentRepository) GetByID(ctx context.Context, id int64) (*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var c models.Content
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.Caption, &c.CallToAction, &c.Hashtags,
		&c.ImageURL, &c.VideoURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &c, nil
}

func (r *contentRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var contents []*models.Content
	for rows.Next() {
		var c models.Content
		err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Caption, &c.CallToAction, &c.Hashtags,
			&c.ImageURL, &c.VideoURL, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		contents = append(contents, &c)
	}
	return contents, nil
}

func (r *contentRepository) CheckByUserID(ctx context.Context, contentID, userID int64) (bool, error) {
	query := "SELECT 1 FROM contents WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, contentID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *contentRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM contents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
