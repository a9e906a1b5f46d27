package models

import (
	"time"

	"github.com/lib/pq"
)

type Content struct {
	ID           int64          `db:"id" json:"id"`
	UserID       int64          `db:"user_id" json:"user_id"`
	Title        string         `db:"title" json:"title"`
	Caption      string         `db:"caption" json:"caption"`
	CallToAction string         `db:"call_to_action" json:"call_to_action"`
	Hashtags     pq.StringArray `db:"hashtags" json:"hashtags"`
	ImageURL     string         `db:"image_url" json:"image_url"`
	VideoURL     string         `db:"video_url" json:"video_url"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

type MediaAsset struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	FileURL   string    `db:"file_url" json:"file_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
