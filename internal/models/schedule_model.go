package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

type Schedule struct {
	ID        string         `db:"id" json:"id"`
	UserID    int64          `db:"user_id" json:"user_id"`
	ContentID sql.NullInt64  `db:"content_id" json:"content_id,omitempty"`
	Caption   string         `db:"caption" json:"caption"`
	Title     string         `db:"title" json:"title"`
	ImageURL  string         `db:"image_url" json:"image_url"`
	VideoURL  string         `db:"video_url" json:"video_url"`
	Platforms pq.StringArray `db:"platforms" json:"platforms"`
	RunAt     time.Time      `db:"run_at" json:"run_at"`
	Timezone  string         `db:"timezone" json:"timezone"`
	Status    string         `db:"status" json:"status"`
	Results   ResultMap      `db:"results" json:"results"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	ScheduleStatusUpcoming   = "upcoming"
	ScheduleStatusPublishing = "publishing"
	ScheduleStatusPublished  = "published"
	ScheduleStatusFailed     = "failed"
	ScheduleStatusCancelled  = "cancelled"
)

// ResultMap is the per-platform outcome ledger, stored as JSONB.
type ResultMap map[string]string

func (m ResultMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *ResultMap) Scan(src interface{}) error {
	if src == nil {
		*m = ResultMap{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.New("results column is not []byte")
	}
	return json.Unmarshal(b, m)
}
