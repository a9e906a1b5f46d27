package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/platform"
	"github.com/publora/publora/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduleRepo struct {
	created   *models.Schedule
	cancelled bool
}

func (f *fakeScheduleRepo) Create(ctx context.Context, tx *sql.Tx, s *models.Schedule) (string, error) {
	f.created = s
	return s.ID, nil
}

func (f *fakeScheduleRepo) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	return nil, nil
}

func (f *fakeScheduleRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Schedule, error) {
	return nil, nil
}

func (f *fakeScheduleRepo) ListDue(ctx context.Context, now time.Time) ([]*models.Schedule, error) {
	return nil, nil
}

func (f *fakeScheduleRepo) Claim(ctx context.Context, id string) (bool, error) {
	return false, nil
}

func (f *fakeScheduleRepo) Release(ctx context.Context, id string) error {
	return nil
}

func (f *fakeScheduleRepo) ListInFlight(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeScheduleRepo) SetOutcome(ctx context.Context, id, status string, results models.ResultMap) error {
	return nil
}

func (f *fakeScheduleRepo) Cancel(ctx context.Context, id string, userID int64) (bool, error) {
	return f.cancelled, nil
}

type fakeContentRepo struct {
	owned map[int64]bool
}

func (f *fakeContentRepo) Create(ctx context.Context, tx *sql.Tx, c *models.Content) (int64, error) {
	return 1, nil
}

func (f *fakeContentRepo) GetByID(ctx context.Context, id int64) (*models.Content, error) {
	return nil, nil
}

func (f *fakeContentRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Content, error) {
	return nil, nil
}

func (f *fakeContentRepo) CheckByUserID(ctx context.Context, contentID, userID int64) (bool, error) {
	return f.owned[contentID], nil
}

func (f *fakeContentRepo) Remove(ctx context.Context, id int64) error {
	return nil
}

type namedStub struct{ name string }

func (s *namedStub) Name() string { return s.name }

func (s *namedStub) Publish(ctx context.Context, cred platform.Credential, post platform.PostPayload) (string, error) {
	return "success", nil
}

func scheduleTestRegistry(names ...string) *platform.Registry {
	reg := platform.NewRegistry()
	for _, n := range names {
		reg.Register(&namedStub{name: n})
	}
	reg.Alias("x", "twitter")
	return reg
}

func TestCreateScheduleNormalizesPlatforms(t *testing.T) {
	repo := &fakeScheduleRepo{}
	s := NewScheduleService(repo, &fakeContentRepo{}, scheduleTestRegistry("twitter", "facebook"))

	id, err := s.Create(context.Background(), 1, &transfer.ScheduleCreation{
		Caption:   "hello",
		Platforms: []string{"X", "Facebook", "twitter"},
		RunAt:     "2026-03-01T12:00:00Z",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.NotNil(t, repo.created)
	assert.Equal(t, []string{"twitter", "facebook"}, []string(repo.created.Platforms))
	assert.Equal(t, models.ScheduleStatusUpcoming, repo.created.Status)
	assert.Equal(t, "UTC", repo.created.Timezone)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), repo.created.RunAt)
}

func TestCreateScheduleRejectsEmptyPlatforms(t *testing.T) {
	s := NewScheduleService(&fakeScheduleRepo{}, &fakeContentRepo{}, scheduleTestRegistry())

	_, err := s.Create(context.Background(), 1, &transfer.ScheduleCreation{
		Caption: "hello",
		RunAt:   "2026-03-01T12:00:00Z",
	})

	assert.Error(t, err)
}

func TestCreateScheduleRejectsUnknownPlatform(t *testing.T) {
	s := NewScheduleService(&fakeScheduleRepo{}, &fakeContentRepo{}, scheduleTestRegistry("twitter"))

	_, err := s.Create(context.Background(), 1, &transfer.ScheduleCreation{
		Caption:   "hello",
		Platforms: []string{"myspace"},
		RunAt:     "2026-03-01T12:00:00Z",
	})

	assert.ErrorContains(t, err, "unknown platform")
}

func TestCreateScheduleRejectsBadRunAt(t *testing.T) {
	s := NewScheduleService(&fakeScheduleRepo{}, &fakeContentRepo{}, scheduleTestRegistry("twitter"))

	_, err := s.Create(context.Background(), 1, &transfer.ScheduleCreation{
		Caption:   "hello",
		Platforms: []string{"twitter"},
		RunAt:     "tomorrow at noon",
	})

	assert.ErrorContains(t, err, "invalid run time")
}

func TestCreateScheduleChecksContentOwnership(t *testing.T) {
	contentID := int64(7)
	s := NewScheduleService(&fakeScheduleRepo{}, &fakeContentRepo{owned: map[int64]bool{}}, scheduleTestRegistry("twitter"))

	_, err := s.Create(context.Background(), 1, &transfer.ScheduleCreation{
		ContentID: &contentID,
		Platforms: []string{"twitter"},
		RunAt:     "2026-03-01T12:00:00Z",
	})

	assert.ErrorContains(t, err, "doesn't exist")
}

func TestCreateScheduleRejectsEmptyPayload(t *testing.T) {
	s := NewScheduleService(&fakeScheduleRepo{}, &fakeContentRepo{}, scheduleTestRegistry("twitter"))

	_, err := s.Create(context.Background(), 1, &transfer.ScheduleCreation{
		Platforms: []string{"twitter"},
		RunAt:     "2026-03-01T12:00:00Z",
	})

	assert.ErrorContains(t, err, "nothing to publish")
}

func TestCancelScheduleAfterClaim(t *testing.T) {
	s := NewScheduleService(&fakeScheduleRepo{cancelled: false}, &fakeContentRepo{}, scheduleTestRegistry())

	err := s.Cancel(context.Background(), "s-1", 1)
	assert.ErrorContains(t, err, "no longer upcoming")
}

func TestCancelScheduleUpcoming(t *testing.T) {
	s := NewScheduleService(&fakeScheduleRepo{cancelled: true}, &fakeContentRepo{}, scheduleTestRegistry())

	assert.NoError(t, s.Cancel(context.Background(), "s-1", 1))
}
