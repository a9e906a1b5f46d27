package queue

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/publora/publora/internal/dispatch"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/platform"
	"github.com/publora/publora/internal/retry"
	"github.com/publora/publora/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type fakeScheduleRepo struct {
	schedules map[string]*models.Schedule
	outcomes  map[string]models.ResultMap
}

func newFakeScheduleRepo(schedules ...*models.Schedule) *fakeScheduleRepo {
	m := make(map[string]*models.Schedule, len(schedules))
	for _, s := range schedules {
		m[s.ID] = s
	}
	return &fakeScheduleRepo{schedules: m, outcomes: make(map[string]models.ResultMap)}
}

func (f *fakeScheduleRepo) Create(ctx context.Context, tx *sql.Tx, s *models.Schedule) (string, error) {
	return s.ID, nil
}

func (f *fakeScheduleRepo) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	return f.schedules[id], nil
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
	if s, ok := f.schedules[id]; ok && s.Status == models.ScheduleStatusPublishing {
		s.Status = status
		s.Results = results
		f.outcomes[id] = results
	}
	return nil
}

func (f *fakeScheduleRepo) Cancel(ctx context.Context, id string, userID int64) (bool, error) {
	return false, nil
}

type fakeContentRepo struct {
	contents map[int64]*models.Content
}

func (f *fakeContentRepo) Create(ctx context.Context, tx *sql.Tx, c *models.Content) (int64, error) {
	return c.ID, nil
}

func (f *fakeContentRepo) GetByID(ctx context.Context, id int64) (*models.Content, error) {
	return f.contents[id], nil
}

func (f *fakeContentRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Content, error) {
	return nil, nil
}

func (f *fakeContentRepo) CheckByUserID(ctx context.Context, contentID, userID int64) (bool, error) {
	_, ok := f.contents[contentID]
	return ok, nil
}

func (f *fakeContentRepo) Remove(ctx context.Context, id int64) error {
	return nil
}

type fakeAccountSource struct {
	accounts map[string]*models.SocialAccount
}

func (f *fakeAccountSource) GetActive(ctx context.Context, userID int64, platformName string) (*models.SocialAccount, error) {
	return f.accounts[platformName], nil
}

type fakePublisher struct {
	name     string
	detail   string
	fail     bool
	lastPost platform.PostPayload
}

func (f *fakePublisher) Name() string { return f.name }

func (f *fakePublisher) Publish(ctx context.Context, cred platform.Credential, post platform.PostPayload) (string, error) {
	f.lastPost = post
	if f.fail {
		return "", &platform.StatusError{Code: 400, Body: "rejected"}
	}
	return f.detail, nil
}

func testExecutor(t *testing.T, publishers ...*fakePublisher) *dispatch.Executor {
	t.Helper()

	reg := platform.NewRegistry()
	accounts := make(map[string]*models.SocialAccount, len(publishers))
	for _, p := range publishers {
		reg.Register(p)

		encrypted, err := utils.Encrypt([]byte("token"), testKey)
		require.NoError(t, err)
		accounts[p.name] = &models.SocialAccount{
			UserID:      1,
			Platform:    p.name,
			AccountID:   "acct",
			AccessToken: encrypted,
		}
	}

	policy := retry.Policy{
		MaxAttempts: 1,
		BaseDelay:   time.Millisecond,
		Retryable:   platform.IsTransient,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}

	return dispatch.NewExecutor(&fakeAccountSource{accounts: accounts}, reg, policy, testKey, 4, nil)
}

func publishingSchedule(id string) *models.Schedule {
	return &models.Schedule{
		ID:        id,
		UserID:    1,
		Status:    models.ScheduleStatusPublishing,
		Caption:   "hello world",
		Platforms: pq.StringArray{"alpha"},
	}
}

func TestExecuteSchedulePersistsOutcome(t *testing.T) {
	sched := publishingSchedule("s-1")
	repo := newFakeScheduleRepo(sched)
	exec := testExecutor(t, &fakePublisher{name: "alpha", detail: "text_success"})

	w := NewWorker(repo, &fakeContentRepo{}, exec, nil)
	require.NoError(t, w.ExecuteSchedule(context.Background(), "s-1"))

	assert.Equal(t, models.ScheduleStatusPublished, sched.Status)
	assert.Equal(t, models.ResultMap{"alpha": "text_success"}, repo.outcomes["s-1"])
}

func TestExecuteScheduleRecordsFailure(t *testing.T) {
	sched := publishingSchedule("s-1")
	repo := newFakeScheduleRepo(sched)
	exec := testExecutor(t, &fakePublisher{name: "alpha", fail: true})

	w := NewWorker(repo, &fakeContentRepo{}, exec, nil)
	require.NoError(t, w.ExecuteSchedule(context.Background(), "s-1"))

	assert.Equal(t, models.ScheduleStatusFailed, sched.Status)
	assert.Contains(t, repo.outcomes["s-1"]["alpha"], "error:")
}

func TestExecuteScheduleSkipsTerminalStates(t *testing.T) {
	sched := publishingSchedule("s-1")
	sched.Status = models.ScheduleStatusPublished
	repo := newFakeScheduleRepo(sched)

	pub := &fakePublisher{name: "alpha", detail: "text_success"}
	w := NewWorker(repo, &fakeContentRepo{}, testExecutor(t, pub), nil)

	require.NoError(t, w.ExecuteSchedule(context.Background(), "s-1"))
	assert.Equal(t, models.ScheduleStatusPublished, sched.Status)
	assert.Empty(t, repo.outcomes)
}

func TestExecuteScheduleDropsMissingSchedules(t *testing.T) {
	repo := newFakeScheduleRepo()
	w := NewWorker(repo, &fakeContentRepo{}, testExecutor(t), nil)

	require.NoError(t, w.ExecuteSchedule(context.Background(), "gone"))
}

func TestExecuteScheduleComposesContentMessage(t *testing.T) {
	sched := publishingSchedule("s-1")
	sched.Caption = ""
	sched.ContentID = sql.NullInt64{Int64: 7, Valid: true}
	repo := newFakeScheduleRepo(sched)

	contents := &fakeContentRepo{contents: map[int64]*models.Content{
		7: {
			ID:           7,
			UserID:       1,
			Caption:      "Big launch",
			CallToAction: "Visit our site",
			Hashtags:     pq.StringArray{"#launch", "#go"},
		},
	}}

	pub := &fakePublisher{name: "alpha", detail: "text_success"}
	w := NewWorker(repo, contents, testExecutor(t, pub), nil)

	require.NoError(t, w.ExecuteSchedule(context.Background(), "s-1"))
	assert.Equal(t, "Big launch\n\nVisit our site\n\n#launch #go", pub.lastPost.Message)
}

func TestExecuteScheduleFailsWhenContentMissing(t *testing.T) {
	sched := publishingSchedule("s-1")
	sched.ContentID = sql.NullInt64{Int64: 99, Valid: true}
	repo := newFakeScheduleRepo(sched)

	w := NewWorker(repo, &fakeContentRepo{}, testExecutor(t), nil)

	require.NoError(t, w.ExecuteSchedule(context.Background(), "s-1"))
	assert.Equal(t, models.ScheduleStatusFailed, sched.Status)
	assert.Contains(t, repo.outcomes["s-1"]["error"], "content not found")
}
