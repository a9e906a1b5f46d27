package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/publora/publora/internal/dispatch"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/platform"
	"github.com/publora/publora/internal/retry"
	"github.com/publora/publora/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type fakeSocialAccountRepo struct {
	active []*models.SocialAccount
}

func (f *fakeSocialAccountRepo) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	return 0, nil
}

func (f *fakeSocialAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	return nil, nil
}

func (f *fakeSocialAccountRepo) GetActive(ctx context.Context, userID int64, platformName string) (*models.SocialAccount, error) {
	for _, acc := range f.active {
		if acc.Platform == platformName {
			return acc, nil
		}
	}
	return nil, nil
}

func (f *fakeSocialAccountRepo) ListActiveByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	return f.active, nil
}

func (f *fakeSocialAccountRepo) ListInfoByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	return f.active, nil
}

func (f *fakeSocialAccountRepo) ListByTimeInterval(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (f *fakeSocialAccountRepo) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	return false, nil
}

func (f *fakeSocialAccountRepo) SetToken(ctx context.Context, userID int64, oldAccessToken string, sa *models.SocialAccount) error {
	return nil
}

func (f *fakeSocialAccountRepo) Remove(ctx context.Context, id int64) error {
	return nil
}

type fakeFetcher struct {
	name string
	res  platform.MetricsResult
	err  error
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) FetchMetrics(ctx context.Context, cred platform.Credential) (platform.MetricsResult, error) {
	if f.err != nil {
		return platform.MetricsResult{}, f.err
	}
	return f.res, nil
}

func encryptedAccount(t *testing.T, platformName string) *models.SocialAccount {
	t.Helper()
	encrypted, err := utils.Encrypt([]byte("token"), testKey)
	require.NoError(t, err)
	return &models.SocialAccount{
		UserID:      1,
		Platform:    platformName,
		AccountID:   "acct",
		AccessToken: encrypted,
	}
}

func insightsExecutor(repo *fakeSocialAccountRepo, fetchers ...*fakeFetcher) *dispatch.Executor {
	reg := platform.NewRegistry()
	for _, f := range fetchers {
		reg.Register(f)
	}

	policy := retry.Policy{
		MaxAttempts: 1,
		Retryable:   platform.IsTransient,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}

	return dispatch.NewExecutor(repo, reg, policy, testKey, 4, nil)
}

func TestOverviewMergesAcrossPlatforms(t *testing.T) {
	repo := &fakeSocialAccountRepo{active: []*models.SocialAccount{
		encryptedAccount(t, "facebook"),
		encryptedAccount(t, "twitter"),
	}}

	exec := insightsExecutor(repo,
		&fakeFetcher{name: "facebook", res: platform.MetricsResult{Views: 100, Clicks: 4}},
		&fakeFetcher{name: "twitter", res: platform.MetricsResult{Views: 50, Clicks: 6}},
	)

	s := NewInsightsService(repo, exec)
	overview, err := s.Overview(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, int64(150), overview.Totals.Views)
	assert.Equal(t, int64(10), overview.Totals.Clicks)
	assert.InDelta(t, 6.67, overview.Totals.CTR, 0.01)
}

func TestOverviewKeepsFailedPlatformListed(t *testing.T) {
	repo := &fakeSocialAccountRepo{active: []*models.SocialAccount{
		encryptedAccount(t, "facebook"),
		encryptedAccount(t, "youtube"),
	}}

	exec := insightsExecutor(repo,
		&fakeFetcher{name: "facebook", res: platform.MetricsResult{Views: 100, Clicks: 4}},
		&fakeFetcher{name: "youtube", err: errors.New("token expired")},
	)

	s := NewInsightsService(repo, exec)
	overview, err := s.Overview(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, int64(100), overview.Totals.Views)
	require.Len(t, overview.Platforms, 2)
	assert.False(t, overview.Platforms[1].OK)
}

func TestOverviewWithoutConnectedPlatforms(t *testing.T) {
	repo := &fakeSocialAccountRepo{}
	exec := insightsExecutor(repo)

	s := NewInsightsService(repo, exec)
	_, err := s.Overview(context.Background(), 1)

	assert.ErrorIs(t, err, ErrNoConnectedPlatforms)
}
