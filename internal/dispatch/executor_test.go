package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/platform"
	"github.com/publora/publora/internal/retry"
	"github.com/publora/publora/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type fakeAccountSource struct {
	accounts map[string]*models.SocialAccount
}

func (f *fakeAccountSource) GetActive(ctx context.Context, userID int64, platformName string) (*models.SocialAccount, error) {
	return f.accounts[platformName], nil
}

type fakePublisher struct {
	name    string
	detail  string
	err     error
	panics  bool
	mu      sync.Mutex
	calls   int
	failFor int
}

func (f *fakePublisher) Name() string { return f.name }

func (f *fakePublisher) Publish(ctx context.Context, cred platform.Credential, post platform.PostPayload) (string, error) {
	f.mu.Lock()
	f.calls++
	calls := f.calls
	f.mu.Unlock()

	if f.panics {
		panic("adapter exploded")
	}
	if f.failFor > 0 && calls <= f.failFor {
		return "", &platform.StatusError{Code: 503, Body: "service unavailable"}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.detail, nil
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

func testAccount(t *testing.T, platformName string) *models.SocialAccount {
	t.Helper()
	encrypted, err := utils.Encrypt([]byte("token-"+platformName), testKey)
	require.NoError(t, err)
	return &models.SocialAccount{
		UserID:      1,
		Platform:    platformName,
		AccountID:   "acct-" + platformName,
		AccessToken: encrypted,
	}
}

func quietPolicy(retryable func(error) bool) retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Retryable:   retryable,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}
}

func TestPublishIsolatesPlatformFailures(t *testing.T) {
	alpha := &fakePublisher{name: "alpha", detail: "success"}
	beta := &fakePublisher{name: "beta", detail: "success"}
	gamma := &fakePublisher{name: "gamma", err: errors.New("upload rejected")}

	reg := platform.NewRegistry()
	reg.Register(alpha)
	reg.Register(beta)
	reg.Register(gamma)

	accounts := &fakeAccountSource{accounts: map[string]*models.SocialAccount{
		"alpha": testAccount(t, "alpha"),
		"gamma": testAccount(t, "gamma"),
	}}

	exec := NewExecutor(accounts, reg, quietPolicy(platform.IsTransient), testKey, 4, nil)
	results := exec.Publish(context.Background(), 1, []string{"alpha", "beta", "gamma"}, platform.PostPayload{Message: "hello"})

	require.Len(t, results, 3)

	assert.True(t, results["alpha"].OK)
	assert.Equal(t, "success", results["alpha"].Detail)

	assert.False(t, results["beta"].OK)
	assert.Equal(t, platform.DetailNoCredentials, results["beta"].Detail)
	assert.Zero(t, beta.calls, "adapter must not run without a credential")

	assert.False(t, results["gamma"].OK)
	assert.Equal(t, "error: upload rejected", results["gamma"].Detail)
	assert.Equal(t, 1, gamma.calls, "terminal failure must not be retried")
}

func TestPublishRetriesTransientFailures(t *testing.T) {
	flaky := &fakePublisher{name: "alpha", detail: "success", failFor: 2}

	reg := platform.NewRegistry()
	reg.Register(flaky)

	accounts := &fakeAccountSource{accounts: map[string]*models.SocialAccount{
		"alpha": testAccount(t, "alpha"),
	}}

	exec := NewExecutor(accounts, reg, quietPolicy(platform.IsTransient), testKey, 4, nil)
	results := exec.Publish(context.Background(), 1, []string{"alpha"}, platform.PostPayload{Message: "hello"})

	assert.True(t, results["alpha"].OK)
	assert.Equal(t, 3, flaky.calls)
}

func TestPublishContainsPanics(t *testing.T) {
	panicky := &fakePublisher{name: "alpha", panics: true}
	steady := &fakePublisher{name: "beta", detail: "success"}

	reg := platform.NewRegistry()
	reg.Register(panicky)
	reg.Register(steady)

	accounts := &fakeAccountSource{accounts: map[string]*models.SocialAccount{
		"alpha": testAccount(t, "alpha"),
		"beta":  testAccount(t, "beta"),
	}}

	exec := NewExecutor(accounts, reg, quietPolicy(platform.IsTransient), testKey, 4, nil)
	results := exec.Publish(context.Background(), 1, []string{"alpha", "beta"}, platform.PostPayload{})

	assert.False(t, results["alpha"].OK)
	assert.Contains(t, results["alpha"].Detail, "panic")
	assert.True(t, results["beta"].OK)
}

func TestPublishRecordsAdapterSkips(t *testing.T) {
	skipper := &fakePublisher{name: "alpha", detail: "no_video"}

	reg := platform.NewRegistry()
	reg.Register(skipper)

	accounts := &fakeAccountSource{accounts: map[string]*models.SocialAccount{
		"alpha": testAccount(t, "alpha"),
	}}

	exec := NewExecutor(accounts, reg, quietPolicy(platform.IsTransient), testKey, 4, nil)
	results := exec.Publish(context.Background(), 1, []string{"alpha"}, platform.PostPayload{Message: "hello"})

	assert.False(t, results["alpha"].OK)
	assert.Equal(t, "no_video", results["alpha"].Detail)
}

func TestPublishUnknownPlatform(t *testing.T) {
	reg := platform.NewRegistry()

	exec := NewExecutor(&fakeAccountSource{}, reg, quietPolicy(platform.IsTransient), testKey, 4, nil)
	results := exec.Publish(context.Background(), 1, []string{"myspace"}, platform.PostPayload{})

	require.Len(t, results, 1)
	assert.False(t, results["myspace"].OK)
	assert.Contains(t, results["myspace"].Detail, "no publisher registered")
}

func TestPublishLedgerCoversEveryRequestedPlatform(t *testing.T) {
	facebook := &fakePublisher{name: "facebook", detail: "text_success"}
	twitter := &fakePublisher{name: "twitter", detail: "success"}

	reg := platform.NewRegistry()
	reg.Register(facebook)
	reg.Register(twitter)

	// Facebook is connected, Twitter is not.
	accounts := &fakeAccountSource{accounts: map[string]*models.SocialAccount{
		"facebook": testAccount(t, "facebook"),
	}}

	exec := NewExecutor(accounts, reg, quietPolicy(platform.IsTransient), testKey, 4, nil)
	results := exec.Publish(context.Background(), 1, []string{"facebook", "twitter"}, platform.PostPayload{Message: "hello"})

	require.Len(t, results, 2)
	assert.Equal(t, "text_success", results["facebook"].Detail)
	assert.Equal(t, platform.DetailNoCredentials, results["twitter"].Detail)
	assert.Zero(t, twitter.calls)
}

func TestFetchMetricsKeepsFailedPlatformsListed(t *testing.T) {
	reg := platform.NewRegistry()
	reg.Register(&fakeFetcher{name: "alpha", res: platform.MetricsResult{Views: 100, Clicks: 5}})
	reg.Register(&fakeFetcher{name: "beta", err: errors.New("token expired")})

	exec := NewExecutor(&fakeAccountSource{}, reg, quietPolicy(platform.IsTransient), testKey, 4, nil)

	accounts := []*models.SocialAccount{
		testAccount(t, "alpha"),
		testAccount(t, "beta"),
	}

	results := exec.FetchMetrics(context.Background(), accounts)
	require.Len(t, results, 2)

	assert.True(t, results[0].OK)
	assert.Equal(t, "alpha", results[0].Platform)
	assert.Equal(t, int64(100), results[0].Views)

	assert.False(t, results[1].OK)
	assert.Equal(t, "beta", results[1].Platform)
	assert.Contains(t, results[1].Detail, "token expired")
}
