package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/publora/publora/internal/metrics"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/platform"
	"github.com/publora/publora/internal/retry"
	"github.com/publora/publora/pkg/utils"
)

// AccountSource resolves the active credential for one user+platform.
// A nil account with a nil error means no active credential exists.
type AccountSource interface {
	GetActive(ctx context.Context, userID int64, platformName string) (*models.SocialAccount, error)
}

// Executor fans one work item out to every requested platform
// concurrently. Platforms never block or cancel one another; the executor
// settles every launched call before returning.
type Executor struct {
	accounts  AccountSource
	registry  *platform.Registry
	policy    retry.Policy
	secretKey []byte
	limit     int
	sink      metrics.Sink
}

func NewExecutor(
	accounts AccountSource,
	registry *platform.Registry,
	policy retry.Policy,
	secretKey []byte,
	limit int,
	sink metrics.Sink) *Executor {
	if limit <= 0 {
		limit = 10
	}
	if sink == nil {
		sink = metrics.Noop{}
	}
	return &Executor{
		accounts:  accounts,
		registry:  registry,
		policy:    policy,
		secretKey: secretKey,
		limit:     limit,
		sink:      sink,
	}
}

// Publish dispatches the payload to every requested platform and returns
// one result per platform, win or lose. Platforms without an active
// credential are recorded as no_credentials without touching any adapter.
func (e *Executor) Publish(ctx context.Context, userID int64, platforms []string, post platform.PostPayload) map[string]platform.Result {
	targets := e.registry.Normalize(platforms)
	results := make(map[string]platform.Result, len(targets))

	e.sink.FanoutInFlightIncr()
	defer e.sink.FanoutInFlightDecr()

	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, e.limit)

	for _, name := range targets {
		pub, ok := e.registry.Publisher(name)
		if !ok {
			results[name] = errorResult(name, fmt.Errorf("no publisher registered for platform %q", name))
			continue
		}

		cred, res := e.resolveCredential(ctx, userID, name)
		if res != nil {
			results[name] = *res
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go func(name string, pub platform.Publisher, cred platform.Credential) {
			defer wg.Done()
			defer func() { <-semaphore }()

			result := e.publishOne(ctx, name, pub, cred, post)
			e.sink.PlatformAttempt(name, result.OK)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, pub, cred)
	}

	wg.Wait()
	return results
}

// FetchMetrics fans metric fetches out over the given accounts. Failed
// fetches come back with OK=false so the reducer can exclude them from
// totals without losing the platform from the listing.
func (e *Executor) FetchMetrics(ctx context.Context, accounts []*models.SocialAccount) []platform.MetricsResult {
	e.sink.FanoutInFlightIncr()
	defer e.sink.FanoutInFlightDecr()

	results := make([]platform.MetricsResult, len(accounts))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, e.limit)

	for i, acc := range accounts {
		name := e.registry.Canonical(acc.Platform)
		fetcher, ok := e.registry.Fetcher(name)
		if !ok {
			results[i] = platform.MetricsResult{Platform: name, Detail: "no metrics fetcher registered"}
			continue
		}

		cred, err := e.credential(acc)
		if err != nil {
			results[i] = platform.MetricsResult{Platform: name, Detail: "error: " + err.Error()}
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go func(i int, name string, fetcher platform.MetricsFetcher, cred platform.Credential) {
			defer wg.Done()
			defer func() { <-semaphore }()

			result := e.fetchOne(ctx, name, fetcher, cred)
			e.sink.PlatformAttempt(name, result.OK)
			results[i] = result
		}(i, name, fetcher, cred)
	}

	wg.Wait()
	return results
}

// publishOne wraps a single adapter call with the retry policy and the
// panic boundary. Nothing raised here ever escapes to sibling platforms.
func (e *Executor) publishOne(ctx context.Context, name string, pub platform.Publisher, cred platform.Credential, post platform.PostPayload) (result platform.Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Info(fmt.Sprintf("panic publishing to %s: %v", name, r))
			result = platform.Result{Platform: name, Detail: fmt.Sprintf("error: panic: %v", r)}
		}
	}()

	detail, err := retry.Do(ctx, e.policy, func(ctx context.Context) (string, error) {
		return pub.Publish(ctx, cred, post)
	})
	if err != nil {
		slog.Info(fmt.Sprintf("publishing to %s failed: %v", name, err))
		return errorResult(name, err)
	}
	if strings.HasPrefix(detail, "no_") {
		return platform.Result{Platform: name, Detail: detail}
	}
	return platform.Result{Platform: name, OK: true, Detail: detail}
}

func (e *Executor) fetchOne(ctx context.Context, name string, fetcher platform.MetricsFetcher, cred platform.Credential) (result platform.MetricsResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Info(fmt.Sprintf("panic fetching metrics from %s: %v", name, r))
			result = platform.MetricsResult{Platform: name, Detail: fmt.Sprintf("error: panic: %v", r)}
		}
	}()

	fetched, err := retry.Do(ctx, e.policy, func(ctx context.Context) (platform.MetricsResult, error) {
		return fetcher.FetchMetrics(ctx, cred)
	})
	if err != nil {
		slog.Info(fmt.Sprintf("fetching metrics from %s failed: %v", name, err))
		return platform.MetricsResult{Platform: name, Detail: "error: " + err.Error()}
	}
	fetched.Platform = name
	fetched.OK = true
	return fetched
}

// resolveCredential looks up and decrypts the user's active credential for
// a platform. The second return value is non-nil when dispatch for this
// platform is already decided.
func (e *Executor) resolveCredential(ctx context.Context, userID int64, name string) (platform.Credential, *platform.Result) {
	acc, err := e.accounts.GetActive(ctx, userID, name)
	if err != nil {
		res := errorResult(name, err)
		return platform.Credential{}, &res
	}
	if acc == nil {
		return platform.Credential{}, &platform.Result{Platform: name, Detail: platform.DetailNoCredentials}
	}

	cred, err := e.credential(acc)
	if err != nil {
		res := errorResult(name, err)
		return platform.Credential{}, &res
	}
	return cred, nil
}

func (e *Executor) credential(acc *models.SocialAccount) (platform.Credential, error) {
	token, err := utils.Decrypt(acc.AccessToken, e.secretKey)
	if err != nil {
		return platform.Credential{}, fmt.Errorf("decrypt access token: %w", err)
	}
	return platform.Credential{AccountID: acc.AccountID, AccessToken: token}, nil
}

func errorResult(name string, err error) platform.Result {
	return platform.Result{
		Platform:  name,
		Detail:    "error: " + err.Error(),
		Retryable: platform.IsTransient(err),
	}
}
