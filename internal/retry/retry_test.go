package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingSleep(slept *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
}

func TestDoRetriesTransientFailures(t *testing.T) {
	transient := errors.New("temporarily unavailable")

	var slept []time.Duration
	policy := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Retryable:   func(err error) bool { return errors.Is(err, transient) },
		Sleep:       recordingSleep(&slept),
	}

	calls := 0
	result, err := Do(context.Background(), policy, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", transient
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, slept)
}

func TestDoSucceedsAfterMaxTransientFailures(t *testing.T) {
	transient := errors.New("status 503")

	var slept []time.Duration
	policy := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Retryable:   func(err error) bool { return errors.Is(err, transient) },
		Sleep:       recordingSleep(&slept),
	}

	calls := 0
	result, err := Do(context.Background(), policy, func(ctx context.Context) (string, error) {
		calls++
		if calls <= 3 {
			return "", transient
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, slept)
}

func TestDoStopsOnTerminalFailure(t *testing.T) {
	terminal := errors.New("bad request")

	var slept []time.Duration
	policy := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Retryable:   func(err error) bool { return false },
		Sleep:       recordingSleep(&slept),
	}

	calls := 0
	_, err := Do(context.Background(), policy, func(ctx context.Context) (string, error) {
		calls++
		return "", terminal
	})

	require.ErrorIs(t, err, terminal)
	assert.Equal(t, 1, calls)
	assert.Empty(t, slept)
}

func TestDoExhaustsRetriesAndKeepsLastError(t *testing.T) {
	var slept []time.Duration
	policy := Policy{
		MaxAttempts: 2,
		BaseDelay:   time.Second,
		Retryable:   func(err error) bool { return true },
		Sleep:       recordingSleep(&slept),
	}

	calls := 0
	_, err := Do(context.Background(), policy, func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("still failing")
	})

	require.Error(t, err)
	assert.Equal(t, "still failing", err.Error())
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, slept)
}

func TestDoZeroPolicyMeansSingleAttempt(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{}, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("boom")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoStopsWhenContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	failure := errors.New("transient")
	policy := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Hour,
		Retryable:   func(err error) bool { return true },
	}

	calls := 0
	_, err := Do(ctx, policy, func(ctx context.Context) (string, error) {
		calls++
		return "", failure
	})

	require.ErrorIs(t, err, failure)
	assert.Equal(t, 1, calls)
}
