package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Retries: 2}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsBudget(t *testing.T) {
	upstream := errors.New("upstream down")
	calls := 0
	err := Do(context.Background(), Policy{Retries: 2}, func(ctx context.Context) error {
		calls++
		return upstream
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, upstream)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	bad := errors.New("bad request")
	calls := 0
	err := Do(context.Background(), Policy{Retries: 5}, func(ctx context.Context) error {
		calls++
		return Permanent(bad)
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, bad, err)
}

func TestDo_WaitsBetweenAttempts(t *testing.T) {
	start := time.Now()
	_ = Do(context.Background(), Policy{Retries: 2, Delay: 20 * time.Millisecond}, func(ctx context.Context) error {
		return errors.New("boom")
	})
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestDo_ContextCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{Retries: 3, Delay: time.Hour}, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "aborted")
}
