package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/evidence/internal/retry"
)

var errTimeout = errors.New("dial tcp: i/o timeout")

func TestRetry_Once_RetriesExactlyOnce(t *testing.T) {
	t.Parallel()

	calls := 0
	err := retry.Retry(context.Background(), retry.Once(time.Millisecond), func() error {
		calls++
		return errTimeout
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrMaxAttemptsExceeded)
	assert.ErrorIs(t, err, errTimeout)
	assert.Equal(t, 2, calls)
}

func TestRetry_SucceedsOnSecondAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	var retried []int
	cfg := retry.Once(time.Millisecond)
	cfg.OnRetry = func(attempt int, _ error) { retried = append(retried, attempt) }

	err := retry.Retry(context.Background(), cfg, func() error {
		calls++
		if calls == 1 {
			return errTimeout
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{1}, retried)
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	t.Parallel()

	permanent := errors.New("http status 404")
	calls := 0
	err := retry.Retry(context.Background(), retry.DefaultConfig(), func() error {
		calls++
		return permanent
	})

	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry.Retry(ctx, retry.DefaultConfig(), func() error { return nil })
	assert.ErrorIs(t, err, retry.ErrContextCancelled)
}

func TestDefaultIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", errTimeout, true},
		{"server error", errors.New("http status 503"), true},
		{"rate limited", errors.New("http status 429"), true},
		{"not found", errors.New("http status 404"), false},
		{"invalid pdf", errors.New("payload is not a PDF"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, retry.DefaultIsRetryable(tt.err))
		})
	}
}
