//nolint:testpackage // exercises the injected clock
package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("embedding service unavailable")

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	t.Parallel()

	b := New(Config{Name: "tei", FailureThreshold: 2, Timeout: time.Minute})
	ctx := context.Background()

	require.ErrorIs(t, b.Execute(ctx, func() error { return errUpstream }), errUpstream)
	assert.Equal(t, StateClosed, b.State())

	require.ErrorIs(t, b.Execute(ctx, func() error { return errUpstream }), errUpstream)
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Execute(ctx, func() error { called = true; return nil })
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Contains(t, err.Error(), "tei")
	assert.False(t, called)
}

func TestBreaker_HalfOpenRecovers(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var transitions []string

	b := New(Config{
		Name:             "ocr",
		FailureThreshold: 1,
		Timeout:          10 * time.Second,
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_ = b.Execute(ctx, func() error { return errUpstream })
	require.Equal(t, StateOpen, b.State())

	now = now.Add(11 * time.Second)
	require.NoError(t, b.Execute(ctx, func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreaker_CancelledContextDoesNotCount(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 1})
	ctx, cancel := context.WithCancel(context.Background())

	err := b.Execute(ctx, func() error {
		cancel()
		return context.Canceled
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, b.State())
}
