package control

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fbperrors "github.com/c360/fbpcore/errors"
)

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	cfg := retryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2}
	attempts := 0
	err := withRetry(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return fbperrors.WrapTransient(context.DeadlineExceeded, "test", "do")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestWithRetryStopsImmediatelyOnNonTransientError(t *testing.T) {
	cfg := retryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2}
	attempts := 0
	err := withRetry(context.Background(), cfg, func() error {
		attempts++
		return fbperrors.WrapInvalid(context.DeadlineExceeded, "test", "do")
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	cfg := retryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2}
	attempts := 0
	err := withRetry(context.Background(), cfg, func() error {
		attempts++
		return fbperrors.WrapTransient(context.DeadlineExceeded, "test", "do")
	})
	require.Error(t, err)
	require.Equal(t, 3, attempts)
}
