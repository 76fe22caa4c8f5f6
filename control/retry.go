package control

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	fbperrors "github.com/c360/fbpcore/errors"
)

// retryConfig is exponential backoff policy for Client requests against a
// control surface that may be mid-restart or behind a flaky connection
// — the one policy Client needs rather than a library of presets.
type retryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		MaxAttempts:  4,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}
}

var (
	jitterMu  sync.Mutex
	jitterRNG = rand.New(rand.NewSource(1))
)

// withRetry runs fn, retrying with jittered exponential backoff as long as
// the returned error classifies as transient (fbperrors.IsTransient) —
// everything else (malformed requests, 4xx responses wrapped as
// ClassInvalid) fails immediately since retrying them can't help.
func withRetry(ctx context.Context, cfg retryConfig, fn func() error) error {
	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !fbperrors.IsTransient(lastErr) || attempt == cfg.MaxAttempts {
			return lastErr
		}
		if ctx.Err() != nil {
			return fmt.Errorf("control: retry cancelled before attempt %d: %w", attempt+1, ctx.Err())
		}

		jitterMu.Lock()
		sleep := delay + time.Duration(jitterRNG.Int63n(int64(delay/4+1)))
		jitterMu.Unlock()

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("control: retry cancelled during backoff for attempt %d: %w", attempt+1, ctx.Err())
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return lastErr
}
