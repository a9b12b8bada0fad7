// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the service clients.
package httputil

import (
	"context"
	"fmt"
	"math"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff between
// retry attempts. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// Retry calls fn until it succeeds or maxRetries additional attempts have
// failed. The delay starts at RetryBaseDelay and doubles each attempt.
//
// When maxRetries is 0 fn is called exactly once. If the context is
// cancelled during a backoff wait the function returns ctx.Err(). After
// exhausting retries the last error is returned, wrapped with the attempt
// count.
func Retry(ctx context.Context, maxRetries int, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * RetryBaseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
	}
	if maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
