// Package worker provides small helpers for context-aware delays used
// by the crawlers' rate limiting and retry backoff.
package worker

import (
	"context"
	"fmt"
	"time"
)

// Wait blocks until duration elapses or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-time.After(d):
		return nil
	}
}
