package infra

import (
	"time"
)

const (
	// Standard backoff constants
	baseDelay = 1 * time.Second
	maxDelay  = 60 * time.Second
)

// ScaledBackoff returns base * 2^retryCount, capped at maxDelay.
// Negative counts return base.
func ScaledBackoff(base time.Duration, retryCount int) time.Duration {
	if retryCount < 0 {
		return base
	}

	// 2^30 is already far beyond maxDelay
	if retryCount > 30 {
		return maxDelay
	}

	backoff := base * time.Duration(1<<retryCount)
	if backoff > maxDelay || backoff <= 0 {
		return maxDelay
	}

	return backoff
}
