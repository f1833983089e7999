package gqlclient

import (
	"math/rand"
	"time"
)

const (
	// DefaultRetries is the number of retries after the first attempt.
	DefaultRetries = 3
	// DefaultBaseDelay is the delay before the first retry.
	DefaultBaseDelay = 500 * time.Millisecond
	// maxDelay caps a single backoff.
	maxDelay = 10 * time.Second
	// jitterFactor is the ±fraction of jitter applied to delays.
	jitterFactor = 0.2
)

// retryDelay returns the backoff before retry number attempt (0-indexed):
// base, 2*base, 4*base, ... capped at maxDelay, with ±20% jitter.
func retryDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 16 {
		attempt = 16
	}

	d := base << attempt
	if d > maxDelay || d <= 0 {
		d = maxDelay
	}

	jitter := (rand.Float64()*2 - 1) * jitterFactor * float64(d)
	return time.Duration(float64(d) + jitter)
}
