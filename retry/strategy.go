// Package retry provides the exponential backoff schedules used when pushing
// journal events downstream and when connecting to external services.
package retry

import (
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Strategy configures exponential backoff.
//
// The delay after n consecutive failures is
// min(BaseDelay * ExponentialBase^n, MaxDelay).
//
// With defaults (1s base, 2.0 exponential, 5m max):
//
//	Failure 1: 2s
//	Failure 2: 4s
//	Failure 3: 8s
//	Failure 5: 32s (alert)
type Strategy struct {
	MaxAttempts     int           // Attempts allowed by a bounded retry (NewBackOff)
	BaseDelay       time.Duration // Delay before the first retry
	MaxDelay        time.Duration // Cap on any single delay
	ExponentialBase float64       // Backoff multiplier (e.g., 2.0 for doubling)
	AlertThreshold  int           // Consecutive failures after which failures are escalated
}

// DefaultStrategy returns the default schedule: 10 attempts, 1s→5m exponential
// backoff, escalation after 5 consecutive failures.
func DefaultStrategy() Strategy {
	return Strategy{
		MaxAttempts:     10,
		BaseDelay:       1 * time.Second,
		MaxDelay:        5 * time.Minute,
		ExponentialBase: 2.0,
		AlertThreshold:  5,
	}
}

// CalculateRetryDelay returns the delay to wait after failureCount consecutive failures.
func (s Strategy) CalculateRetryDelay(failureCount int) time.Duration {
	if failureCount <= 0 {
		return s.BaseDelay
	}

	delay := float64(s.BaseDelay) * math.Pow(s.ExponentialBase, float64(failureCount))

	if delay > float64(s.MaxDelay) {
		return s.MaxDelay
	}

	return time.Duration(delay)
}

// ShouldAlert reports whether failureCount consecutive failures warrant escalation.
func (s Strategy) ShouldAlert(failureCount int) bool {
	return s.AlertThreshold > 0 && failureCount >= s.AlertThreshold
}

// NewBackOff converts the strategy into a bounded backoff.BackOff, for use
// with backoff.Retry when dialing databases or brokers.
func (s Strategy) NewBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.BaseDelay
	b.MaxInterval = s.MaxDelay
	b.Multiplier = s.ExponentialBase
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	if s.MaxAttempts <= 1 {
		return backoff.WithMaxRetries(b, 0)
	}
	return backoff.WithMaxRetries(b, uint64(s.MaxAttempts-1))
}

// GetRetrySchedule returns a human-readable description of the schedule.
//
// Example output:
//
//	Retry Schedule:
//	  Failure 1: retry after 2s
//	  ...
//	  Failure 5: retry after 32s
//	  → Alert
func (s Strategy) GetRetrySchedule() string {
	schedule := "Retry Schedule:\n"
	for i := 1; i <= s.MaxAttempts; i++ {
		schedule += fmt.Sprintf("  Failure %d: retry after %v\n", i, s.CalculateRetryDelay(i))
		if i == s.AlertThreshold {
			schedule += "  → Alert\n"
		}
	}
	return schedule
}
