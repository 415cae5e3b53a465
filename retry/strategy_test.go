package retry

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
)

func TestDefaultStrategy(t *testing.T) {
	strategy := DefaultStrategy()

	assert.Equal(t, 10, strategy.MaxAttempts)
	assert.Equal(t, 1*time.Second, strategy.BaseDelay)
	assert.Equal(t, 5*time.Minute, strategy.MaxDelay)
	assert.Equal(t, 2.0, strategy.ExponentialBase)
	assert.Equal(t, 5, strategy.AlertThreshold)
}

func TestStrategy_CalculateRetryDelay(t *testing.T) {
	strategy := DefaultStrategy()

	tests := []struct {
		name          string
		failureCount  int
		expectedDelay time.Duration
	}{
		{"No failures - base delay", 0, 1 * time.Second},
		{"First failure", 1, 2 * time.Second},
		{"Second failure", 2, 4 * time.Second},
		{"Fifth failure", 5, 32 * time.Second},
		{"Eighth failure", 8, 256 * time.Second},
		{"Ninth failure - capped", 9, 5 * time.Minute},
		{"Large failure count - still capped", 100, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedDelay, strategy.CalculateRetryDelay(tt.failureCount))
		})
	}
}

func TestStrategy_CalculateRetryDelay_CustomStrategy(t *testing.T) {
	strategy := Strategy{
		MaxAttempts:     5,
		BaseDelay:       1 * time.Second,
		MaxDelay:        10 * time.Second,
		ExponentialBase: 3.0,
		AlertThreshold:  3,
	}

	tests := []struct {
		failureCount  int
		expectedDelay time.Duration
	}{
		{0, 1 * time.Second},
		{1, 3 * time.Second},
		{2, 9 * time.Second},
		{3, 10 * time.Second}, // Would be 27s, capped
		{4, 10 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expectedDelay, strategy.CalculateRetryDelay(tt.failureCount))
	}
}

func TestStrategy_ShouldAlert(t *testing.T) {
	strategy := DefaultStrategy()

	assert.False(t, strategy.ShouldAlert(0))
	assert.False(t, strategy.ShouldAlert(4))
	assert.True(t, strategy.ShouldAlert(5))
	assert.True(t, strategy.ShouldAlert(7))

	assert.False(t, Strategy{}.ShouldAlert(100), "zero threshold never alerts")
}

func TestStrategy_NewBackOff_BoundsAttempts(t *testing.T) {
	strategy := Strategy{
		MaxAttempts:     3,
		BaseDelay:       time.Millisecond,
		MaxDelay:        2 * time.Millisecond,
		ExponentialBase: 2.0,
	}

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		return errors.New("unavailable")
	}, strategy.NewBackOff())

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestStrategy_NewBackOff_StopsOnSuccess(t *testing.T) {
	strategy := Strategy{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, ExponentialBase: 1.0}

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		if attempts < 2 {
			return errors.New("not yet")
		}
		return nil
	}, strategy.NewBackOff())

	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestStrategy_GetRetrySchedule(t *testing.T) {
	strategy := Strategy{
		MaxAttempts:     5,
		BaseDelay:       10 * time.Second,
		MaxDelay:        2 * time.Minute,
		ExponentialBase: 2.0,
		AlertThreshold:  3,
	}

	schedule := strategy.GetRetrySchedule()

	assert.Contains(t, schedule, "Retry Schedule:")
	assert.Contains(t, schedule, "Failure 5")
	assert.Contains(t, schedule, "→ Alert")
	assert.Contains(t, schedule, "20s")
	assert.Contains(t, schedule, "1m20s")
	assert.True(t, len(strings.Split(schedule, "\n")) > 5)
}

func TestStrategy_BoundaryValues(t *testing.T) {
	t.Run("Zero base delay", func(t *testing.T) {
		strategy := Strategy{BaseDelay: 0, ExponentialBase: 2.0, MaxDelay: time.Minute}
		assert.Equal(t, time.Duration(0), strategy.CalculateRetryDelay(5))
	})

	t.Run("Exponential base of 1", func(t *testing.T) {
		strategy := Strategy{BaseDelay: 30 * time.Second, ExponentialBase: 1.0, MaxDelay: time.Minute}
		assert.Equal(t, strategy.CalculateRetryDelay(1), strategy.CalculateRetryDelay(5))
	})
}

func BenchmarkCalculateRetryDelay(b *testing.B) {
	strategy := DefaultStrategy()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = strategy.CalculateRetryDelay(i % 10)
	}
}
