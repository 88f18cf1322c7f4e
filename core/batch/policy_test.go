package batch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/leofalp/batchcalc/internal/utils"
)

func TestDefaultPollPolicy(t *testing.T) {
	policy := DefaultPollPolicy()

	assert.Equal(t, 2*time.Second, policy.InitialInterval)
	assert.Equal(t, time.Minute, policy.MaxInterval)
	assert.Equal(t, 1.5, policy.IntervalFactor)
	assert.Zero(t, policy.Timeout)
	assert.Equal(t, 3, policy.MaxRetries)
	assert.Equal(t, time.Second, policy.InitialBackoff)
	assert.Equal(t, 30*time.Second, policy.MaxBackoff)
	assert.NotNil(t, policy.Retryable)
}

func TestComputeBackoff(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{"first", 0, 100 * time.Millisecond, 110 * time.Millisecond},
		{"second", 1, 200 * time.Millisecond, 220 * time.Millisecond},
		{"third", 2, 400 * time.Millisecond, 440 * time.Millisecond},
		{"capped", 10, time.Second, 1100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeBackoff(100*time.Millisecond, time.Second, 2, 0.1, tt.attempt)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestPollPolicy_IntervalGrowsToCap(t *testing.T) {
	policy := PollPolicy{InitialInterval: time.Second, MaxInterval: 3 * time.Second, JitterFraction: 0.0001}
	policy.applyDefaults()

	assert.InDelta(t, float64(time.Second), float64(policy.interval(0)), float64(time.Millisecond))
	assert.InDelta(t, float64(1500*time.Millisecond), float64(policy.interval(1)), float64(time.Millisecond))
	assert.InDelta(t, float64(3*time.Second), float64(policy.interval(20)), float64(time.Millisecond))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"overloaded", &utils.HTTPError{StatusCode: 529}, true},
		{"rate limited", &utils.HTTPError{StatusCode: 429}, true},
		{"wrapped 503", fmt.Errorf("retrieve: %w", &utils.HTTPError{StatusCode: 503}), true},
		{"not found", &utils.HTTPError{StatusCode: 404}, false},
		{"unauthorized", &utils.HTTPError{StatusCode: 401}, false},
		{"network", fmt.Errorf("dial: %w", timeoutErr{}), true},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestSleep_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleep(ctx, time.Minute)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
