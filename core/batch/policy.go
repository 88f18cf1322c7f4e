package batch

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"time"

	"github.com/leofalp/batchcalc/internal/utils"
)

// PollPolicy controls how Poll waits for a batch. Zero values are replaced
// with the defaults documented on each field.
type PollPolicy struct {
	// InitialInterval is the wait after the first status request.
	// Default: 2s.
	InitialInterval time.Duration

	// MaxInterval caps the wait between status requests. Default: 1m.
	MaxInterval time.Duration

	// IntervalFactor is the growth multiplier applied to the interval after
	// every observation of a running batch. Default: 1.5.
	IntervalFactor float64

	// Timeout bounds the whole poll loop. Zero means no limit besides the
	// caller's context.
	Timeout time.Duration

	// MaxRetries is the number of consecutive failed status requests
	// tolerated before Poll gives up. Default: 3.
	MaxRetries int

	// InitialBackoff is the wait before the first retry. Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the retry backoff. Default: 30s.
	MaxBackoff time.Duration

	// BackoffFactor is the exponential growth multiplier of the retry
	// backoff. Default: 2.0.
	BackoffFactor float64

	// JitterFraction adds random noise in [0, JitterFraction * wait] to every
	// interval and backoff. Default: 0.1.
	JitterFraction float64

	// Retryable reports whether a failed status request should be retried.
	// The default accepts network errors and HTTP 429, 500, 502, 503, 504
	// and 529.
	Retryable func(error) bool
}

// DefaultPollPolicy returns the policy used when none is configured.
func DefaultPollPolicy() PollPolicy {
	policy := PollPolicy{}
	policy.applyDefaults()
	return policy
}

func (p *PollPolicy) applyDefaults() {
	if p.InitialInterval <= 0 {
		p.InitialInterval = 2 * time.Second
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = time.Minute
	}
	if p.MaxInterval < p.InitialInterval {
		p.MaxInterval = p.InitialInterval
	}
	if p.IntervalFactor < 1 {
		p.IntervalFactor = 1.5
	}
	if p.MaxRetries <= 0 {
		p.MaxRetries = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = time.Second
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 30 * time.Second
	}
	if p.BackoffFactor < 1 {
		p.BackoffFactor = 2.0
	}
	if p.JitterFraction <= 0 {
		p.JitterFraction = 0.1
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
}

// interval returns the wait after the given 0-indexed observation of a
// running batch.
func (p PollPolicy) interval(observation int) time.Duration {
	return computeBackoff(p.InitialInterval, p.MaxInterval, p.IntervalFactor, p.JitterFraction, observation)
}

// backoff returns the wait before the given 0-indexed retry.
func (p PollPolicy) backoff(retry int) time.Duration {
	return computeBackoff(p.InitialBackoff, p.MaxBackoff, p.BackoffFactor, p.JitterFraction, retry)
}

// computeBackoff returns min(initial * factor^attempt, maxWait) + jitter.
func computeBackoff(initial, maxWait time.Duration, factor, jitterFraction float64, attempt int) time.Duration {
	base := float64(initial) * math.Pow(factor, float64(attempt))
	if base > float64(maxWait) {
		base = float64(maxWait)
	}

	jitter := base * jitterFraction * rand.Float64() //nolint:gosec // non-cryptographic jitter is intentional
	return time.Duration(base + jitter)
}

// IsTransient reports whether err is worth retrying: a network failure or an
// HTTP status signalling overload or a server fault. Context errors are never
// transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if code := utils.StatusCode(err); code != 0 {
		return utils.IsTransientStatus(code)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
