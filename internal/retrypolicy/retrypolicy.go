// Package retrypolicy computes whether an execution should be retried and
// when, per spec §4.3. Grounded on the scheduler.retryDelay
// (internal/scheduler/worker.go) generalized to the three named strategies.
package retrypolicy

import (
	"math"
	"time"

	"github.com/attentive-assistant/core/internal/apperr"
)

// Strategy enumerates the supported backoff strategies.
type Strategy string

const (
	StrategyNone        Strategy = "none"
	StrategyFixed       Strategy = "fixed"
	StrategyExponential Strategy = "exponential"
)

// Policy is the retry/backoff configuration attached to an execution.
type Policy struct {
	MaxAttempts        int
	BackoffStrategy    Strategy
	BackoffBaseSeconds int
}

// Validate checks the policy's own invariants (retry_count >= 1 is checked
// per-call in ComputeDelaySeconds, not here, since it's not a property of
// the policy itself).
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return apperr.New(apperr.KindValidation, "max_attempts must be >= 1")
	}
	switch p.BackoffStrategy {
	case StrategyNone, StrategyFixed, StrategyExponential:
	default:
		return apperr.New(apperr.KindValidation, "backoff_strategy must be one of none, fixed, exponential")
	}
	if p.BackoffBaseSeconds < 0 {
		return apperr.New(apperr.KindValidation, "backoff_base_seconds must be >= 0")
	}
	return nil
}

// ShouldRetry reports whether another attempt is permitted.
func ShouldRetry(attemptCount, maxAttempts int) bool {
	return attemptCount < maxAttempts
}

// ComputeDelaySeconds computes the backoff delay in seconds for the given
// strategy and retry_count (testable property 7):
//
//	none:        0
//	fixed:       base
//	exponential: base * 2^(retryCount-1)
//
// retryCount must be >= 1; base must be >= 0.
func ComputeDelaySeconds(strategy Strategy, retryCount, baseSeconds int) (int, error) {
	if retryCount < 1 {
		return 0, apperr.New(apperr.KindValidation, "retry_count must be >= 1")
	}
	if baseSeconds < 0 {
		return 0, apperr.New(apperr.KindValidation, "backoff_base_seconds must be >= 0")
	}
	switch strategy {
	case StrategyNone:
		return 0, nil
	case StrategyFixed:
		return baseSeconds, nil
	case StrategyExponential:
		return baseSeconds * int(math.Pow(2, float64(retryCount-1))), nil
	default:
		return 0, apperr.New(apperr.KindValidation, "unsupported backoff_strategy")
	}
}

// ComputeRetryAt computes finished_at + delay(strategy, retryCount, base).
func ComputeRetryAt(finishedAt time.Time, retryCount int, strategy Strategy, baseSeconds int) (time.Time, error) {
	delay, err := ComputeDelaySeconds(strategy, retryCount, baseSeconds)
	if err != nil {
		return time.Time{}, err
	}
	return finishedAt.Add(time.Duration(delay) * time.Second), nil
}
