package retrypolicy_test

import (
	"testing"
	"time"

	"github.com/attentive-assistant/core/internal/retrypolicy"
)

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		attemptCount, maxAttempts int
		want                      bool
	}{
		{1, 3, true},
		{2, 3, true},
		{3, 3, false},
		{4, 3, false},
	}
	for _, c := range cases {
		if got := retrypolicy.ShouldRetry(c.attemptCount, c.maxAttempts); got != c.want {
			t.Errorf("ShouldRetry(%d, %d) = %v, want %v", c.attemptCount, c.maxAttempts, got, c.want)
		}
	}
}

func TestComputeDelaySeconds_None(t *testing.T) {
	delay, err := retrypolicy.ComputeDelaySeconds(retrypolicy.StrategyNone, 5, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delay != 0 {
		t.Errorf("delay = %d, want 0", delay)
	}
}

func TestComputeDelaySeconds_Fixed(t *testing.T) {
	delay, err := retrypolicy.ComputeDelaySeconds(retrypolicy.StrategyFixed, 3, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delay != 30 {
		t.Errorf("delay = %d, want 30", delay)
	}
}

func TestComputeDelaySeconds_Exponential(t *testing.T) {
	cases := []struct {
		retryCount int
		want       int
	}{
		{1, 30},
		{2, 60},
		{3, 120},
		{4, 240},
	}
	for _, c := range cases {
		delay, err := retrypolicy.ComputeDelaySeconds(retrypolicy.StrategyExponential, c.retryCount, 30)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if delay != c.want {
			t.Errorf("retryCount=%d: delay = %d, want %d", c.retryCount, delay, c.want)
		}
	}
}

func TestComputeDelaySeconds_RejectsRetryCountBelowOne(t *testing.T) {
	if _, err := retrypolicy.ComputeDelaySeconds(retrypolicy.StrategyFixed, 0, 30); err == nil {
		t.Error("want error for retry_count < 1, got nil")
	}
}

func TestComputeRetryAt_IsDeterministic(t *testing.T) {
	finished := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	at1, err := retrypolicy.ComputeRetryAt(finished, 2, retrypolicy.StrategyExponential, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	at2, err := retrypolicy.ComputeRetryAt(finished, 2, retrypolicy.StrategyExponential, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !at1.Equal(at2) {
		t.Errorf("ComputeRetryAt is not deterministic: %v != %v", at1, at2)
	}
	want := finished.Add(60 * time.Second)
	if !at1.Equal(want) {
		t.Errorf("retry_at = %v, want %v", at1, want)
	}
}

func TestPolicy_Validate(t *testing.T) {
	valid := retrypolicy.Policy{MaxAttempts: 3, BackoffStrategy: retrypolicy.StrategyExponential, BackoffBaseSeconds: 30}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid policy to pass, got %v", err)
	}

	invalid := retrypolicy.Policy{MaxAttempts: 0, BackoffStrategy: retrypolicy.StrategyExponential, BackoffBaseSeconds: 30}
	if err := invalid.Validate(); err == nil {
		t.Error("want error for max_attempts=0, got nil")
	}

	badStrategy := retrypolicy.Policy{MaxAttempts: 3, BackoffStrategy: "bogus", BackoffBaseSeconds: 30}
	if err := badStrategy.Validate(); err == nil {
		t.Error("want error for unsupported backoff_strategy, got nil")
	}
}
