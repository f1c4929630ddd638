package commitment_test

import (
	"testing"

	"github.com/attentive-assistant/core/internal/commitment"
	"github.com/attentive-assistant/core/internal/domain"
)

func TestEvaluateAuthority_HumanAlwaysAllowed(t *testing.T) {
	d := commitment.EvaluateAuthority(domain.CommitmentCompleted, domain.ActorHuman, nil, 0.9)
	if !d.Allow {
		t.Fatalf("want allow for human actor, got %+v", d)
	}
	if d.Reason != "user_initiated" {
		t.Errorf("reason = %q, want user_initiated", d.Reason)
	}
}

func TestEvaluateAuthority_SystemToMissedAlwaysAllowed(t *testing.T) {
	d := commitment.EvaluateAuthority(domain.CommitmentMissed, domain.ActorSystem, nil, 0.9)
	if !d.Allow {
		t.Fatalf("want allow for system -> MISSED, got %+v", d)
	}
	if d.Reason != "missed_is_autonomous" {
		t.Errorf("reason = %q, want missed_is_autonomous", d.Reason)
	}
}

func TestEvaluateAuthority_SystemMissingConfidenceDenied(t *testing.T) {
	d := commitment.EvaluateAuthority(domain.CommitmentCompleted, domain.ActorSystem, nil, 0.5)
	if d.Allow {
		t.Fatal("want deny for nil confidence")
	}
	if d.Reason != "missing_confidence" {
		t.Errorf("reason = %q, want missing_confidence", d.Reason)
	}
}

func TestEvaluateAuthority_SystemConfidenceGate(t *testing.T) {
	cases := []struct {
		confidence float64
		threshold  float64
		want       bool
	}{
		{0.9, 0.75, true},
		{0.75, 0.75, true},
		{0.74, 0.75, false},
		{0, 0.75, false},
	}
	for _, c := range cases {
		confidence := c.confidence
		d := commitment.EvaluateAuthority(domain.CommitmentCompleted, domain.ActorSystem, &confidence, c.threshold)
		if d.Allow != c.want {
			t.Errorf("confidence=%v threshold=%v: allow = %v, want %v", c.confidence, c.threshold, d.Allow, c.want)
		}
		if d.Reason != "autonomy_confidence_gate" {
			t.Errorf("reason = %q, want autonomy_confidence_gate", d.Reason)
		}
	}
}
