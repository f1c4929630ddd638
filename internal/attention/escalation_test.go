package attention_test

import (
	"testing"
	"time"

	"github.com/attentive-assistant/core/internal/attention"
)

func intp(v int) *int                                     { return &v }
func levelp(v attention.EscalationLevel) *attention.EscalationLevel { return &v }

func TestEvaluateEscalation_NilCurrentLevelIsNone(t *testing.T) {
	got := attention.EvaluateEscalation(attention.EscalationInput{})
	if got.Level != attention.EscalationNone || got.Escalated {
		t.Errorf("got %+v, want non-escalated NONE", got)
	}
}

func TestEvaluateEscalation_IgnoredRepeatedlyEscalates(t *testing.T) {
	got := attention.EvaluateEscalation(attention.EscalationInput{
		CurrentLevel: levelp(attention.EscalationLow),
		IgnoredCount: intp(3),
	})
	if !got.Escalated || got.Level != attention.EscalationMedium || got.Trigger != "ignored_repeatedly" {
		t.Errorf("got %+v, want escalated to MEDIUM via ignored_repeatedly", got)
	}
}

func TestEvaluateEscalation_ApproachingDeadlineEscalates(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(30 * time.Minute)
	got := attention.EvaluateEscalation(attention.EscalationInput{
		CurrentLevel:   levelp(attention.EscalationNone),
		Deadline:       &deadline,
		DeadlineWindow: time.Hour,
		Timestamp:      now,
	})
	if !got.Escalated || got.Trigger != "approaching_deadline" {
		t.Errorf("got %+v, want escalated via approaching_deadline", got)
	}
}

func TestEvaluateEscalation_IncreasingSeverityEscalates(t *testing.T) {
	got := attention.EvaluateEscalation(attention.EscalationInput{
		CurrentLevel:     levelp(attention.EscalationNone),
		PreviousSeverity: intp(1),
		CurrentSeverity:  intp(2),
	})
	if !got.Escalated || got.Trigger != "increasing_severity" {
		t.Errorf("got %+v, want escalated via increasing_severity", got)
	}
}

func TestEvaluateEscalation_CapsAtHigh(t *testing.T) {
	got := attention.EvaluateEscalation(attention.EscalationInput{
		CurrentLevel: levelp(attention.EscalationHigh),
		IgnoredCount: intp(10),
	})
	if got.Level != attention.EscalationHigh {
		t.Errorf("level = %v, want capped at HIGH", got.Level)
	}
}

func TestEvaluateEscalation_NoTriggerKeepsCurrentLevel(t *testing.T) {
	got := attention.EvaluateEscalation(attention.EscalationInput{
		CurrentLevel: levelp(attention.EscalationLow),
	})
	if got.Escalated || got.Level != attention.EscalationLow {
		t.Errorf("got %+v, want unescalated LOW", got)
	}
}
