package attention_test

import (
	"testing"

	"github.com/attentive-assistant/core/internal/attention"
	"github.com/attentive-assistant/core/internal/domain"
)

func TestEvaluate_AlwaysNotifyWins(t *testing.T) {
	outcome, id := attention.Evaluate(attention.DefaultPolicies(), attention.PolicyContext{
		AlwaysNotify: true,
		QuietHours:   true,
	})
	if outcome.Kind != attention.OutcomeNotify || outcome.Channel != "signal" {
		t.Errorf("outcome = %+v, want NOTIFY:signal", outcome)
	}
	if id != "always-notify-override" {
		t.Errorf("matched policy = %q, want always-notify-override", id)
	}
}

func TestEvaluate_QuietHoursDefersLowUrgency(t *testing.T) {
	outcome, _ := attention.Evaluate(attention.DefaultPolicies(), attention.PolicyContext{
		QuietHours:   true,
		UrgencyLevel: "low",
	})
	if outcome.Kind != attention.OutcomeDefer {
		t.Errorf("outcome = %+v, want DEFER", outcome)
	}
}

func TestEvaluate_DoNotDisturbLogsOnlyNonUrgent(t *testing.T) {
	outcome, _ := attention.Evaluate(attention.DefaultPolicies(), attention.PolicyContext{
		DoNotDisturb: true,
		UrgencyLevel: "medium",
	})
	if outcome.Kind != attention.OutcomeLogOnly {
		t.Errorf("outcome = %+v, want LOG_ONLY", outcome)
	}
}

func TestEvaluate_HighUrgencyHighConfidenceNotifiesSignal(t *testing.T) {
	outcome, id := attention.Evaluate(attention.DefaultPolicies(), attention.PolicyContext{
		Urgency: 0.9,
		Envelope: domain.RoutingEnvelope{
			Notification: &domain.NotificationDescriptor{Confidence: 0.9},
		},
	})
	if outcome.Kind != attention.OutcomeNotify || outcome.Channel != "signal" {
		t.Errorf("outcome = %+v, want NOTIFY:signal", outcome)
	}
	if id != "high-urgency-notify-signal" {
		t.Errorf("matched policy = %q, want high-urgency-notify-signal", id)
	}
}

func TestEvaluate_NoMatchFallsBackToLogOnly(t *testing.T) {
	outcome, id := attention.Evaluate(attention.DefaultPolicies(), attention.PolicyContext{
		UrgencyLevel: "medium",
	})
	if outcome.Kind != attention.OutcomeLogOnly {
		t.Errorf("outcome = %+v, want LOG_ONLY", outcome)
	}
	if id != "" {
		t.Errorf("matched policy = %q, want empty (no match)", id)
	}
}

func TestEvaluate_ApprovalRequestsRouteToSignal(t *testing.T) {
	outcome, _ := attention.Evaluate(attention.DefaultPolicies(), attention.PolicyContext{
		Envelope: domain.RoutingEnvelope{SignalType: "approval.request"},
	})
	if outcome.Kind != attention.OutcomeNotify || outcome.Channel != "signal" {
		t.Errorf("outcome = %+v, want NOTIFY:signal", outcome)
	}
}
