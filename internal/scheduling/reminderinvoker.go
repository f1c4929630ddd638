package scheduling

import (
	"context"
	"log/slog"

	"github.com/attentive-assistant/core/internal/attention"
	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/commitment"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/store"
)

// ReminderInvoker is the concrete Invoker the executor runs against: a fired
// schedule becomes a routing envelope for its task intent's owner, passed
// through the attention router rather than an outbound webhook call
// (generalized from the Executor, which POSTs to a job's URL). A
// fired schedule also doubles as the due-by callback for any commitment
// linked to it, so a successful route is followed by miss detection.
type ReminderInvoker struct {
	taskIntents store.TaskIntents
	router      *attention.Router
	missDetect  *commitment.MissDetector
	clock       clockid.Clock
	logger      *slog.Logger
}

func NewReminderInvoker(taskIntents store.TaskIntents, router *attention.Router, missDetect *commitment.MissDetector, clock clockid.Clock, logger *slog.Logger) *ReminderInvoker {
	return &ReminderInvoker{taskIntents: taskIntents, router: router, missDetect: missDetect, clock: clock, logger: logger.With("component", "reminder_invoker")}
}

func (r *ReminderInvoker) Invoke(ctx context.Context, scheduleID string, taskIntentID string, traceID string) InvokeResult {
	intent, err := r.taskIntents.Get(ctx, nil, taskIntentID)
	if err != nil {
		return InvokeResult{Succeeded: false, ErrorCode: "task_intent_not_found", ErrorMsg: err.Error()}
	}

	env := domain.RoutingEnvelope{
		Version:         "1",
		SignalType:      "schedule.fired",
		SignalReference: traceID,
		Actor:           domain.ActorScheduled,
		Owner:           intent.CreatedBy,
		Urgency:         0.5,
		ChannelCost:     0.3,
		ContentType:     "text/plain",
		Timestamp:       r.clock.Now(),
		Notification: &domain.NotificationDescriptor{
			Version:         "1",
			SourceComponent: "scheduler",
			OriginSignal:    "schedule.fired",
			Confidence:      1,
			Provenance: []domain.ProvenanceInput{{
				InputType:   "schedule",
				Reference:   taskIntentID,
				Description: intent.Summary,
			}},
		},
	}

	result, err := r.router.Route(ctx, env)
	if err != nil {
		return InvokeResult{Succeeded: false, ErrorCode: "route_failed", ErrorMsg: err.Error()}
	}

	r.logger.Info("reminder routed", "task_intent_id", taskIntentID, "decision", result.FinalDecision, "channel", result.Channel)

	if r.missDetect != nil {
		if _, err := r.missDetect.HandleCallback(ctx, scheduleID, traceID); err != nil {
			r.logger.Error("miss detection callback", "schedule_id", scheduleID, "error", err)
		}
	}

	return InvokeResult{Succeeded: true}
}
