package commitment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/attentive-assistant/core/internal/attention"
	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/domain"
)

// MissDetectionStatus reports the outcome of a miss-detection callback.
type MissDetectionStatus string

const (
	MissDetectionMissed MissDetectionStatus = "missed"
	MissDetectionNoop   MissDetectionStatus = "noop"
	MissDetectionNoLink MissDetectionStatus = "no_link"
)

// MissDetectionResult mirrors original_source's MissDetectionCallbackResult.
type MissDetectionResult struct {
	Status          MissDetectionStatus
	ScheduleID      string
	CommitmentID    string
	CommitmentState domain.CommitmentState
}

// MissDetector transitions OPEN commitments to MISSED when their linked
// reminder schedule fires past due, grounded on original_source's
// handle_miss_detection_callback.
type MissDetector struct {
	links   *LinkService
	service *Service
	router  *attention.Router
	clock   clockid.Clock
	logger  *slog.Logger
}

func NewMissDetector(links *LinkService, service *Service, router *attention.Router, clock clockid.Clock, logger *slog.Logger) *MissDetector {
	return &MissDetector{links: links, service: service, router: router, clock: clock, logger: logger}
}

// HandleCallback processes a due-by callback for scheduleID: resolves its
// linked commitment, and if still OPEN, transitions it to MISSED and
// dispatches missed/loop-closure notifications without letting delivery
// failures block the state transition.
func (d *MissDetector) HandleCallback(ctx context.Context, scheduleID, traceID string) (MissDetectionResult, error) {
	link, err := d.links.ResolveBySchedule(ctx, scheduleID)
	if err != nil {
		return MissDetectionResult{}, fmt.Errorf("resolve schedule link: %w", err)
	}
	if link == nil {
		return MissDetectionResult{Status: MissDetectionNoLink, ScheduleID: scheduleID}, nil
	}

	c, err := d.service.Get(ctx, link.CommitmentID)
	if err != nil {
		return MissDetectionResult{}, err
	}
	if c.State != domain.CommitmentOpen {
		return MissDetectionResult{Status: MissDetectionNoop, ScheduleID: scheduleID, CommitmentID: c.ID, CommitmentState: c.State}, nil
	}

	result, err := d.service.Transition(ctx, TransitionInput{
		CommitmentID: c.ID,
		ToState:      domain.CommitmentMissed,
		Actor:        domain.ActorSystem,
		Reason:       "due_by_expired",
		Context:      map[string]any{"schedule_id": scheduleID, "trace_id": traceID},
		TraceID:      traceID,
	})
	if err != nil {
		return MissDetectionResult{}, fmt.Errorf("transition to missed: %w", err)
	}

	d.dispatchMissedNotifications(ctx, result.Commitment)

	return MissDetectionResult{
		Status:          MissDetectionMissed,
		ScheduleID:      scheduleID,
		CommitmentID:    c.ID,
		CommitmentState: domain.CommitmentMissed,
	}, nil
}

// dispatchMissedNotifications mirrors original_source's
// _dispatch_missed_notifications: best-effort, errors are logged rather
// than propagated so a transport failure never reverses the transition
// already committed.
func (d *MissDetector) dispatchMissedNotifications(ctx context.Context, c *domain.Commitment) {
	if d.router == nil {
		return
	}
	now := d.clock.Now()
	env := domain.RoutingEnvelope{
		SignalType:      "commitment.missed",
		SignalReference: "commitment.missed:" + c.ID,
		Actor:           domain.ActorSystem,
		Owner:           c.Owner,
		Urgency:         float64(c.Urgency) / 100,
		ContentType:     "notification",
		Timestamp:       now,
		Notification: &domain.NotificationDescriptor{
			SourceComponent: "commitment.miss_detection",
			OriginSignal:    c.ID,
			Confidence:      1,
			Provenance: []domain.ProvenanceInput{
				{InputType: "commitment", Reference: c.ID, Description: "due_by expired"},
			},
		},
	}
	if _, err := d.router.Route(ctx, env); err != nil {
		d.logger.ErrorContext(ctx, "missed notification submission failed", "commitment_id", c.ID, "error", err)
	}

	prompt := env
	prompt.SignalType = "commitment.loop_closure_prompt"
	prompt.SignalReference = "commitment.loop_closure_prompt:" + c.ID
	if _, err := d.router.Route(ctx, prompt); err != nil {
		d.logger.ErrorContext(ctx, "loop-closure prompt delivery failed", "commitment_id", c.ID, "error", err)
	}
}
