package commitment

import (
	"context"
	"fmt"
	"strings"

	"github.com/attentive-assistant/core/internal/attention"
	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/store"
)

// ReviewService builds and delivers the weekly commitment review, grounded
// on original_source's review_delivery.py
// (deliver_review_summary/record_review_engagement).
type ReviewService struct {
	commitments store.Commitments
	reviewLog   store.ReviewLog
	router      *attention.Router
	clock       clockid.Clock
}

func NewReviewService(commitments store.Commitments, reviewLog store.ReviewLog, router *attention.Router, clock clockid.Clock) *ReviewService {
	return &ReviewService{commitments: commitments, reviewLog: reviewLog, router: router, clock: clock}
}

// RunResult reports what a weekly review run produced.
type RunResult struct {
	FinalDecision string
	Included      []string
}

// Run aggregates every OPEN commitment into a narrative summary, delivers
// it via the attention router with a "signal" channel hint, and records a
// ReviewLogEntry. Route does not read ChannelHint, so the delivery channel
// comes from the policies and channel selection.
func (s *ReviewService) Run(ctx context.Context, owner string) (RunResult, error) {
	open, err := s.commitments.ListOpen(ctx, nil)
	if err != nil {
		return RunResult{}, fmt.Errorf("list open commitments: %w", err)
	}

	now := s.clock.Now()
	message := buildReviewMessage(open)
	included := make([]string, len(open))
	for i, c := range open {
		included[i] = c.ID
	}

	env := domain.RoutingEnvelope{
		SignalType:      "commitment.review",
		SignalReference: "commitment.review:" + now.Format("2006-01-02"),
		Actor:           domain.ActorScheduled,
		Owner:           owner,
		ContentType:     "notification",
		ChannelHint:     strPtr("signal"),
		Timestamp:       now,
		Notification: &domain.NotificationDescriptor{
			SourceComponent: "commitment.review",
			Confidence:      1,
			Provenance: []domain.ProvenanceInput{
				{InputType: "review", Description: "weekly commitment review"},
			},
		},
		SignalPayload: &domain.SignalPayload{Message: message},
	}

	result, err := s.router.Route(ctx, env)
	if err != nil {
		return RunResult{}, fmt.Errorf("route review notification: %w", err)
	}

	if err := s.reviewLog.Record(ctx, nil, &domain.ReviewLogEntry{
		Owner:    owner,
		RanAt:    now,
		Included: included,
	}); err != nil {
		return RunResult{}, fmt.Errorf("record review log: %w", err)
	}

	return RunResult{FinalDecision: result.FinalDecision, Included: included}, nil
}

// RecordEngagement marks the given commitments reviewed (their
// reviewed_at bumped to now), grounded on record_review_engagement.
func (s *ReviewService) RecordEngagement(ctx context.Context, commitmentIDs []string) error {
	now := s.clock.Now()
	for _, id := range commitmentIDs {
		c, err := s.commitments.Get(ctx, nil, id)
		if err != nil {
			return err
		}
		c.ReviewedAt = &now
		if err := s.commitments.Update(ctx, nil, c); err != nil {
			return fmt.Errorf("update reviewed_at for %s: %w", id, err)
		}
	}
	return nil
}

func buildReviewMessage(open []*domain.Commitment) string {
	if len(open) == 0 {
		return "No open commitments this week."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d open commitment(s):\n", len(open))
	for _, c := range open {
		fmt.Fprintf(&b, "- %s (urgency %d)\n", c.Description, c.Urgency)
	}
	return b.String()
}

func strPtr(s string) *string { return &s }
