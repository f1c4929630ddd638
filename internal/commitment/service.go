package commitment

import (
	"context"
	"fmt"
	"time"

	"github.com/attentive-assistant/core/internal/apperr"
	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/metrics"
	"github.com/attentive-assistant/core/internal/store"
)

// DefaultAutonomousConfidenceThreshold gates system-initiated transitions
// other than ->MISSED (spec §4.8).
const DefaultAutonomousConfidenceThreshold = 0.75

// Service implements commitment CRUD and authority-gated state
// transitions. No direct analogue exists upstream; built in the
// usecase constructor-injection shape used throughout the pack.
type Service struct {
	db          store.Beginner
	commitments store.Commitments
	proposals   store.TransitionProposals
	clock       clockid.Clock
	ids         clockid.IDGenerator
	threshold   float64
}

func NewService(db store.Beginner, commitments store.Commitments, proposals store.TransitionProposals, clock clockid.Clock, ids clockid.IDGenerator) *Service {
	return &Service{db: db, commitments: commitments, proposals: proposals, clock: clock, ids: ids, threshold: DefaultAutonomousConfidenceThreshold}
}

// CreateInput describes a new commitment. Importance/Effort default to 2
// (mid-scale) when zero, matching original_source's creation defaults.
type CreateInput struct {
	Owner         string
	Description   string
	Importance    int // 1..3, default 2
	Effort        int // 1..3, default 2
	DueBy         *time.Time
	ProvenanceRef string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Commitment, error) {
	importance := in.Importance
	if importance == 0 {
		importance = 2
	}
	effort := in.Effort
	if effort == 0 {
		effort = 2
	}

	now := s.clock.Now()
	c := &domain.Commitment{
		Owner:         in.Owner,
		Description:   in.Description,
		Importance:    importance,
		Effort:        effort,
		DueBy:         in.DueBy,
		Urgency:       ComputeUrgency(in.DueBy, importance, effort, now),
		State:         domain.CommitmentOpen,
		ProvenanceRef: in.ProvenanceRef,
	}
	if err := s.commitments.Create(ctx, nil, c); err != nil {
		return nil, fmt.Errorf("create commitment: %w", err)
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Commitment, error) {
	return s.commitments.Get(ctx, nil, id)
}

// UpdateDetailsInput patches a commitment's importance/effort/due-by. A nil
// field leaves that column unchanged.
type UpdateDetailsInput struct {
	CommitmentID string
	Importance   *int
	Effort       *int
	DueBy        *time.Time
	ClearDueBy   bool
}

// UpdateDetails changes importance, effort, and/or due-by and recomputes
// urgency from the result (spec §4.6: "urgency is recomputed whenever
// importance, effort, or due-by changes"). Not a state transition, so it
// writes no CommitmentStateTransition row.
func (s *Service) UpdateDetails(ctx context.Context, in UpdateDetailsInput) (*domain.Commitment, error) {
	c, err := s.commitments.Get(ctx, nil, in.CommitmentID)
	if err != nil {
		return nil, err
	}

	if in.Importance != nil {
		c.Importance = *in.Importance
	}
	if in.Effort != nil {
		c.Effort = *in.Effort
	}
	if in.ClearDueBy {
		c.DueBy = nil
	} else if in.DueBy != nil {
		c.DueBy = in.DueBy
	}

	c.Urgency = ComputeUrgency(c.DueBy, c.Importance, c.Effort, s.clock.Now())
	if err := s.commitments.Update(ctx, nil, c); err != nil {
		return nil, fmt.Errorf("update commitment details: %w", err)
	}
	return c, nil
}

func (s *Service) ListOpen(ctx context.Context) ([]*domain.Commitment, error) {
	return s.commitments.ListOpen(ctx, nil)
}

// TransitionInput requests a state change. Confidence is required for any
// system-initiated transition other than ->MISSED.
type TransitionInput struct {
	CommitmentID string
	ToState      domain.CommitmentState
	Actor        domain.Actor
	Reason       string
	Confidence   *float64
	Context      map[string]any
	TraceID      string
}

// TransitionResult reports whether the transition applied immediately or
// was routed to a pending operator proposal instead.
type TransitionResult struct {
	Commitment *domain.Commitment
	Proposal   *domain.CommitmentTransitionProposal
	Applied    bool
}

// Transition applies or proposes a state change per the authority
// evaluator (spec §4.8, testable property: denied autonomous transitions
// become proposals, never silently drop).
func (s *Service) Transition(ctx context.Context, in TransitionInput) (TransitionResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c, err := s.commitments.Get(ctx, tx, in.CommitmentID)
	if err != nil {
		return TransitionResult{}, err
	}
	if !domain.CanTransitionCommitment(c.State, in.ToState) {
		return TransitionResult{}, apperr.Wrap(apperr.KindValidation, "illegal commitment state transition", domain.ErrIllegalCommitmentTransition)
	}

	authority := EvaluateAuthority(in.ToState, in.Actor, in.Confidence, s.threshold)
	if !authority.Allow {
		proposal := &domain.CommitmentTransitionProposal{
			CommitmentID: in.CommitmentID,
			FromState:    c.State,
			ToState:      in.ToState,
			Actor:        in.Actor,
			Confidence:   authority.EffectiveConfidence,
			Threshold:    authority.Threshold,
			Reason:       authority.Reason,
			Status:       domain.ProposalPending,
		}
		if err := s.proposals.Create(ctx, tx, proposal); err != nil {
			return TransitionResult{}, fmt.Errorf("create transition proposal: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return TransitionResult{}, fmt.Errorf("commit tx: %w", err)
		}
		metrics.CommitmentProposalsTotal.WithLabelValues("transition").Inc()
		return TransitionResult{Commitment: c, Proposal: proposal}, nil
	}

	from := c.State
	c.State = in.ToState
	now := s.clock.Now()
	if in.ToState == domain.CommitmentMissed && c.EverMissedAt == nil {
		c.EverMissedAt = &now
	}
	if err := s.commitments.Update(ctx, tx, c); err != nil {
		return TransitionResult{}, fmt.Errorf("update commitment: %w", err)
	}
	if err := s.commitments.RecordTransition(ctx, tx, &domain.CommitmentStateTransition{
		CommitmentID: in.CommitmentID,
		FromState:    from,
		ToState:      in.ToState,
		Actor:        in.Actor,
		Reason:       in.Reason,
		Context:      in.Context,
		Confidence:   in.Confidence,
		Provenance:   in.TraceID,
	}); err != nil {
		return TransitionResult{}, fmt.Errorf("record commitment transition: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return TransitionResult{}, fmt.Errorf("commit tx: %w", err)
	}
	metrics.CommitmentTransitionsTotal.WithLabelValues(string(in.Actor), string(in.ToState)).Inc()
	return TransitionResult{Commitment: c, Applied: true}, nil
}

// DecideProposal applies an operator's decision on a pending transition
// proposal, applying the transition itself when approved.
func (s *Service) DecideProposal(ctx context.Context, proposalID string, approve bool, decidedBy, reason string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	proposal, err := s.proposals.Get(ctx, tx, proposalID)
	if err != nil {
		return err
	}
	status := domain.ProposalRejected
	if approve {
		status = domain.ProposalApproved
	}
	now := s.clock.Now()
	if err := s.proposals.Decide(ctx, tx, proposalID, status, decidedBy, reason, now); err != nil {
		return fmt.Errorf("decide transition proposal: %w", err)
	}

	if approve {
		c, err := s.commitments.Get(ctx, tx, proposal.CommitmentID)
		if err != nil {
			return err
		}
		c.State = proposal.ToState
		if proposal.ToState == domain.CommitmentMissed && c.EverMissedAt == nil {
			c.EverMissedAt = &now
		}
		if err := s.commitments.Update(ctx, tx, c); err != nil {
			return fmt.Errorf("apply approved transition: %w", err)
		}
		if err := s.commitments.RecordTransition(ctx, tx, &domain.CommitmentStateTransition{
			CommitmentID: proposal.CommitmentID,
			FromState:    proposal.FromState,
			ToState:      proposal.ToState,
			Actor:        domain.ActorHuman,
			Reason:       "proposal_approved:" + reason,
		}); err != nil {
			return fmt.Errorf("record approved transition: %w", err)
		}
		metrics.CommitmentTransitionsTotal.WithLabelValues(string(domain.ActorHuman), string(proposal.ToState)).Inc()
	}

	return tx.Commit(ctx)
}
