package commitment

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/attentive-assistant/core/internal/attention"
	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/metrics"
	"github.com/attentive-assistant/core/internal/store"
)

// BuildProposalRef builds a deterministic proposal_ref from stable
// components, grounded verbatim on original_source's build_proposal_ref:
// scope:kind:sha1(components)[:16].
func BuildProposalRef(scope string, kind domain.CreationProposalKind, components []string) string {
	sum := sha1.Sum([]byte(strings.Join(components, "|")))
	fingerprint := hex.EncodeToString(sum[:])[:16]
	return fmt.Sprintf("%s:%s:%s", scope, kind, fingerprint)
}

// ProposalRoutingContext mirrors original_source's ProposalRoutingContext.
type ProposalRoutingContext struct {
	Scope                 string
	SourceChannel         string
	SourceActor           string
	FingerprintComponents []string
	Provenance            []domain.ProvenanceInput
}

// ProposalService persists and routes creation/dedupe proposals through
// the attention router with a stable, reply-matchable reference.
type ProposalService struct {
	proposals store.CreationProposals
	router    *attention.Router
	ids       clockid.IDGenerator
}

func NewProposalService(proposals store.CreationProposals, router *attention.Router, ids clockid.IDGenerator) *ProposalService {
	return &ProposalService{proposals: proposals, router: router, ids: ids}
}

// RouteCreationProposal persists the pending proposal (replacing any
// previous pending proposal with the same ref) and routes a notification
// carrying the proposal_ref in both the signal reference and the message
// body so a reply can be matched back to it, grounded on
// original_source's route_creation_proposal_notification.
func (s *ProposalService) RouteCreationProposal(ctx context.Context, owner string, kind domain.CreationProposalKind, payload map[string]any, suggestedDuplicate *string, summary string, rc ProposalRoutingContext) (string, error) {
	ref := BuildProposalRef(rc.Scope, kind, rc.FingerprintComponents)

	proposal := &domain.CommitmentCreationProposal{
		ProposalRef:        ref,
		Kind:               kind,
		Payload:            payload,
		SuggestedDuplicate: suggestedDuplicate,
		SummaryCapped:      summary,
		SourceChannel:      rc.SourceChannel,
		Status:             domain.ProposalPending,
	}
	if rc.SourceActor != "" {
		proposal.SourceActor = &rc.SourceActor
	}
	if err := s.proposals.Create(ctx, nil, proposal); err != nil {
		return "", fmt.Errorf("create creation proposal: %w", err)
	}
	metrics.CommitmentProposalsTotal.WithLabelValues(string(kind)).Inc()

	signalType := "commitment.creation_approval_proposal"
	if kind == domain.CreationProposalDedupe {
		signalType = "commitment.dedupe_proposal"
	}
	provenance := append([]domain.ProvenanceInput{
		{InputType: "proposal_ref", Reference: ref, Description: "Stable proposal reference for reply-based decisions."},
	}, rc.Provenance...)

	env := domain.RoutingEnvelope{
		SignalType:      signalType,
		SignalReference: fmt.Sprintf("%s:%s", signalType, ref),
		Actor:           domain.ActorSystem,
		Owner:           owner,
		ContentType:     "notification",
		Notification: &domain.NotificationDescriptor{
			SourceComponent: "commitment.proposal",
			OriginSignal:    ref,
			Confidence:      1,
			Provenance:      provenance,
		},
	}
	if _, err := s.router.Route(ctx, env); err != nil {
		return ref, fmt.Errorf("route proposal notification: %w", err)
	}
	return ref, nil
}

// DecideByRef applies an operator's reply decision to the pending
// proposal matching ref.
func (s *ProposalService) DecideByRef(ctx context.Context, ref string, approve bool, decidedBy, reason string, clock clockid.Clock) error {
	proposal, err := s.proposals.FindByRef(ctx, nil, ref)
	if err != nil {
		return fmt.Errorf("find proposal by ref: %w", err)
	}
	if proposal == nil {
		return fmt.Errorf("no proposal found for ref %q", ref)
	}
	status := domain.ProposalRejected
	if approve {
		status = domain.ProposalApproved
	}
	return s.proposals.Decide(ctx, nil, proposal.ID, status, decidedBy, reason, clock.Now())
}
