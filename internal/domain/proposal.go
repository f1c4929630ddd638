package domain

import (
	"errors"
	"time"
)

var ErrProposalNotFound = errors.New("proposal not found")

// ProposalStatus is shared by both proposal kinds.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
	ProposalCanceled ProposalStatus = "canceled"
)

// CommitmentTransitionProposal is created when the authority evaluator
// denies a system-initiated transition (spec §4.8).
type CommitmentTransitionProposal struct {
	ID             string
	CommitmentID   string
	FromState      CommitmentState
	ToState        CommitmentState
	Actor          Actor
	Confidence     float64
	Threshold      float64
	Reason         string
	Status         ProposalStatus
	ProposedAt     time.Time
	DecidedAt      *time.Time
	DecidedBy      *string
	DecisionReason *string
}

// CreationProposalKind discriminates dedupe vs approval creation proposals.
type CreationProposalKind string

const (
	CreationProposalDedupe   CreationProposalKind = "dedupe"
	CreationProposalApproval CreationProposalKind = "approval"
)

// CommitmentCreationProposal funnels duplicate/creation decisions through
// operator approval, correlated via a stable, deterministic reference
// string so replies can be matched back (spec §4.8, §9).
type CommitmentCreationProposal struct {
	ID                 string
	ProposalRef        string
	Kind               CreationProposalKind
	Payload            map[string]any
	SuggestedDuplicate *string // commitment id, dedupe only
	SummaryCapped      string
	SourceChannel      string
	SourceActor        *string
	Status             ProposalStatus
	ProposedAt         time.Time
	DecidedAt          *time.Time
	DecidedBy          *string
	DecisionReason     *string
}
