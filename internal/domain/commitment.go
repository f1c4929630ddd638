package domain

import (
	"errors"
	"time"
)

var (
	ErrCommitmentNotFound          = errors.New("commitment not found")
	ErrIllegalCommitmentTransition = errors.New("illegal commitment state transition")
	ErrActiveLinkExists            = errors.New("commitment already has an active schedule link")
)

// CommitmentState is the state-machine state of a commitment (spec §3, §4.6).
type CommitmentState string

const (
	CommitmentOpen      CommitmentState = "OPEN"
	CommitmentCompleted CommitmentState = "COMPLETED"
	CommitmentMissed    CommitmentState = "MISSED"
	CommitmentCanceled  CommitmentState = "CANCELED"
)

// commitmentTransitions enumerates the legal state graph: OPEN ->
// {COMPLETED, MISSED, CANCELED}; MISSED -> OPEN (reopen); terminal states
// are sinks.
var commitmentTransitions = map[CommitmentState]map[CommitmentState]bool{
	CommitmentOpen: {
		CommitmentCompleted: true,
		CommitmentMissed:    true,
		CommitmentCanceled:  true,
	},
	CommitmentMissed: {
		CommitmentOpen: true,
	},
	CommitmentCompleted: {},
	CommitmentCanceled:  {},
}

// CanTransitionCommitment reports whether from -> to is legal.
func CanTransitionCommitment(from, to CommitmentState) bool {
	allowed, ok := commitmentTransitions[from]
	if !ok {
		return false
	}
	return allowed[to]
}

// Commitment models a user-made promise as a state machine.
type Commitment struct {
	ID          string
	Owner       string
	Description string
	Importance  int // 1..3
	Effort      int // 1..3
	DueBy       *time.Time
	Urgency     int // 1..100, computed
	State       CommitmentState

	ProvenanceRef string

	LastProgressAt *time.Time
	EverMissedAt   *time.Time
	ReviewedAt     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommitmentStateTransition is an applied transition's audit row.
type CommitmentStateTransition struct {
	ID             string
	CommitmentID   string
	FromState      CommitmentState
	ToState        CommitmentState
	Actor          Actor
	Reason         string
	Context        map[string]any
	Confidence     *float64
	Provenance     string
	TransitionedAt time.Time
}

// CommitmentProgressEntry records one piece of evidence that a commitment
// is moving forward, independent of any state transition.
type CommitmentProgressEntry struct {
	ID            string
	CommitmentID  string
	ProvenanceRef string
	OccurredAt    time.Time
	Summary       string
	Snippet       string
	Metadata      map[string]any
	CreatedAt     time.Time
}

// CommitmentScheduleLink ties a commitment to a schedule for reminders and
// miss detection. At most one is_active=true link may exist per commitment
// (spec §3, §5 one-active-link invariant).
type CommitmentScheduleLink struct {
	ID           string
	CommitmentID string
	ScheduleID   string
	IsActive     bool
	CreatedAt    time.Time
}
