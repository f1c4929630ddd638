// Package store defines the repository interfaces every subsystem depends
// on, mirroring the internal/repository package: one interface
// per aggregate, a shared Tx abstraction for cross-repository atomicity,
// and domain sentinel errors for not-found/conflict cases.
package store

import (
	"context"
	"time"

	"github.com/attentive-assistant/core/internal/domain"
)

// Tx is an open transaction handle. Repositories accept an optional Tx so
// callers can compose multi-repository atomic operations (e.g. claim +
// mutate + audit), the same pattern as the ClaimAndFire.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Beginner starts transactions. Implemented by the pgx pool wrapper.
type Beginner interface {
	Begin(ctx context.Context) (Tx, error)
}

// TaskIntents persists TaskIntent rows.
type TaskIntents interface {
	Create(ctx context.Context, tx Tx, ti *domain.TaskIntent) error
	Get(ctx context.Context, tx Tx, id string) (*domain.TaskIntent, error)
	Supersede(ctx context.Context, tx Tx, oldID, newID string) error
}

// Schedules persists Schedule rows and implements the claim/advance queries
// the dispatcher needs.
type Schedules interface {
	Create(ctx context.Context, tx Tx, s *domain.Schedule) error
	Get(ctx context.Context, tx Tx, id string) (*domain.Schedule, error)
	Update(ctx context.Context, tx Tx, s *domain.Schedule) error
	ListDue(ctx context.Context, tx Tx, asOf time.Time, limit int) ([]*domain.Schedule, error)
	ListConditional(ctx context.Context, tx Tx, asOf time.Time, limit int) ([]*domain.Schedule, error)
	// ClaimDue selects schedules due to fire, locking them FOR UPDATE SKIP
	// LOCKED within the given transaction so concurrent dispatcher workers
	// never double-fire the same schedule (grounded on the
	// ClaimAndFire query in internal/infrastructure/postgres/job_repo.go).
	ClaimDue(ctx context.Context, tx Tx, asOf time.Time, limit int) ([]*domain.Schedule, error)
	// List returns the most recently created schedules, for the admin
	// read-only surface (spec §6 ListSchedules).
	List(ctx context.Context, tx Tx, limit int) ([]*domain.Schedule, error)
}

// Executions persists Execution rows.
type Executions interface {
	Create(ctx context.Context, tx Tx, e *domain.Execution) error
	Get(ctx context.Context, tx Tx, id string) (*domain.Execution, error)
	Update(ctx context.Context, tx Tx, e *domain.Execution) error
	FindByScheduleAndTrace(ctx context.Context, tx Tx, scheduleID, traceID string) (*domain.Execution, error)
	ListRetryDue(ctx context.Context, tx Tx, asOf time.Time, limit int) ([]*domain.Execution, error)
	// ListBySchedule returns scheduleID's executions newest-first, for the
	// admin read-only surface (spec §6 ListExecutions).
	ListBySchedule(ctx context.Context, tx Tx, scheduleID string, limit int) ([]*domain.Execution, error)
}

// AuditLogs persists the four audit-log tables. Writes happen inside the
// same transaction as the change they describe (spec testable property 5).
type AuditLogs interface {
	RecordSchedule(ctx context.Context, tx Tx, l *domain.ScheduleAuditLog) error
	RecordExecution(ctx context.Context, tx Tx, l *domain.ExecutionAuditLog) error
	RecordPredicateEvaluation(ctx context.Context, tx Tx, l *domain.PredicateEvaluationAuditLog) error
	FindPredicateEvaluation(ctx context.Context, tx Tx, evaluationID string) (*domain.PredicateEvaluationAuditLog, error)
	RecordRoutingDecision(ctx context.Context, tx Tx, l *domain.RoutingDecisionAuditLog) error
	ListExecutionAudit(ctx context.Context, tx Tx, executionID string) ([]*domain.ExecutionAuditLog, error)
	// ListScheduleAudit returns scheduleID's audit trail, oldest-first, for
	// the admin read-only surface (spec §6 ListScheduleAudits).
	ListScheduleAudit(ctx context.Context, tx Tx, scheduleID string) ([]*domain.ScheduleAuditLog, error)
}

// Commitments persists Commitment rows and their state-transition audit
// trail.
type Commitments interface {
	Create(ctx context.Context, tx Tx, c *domain.Commitment) error
	Get(ctx context.Context, tx Tx, id string) (*domain.Commitment, error)
	Update(ctx context.Context, tx Tx, c *domain.Commitment) error
	ListOpen(ctx context.Context, tx Tx) ([]*domain.Commitment, error)
	RecordTransition(ctx context.Context, tx Tx, t *domain.CommitmentStateTransition) error
	ListTransitions(ctx context.Context, tx Tx, commitmentID string) ([]*domain.CommitmentStateTransition, error)
}

// CommitmentProgress persists progress evidence against a commitment,
// independent of its state transitions.
type CommitmentProgress interface {
	Create(ctx context.Context, tx Tx, p *domain.CommitmentProgressEntry) error
	ListByCommitment(ctx context.Context, tx Tx, commitmentID string) ([]*domain.CommitmentProgressEntry, error)
}

// CommitmentScheduleLinks persists the commitment<->schedule link table,
// enforcing the one-active-link invariant transactionally.
type CommitmentScheduleLinks interface {
	DeactivateActive(ctx context.Context, tx Tx, commitmentID string) error
	Insert(ctx context.Context, tx Tx, l *domain.CommitmentScheduleLink) error
	FindActiveByCommitment(ctx context.Context, tx Tx, commitmentID string) (*domain.CommitmentScheduleLink, error)
	FindActiveBySchedule(ctx context.Context, tx Tx, scheduleID string) (*domain.CommitmentScheduleLink, error)
}

// TransitionProposals persists system-denied commitment transitions
// awaiting operator approval.
type TransitionProposals interface {
	Create(ctx context.Context, tx Tx, p *domain.CommitmentTransitionProposal) error
	Get(ctx context.Context, tx Tx, id string) (*domain.CommitmentTransitionProposal, error)
	Decide(ctx context.Context, tx Tx, id string, status domain.ProposalStatus, decidedBy, reason string, decidedAt time.Time) error
	ListPending(ctx context.Context, tx Tx) ([]*domain.CommitmentTransitionProposal, error)
}

// CreationProposals persists dedupe/approval creation proposals.
type CreationProposals interface {
	Create(ctx context.Context, tx Tx, p *domain.CommitmentCreationProposal) error
	FindByRef(ctx context.Context, tx Tx, ref string) (*domain.CommitmentCreationProposal, error)
	Decide(ctx context.Context, tx Tx, id string, status domain.ProposalStatus, decidedBy, reason string, decidedAt time.Time) error
	ListPending(ctx context.Context, tx Tx) ([]*domain.CommitmentCreationProposal, error)
}

// AttentionContexts persists per-owner quiet-hours/DND/interruptible
// windows.
type AttentionContexts interface {
	Get(ctx context.Context, tx Tx, owner string) (*domain.AttentionContext, error)
	Upsert(ctx context.Context, tx Tx, c *domain.AttentionContext) error
}

// AttentionPreferences persists per-owner channel preferences, escalation
// thresholds, and always-notify exceptions.
type AttentionPreferences interface {
	Get(ctx context.Context, tx Tx, owner string) (*domain.AttentionPreferences, error)
	Upsert(ctx context.Context, tx Tx, p *domain.AttentionPreferences) error
}

// NotificationHistory persists per-owner routed-signal history, consumed
// by rate limiting.
type NotificationHistory interface {
	Record(ctx context.Context, tx Tx, e *domain.NotificationHistoryEntry) error
	CountSince(ctx context.Context, tx Tx, owner, channel string, since time.Time) (int, error)
}

// FailClosedQueue persists queued signals awaiting reprocessing.
type FailClosedQueue interface {
	Enqueue(ctx context.Context, tx Tx, e *domain.FailClosedQueueEntry) error
	ListDue(ctx context.Context, tx Tx, asOf time.Time, limit int) ([]*domain.FailClosedQueueEntry, error)
	Delete(ctx context.Context, tx Tx, id string) error
}

// DeferredSignals persists batched/deferred signals awaiting digest
// materialization.
type DeferredSignals interface {
	Enqueue(ctx context.Context, tx Tx, s *domain.DeferredSignal) error
	ListByOwnerTopic(ctx context.Context, tx Tx, owner, topic string) ([]*domain.DeferredSignal, error)
	DeleteBatch(ctx context.Context, tx Tx, ids []string) error
}

// Batches persists materialized digests.
type Batches interface {
	Create(ctx context.Context, tx Tx, b *domain.Batch) error
	ListUndelivered(ctx context.Context, tx Tx, owner string) ([]*domain.Batch, error)
	MarkDelivered(ctx context.Context, tx Tx, id string, at time.Time) error
}

// EscalationLog persists escalation steps.
type EscalationLog interface {
	Record(ctx context.Context, tx Tx, e *domain.EscalationLogEntry) error
	ListByOwnerSignalType(ctx context.Context, tx Tx, owner, signalType string, since time.Time) ([]*domain.EscalationLogEntry, error)
}

// ReviewLog persists weekly review runs.
type ReviewLog interface {
	Record(ctx context.Context, tx Tx, e *domain.ReviewLogEntry) error
	Latest(ctx context.Context, tx Tx, owner string) (*domain.ReviewLogEntry, error)
}

// Store aggregates every repository, the same shape as the
// top-level repository container wired into usecases via constructor
// injection.
type Store struct {
	Beginner

	TaskIntents             TaskIntents
	Schedules               Schedules
	Executions              Executions
	AuditLogs               AuditLogs
	Commitments             Commitments
	CommitmentProgress      CommitmentProgress
	CommitmentScheduleLinks CommitmentScheduleLinks
	TransitionProposals     TransitionProposals
	CreationProposals       CreationProposals
	AttentionContexts       AttentionContexts
	AttentionPreferences    AttentionPreferences
	NotificationHistory     NotificationHistory
	FailClosedQueue         FailClosedQueue
	DeferredSignals         DeferredSignals
	Batches                 Batches
	EscalationLog           EscalationLog
	ReviewLog               ReviewLog
}
