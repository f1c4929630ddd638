package domain

import "time"

// ScheduleAuditLog records a schedule mutation. Written in the same
// transaction as the state change it describes (spec §4.1, testable
// property 5).
type ScheduleAuditLog struct {
	ID         string
	ScheduleID string
	ActorType  Actor
	ActorID    string
	TraceID    string
	Reason     string
	DiffBefore map[string]any
	DiffAfter  map[string]any
	OccurredAt time.Time
}

// ExecutionAuditLog records an execution lifecycle transition (testable
// property 1: latest row's status must equal the execution's current
// status).
type ExecutionAuditLog struct {
	ID          string
	ExecutionID string
	ScheduleID  string
	TraceID     string
	ActorType   Actor
	Status      ExecutionStatus
	Reason      string
	OccurredAt  time.Time
}

// PredicateEvaluationAuditLog records one conditional-schedule evaluation.
// EvaluationID is unique; resubmitting it is a no-op (testable property 3).
type PredicateEvaluationAuditLog struct {
	ID           string
	EvaluationID string
	ScheduleID   string
	Status       string // TRUE | FALSE | ERROR
	ResultCode   string
	Observed     string
	ErrorCode    string
	EvaluatedAt  time.Time
}

// RoutingDecisionAuditLog records one attention-router pipeline decision.
type RoutingDecisionAuditLog struct {
	ID               string
	SignalReference  string
	ActorType        Actor
	ActorID          string
	TraceID          string
	Reason           string
	BaseAssessment   string
	FinalDecision    string
	Channel          string
	DecidedAt        time.Time
}
