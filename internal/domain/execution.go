package domain

import (
	"errors"
	"time"
)

var (
	ErrExecutionNotFound = errors.New("execution not found")
	ErrDuplicateExecution = errors.New("execution already recorded for this (schedule_id, trace_id)")
)

// ExecutionStatus is the lifecycle status of a single scheduled run.
type ExecutionStatus string

const (
	ExecutionQueued         ExecutionStatus = "queued"
	ExecutionRunning        ExecutionStatus = "running"
	ExecutionSucceeded      ExecutionStatus = "succeeded"
	ExecutionFailed         ExecutionStatus = "failed"
	ExecutionCanceled       ExecutionStatus = "canceled"
	ExecutionRetryScheduled ExecutionStatus = "retry_scheduled"
)

// ExecutionError carries a code+message pair for the last failure, kept
// flat rather than wrapped so it serializes cleanly into audit rows.
type ExecutionError struct {
	Code    string
	Message string
}

// Execution is a single attempted run of a schedule at a scheduled time.
// Exactly one trace id is carried; any legacy "correlation_id" concept
// collapses into this single field (spec §9).
type Execution struct {
	ID          string
	ScheduleID  string
	TraceID     string
	ScheduledFor time.Time

	Status ExecutionStatus

	AttemptCount int
	MaxAttempts  int
	RetryCount   int
	NextRetryAt  *time.Time

	LastError *ExecutionError

	StartedAt  *time.Time
	FinishedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
