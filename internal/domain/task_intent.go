package domain

import (
	"errors"
	"time"
)

var ErrTaskIntentNotFound = errors.New("task intent not found")

// TaskIntent is a stable unit of work: immutable except by explicit
// supersession, referenced by one or more schedules.
type TaskIntent struct {
	ID        string
	Summary   string
	Detail    string
	OriginRef string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time

	// SupersededBy points at the task intent that replaced this one, if any.
	SupersededBy *string
}
