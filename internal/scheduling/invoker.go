package scheduling

import "context"

// InvokeResult is the outcome of invoking a task intent for one execution.
type InvokeResult struct {
	Succeeded bool
	ErrorCode string
	ErrorMsg  string
}

// Invoker performs the actual work a schedule fires, generalizing
// Executor.Run (an HTTP POST to a user-supplied webhook) to
// whatever downstream action a task intent names. The concrete invoker used
// by cmd/core, ReminderInvoker, routes every fired schedule through the
// attention router; there is no other callback dispatch path.
type Invoker interface {
	Invoke(ctx context.Context, scheduleID string, taskIntentID string, traceID string) InvokeResult
}
