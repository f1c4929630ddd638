package handler

const (
	errInternalServer     = "Internal server error"
	errScheduleNotFound   = "Schedule not found"
	errExecutionNotFound  = "Execution not found"
	errCommitmentNotFound = "Commitment not found"
	errProposalNotFound   = "Proposal not found"
	errCallbackRejected   = "Callback rejected"
)
