package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/attentive-assistant/core/internal/apperr"
	"github.com/attentive-assistant/core/internal/scheduling"
	"github.com/gin-gonic/gin"
)

// CallbackHandler accepts provider-pushed "fire now" callbacks (spec §4.2).
type CallbackHandler struct {
	bridge *scheduling.CallbackBridge
	logger *slog.Logger
}

func NewCallbackHandler(bridge *scheduling.CallbackBridge, logger *slog.Logger) *CallbackHandler {
	return &CallbackHandler{bridge: bridge, logger: logger.With("component", "callback_handler")}
}

type providerCallbackRequest struct {
	ScheduleID    string     `json:"schedule_id" binding:"required"`
	TraceID       string     `json:"trace_id" binding:"required"`
	TriggerSource string     `json:"trigger_source" binding:"required"`
	EmittedAt     time.Time  `json:"emitted_at" binding:"required"`
	ScheduledFor  *time.Time `json:"scheduled_for"`
}

// Handle accepts a provider callback and idempotently dispatches an
// execution, returning {status:duplicate} when trace_id was already seen.
func (h *CallbackHandler) Handle(ctx *gin.Context) {
	var req providerCallbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exec, duplicate, err := h.bridge.Handle(ctx.Request.Context(), scheduling.CallbackRequest{
		ScheduleID:    req.ScheduleID,
		TraceID:       req.TraceID,
		TriggerSource: req.TriggerSource,
		EmittedAt:     req.EmittedAt,
		ScheduledFor:  req.ScheduledFor,
	})
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errCallbackRejected, "detail": err.Error()})
			return
		}
		h.logger.Error("handle provider callback", "schedule_id", req.ScheduleID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	if duplicate {
		ctx.JSON(http.StatusOK, gin.H{"status": "duplicate", "execution_id": exec.ID})
		return
	}
	ctx.JSON(http.StatusAccepted, gin.H{"status": "accepted", "execution_id": exec.ID})
}
