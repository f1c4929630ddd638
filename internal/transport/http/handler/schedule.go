package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/scheduling"
	"github.com/gin-gonic/gin"
)

// ScheduleHandler exposes the read-only schedule/execution surface spec §6
// names (GetSchedule, ListSchedules, ListScheduleAudits, GetExecution,
// ListExecutions). Schedule mutation stays a direct scheduling.Service
// call from internal callers, not an HTTP concern.
type ScheduleHandler struct {
	svc    *scheduling.Service
	logger *slog.Logger
}

func NewScheduleHandler(svc *scheduling.Service, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, logger: logger.With("component", "schedule_handler")}
}

type scheduleResponse struct {
	ID                      string                   `json:"id"`
	TaskIntentID            string                   `json:"task_intent_id"`
	Timezone                string                   `json:"timezone"`
	Kind                    domain.ScheduleKind       `json:"kind"`
	State                   domain.ScheduleState      `json:"state"`
	NextRunAt               time.Time                `json:"next_run_at"`
	LastRunAt               *time.Time               `json:"last_run_at,omitempty"`
	LastRunStatus           *string                  `json:"last_run_status,omitempty"`
	ConsecutiveFailureCount int                      `json:"consecutive_failure_count"`
	LastExecutionID         *string                  `json:"last_execution_id,omitempty"`
}

func toScheduleResponse(s *domain.Schedule) scheduleResponse {
	return scheduleResponse{
		ID:                      s.ID,
		TaskIntentID:            s.TaskIntentID,
		Timezone:                s.Timezone,
		Kind:                    s.Definition.Kind,
		State:                   s.State,
		NextRunAt:               s.NextRunAt,
		LastRunAt:               s.LastRunAt,
		LastRunStatus:           s.LastRunStatus,
		ConsecutiveFailureCount: s.ConsecutiveFailureCount,
		LastExecutionID:         s.LastExecutionID,
	}
}

func (h *ScheduleHandler) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	s, err := h.svc.GetSchedule(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrScheduleNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
			return
		}
		h.logger.Error("get schedule", "schedule_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, toScheduleResponse(s))
}

func (h *ScheduleHandler) List(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	if limit <= 0 {
		limit = 50
	}

	schedules, err := h.svc.ListSchedules(ctx.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list schedules", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	items := make([]scheduleResponse, len(schedules))
	for i, s := range schedules {
		items[i] = toScheduleResponse(s)
	}
	ctx.JSON(http.StatusOK, gin.H{"schedules": items})
}

func (h *ScheduleHandler) ListAudits(ctx *gin.Context) {
	id := ctx.Param("id")

	audits, err := h.svc.ListScheduleAudits(ctx.Request.Context(), id)
	if err != nil {
		h.logger.Error("list schedule audits", "schedule_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"audits": audits})
}

func (h *ScheduleHandler) ListExecutions(ctx *gin.Context) {
	id := ctx.Param("id")
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	if limit <= 0 {
		limit = 50
	}

	executions, err := h.svc.ListExecutions(ctx.Request.Context(), id, limit)
	if err != nil {
		h.logger.Error("list executions", "schedule_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"executions": executions})
}

func (h *ScheduleHandler) GetExecution(ctx *gin.Context) {
	id := ctx.Param("id")

	e, err := h.svc.GetExecution(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrExecutionNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errExecutionNotFound})
			return
		}
		h.logger.Error("get execution", "execution_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, e)
}
