// Package httptransport wires the HTTP surface: provider callback
// ingestion, administrative/read-only schedule/execution/commitment
// reads, proposal approval, health, and metrics. Outbound notification
// delivery itself happens through the attention router, not an HTTP
// request. This surface only ingests callbacks and serves operators and
// monitoring.
package httptransport

import (
	"log/slog"

	"github.com/attentive-assistant/core/internal/transport/http/handler"
	"github.com/attentive-assistant/core/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sloggin "github.com/samber/slog-gin"
)

func NewRouter(
	scheduleHandler *handler.ScheduleHandler,
	commitmentHandler *handler.CommitmentHandler,
	proposalHandler *handler.ProposalHandler,
	healthHandler *handler.HealthHandler,
	callbackHandler *handler.CallbackHandler,
	jwtKey []byte,
	callbackSecret string,
	logger *slog.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), sloggin.New(logger), middleware.Metrics())

	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/callbacks", middleware.CallbackSecret(callbackSecret), callbackHandler.Handle)

	admin := r.Group("/admin", middleware.Auth(jwtKey))

	admin.GET("/schedules", scheduleHandler.List)
	admin.GET("/schedules/:id", scheduleHandler.Get)
	admin.GET("/schedules/:id/audits", scheduleHandler.ListAudits)
	admin.GET("/schedules/:id/executions", scheduleHandler.ListExecutions)
	admin.GET("/executions/:id", scheduleHandler.GetExecution)

	admin.GET("/commitments", commitmentHandler.ListOpen)
	admin.GET("/commitments/:id", commitmentHandler.Get)
	admin.POST("/commitments/:id/progress", commitmentHandler.RecordProgress)
	admin.POST("/commitment-proposals/:id/decision", commitmentHandler.DecideTransitionProposal)
	admin.POST("/creation-proposals/:ref/decision", proposalHandler.DecideCreationProposal)

	return r
}
