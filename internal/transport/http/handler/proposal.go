package handler

import (
	"log/slog"
	"net/http"

	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/commitment"
	"github.com/gin-gonic/gin"
)

// ProposalHandler exposes the operator-approval workflow over pending
// creation/dedupe proposals, correlated via their stable proposal_ref
// (spec §4.8, §9).
type ProposalHandler struct {
	svc    *commitment.ProposalService
	clock  clockid.Clock
	logger *slog.Logger
}

func NewProposalHandler(svc *commitment.ProposalService, clock clockid.Clock, logger *slog.Logger) *ProposalHandler {
	return &ProposalHandler{svc: svc, clock: clock, logger: logger.With("component", "proposal_handler")}
}

type decideCreationProposalRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// DecideCreationProposal applies an operator's approve/reject decision to
// the pending creation/dedupe proposal matching ref.
func (h *ProposalHandler) DecideCreationProposal(ctx *gin.Context) {
	ref := ctx.Param("ref")

	var req decideCreationProposalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	operatorID := ctx.GetString("operatorID")
	if err := h.svc.DecideByRef(ctx.Request.Context(), ref, req.Approve, operatorID, req.Reason, h.clock); err != nil {
		h.logger.Error("decide creation proposal", "proposal_ref", ref, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errProposalNotFound})
		return
	}

	ctx.Status(http.StatusNoContent)
}
