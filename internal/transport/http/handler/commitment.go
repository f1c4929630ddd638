package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/attentive-assistant/core/internal/commitment"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/gin-gonic/gin"
)

// CommitmentHandler exposes read queries over commitments, progress
// recording, and the operator-approval workflow over pending proposals
// (spec §4.8).
type CommitmentHandler struct {
	svc      *commitment.Service
	progress *commitment.ProgressService
	logger   *slog.Logger
}

func NewCommitmentHandler(svc *commitment.Service, progress *commitment.ProgressService, logger *slog.Logger) *CommitmentHandler {
	return &CommitmentHandler{svc: svc, progress: progress, logger: logger.With("component", "commitment_handler")}
}

func (h *CommitmentHandler) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	c, err := h.svc.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCommitmentNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errCommitmentNotFound})
			return
		}
		h.logger.Error("get commitment", "commitment_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *CommitmentHandler) ListOpen(ctx *gin.Context) {
	open, err := h.svc.ListOpen(ctx.Request.Context())
	if err != nil {
		h.logger.Error("list open commitments", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"commitments": open})
}

type recordProgressRequest struct {
	ProvenanceRef string         `json:"provenance_ref"`
	OccurredAt    time.Time      `json:"occurred_at"`
	Summary       string         `json:"summary"`
	Snippet       string         `json:"snippet"`
	Metadata      map[string]any `json:"metadata"`
}

// RecordProgress records evidence of forward motion against a commitment
// without transitioning its state.
func (h *CommitmentHandler) RecordProgress(ctx *gin.Context) {
	id := ctx.Param("id")

	var req recordProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.OccurredAt.IsZero() {
		req.OccurredAt = time.Now().UTC()
	}

	entry, err := h.progress.Record(ctx.Request.Context(), commitment.RecordInput{
		CommitmentID:  id,
		ProvenanceRef: req.ProvenanceRef,
		OccurredAt:    req.OccurredAt,
		Summary:       req.Summary,
		Snippet:       req.Snippet,
		Metadata:      req.Metadata,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCommitmentNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errCommitmentNotFound})
			return
		}
		h.logger.Error("record commitment progress", "commitment_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusCreated, entry)
}

type decideTransitionProposalRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// DecideTransitionProposal applies an operator's approve/reject decision
// to a pending CommitmentTransitionProposal (spec §4.8).
func (h *CommitmentHandler) DecideTransitionProposal(ctx *gin.Context) {
	id := ctx.Param("id")

	var req decideTransitionProposalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	operatorID := ctx.GetString("operatorID")
	if err := h.svc.DecideProposal(ctx.Request.Context(), id, req.Approve, operatorID, req.Reason); err != nil {
		h.logger.Error("decide transition proposal", "proposal_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.Status(http.StatusNoContent)
}
