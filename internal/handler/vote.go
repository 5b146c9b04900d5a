package handler

import (
	"errors"
	"net/http"

	"github.com/getOrdira/ordira-voting/internal/batch"
	"github.com/getOrdira/ordira-voting/internal/middleware"
	"github.com/getOrdira/ordira-voting/internal/repository"
	"github.com/getOrdira/ordira-voting/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VoteHandler struct {
	votes       *service.VoteService
	proposals   *service.ProposalService
	coordinator *batch.Coordinator
}

func NewVoteHandler(votes *service.VoteService, proposals *service.ProposalService, coordinator *batch.Coordinator) *VoteHandler {
	return &VoteHandler{
		votes:       votes,
		proposals:   proposals,
		coordinator: coordinator,
	}
}

// Submit queues a vote intent. 202 means durably queued; 201 with a tx
// hash means this request happened to trigger and complete a batch.
func (h *VoteHandler) Submit(c *gin.Context) {
	var req struct {
		ProposalID       uuid.UUID `json:"proposal_id" binding:"required"`
		SelectedOptionID uuid.UUID `json:"selected_option_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	ctx := c.Request.Context()
	intent, err := h.votes.RecordIntent(ctx, userID, req.ProposalID, req.SelectedOptionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProposalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
		case errors.Is(err, service.ErrProposalNotActive):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Proposal is not accepting votes", "code": "proposal_not_active"})
		case errors.Is(err, service.ErrInvalidOption):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Option does not belong to proposal", "code": "invalid_option"})
		case errors.Is(err, repository.ErrDuplicateIntent):
			c.JSON(http.StatusConflict, gin.H{"error": "You already cast this vote", "code": "duplicate_intent"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record vote"})
		}
		return
	}

	scope := batch.Scope{BusinessID: intent.BusinessID, ProposalID: intent.ProposalID}
	result, submitErr := h.coordinator.MaybeSubmit(ctx, scope)

	if result.Submitted {
		c.JSON(http.StatusCreated, gin.H{
			"intent_id":         intent.ID,
			"verification_hash": intent.VerificationHash,
			"batch_id":          result.BatchID,
			"tx_hash":           result.TxHash,
		})
		return
	}

	// A ledger failure here is not the voter's problem: the intent is
	// durable and will ride a later batch.
	_ = submitErr

	c.JSON(http.StatusAccepted, gin.H{
		"intent_id":         intent.ID,
		"verification_hash": intent.VerificationHash,
		"status":            "queued",
	})
}

// ForceSubmit submits whatever is pending for a proposal regardless of
// the threshold.
func (h *VoteHandler) ForceSubmit(c *gin.Context) {
	var req struct {
		ProposalID uuid.UUID `json:"proposal_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	proposal, _, err := h.proposals.Get(ctx, req.ProposalID)
	if err != nil {
		if errors.Is(err, service.ErrProposalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load proposal"})
		return
	}

	scope := batch.Scope{BusinessID: proposal.BusinessID, ProposalID: proposal.ID}
	result, err := h.coordinator.ForceSubmit(ctx, scope)
	if err != nil {
		if errors.Is(err, batch.ErrNoPendingIntents) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No pending vote intents", "code": "no_pending_intents"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":        "Ledger submission failed, intents released for retry",
			"intent_count": result.IntentCount,
		})
		return
	}

	if !result.Submitted {
		// Claim race loss: another coordinator picked the batch up
		c.JSON(http.StatusOK, gin.H{"submitted": false, "message": "Batch claimed by another coordinator"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submitted":    true,
		"batch_id":     result.BatchID,
		"tx_hash":      result.TxHash,
		"intent_count": result.IntentCount,
	})
}
