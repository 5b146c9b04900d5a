package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/getOrdira/ordira-voting/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProposalHandler struct {
	proposals *service.ProposalService
}

func NewProposalHandler(proposals *service.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposals: proposals}
}

func (h *ProposalHandler) Create(c *gin.Context) {
	var req struct {
		BusinessID  uuid.UUID `json:"business_id" binding:"required"`
		Title       string    `json:"title" binding:"required"`
		Description string    `json:"description"`
		Options     []string  `json:"options" binding:"required,min=2"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	proposal, err := h.proposals.Create(ctx, req.BusinessID, req.Title, req.Description, req.Options)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, proposal)
}

func (h *ProposalHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid proposal id"})
		return
	}

	ctx := c.Request.Context()
	proposal, pending, err := h.proposals.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrProposalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"proposal":        proposal,
		"pending_intents": pending,
	})
}

func (h *ProposalHandler) ListByBusiness(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("businessId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid business id"})
		return
	}

	ctx := c.Request.Context()
	proposals, err := h.proposals.ListByBusiness(ctx, businessID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, proposals)
}

func (h *ProposalHandler) Activate(c *gin.Context) {
	h.transition(c, h.proposals.Activate)
}

func (h *ProposalHandler) Complete(c *gin.Context) {
	h.transition(c, h.proposals.Complete)
}

func (h *ProposalHandler) Cancel(c *gin.Context) {
	h.transition(c, h.proposals.Cancel)
}

func (h *ProposalHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid proposal id"})
		return
	}

	if err := fn(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrProposalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
		case errors.Is(err, service.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "Invalid status transition", "code": "invalid_transition"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Proposal updated"})
}
