package handler

import (
	"net/http"
	"time"

	"github.com/getOrdira/ordira-voting/internal/models"
	"github.com/getOrdira/ordira-voting/internal/policy"
	"github.com/getOrdira/ordira-voting/internal/repository"
	"github.com/getOrdira/ordira-voting/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler exposes plan tier management, tier reassignment, batch
// audit review and request analytics.
type AdminHandler struct {
	users     *repository.UserRepository
	tiers     *repository.PlanTierRepository
	batches   *repository.BatchRecordRepository
	resolver  *policy.Resolver
	analytics *service.AnalyticsService
}

func NewAdminHandler(users *repository.UserRepository, tiers *repository.PlanTierRepository, batches *repository.BatchRecordRepository, resolver *policy.Resolver, analytics *service.AnalyticsService) *AdminHandler {
	return &AdminHandler{
		users:     users,
		tiers:     tiers,
		batches:   batches,
		resolver:  resolver,
		analytics: analytics,
	}
}

func (h *AdminHandler) ListTiers(c *gin.Context) {
	ctx := c.Request.Context()
	tiers, err := h.tiers.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, tiers)
}

func (h *AdminHandler) UpsertTier(c *gin.Context) {
	var req models.PlanTier
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Name = c.Param("name")

	ctx := c.Request.Context()
	if err := h.tiers.Upsert(ctx, &req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, req)
}

// UpdateUserTier reassigns a user's plan and invalidates the policy
// cache so the new limits take effect immediately instead of after the
// cache TTL.
func (h *AdminHandler) UpdateUserTier(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var req struct {
		Tier string `json:"tier" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	tier, err := h.tiers.FindByName(ctx, req.Tier)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if tier == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan tier"})
		return
	}

	if err := h.users.UpdateTier(ctx, id, req.Tier); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.resolver.Invalidate(id)

	c.JSON(http.StatusOK, gin.H{"message": "Tier updated", "tier": req.Tier})
}

// ListReleasedBatches shows recently released batches for phantom
// success review against the ledger.
func (h *AdminHandler) ListReleasedBatches(c *gin.Context) {
	since := time.Now().UTC().Add(-24 * time.Hour)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid since timestamp, use RFC3339"})
			return
		}
		since = parsed
	}

	ctx := c.Request.Context()
	records, err := h.batches.ListReleased(ctx, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, records)
}

func (h *AdminHandler) AnalyticsSummary(c *gin.Context) {
	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)

	ctx := c.Request.Context()
	summary, err := h.analytics.GetSummary(ctx, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}
