package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/getOrdira/ordira-voting/internal/batch"
	"github.com/getOrdira/ordira-voting/internal/circuitbreaker"
	"github.com/getOrdira/ordira-voting/internal/ledger"
	"github.com/getOrdira/ordira-voting/internal/storage"
	"github.com/gin-gonic/gin"
)

// Handles system-related endpoints
type SystemHandler struct {
	postgres    *storage.Postgres
	redis       *storage.RedisClient
	prober      *ledger.Prober
	breaker     *circuitbreaker.Breaker
	coordinator *batch.Coordinator
}

func NewSystemHandler(postgres *storage.Postgres, redis *storage.RedisClient, prober *ledger.Prober, breaker *circuitbreaker.Breaker, coordinator *batch.Coordinator) *SystemHandler {
	return &SystemHandler{
		postgres:    postgres,
		redis:       redis,
		prober:      prober,
		breaker:     breaker,
		coordinator: coordinator,
	}
}

// Health reports liveness of the service and its dependencies. The
// admission middleware skip list exempts this path.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	postgresOK := h.postgres.Ping(ctx) == nil
	redisOK := h.redis.Ping(ctx) == nil
	ledgerStatus := h.prober.Status()

	status := http.StatusOK
	overall := "healthy"
	if !postgresOK || !redisOK {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	} else if !ledgerStatus.IsHealthy {
		// Votes still queue while the ledger is down
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"postgres": postgresOK,
		"redis":    redisOK,
		"ledger":   ledgerStatus,
	})
}

// Status returns the batching pipeline internals for operators.
func (h *SystemHandler) Status(c *gin.Context) {
	metrics := h.breaker.Metrics()

	c.JSON(http.StatusOK, gin.H{
		"batch_threshold": h.coordinator.Threshold(),
		"inflight_scopes": h.coordinator.States(),
		"circuit_breaker": gin.H{
			"state":             metrics.State.String(),
			"failure_count":     metrics.FailureCount,
			"success_count":     metrics.SuccessCount,
			"last_failure_time": metrics.LastFailureTime,
			"last_state_change": metrics.LastStateChange,
		},
		"ledger": h.prober.Status(),
	})
}

// ResetBreaker manually closes the ledger circuit breaker.
func (h *SystemHandler) ResetBreaker(c *gin.Context) {
	h.breaker.Reset()

	c.JSON(http.StatusOK, gin.H{"message": "Circuit breaker reset successfully"})
}
