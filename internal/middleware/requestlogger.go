package middleware

import (
	"context"
	"log"
	"time"

	"github.com/getOrdira/ordira-voting/internal/models"
	"github.com/getOrdira/ordira-voting/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Buffered channel for async logging
var logChannel chan models.RequestLog

// InitRequestLogger starts the background worker that batch-inserts
// request logs.
func InitRequestLogger(repo *repository.RequestLogRepository, bufferSize int) {
	logChannel = make(chan models.RequestLog, bufferSize)

	go func() {
		batch := make([]models.RequestLog, 0, 100)
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case entry := <-logChannel:
				batch = append(batch, entry)

				if len(batch) >= 100 {
					insertBatch(repo, batch)
					batch = make([]models.RequestLog, 0, 100)
				}
			case <-ticker.C:
				if len(batch) > 0 {
					insertBatch(repo, batch)
					batch = make([]models.RequestLog, 0, 100)
				}
			}
		}
	}()
}

func insertBatch(repo *repository.RequestLogRepository, logs []models.RequestLog) {
	if err := repo.InsertBatch(context.Background(), logs); err != nil {
		// Log error but dont block
		log.Printf("failed to insert request logs: %v", err)
	}
}

// RequestLogger records every HTTP request, including the admission
// outcome when the request was rate limited.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)

		var userID *uuid.UUID
		if id, ok := UserID(c); ok {
			userID = &id
		}

		logEntry := models.RequestLog{
			Timestamp:      start,
			UserID:         userID,
			Method:         c.Request.Method,
			Path:           c.Request.URL.Path,
			StatusCode:     c.Writer.Status(),
			ResponseTimeMs: int(duration.Milliseconds()),
			IPAddress:      c.ClientIP(),
			UserAgent:      c.Request.UserAgent(),
			AdmissionCode:  c.GetString("admission_code"),
		}

		select {
		case logChannel <- logEntry:
		default:
			// Channel full, skip logging to avoid blocking
		}
	}
}
