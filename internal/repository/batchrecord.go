package repository

import (
	"context"
	"time"

	"github.com/getOrdira/ordira-voting/internal/models"
	"github.com/getOrdira/ordira-voting/internal/storage"
	"github.com/google/uuid"
)

type BatchRecordRepository struct {
	db *storage.Postgres
}

func NewBatchRecordRepository(db *storage.Postgres) *BatchRecordRepository {
	return &BatchRecordRepository{db: db}
}

func (r *BatchRecordRepository) Create(ctx context.Context, record *models.BatchRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.DB.WithContext(ctx).Create(record).Error
}

func (r *BatchRecordRepository) Complete(ctx context.Context, batchID uuid.UUID, status models.BatchStatus, txHash, failReason string) error {
	now := time.Now().UTC()
	return r.db.DB.WithContext(ctx).
		Model(&models.BatchRecord{}).
		Where("batch_id = ?", batchID).
		Updates(map[string]interface{}{
			"status":       status,
			"tx_hash":      txHash,
			"fail_reason":  failReason,
			"completed_at": now,
		}).Error
}

// ListReleased returns released batches for phantom-success review.
func (r *BatchRecordRepository) ListReleased(ctx context.Context, since time.Time) ([]models.BatchRecord, error) {
	var records []models.BatchRecord
	err := r.db.DB.WithContext(ctx).
		Where("status = ? AND created_at >= ?", models.BatchStatusReleased, since).
		Order("created_at DESC").
		Find(&records).Error

	return records, err
}
