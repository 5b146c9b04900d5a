package repository

import (
	"context"
	"errors"
	"time"

	"github.com/getOrdira/ordira-voting/internal/models"
	"github.com/getOrdira/ordira-voting/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateIntent is returned when an identical
// (business, proposal, user, option) intent already exists.
var ErrDuplicateIntent = errors.New("duplicate vote intent")

type VoteIntentRepository struct {
	db *storage.Postgres
}

func NewVoteIntentRepository(db *storage.Postgres) *VoteIntentRepository {
	return &VoteIntentRepository{db: db}
}

// Record inserts a new intent. The composite unique index is the dedup
// arbiter: a second identical intent fails the insert and is reported as
// ErrDuplicateIntent, never merged.
func (r *VoteIntentRepository) Record(ctx context.Context, intent *models.VoteIntent) error {
	err := r.db.DB.WithContext(ctx).Create(intent).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateIntent
	}
	return err
}

func (r *VoteIntentRepository) ListUnclaimedForScope(ctx context.Context, businessID, proposalID uuid.UUID) ([]models.VoteIntent, error) {
	var intents []models.VoteIntent
	err := r.db.DB.WithContext(ctx).
		Where("business_id = ? AND proposal_id = ? AND is_claimed = ?", businessID, proposalID, false).
		Order("created_at ASC").
		Find(&intents).Error

	return intents, err
}

func (r *VoteIntentRepository) CountUnclaimedForScope(ctx context.Context, businessID, proposalID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.VoteIntent{}).
		Where("business_id = ? AND proposal_id = ? AND is_claimed = ?", businessID, proposalID, false).
		Count(&count).Error

	return count, err
}

// Claim atomically transitions the given ids from unclaimed to claimed by
// batchID and returns the subset actually claimed. Ids already claimed by
// a concurrent batch are skipped, not double-claimed.
func (r *VoteIntentRepository) Claim(ctx context.Context, ids []uuid.UUID, batchID uuid.UUID) ([]models.VoteIntent, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	result := r.db.DB.WithContext(ctx).
		Model(&models.VoteIntent{}).
		Where("id IN ? AND is_claimed = ?", ids, false).
		Updates(map[string]interface{}{
			"is_claimed":       true,
			"claimed_batch_id": batchID,
			"claimed_at":       now,
		})

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	var claimed []models.VoteIntent
	err := r.db.DB.WithContext(ctx).
		Where("claimed_batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&claimed).Error

	return claimed, err
}

// MarkProcessed finalizes every intent claimed by batchID in one update,
// so a batch is never partially processed.
func (r *VoteIntentRepository) MarkProcessed(ctx context.Context, batchID uuid.UUID) error {
	now := time.Now().UTC()
	return r.db.DB.WithContext(ctx).
		Model(&models.VoteIntent{}).
		Where("claimed_batch_id = ?", batchID).
		Updates(map[string]interface{}{
			"is_processed": true,
			"processed_at": now,
		}).Error
}

// ReleaseClaim returns every intent claimed by batchID to the unclaimed
// pool after a failed submission.
func (r *VoteIntentRepository) ReleaseClaim(ctx context.Context, batchID uuid.UUID) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.VoteIntent{}).
		Where("claimed_batch_id = ? AND is_processed = ?", batchID, false).
		Updates(map[string]interface{}{
			"is_claimed":       false,
			"claimed_batch_id": nil,
			"claimed_at":       nil,
		}).Error
}

// ReleaseExpiredClaims unclaims intents whose batch never finished within
// the claim timeout. Crash recovery for coordinators that died mid-flight.
func (r *VoteIntentRepository) ReleaseExpiredClaims(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Model(&models.VoteIntent{}).
		Where("is_claimed = ? AND is_processed = ? AND claimed_at < ?", true, false, olderThan).
		Updates(map[string]interface{}{
			"is_claimed":       false,
			"claimed_batch_id": nil,
			"claimed_at":       nil,
		})

	return result.RowsAffected, result.Error
}

// PurgeExpired deletes unclaimed intents past the retention window and
// processed intents in the same range.
func (r *VoteIntentRepository) PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("created_at < ? AND (is_processed = ? OR is_claimed = ?)", olderThan, true, false).
		Delete(&models.VoteIntent{})

	return result.RowsAffected, result.Error
}

// DistinctScopesAboveThreshold lists (business, proposal) scopes whose
// unclaimed population reached the batch threshold. Used by the sweeper.
func (r *VoteIntentRepository) DistinctScopesAboveThreshold(ctx context.Context, threshold int) ([]models.VoteIntent, error) {
	var scopes []models.VoteIntent
	err := r.db.DB.WithContext(ctx).
		Model(&models.VoteIntent{}).
		Select("business_id, proposal_id").
		Where("is_claimed = ?", false).
		Group("business_id, proposal_id").
		Having("COUNT(*) >= ?", threshold).
		Find(&scopes).Error

	return scopes, err
}
