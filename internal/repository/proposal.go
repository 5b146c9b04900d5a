package repository

import (
	"context"

	"github.com/getOrdira/ordira-voting/internal/models"
	"github.com/getOrdira/ordira-voting/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProposalRepository struct {
	db *storage.Postgres
}

func NewProposalRepository(db *storage.Postgres) *ProposalRepository {
	return &ProposalRepository{db: db}
}

func (r *ProposalRepository) Create(ctx context.Context, proposal *models.Proposal) error {
	return r.db.DB.WithContext(ctx).Create(proposal).Error
}

func (r *ProposalRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.DB.WithContext(ctx).
		Preload("Options").
		Where("id = ?", id).
		First(&proposal).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &proposal, err
}

func (r *ProposalRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.db.DB.WithContext(ctx).
		Preload("Options").
		Where("business_id = ?", businessID).
		Order("created_at DESC").
		Find(&proposals).Error

	return proposals, err
}

// UpdateStatus transitions only when the proposal is still in fromStatus.
// RowsAffected 0 means the transition lost to a concurrent one.
func (r *ProposalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ProposalStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = make(map[string]interface{})
	}
	updates["status"] = to

	result := r.db.DB.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)

	return result.RowsAffected > 0, result.Error
}

// IncrementCounters bumps the aggregate vote counters after a successful
// batch. The only mutation path outside explicit lifecycle calls.
func (r *ProposalRepository) IncrementCounters(ctx context.Context, id uuid.UUID, votes, participants int64) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"vote_count":        gorm.Expr("vote_count + ?", votes),
			"participant_count": gorm.Expr("participant_count + ?", participants),
		}).Error
}
