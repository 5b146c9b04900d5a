package repository

import (
	"context"

	"github.com/getOrdira/ordira-voting/internal/models"
	"github.com/getOrdira/ordira-voting/internal/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlanTierRepository struct {
	db *storage.Postgres
}

func NewPlanTierRepository(db *storage.Postgres) *PlanTierRepository {
	return &PlanTierRepository{db: db}
}

func (r *PlanTierRepository) FindByName(ctx context.Context, name string) (*models.PlanTier, error) {
	var tier models.PlanTier
	err := r.db.DB.WithContext(ctx).
		Where("name = ?", name).
		First(&tier).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &tier, err
}

func (r *PlanTierRepository) List(ctx context.Context) ([]models.PlanTier, error) {
	var tiers []models.PlanTier
	err := r.db.DB.WithContext(ctx).
		Order("per_day ASC").
		Find(&tiers).Error

	return tiers, err
}

func (r *PlanTierRepository) Upsert(ctx context.Context, tier *models.PlanTier) error {
	return r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			UpdateAll: true,
		}).
		Create(tier).Error
}

// SeedDefaults inserts the built-in plan tiers, leaving existing rows
// untouched so operator edits survive restarts.
func (r *PlanTierRepository) SeedDefaults(ctx context.Context) error {
	defaults := []models.PlanTier{
		{Name: "foundation", PerMinute: 5, PerHour: 50, PerDay: 200, BurstAllowance: 0, CooldownSeconds: 60},
		{Name: "growth", PerMinute: 15, PerHour: 200, PerDay: 1000, BurstAllowance: 5, CooldownSeconds: 30},
		{Name: "premium", PerMinute: 60, PerHour: 1000, PerDay: 10000, BurstAllowance: 20, CooldownSeconds: 10},
		{Name: "enterprise", PerMinute: 300, PerHour: 10000, PerDay: 100000, BurstAllowance: 100, CooldownSeconds: 0},
	}

	return r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&defaults).Error
}
