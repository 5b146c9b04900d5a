package repository

import (
	"context"
	"errors"

	"github.com/getOrdira/ordira-voting/internal/policy"
	"github.com/google/uuid"
)

var (
	errUnknownPrincipal = errors.New("unknown principal")
	errUnknownTier      = errors.New("unknown plan tier")
)

// PolicySource adapts the user and plan tier tables to the resolver's
// lookup interface.
type PolicySource struct {
	users *UserRepository
	tiers *PlanTierRepository
}

func NewPolicySource(users *UserRepository, tiers *PlanTierRepository) *PolicySource {
	return &PolicySource{users: users, tiers: tiers}
}

func (s *PolicySource) TierForPrincipal(ctx context.Context, principalID uuid.UUID) (string, error) {
	user, err := s.users.FindByID(ctx, principalID)
	if err != nil {
		return "", err
	}
	if user == nil || !user.IsActive {
		return "", errUnknownPrincipal
	}
	return user.Tier, nil
}

func (s *PolicySource) PolicyForTier(ctx context.Context, tierName string) (policy.PlanPolicy, error) {
	tier, err := s.tiers.FindByName(ctx, tierName)
	if err != nil {
		return policy.PlanPolicy{}, err
	}
	if tier == nil {
		return policy.PlanPolicy{}, errUnknownTier
	}

	return policy.PlanPolicy{
		Tier:            tier.Name,
		PerMinute:       tier.PerMinute,
		PerHour:         tier.PerHour,
		PerDay:          tier.PerDay,
		BurstAllowance:  tier.BurstAllowance,
		CooldownSeconds: tier.CooldownSeconds,
	}, nil
}
