package service

import (
	"context"
	"time"

	"github.com/getOrdira/ordira-voting/internal/models"
	"github.com/google/uuid"
)

// ProposalStore is the registry side of the proposal repository.
type ProposalStore interface {
	Create(ctx context.Context, proposal *models.Proposal) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]models.Proposal, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ProposalStatus, updates map[string]interface{}) (bool, error)
}

// PendingCounter reports the unclaimed intent count for a scope.
type PendingCounter interface {
	CountUnclaimedForScope(ctx context.Context, businessID, proposalID uuid.UUID) (int64, error)
}

// ProposalService owns the proposal lifecycle:
// draft -> active -> completed, active -> cancelled.
// Only active proposals accept new vote intents.
type ProposalService struct {
	proposals ProposalStore
	pending   PendingCounter
}

func NewProposalService(proposals ProposalStore, pending PendingCounter) *ProposalService {
	return &ProposalService{proposals: proposals, pending: pending}
}

func (s *ProposalService) Create(ctx context.Context, businessID uuid.UUID, title, description string, optionLabels []string) (*models.Proposal, error) {
	proposal := &models.Proposal{
		ID:          uuid.New(),
		BusinessID:  businessID,
		Title:       title,
		Description: description,
		Status:      models.ProposalStatusDraft,
	}

	for i, label := range optionLabels {
		proposal.Options = append(proposal.Options, models.ProposalOption{
			ID:         uuid.New(),
			ProposalID: proposal.ID,
			Label:      label,
			Position:   i,
		})
	}

	if err := s.proposals.Create(ctx, proposal); err != nil {
		return nil, err
	}

	return proposal, nil
}

func (s *ProposalService) Get(ctx context.Context, id uuid.UUID) (*models.Proposal, int64, error) {
	proposal, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if proposal == nil {
		return nil, 0, ErrProposalNotFound
	}

	var pending int64
	if s.pending != nil {
		pending, err = s.pending.CountUnclaimedForScope(ctx, proposal.BusinessID, proposal.ID)
		if err != nil {
			return nil, 0, err
		}
	}

	return proposal, pending, nil
}

func (s *ProposalService) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]models.Proposal, error) {
	return s.proposals.ListByBusiness(ctx, businessID)
}

func (s *ProposalService) Activate(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return s.transition(ctx, id, models.ProposalStatusDraft, models.ProposalStatusActive,
		map[string]interface{}{"activated_at": now})
}

func (s *ProposalService) Complete(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return s.transition(ctx, id, models.ProposalStatusActive, models.ProposalStatusCompleted,
		map[string]interface{}{"closed_at": now})
}

func (s *ProposalService) Cancel(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return s.transition(ctx, id, models.ProposalStatusActive, models.ProposalStatusCancelled,
		map[string]interface{}{"closed_at": now})
}

func (s *ProposalService) transition(ctx context.Context, id uuid.UUID, from, to models.ProposalStatus, updates map[string]interface{}) error {
	proposal, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if proposal == nil {
		return ErrProposalNotFound
	}

	ok, err := s.proposals.UpdateStatus(ctx, id, from, to, updates)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}

	return nil
}
