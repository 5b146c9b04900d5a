package service

import (
	"context"
	"log"
	"time"

	"github.com/getOrdira/ordira-voting/internal/models"
	"github.com/google/uuid"
)

// IntentRecorder is the insert half of the vote intent store.
type IntentRecorder interface {
	Record(ctx context.Context, intent *models.VoteIntent) error
}

// ProposalReader looks up proposals with their options.
type ProposalReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
}

// VoterMarker stamps the voter's last-vote time. Best effort.
type VoterMarker interface {
	UpdateLastVote(ctx context.Context, id uuid.UUID) error
}

// VoteService validates and records vote intents. Recording is durable
// and deduplicated; everything ledger-related happens later in the batch
// pipeline.
type VoteService struct {
	intents   IntentRecorder
	proposals ProposalReader
	voters    VoterMarker
	now       func() time.Time
}

func NewVoteService(intents IntentRecorder, proposals ProposalReader, voters VoterMarker) *VoteService {
	return &VoteService{
		intents:   intents,
		proposals: proposals,
		voters:    voters,
		now:       time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *VoteService) SetClock(now func() time.Time) {
	s.now = now
}

// RecordIntent validates the proposal and option, then inserts the intent
// with its verification hash. A duplicate surfaces as
// repository.ErrDuplicateIntent from the store.
func (s *VoteService) RecordIntent(ctx context.Context, userID, proposalID, optionID uuid.UUID) (*models.VoteIntent, error) {
	proposal, err := s.proposals.FindByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, ErrProposalNotFound
	}
	if proposal.Status != models.ProposalStatusActive {
		return nil, ErrProposalNotActive
	}
	if !proposal.HasOption(optionID) {
		return nil, ErrInvalidOption
	}

	createdAt := s.now().UTC()
	intent := &models.VoteIntent{
		ID:               uuid.New(),
		BusinessID:       proposal.BusinessID,
		ProposalID:       proposal.ID,
		UserID:           userID,
		SelectedOptionID: optionID,
		CreatedAt:        createdAt,
		VerificationHash: models.ComputeVerificationHash(proposal.BusinessID, proposal.ID, userID, optionID, createdAt),
	}

	if err := s.intents.Record(ctx, intent); err != nil {
		return nil, err
	}

	if s.voters != nil {
		if err := s.voters.UpdateLastVote(ctx, userID); err != nil {
			log.Printf("failed to update last vote for user %s: %v", userID, err)
		}
	}

	return intent, nil
}
