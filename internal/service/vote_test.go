package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getOrdira/ordira-voting/internal/models"
	"github.com/getOrdira/ordira-voting/internal/repository"
	"github.com/google/uuid"
)

type fakeIntentRecorder struct {
	recorded []*models.VoteIntent
	err      error
}

func (f *fakeIntentRecorder) Record(ctx context.Context, intent *models.VoteIntent) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, intent)
	return nil
}

type fakeProposalReader struct {
	proposal *models.Proposal
	err      error
}

func (f *fakeProposalReader) FindByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	return f.proposal, f.err
}

type fakeVoterMarker struct {
	marked []uuid.UUID
	err    error
}

func (f *fakeVoterMarker) UpdateLastVote(ctx context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.marked = append(f.marked, id)
	return nil
}

func activeProposal() (*models.Proposal, uuid.UUID) {
	optionID := uuid.New()
	proposal := &models.Proposal{
		ID:         uuid.New(),
		BusinessID: uuid.New(),
		Title:      "Spring colorway",
		Status:     models.ProposalStatusActive,
		Options: []models.ProposalOption{
			{ID: optionID, Label: "Forest green", Position: 0},
			{ID: uuid.New(), Label: "Slate blue", Position: 1},
		},
	}
	return proposal, optionID
}

func TestRecordIntent(t *testing.T) {
	proposal, optionID := activeProposal()
	recorder := &fakeIntentRecorder{}
	marker := &fakeVoterMarker{}

	svc := NewVoteService(recorder, &fakeProposalReader{proposal: proposal}, marker)
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return at })

	userID := uuid.New()
	intent, err := svc.RecordIntent(context.Background(), userID, proposal.ID, optionID)
	if err != nil {
		t.Fatal(err)
	}

	if intent.BusinessID != proposal.BusinessID || intent.ProposalID != proposal.ID {
		t.Errorf("intent scope = (%s, %s), want (%s, %s)",
			intent.BusinessID, intent.ProposalID, proposal.BusinessID, proposal.ID)
	}
	if intent.UserID != userID || intent.SelectedOptionID != optionID {
		t.Error("intent identity fields wrong")
	}
	want := models.ComputeVerificationHash(proposal.BusinessID, proposal.ID, userID, optionID, at)
	if intent.VerificationHash != want {
		t.Errorf("verification hash = %s, want %s", intent.VerificationHash, want)
	}
	if len(recorder.recorded) != 1 {
		t.Fatalf("recorded %d intents, want 1", len(recorder.recorded))
	}
	if len(marker.marked) != 1 || marker.marked[0] != userID {
		t.Errorf("voter marker calls = %v, want [%s]", marker.marked, userID)
	}
}

func TestRecordIntentProposalNotFound(t *testing.T) {
	svc := NewVoteService(&fakeIntentRecorder{}, &fakeProposalReader{}, nil)

	_, err := svc.RecordIntent(context.Background(), uuid.New(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrProposalNotFound) {
		t.Errorf("err = %v, want ErrProposalNotFound", err)
	}
}

func TestRecordIntentProposalNotActive(t *testing.T) {
	for _, status := range []models.ProposalStatus{
		models.ProposalStatusDraft,
		models.ProposalStatusCompleted,
		models.ProposalStatusCancelled,
	} {
		proposal, optionID := activeProposal()
		proposal.Status = status

		svc := NewVoteService(&fakeIntentRecorder{}, &fakeProposalReader{proposal: proposal}, nil)

		_, err := svc.RecordIntent(context.Background(), uuid.New(), proposal.ID, optionID)
		if !errors.Is(err, ErrProposalNotActive) {
			t.Errorf("status %s: err = %v, want ErrProposalNotActive", status, err)
		}
	}
}

func TestRecordIntentInvalidOption(t *testing.T) {
	proposal, _ := activeProposal()
	svc := NewVoteService(&fakeIntentRecorder{}, &fakeProposalReader{proposal: proposal}, nil)

	_, err := svc.RecordIntent(context.Background(), uuid.New(), proposal.ID, uuid.New())
	if !errors.Is(err, ErrInvalidOption) {
		t.Errorf("err = %v, want ErrInvalidOption", err)
	}
}

func TestRecordIntentDuplicatePassedThrough(t *testing.T) {
	proposal, optionID := activeProposal()
	recorder := &fakeIntentRecorder{err: repository.ErrDuplicateIntent}

	svc := NewVoteService(recorder, &fakeProposalReader{proposal: proposal}, nil)

	_, err := svc.RecordIntent(context.Background(), uuid.New(), proposal.ID, optionID)
	if !errors.Is(err, repository.ErrDuplicateIntent) {
		t.Errorf("err = %v, want ErrDuplicateIntent", err)
	}
}

func TestRecordIntentMarkerFailureIsIgnored(t *testing.T) {
	proposal, optionID := activeProposal()
	marker := &fakeVoterMarker{err: errors.New("db down")}

	svc := NewVoteService(&fakeIntentRecorder{}, &fakeProposalReader{proposal: proposal}, marker)

	if _, err := svc.RecordIntent(context.Background(), uuid.New(), proposal.ID, optionID); err != nil {
		t.Errorf("marker failure leaked: %v", err)
	}
}
