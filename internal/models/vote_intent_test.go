package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestComputeVerificationHash(t *testing.T) {
	businessID := uuid.New()
	proposalID := uuid.New()
	userID := uuid.New()
	optionID := uuid.New()
	at := time.Date(2026, 3, 14, 9, 0, 0, 123456789, time.UTC)

	first := ComputeVerificationHash(businessID, proposalID, userID, optionID, at)
	second := ComputeVerificationHash(businessID, proposalID, userID, optionID, at)

	if first != second {
		t.Error("hash not deterministic for identical inputs")
	}
	if len(first) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(first))
	}

	// Hash is timezone independent
	inEastern := ComputeVerificationHash(businessID, proposalID, userID, optionID,
		at.In(time.FixedZone("EST", -5*3600)))
	if inEastern != first {
		t.Error("hash differs across timezones for the same instant")
	}

	// Any field change produces a different hash
	if ComputeVerificationHash(businessID, proposalID, userID, uuid.New(), at) == first {
		t.Error("hash unchanged for different option")
	}
	if ComputeVerificationHash(businessID, proposalID, userID, optionID, at.Add(time.Nanosecond)) == first {
		t.Error("hash unchanged for different timestamp")
	}
}
