package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// A user's recorded selection, durable before any ledger interaction.
// One row per (business, proposal, user, option); duplicates are rejected
// at insert time by the composite unique index.
type VoteIntent struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	BusinessID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_intent_identity;index:idx_intent_scope" json:"business_id"`
	ProposalID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_intent_identity;index:idx_intent_scope" json:"proposal_id"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_intent_identity" json:"user_id"`
	SelectedOptionID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_intent_identity" json:"selected_option_id"`
	IsClaimed        bool       `gorm:"default:false;index" json:"is_claimed"`
	ClaimedBatchID   *uuid.UUID `gorm:"type:uuid;index" json:"claimed_batch_id,omitempty"`
	ClaimedAt        *time.Time `json:"claimed_at,omitempty"`
	IsProcessed      bool       `gorm:"default:false" json:"is_processed"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
	VerificationHash string     `gorm:"not null" json:"verification_hash"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (v *VoteIntent) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (VoteIntent) TableName() string {
	return "vote_intents"
}

// ComputeVerificationHash derives the tamper-evidence hash for an intent.
// It is set once at creation and never recomputed; an auditor holding the
// intent fields can recompute it to confirm the row was not altered.
func ComputeVerificationHash(businessID, proposalID, userID, optionID uuid.UUID, createdAt time.Time) string {
	payload := fmt.Sprintf("%s|%s|%s|%s|%d",
		businessID, proposalID, userID, optionID, createdAt.UTC().UnixNano())
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
