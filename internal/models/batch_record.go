package models

import (
	"time"

	"github.com/google/uuid"
)

type BatchStatus string

const (
	BatchStatusSubmitting BatchStatus = "submitting"
	BatchStatusSubmitted  BatchStatus = "submitted"
	BatchStatusReleased   BatchStatus = "released"
)

// Audit row for every ledger submission attempt. A "released" row whose
// batch id later shows up on the ledger (the gateway is idempotent per
// batch id) is how a phantom success after a timeout gets reconciled.
type BatchRecord struct {
	ID          uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	BatchID     uuid.UUID   `gorm:"type:uuid;uniqueIndex;not null" json:"batch_id"`
	BusinessID  uuid.UUID   `gorm:"type:uuid;index" json:"business_id"`
	ProposalID  uuid.UUID   `gorm:"type:uuid;index" json:"proposal_id"`
	IntentCount int         `gorm:"not null" json:"intent_count"`
	Status      BatchStatus `gorm:"not null;index" json:"status"`
	TxHash      string      `json:"tx_hash,omitempty"`
	FailReason  string      `json:"fail_reason,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

func (BatchRecord) TableName() string {
	return "batch_records"
}
