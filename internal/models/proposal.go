package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProposalStatus string

const (
	ProposalStatusDraft     ProposalStatus = "draft"
	ProposalStatusActive    ProposalStatus = "active"
	ProposalStatusCompleted ProposalStatus = "completed"
	ProposalStatusCancelled ProposalStatus = "cancelled"
)

type Proposal struct {
	ID               uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	BusinessID       uuid.UUID        `gorm:"type:uuid;index;not null" json:"business_id"`
	Title            string           `gorm:"not null" json:"title"`
	Description      string           `json:"description"`
	Status           ProposalStatus   `gorm:"default:'draft';index" json:"status"`
	Options          []ProposalOption `gorm:"foreignKey:ProposalID" json:"options"`
	VoteCount        int64            `gorm:"default:0" json:"vote_count"`
	ParticipantCount int64            `gorm:"default:0" json:"participant_count"`
	CreatedAt        time.Time        `json:"created_at"`
	ActivatedAt      *time.Time       `json:"activated_at,omitempty"`
	ClosedAt         *time.Time       `json:"closed_at,omitempty"`
}

func (p *Proposal) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Proposal) TableName() string {
	return "proposals"
}

// HasOption reports whether the given option belongs to this proposal.
func (p *Proposal) HasOption(optionID uuid.UUID) bool {
	for _, opt := range p.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

type ProposalOption struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ProposalID uuid.UUID `gorm:"type:uuid;index;not null" json:"proposal_id"`
	Label      string    `gorm:"not null" json:"label"`
	Position   int       `json:"position"`
}

func (o *ProposalOption) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (ProposalOption) TableName() string {
	return "proposal_options"
}
