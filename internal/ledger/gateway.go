package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/getOrdira/ordira-voting/internal/models"
	"github.com/google/uuid"
)

// ErrorKind classifies a failed submission for the coordinator's
// reconciliation path. Every kind is handled the same way locally
// (release the claim); the kind matters for logging and the breaker.
type ErrorKind string

const (
	ErrKindTimeout  ErrorKind = "timeout"
	ErrKindRejected ErrorKind = "rejected"
	ErrKindNetwork  ErrorKind = "network"
)

type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Submission is one claimed batch bound for the ledger. The batch id is
// the idempotency key on the relayer side: a retried submission after a
// timeout must not double-spend.
type Submission struct {
	BatchID    uuid.UUID           `json:"batch_id"`
	BusinessID uuid.UUID           `json:"business_id"`
	ProposalID uuid.UUID           `json:"proposal_id"`
	Intents    []models.VoteIntent `json:"intents"`
}

// Receipt is the ledger's acknowledgement of a committed batch.
type Receipt struct {
	TxHash      string    `json:"tx_hash"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Gateway commits a batch to the external ledger.
type Gateway interface {
	SubmitBatch(ctx context.Context, sub Submission) (Receipt, error)
}
