package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/getOrdira/ordira-voting/internal/circuitbreaker"
	"github.com/getOrdira/ordira-voting/internal/ledger"
	"github.com/getOrdira/ordira-voting/internal/models"
	"github.com/google/uuid"
)

// ErrNoPendingIntents is returned by ForceSubmit when the scope has
// nothing unclaimed to submit.
var ErrNoPendingIntents = errors.New("no pending vote intents for scope")

// Scope identifies one batching unit: all intents for one proposal of
// one business.
type Scope struct {
	BusinessID uuid.UUID `json:"business_id"`
	ProposalID uuid.UUID `json:"proposal_id"`
}

type State int

const (
	StateIdle State = iota
	StateClaiming
	StateSubmitting
	StateReconciling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateClaiming:
		return "claiming"
	case StateSubmitting:
		return "submitting"
	case StateReconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}

// IntentStore is the claim protocol the coordinator drives. Claiming is
// the single atomic arbiter against concurrent coordinators; the
// threshold check is only a hint.
type IntentStore interface {
	CountUnclaimedForScope(ctx context.Context, businessID, proposalID uuid.UUID) (int64, error)
	ListUnclaimedForScope(ctx context.Context, businessID, proposalID uuid.UUID) ([]models.VoteIntent, error)
	Claim(ctx context.Context, ids []uuid.UUID, batchID uuid.UUID) ([]models.VoteIntent, error)
	MarkProcessed(ctx context.Context, batchID uuid.UUID) error
	ReleaseClaim(ctx context.Context, batchID uuid.UUID) error
}

// ProposalCounters bumps proposal aggregates after a successful batch.
type ProposalCounters interface {
	IncrementCounters(ctx context.Context, id uuid.UUID, votes, participants int64) error
}

// AuditLog records every submission attempt. Released rows keep their
// batch id so phantom successes (ledger commit after a local timeout)
// can be matched up later; the relayer is idempotent per batch id.
type AuditLog interface {
	Create(ctx context.Context, record *models.BatchRecord) error
	Complete(ctx context.Context, batchID uuid.UUID, status models.BatchStatus, txHash, failReason string) error
}

// Result describes one coordinator pass over a scope.
type Result struct {
	Submitted   bool      `json:"submitted"`
	BatchID     uuid.UUID `json:"batch_id,omitempty"`
	TxHash      string    `json:"tx_hash,omitempty"`
	IntentCount int       `json:"intent_count"`
}

// Coordinator watches vote intent population per scope and drives
// Idle -> Claiming -> Submitting -> Reconciling -> Idle. No lock is held
// across the ledger call; only the claim boundary is authoritative, so
// any number of coordinator instances may run concurrently.
type Coordinator struct {
	intents   IntentStore
	proposals ProposalCounters
	audit     AuditLog
	gateway   ledger.Gateway
	breaker   *circuitbreaker.Breaker
	threshold int

	mu     sync.RWMutex
	states map[Scope]State
}

func NewCoordinator(intents IntentStore, proposals ProposalCounters, audit AuditLog, gateway ledger.Gateway, breaker *circuitbreaker.Breaker, threshold int) *Coordinator {
	if threshold <= 0 {
		threshold = 20
	}

	return &Coordinator{
		intents:   intents,
		proposals: proposals,
		audit:     audit,
		gateway:   gateway,
		breaker:   breaker,
		threshold: threshold,
		states:    make(map[Scope]State),
	}
}

// MaybeSubmit checks the unclaimed population for the scope and submits a
// batch when it reached the threshold. Called after every recorded
// intent. A race loss against another coordinator is a silent no-op.
func (c *Coordinator) MaybeSubmit(ctx context.Context, scope Scope) (Result, error) {
	count, err := c.intents.CountUnclaimedForScope(ctx, scope.BusinessID, scope.ProposalID)
	if err != nil {
		return Result{}, fmt.Errorf("count unclaimed: %w", err)
	}
	if count < int64(c.threshold) {
		return Result{}, nil
	}

	return c.submit(ctx, scope)
}

// ForceSubmit bypasses the threshold but shares the claim/submit/
// reconcile path, so it carries the same safety properties. Zero pending
// intents is an error rather than an empty successful batch.
func (c *Coordinator) ForceSubmit(ctx context.Context, scope Scope) (Result, error) {
	count, err := c.intents.CountUnclaimedForScope(ctx, scope.BusinessID, scope.ProposalID)
	if err != nil {
		return Result{}, fmt.Errorf("count unclaimed: %w", err)
	}
	if count == 0 {
		return Result{}, ErrNoPendingIntents
	}

	return c.submit(ctx, scope)
}

func (c *Coordinator) submit(ctx context.Context, scope Scope) (Result, error) {
	c.setState(scope, StateClaiming)
	defer c.setState(scope, StateIdle)

	pending, err := c.intents.ListUnclaimedForScope(ctx, scope.BusinessID, scope.ProposalID)
	if err != nil {
		return Result{}, fmt.Errorf("list unclaimed: %w", err)
	}
	if len(pending) == 0 {
		return Result{}, nil
	}

	ids := make([]uuid.UUID, len(pending))
	for i, intent := range pending {
		ids[i] = intent.ID
	}

	batchID := uuid.New()
	claimed, err := c.intents.Claim(ctx, ids, batchID)
	if err != nil {
		return Result{}, fmt.Errorf("claim batch %s: %w", batchID, err)
	}
	if len(claimed) == 0 {
		// Another coordinator won the claim. Expected under concurrency.
		return Result{}, nil
	}

	if err := c.audit.Create(ctx, &models.BatchRecord{
		BatchID:     batchID,
		BusinessID:  scope.BusinessID,
		ProposalID:  scope.ProposalID,
		IntentCount: len(claimed),
		Status:      models.BatchStatusSubmitting,
	}); err != nil {
		log.Printf("batch %s: failed to write audit record: %v", batchID, err)
	}

	c.setState(scope, StateSubmitting)

	var receipt ledger.Receipt
	submitErr := c.breaker.Call(func() error {
		var err error
		receipt, err = c.gateway.SubmitBatch(ctx, ledger.Submission{
			BatchID:    batchID,
			BusinessID: scope.BusinessID,
			ProposalID: scope.ProposalID,
			Intents:    claimed,
		})
		return err
	})
	if errors.Is(submitErr, circuitbreaker.ErrOpen) {
		submitErr = &ledger.Error{Kind: ledger.ErrKindNetwork, Err: submitErr}
	}

	c.setState(scope, StateReconciling)

	if submitErr != nil {
		return c.reconcileFailure(ctx, scope, batchID, len(claimed), submitErr)
	}

	return c.reconcileSuccess(ctx, scope, batchID, claimed, receipt)
}

// reconcileSuccess marks the whole batch processed and bumps proposal
// aggregates. Processing is all-or-nothing per batch.
func (c *Coordinator) reconcileSuccess(ctx context.Context, scope Scope, batchID uuid.UUID, claimed []models.VoteIntent, receipt ledger.Receipt) (Result, error) {
	if err := c.intents.MarkProcessed(ctx, batchID); err != nil {
		// Intents stay claimed; the ledger already committed. Leaving the
		// claim in place avoids a double submission under a new batch id.
		log.Printf("batch %s: confirmed on ledger (%s) but mark-processed failed: %v", batchID, receipt.TxHash, err)
		return Result{}, fmt.Errorf("mark processed: %w", err)
	}

	participants := distinctUsers(claimed)
	if err := c.proposals.IncrementCounters(ctx, scope.ProposalID, int64(len(claimed)), participants); err != nil {
		log.Printf("batch %s: failed to increment proposal counters: %v", batchID, err)
	}

	if err := c.audit.Complete(ctx, batchID, models.BatchStatusSubmitted, receipt.TxHash, ""); err != nil {
		log.Printf("batch %s: failed to complete audit record: %v", batchID, err)
	}

	log.Printf("batch %s: submitted %d intents for proposal %s, tx %s",
		batchID, len(claimed), scope.ProposalID, receipt.TxHash)

	return Result{
		Submitted:   true,
		BatchID:     batchID,
		TxHash:      receipt.TxHash,
		IntentCount: len(claimed),
	}, nil
}

// reconcileFailure releases the claim so the intents return to the
// unclaimed pool for the next trigger or a forced submission. No data is
// lost; the original voters already received their 202.
func (c *Coordinator) reconcileFailure(ctx context.Context, scope Scope, batchID uuid.UUID, count int, submitErr error) (Result, error) {
	if err := c.intents.ReleaseClaim(ctx, batchID); err != nil {
		log.Printf("batch %s: failed to release claim after ledger error: %v", batchID, err)
		return Result{}, errors.Join(submitErr, err)
	}

	if err := c.audit.Complete(ctx, batchID, models.BatchStatusReleased, "", submitErr.Error()); err != nil {
		log.Printf("batch %s: failed to complete audit record: %v", batchID, err)
	}

	log.Printf("batch %s: ledger submission failed for proposal %s, released %d intents: %v",
		batchID, scope.ProposalID, count, submitErr)

	return Result{IntentCount: count}, submitErr
}

func (c *Coordinator) setState(scope Scope, state State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if state == StateIdle {
		delete(c.states, scope)
		return
	}
	c.states[scope] = state
}

// States snapshots all scopes currently mid-flight.
func (c *Coordinator) States() map[Scope]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[Scope]string, len(c.states))
	for scope, state := range c.states {
		snapshot[scope] = state.String()
	}
	return snapshot
}

func (c *Coordinator) Threshold() int {
	return c.threshold
}

func distinctUsers(intents []models.VoteIntent) int64 {
	seen := make(map[uuid.UUID]struct{}, len(intents))
	for _, intent := range intents {
		seen[intent.UserID] = struct{}{}
	}
	return int64(len(seen))
}
