package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getOrdira/ordira-voting/internal/circuitbreaker"
	"github.com/getOrdira/ordira-voting/internal/ledger"
	"github.com/getOrdira/ordira-voting/internal/models"
	"github.com/google/uuid"
)

type fakeIntentStore struct {
	mu      sync.Mutex
	intents map[uuid.UUID]*models.VoteIntent
}

func newFakeIntentStore() *fakeIntentStore {
	return &fakeIntentStore{intents: make(map[uuid.UUID]*models.VoteIntent)}
}

func (s *fakeIntentStore) add(businessID, proposalID, userID uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.intents[id] = &models.VoteIntent{
		ID:               id,
		BusinessID:       businessID,
		ProposalID:       proposalID,
		UserID:           userID,
		SelectedOptionID: uuid.New(),
		CreatedAt:        time.Now().UTC(),
	}
	return id
}

func (s *fakeIntentStore) CountUnclaimedForScope(ctx context.Context, businessID, proposalID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, intent := range s.intents {
		if intent.BusinessID == businessID && intent.ProposalID == proposalID && !intent.IsClaimed {
			count++
		}
	}
	return count, nil
}

func (s *fakeIntentStore) ListUnclaimedForScope(ctx context.Context, businessID, proposalID uuid.UUID) ([]models.VoteIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.VoteIntent
	for _, intent := range s.intents {
		if intent.BusinessID == businessID && intent.ProposalID == proposalID && !intent.IsClaimed {
			out = append(out, *intent)
		}
	}
	return out, nil
}

func (s *fakeIntentStore) Claim(ctx context.Context, ids []uuid.UUID, batchID uuid.UUID) ([]models.VoteIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var claimed []models.VoteIntent
	for _, id := range ids {
		intent, ok := s.intents[id]
		if !ok || intent.IsClaimed {
			continue
		}
		intent.IsClaimed = true
		batch := batchID
		intent.ClaimedBatchID = &batch
		claimed = append(claimed, *intent)
	}
	return claimed, nil
}

func (s *fakeIntentStore) MarkProcessed(ctx context.Context, batchID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, intent := range s.intents {
		if intent.ClaimedBatchID != nil && *intent.ClaimedBatchID == batchID {
			intent.IsProcessed = true
		}
	}
	return nil
}

func (s *fakeIntentStore) ReleaseClaim(ctx context.Context, batchID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, intent := range s.intents {
		if intent.ClaimedBatchID != nil && *intent.ClaimedBatchID == batchID && !intent.IsProcessed {
			intent.IsClaimed = false
			intent.ClaimedBatchID = nil
		}
	}
	return nil
}

func (s *fakeIntentStore) processedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, intent := range s.intents {
		if intent.IsProcessed {
			count++
		}
	}
	return count
}

type fakeProposalCounters struct {
	mu           sync.Mutex
	votes        int64
	participants int64
}

func (f *fakeProposalCounters) IncrementCounters(ctx context.Context, id uuid.UUID, votes, participants int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.votes += votes
	f.participants += participants
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	created []models.BatchRecord
	final   map[uuid.UUID]models.BatchStatus
}

func newFakeAudit() *fakeAudit {
	return &fakeAudit{final: make(map[uuid.UUID]models.BatchStatus)}
}

func (f *fakeAudit) Create(ctx context.Context, record *models.BatchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *record)
	return nil
}

func (f *fakeAudit) Complete(ctx context.Context, batchID uuid.UUID, status models.BatchStatus, txHash, failReason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.final[batchID] = status
	return nil
}

type fakeGateway struct {
	mu      sync.Mutex
	err     error
	txHash  string
	calls   int
	batches []ledger.Submission
}

func (g *fakeGateway) SubmitBatch(ctx context.Context, sub ledger.Submission) (ledger.Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	g.batches = append(g.batches, sub)
	if g.err != nil {
		return ledger.Receipt{}, g.err
	}
	return ledger.Receipt{TxHash: g.txHash}, nil
}

func newTestCoordinator(store *fakeIntentStore, gateway *fakeGateway, counters *fakeProposalCounters, audit *fakeAudit, threshold int) *Coordinator {
	breaker := circuitbreaker.New(circuitbreaker.Config{MaxFailures: 100})
	return NewCoordinator(store, counters, audit, gateway, breaker, threshold)
}

func TestThresholdBatchEndToEnd(t *testing.T) {
	store := newFakeIntentStore()
	gateway := &fakeGateway{txHash: "0xabc"}
	counters := &fakeProposalCounters{}
	audit := newFakeAudit()
	coord := newTestCoordinator(store, gateway, counters, audit, 3)

	scope := Scope{BusinessID: uuid.New(), ProposalID: uuid.New()}
	for i := 0; i < 3; i++ {
		store.add(scope.BusinessID, scope.ProposalID, uuid.New())
	}

	result, err := coord.MaybeSubmit(context.Background(), scope)
	if err != nil {
		t.Fatalf("MaybeSubmit returned error: %v", err)
	}
	if !result.Submitted {
		t.Fatal("expected batch to be submitted")
	}
	if result.TxHash != "0xabc" {
		t.Errorf("tx hash = %q, want 0xabc", result.TxHash)
	}
	if result.IntentCount != 3 {
		t.Errorf("intent count = %d, want 3", result.IntentCount)
	}
	if store.processedCount() != 3 {
		t.Errorf("processed intents = %d, want 3", store.processedCount())
	}
	if counters.votes != 3 || counters.participants != 3 {
		t.Errorf("proposal counters = (%d votes, %d participants), want (3, 3)", counters.votes, counters.participants)
	}

	remaining, _ := store.ListUnclaimedForScope(context.Background(), scope.BusinessID, scope.ProposalID)
	if len(remaining) != 0 {
		t.Errorf("unclaimed after batch = %d, want 0", len(remaining))
	}
	if audit.final[result.BatchID] != models.BatchStatusSubmitted {
		t.Errorf("audit status = %q, want submitted", audit.final[result.BatchID])
	}
}

func TestBelowThresholdDoesNotSubmit(t *testing.T) {
	store := newFakeIntentStore()
	gateway := &fakeGateway{txHash: "0xabc"}
	coord := newTestCoordinator(store, gateway, &fakeProposalCounters{}, newFakeAudit(), 3)

	scope := Scope{BusinessID: uuid.New(), ProposalID: uuid.New()}
	store.add(scope.BusinessID, scope.ProposalID, uuid.New())
	store.add(scope.BusinessID, scope.ProposalID, uuid.New())

	result, err := coord.MaybeSubmit(context.Background(), scope)
	if err != nil {
		t.Fatalf("MaybeSubmit returned error: %v", err)
	}
	if result.Submitted {
		t.Fatal("batch submitted below threshold")
	}
	if gateway.calls != 0 {
		t.Errorf("gateway calls = %d, want 0", gateway.calls)
	}
}

func TestConcurrentCoordinatorsSingleWinner(t *testing.T) {
	store := newFakeIntentStore()
	gateway := &fakeGateway{txHash: "0xabc"}
	counters := &fakeProposalCounters{}
	audit := newFakeAudit()

	// Two coordinator instances sharing one store, as in a multi-node
	// deployment.
	coordA := newTestCoordinator(store, gateway, counters, audit, 3)
	coordB := newTestCoordinator(store, gateway, counters, audit, 3)

	scope := Scope{BusinessID: uuid.New(), ProposalID: uuid.New()}
	for i := 0; i < 3; i++ {
		store.add(scope.BusinessID, scope.ProposalID, uuid.New())
	}

	var wg sync.WaitGroup
	results := make([]Result, 2)
	for i, coord := range []*Coordinator{coordA, coordB} {
		wg.Add(1)
		go func(i int, coord *Coordinator) {
			defer wg.Done()
			result, err := coord.ForceSubmit(context.Background(), scope)
			if err != nil && !errors.Is(err, ErrNoPendingIntents) {
				t.Errorf("coordinator %d error: %v", i, err)
			}
			results[i] = result
		}(i, coord)
	}
	wg.Wait()

	submitted := 0
	totalIntents := 0
	for _, result := range results {
		if result.Submitted {
			submitted++
			totalIntents += result.IntentCount
		}
	}

	if submitted != 1 {
		t.Fatalf("submitted batches = %d, want exactly 1", submitted)
	}
	if totalIntents != 3 {
		t.Errorf("submitted intents = %d, want 3", totalIntents)
	}
	if store.processedCount() != 3 {
		t.Errorf("processed intents = %d, want 3", store.processedCount())
	}

	// No intent may appear in two batches
	seen := make(map[uuid.UUID]int)
	for _, sub := range gateway.batches {
		for _, intent := range sub.Intents {
			seen[intent.ID]++
		}
	}
	for id, count := range seen {
		if count > 1 {
			t.Errorf("intent %s claimed by %d batches", id, count)
		}
	}
}

func TestFailedSubmissionRestoresUnclaimed(t *testing.T) {
	store := newFakeIntentStore()
	gateway := &fakeGateway{err: &ledger.Error{Kind: ledger.ErrKindTimeout, Err: errors.New("deadline exceeded")}}
	audit := newFakeAudit()
	coord := newTestCoordinator(store, gateway, &fakeProposalCounters{}, audit, 3)

	scope := Scope{BusinessID: uuid.New(), ProposalID: uuid.New()}
	for i := 0; i < 3; i++ {
		store.add(scope.BusinessID, scope.ProposalID, uuid.New())
	}

	before, _ := store.CountUnclaimedForScope(context.Background(), scope.BusinessID, scope.ProposalID)

	result, err := coord.MaybeSubmit(context.Background(), scope)
	if err == nil {
		t.Fatal("expected submission error")
	}
	if result.Submitted {
		t.Fatal("failed batch reported as submitted")
	}

	after, _ := store.CountUnclaimedForScope(context.Background(), scope.BusinessID, scope.ProposalID)
	if after != before {
		t.Errorf("unclaimed after failure = %d, want %d", after, before)
	}
	if store.processedCount() != 0 {
		t.Errorf("processed intents = %d, want 0", store.processedCount())
	}

	// The audit trail keeps the released batch id for phantom-success review
	released := false
	for _, status := range audit.final {
		if status == models.BatchStatusReleased {
			released = true
		}
	}
	if !released {
		t.Error("expected a released audit record")
	}
}

func TestForceSubmitZeroPending(t *testing.T) {
	store := newFakeIntentStore()
	coord := newTestCoordinator(store, &fakeGateway{txHash: "0xabc"}, &fakeProposalCounters{}, newFakeAudit(), 3)

	scope := Scope{BusinessID: uuid.New(), ProposalID: uuid.New()}
	_, err := coord.ForceSubmit(context.Background(), scope)
	if !errors.Is(err, ErrNoPendingIntents) {
		t.Fatalf("error = %v, want ErrNoPendingIntents", err)
	}
}

func TestOpenBreakerReleasesClaim(t *testing.T) {
	store := newFakeIntentStore()
	gateway := &fakeGateway{err: errors.New("connection refused")}
	audit := newFakeAudit()

	breaker := circuitbreaker.New(circuitbreaker.Config{MaxFailures: 1})
	coord := NewCoordinator(store, &fakeProposalCounters{}, audit, gateway, breaker, 1)

	scope := Scope{BusinessID: uuid.New(), ProposalID: uuid.New()}
	store.add(scope.BusinessID, scope.ProposalID, uuid.New())

	// First failure opens the breaker
	if _, err := coord.MaybeSubmit(context.Background(), scope); err == nil {
		t.Fatal("expected first submission to fail")
	}

	// Second attempt fails fast on the open breaker; no gateway call
	callsBefore := gateway.calls
	_, err := coord.ForceSubmit(context.Background(), scope)
	if err == nil {
		t.Fatal("expected fast failure with open breaker")
	}
	var ledgerErr *ledger.Error
	if !errors.As(err, &ledgerErr) || ledgerErr.Kind != ledger.ErrKindNetwork {
		t.Errorf("error = %v, want ledger network error", err)
	}
	if gateway.calls != callsBefore {
		t.Errorf("gateway called while breaker open")
	}

	count, _ := store.CountUnclaimedForScope(context.Background(), scope.BusinessID, scope.ProposalID)
	if count != 1 {
		t.Errorf("unclaimed = %d, want 1 (claim released)", count)
	}
}
