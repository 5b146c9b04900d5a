package batch

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/getOrdira/ordira-voting/internal/models"
)

// MaintenanceStore is the housekeeping side of the vote intent store.
type MaintenanceStore interface {
	ReleaseExpiredClaims(ctx context.Context, olderThan time.Time) (int64, error)
	PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error)
	DistinctScopesAboveThreshold(ctx context.Context, threshold int) ([]models.VoteIntent, error)
}

// Sweeper is the background companion to the coordinator: it reverts
// claims whose batch never finished (crash recovery), garbage-collects
// intents past retention, and re-triggers scopes that crossed the
// threshold while the ledger was down.
type Sweeper struct {
	store        MaintenanceStore
	coordinator  *Coordinator
	interval     time.Duration
	claimTimeout time.Duration
	retention    time.Duration

	mu       sync.Mutex
	stopChan chan struct{}
	running  bool
}

type SweeperConfig struct {
	Interval     time.Duration // Default: 1 minute
	ClaimTimeout time.Duration // Default: 10 minutes
	Retention    time.Duration // Default: 24 hours
}

func NewSweeper(store MaintenanceStore, coordinator *Coordinator, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.ClaimTimeout <= 0 {
		cfg.ClaimTimeout = 10 * time.Minute
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}

	return &Sweeper{
		store:        store,
		coordinator:  coordinator,
		interval:     cfg.Interval,
		claimTimeout: cfg.ClaimTimeout,
		retention:    cfg.Retention,
		stopChan:     make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.loop()
}

func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	close(s.stopChan)
}

func (s *Sweeper) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopChan:
			return
		}
	}
}

// RunOnce performs a single maintenance pass.
func (s *Sweeper) RunOnce(ctx context.Context) {
	now := time.Now().UTC()

	released, err := s.store.ReleaseExpiredClaims(ctx, now.Add(-s.claimTimeout))
	if err != nil {
		log.Printf("sweeper: failed to release expired claims: %v", err)
	} else if released > 0 {
		log.Printf("sweeper: released %d expired claims", released)
	}

	purged, err := s.store.PurgeExpired(ctx, now.Add(-s.retention))
	if err != nil {
		log.Printf("sweeper: failed to purge expired intents: %v", err)
	} else if purged > 0 {
		log.Printf("sweeper: purged %d intents past retention", purged)
	}

	scopes, err := s.store.DistinctScopesAboveThreshold(ctx, s.coordinator.Threshold())
	if err != nil {
		log.Printf("sweeper: failed to list scopes above threshold: %v", err)
		return
	}

	for _, scope := range scopes {
		result, err := s.coordinator.MaybeSubmit(ctx, Scope{
			BusinessID: scope.BusinessID,
			ProposalID: scope.ProposalID,
		})
		if err != nil {
			log.Printf("sweeper: submission for proposal %s failed: %v", scope.ProposalID, err)
			continue
		}
		if result.Submitted {
			log.Printf("sweeper: submitted backlog batch %s for proposal %s", result.BatchID, scope.ProposalID)
		}
	}
}
