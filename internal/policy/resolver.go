package policy

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Source is the tier lookup the resolver caches in front of. Backed by the
// users and plan_tiers tables in production.
type Source interface {
	// TierForPrincipal returns the tier name assigned to a principal.
	TierForPrincipal(ctx context.Context, principalID uuid.UUID) (string, error)

	// PolicyForTier returns the limit set for a tier name.
	PolicyForTier(ctx context.Context, tier string) (PlanPolicy, error)
}

type cacheEntry struct {
	policy    PlanPolicy
	fetchedAt time.Time
}

// Resolver resolves a principal's PlanPolicy with a bounded in-process
// cache. Staleness is capped by the TTL; callers that change a tier must
// call Invalidate or observe the old limits for up to the TTL.
type Resolver struct {
	mu         sync.Mutex
	source     Source
	cache      map[uuid.UUID]*cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewResolver(source Source, ttl time.Duration, maxEntries int) *Resolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 10000
	}

	return &Resolver{
		source:     source,
		cache:      make(map[uuid.UUID]*cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (r *Resolver) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Resolve returns the principal's policy, serving from cache while fresh.
// Any lookup failure falls back to the lowest-privilege policy.
func (r *Resolver) Resolve(ctx context.Context, principalID uuid.UUID) PlanPolicy {
	r.mu.Lock()
	if entry, ok := r.cache[principalID]; ok && r.now().Sub(entry.fetchedAt) < r.ttl {
		policy := entry.policy
		r.mu.Unlock()
		return policy
	}
	r.mu.Unlock()

	tier, err := r.source.TierForPrincipal(ctx, principalID)
	if err != nil || tier == "" {
		return FallbackPolicy
	}

	policy, err := r.source.PolicyForTier(ctx, tier)
	if err != nil {
		return FallbackPolicy
	}

	r.mu.Lock()
	if len(r.cache) >= r.maxEntries {
		r.evictOldest()
	}
	r.cache[principalID] = &cacheEntry{policy: policy, fetchedAt: r.now()}
	r.mu.Unlock()

	return policy
}

// Invalidate drops the cached policy for a principal. Must be called by
// anything that changes a tier assignment.
func (r *Resolver) Invalidate(principalID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, principalID)
}

// evictOldest removes the stalest entry. Caller must hold the mutex.
func (r *Resolver) evictOldest() {
	var oldestKey uuid.UUID
	var oldestAt time.Time
	first := true

	for key, entry := range r.cache {
		if first || entry.fetchedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.fetchedAt
			first = false
		}
	}

	if !first {
		delete(r.cache, oldestKey)
	}
}
