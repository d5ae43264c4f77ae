package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tmcalister/crucible/internal/domain"
)

// CachedRuleStore wraps a RuleStore with a per-product TTL cache. Rules
// change infrequently, but validity-window transitions must still be observed
// promptly, so the staleness window is bounded by the configured TTL rather
// than by explicit invalidation.
type CachedRuleStore struct {
	inner RuleStore
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[uuid.UUID]cacheEntry
}

type cacheEntry struct {
	rules     []domain.PricingRule
	fetchedAt time.Time
}

// NewCachedRuleStore wraps inner with a TTL cache. A non-positive ttl
// disables caching entirely.
func NewCachedRuleStore(inner RuleStore, ttl time.Duration) *CachedRuleStore {
	return &CachedRuleStore{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[uuid.UUID]cacheEntry),
	}
}

// RulesFor returns the cached rule set for productID, refreshing from the
// inner store once the entry is older than the TTL.
func (c *CachedRuleStore) RulesFor(ctx context.Context, productID uuid.UUID) ([]domain.PricingRule, error) {
	if c.ttl <= 0 {
		return c.inner.RulesFor(ctx, productID)
	}

	c.mu.RLock()
	entry, ok := c.entries[productID]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.rules, nil
	}

	rules, err := c.inner.RulesFor(ctx, productID)
	if err != nil {
		// Serve the stale entry rather than fail a price resolution.
		if ok {
			return entry.rules, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.entries[productID] = cacheEntry{rules: rules, fetchedAt: c.now()}
	c.mu.Unlock()

	return rules, nil
}

// Invalidate drops the cached entry for a product, forcing the next read
// through to the inner store. Called after rule creation or deactivation.
func (c *CachedRuleStore) Invalidate(productID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, productID)
	c.mu.Unlock()
}
