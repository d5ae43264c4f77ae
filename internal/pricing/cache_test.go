package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmcalister/crucible/internal/domain"
)

func TestCachedRuleStore_ServesFromCacheWithinTTL(t *testing.T) {
	inner := &mockRuleStore{rules: []domain.PricingRule{testRule(domain.ScopeGeneral, 1)}}
	cache := NewCachedRuleStore(inner, 30*time.Second)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	productID := uuid.New()

	_, err := cache.RulesFor(context.Background(), productID)
	require.NoError(t, err)

	now = now.Add(10 * time.Second)
	_, err = cache.RulesFor(context.Background(), productID)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "second read within TTL should not hit the inner store")
}

func TestCachedRuleStore_RefreshesAfterTTL(t *testing.T) {
	inner := &mockRuleStore{}
	cache := NewCachedRuleStore(inner, 30*time.Second)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	productID := uuid.New()

	_, err := cache.RulesFor(context.Background(), productID)
	require.NoError(t, err)

	now = now.Add(31 * time.Second)
	_, err = cache.RulesFor(context.Background(), productID)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedRuleStore_ZeroTTLDisablesCaching(t *testing.T) {
	inner := &mockRuleStore{}
	cache := NewCachedRuleStore(inner, 0)

	productID := uuid.New()
	for i := 0; i < 3; i++ {
		_, err := cache.RulesFor(context.Background(), productID)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, inner.calls)
}

func TestCachedRuleStore_ServesStaleOnInnerError(t *testing.T) {
	inner := &mockRuleStore{rules: []domain.PricingRule{testRule(domain.ScopeGeneral, 1)}}
	cache := NewCachedRuleStore(inner, 30*time.Second)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	productID := uuid.New()

	first, err := cache.RulesFor(context.Background(), productID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	inner.err = errors.New("connection refused")
	now = now.Add(time.Minute)

	got, err := cache.RulesFor(context.Background(), productID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCachedRuleStore_Invalidate(t *testing.T) {
	inner := &mockRuleStore{}
	cache := NewCachedRuleStore(inner, time.Hour)

	productID := uuid.New()

	_, err := cache.RulesFor(context.Background(), productID)
	require.NoError(t, err)

	cache.Invalidate(productID)

	_, err = cache.RulesFor(context.Background(), productID)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}
