package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tmcalister/crucible/internal/domain"
)

// Resolver produces the ordered set of rules visible to a buyer at a point
// in time. Quantity-band matching happens later, in the Calculator, because
// it depends on the requested quantity rather than the rule's own window.
type Resolver struct {
	store RuleStore
}

// NewResolver creates a Resolver over the given rule store.
func NewResolver(store RuleStore) *Resolver {
	return &Resolver{store: store}
}

// ApplicableRules returns the rules for productID that are active, inside
// their validity window at asOf, and visible to the given buyer
// classification. An empty classification means an anonymous buyer, who only
// sees general-scope rules. The result is ordered buyer-specific first, then
// minimum quantity ascending.
func (r *Resolver) ApplicableRules(ctx context.Context, productID uuid.UUID, classification string, asOf time.Time) ([]domain.PricingRule, error) {
	rules, err := r.store.RulesFor(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	candidates := make([]domain.PricingRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.InWindow(asOf) {
			continue
		}
		if rule.IsBuyerSpecific() && rule.Scope != classification {
			continue
		}
		candidates = append(candidates, rule)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return Less(candidates[i], candidates[j])
	})

	return candidates, nil
}
