package pricing

import (
	"context"

	"github.com/google/uuid"

	"github.com/tmcalister/crucible/internal/domain"
)

// RuleStore looks up the pricing rules stored for a product.
// Implementations: postgres.PricingRuleStore, CachedRuleStore.
type RuleStore interface {
	// RulesFor returns every rule keyed by the product, active or not.
	// An unknown product yields an empty set, not an error, so callers can
	// fall back to base pricing.
	RulesFor(ctx context.Context, productID uuid.UUID) ([]domain.PricingRule, error)
}

// Beats reports whether rule a wins over rule b in best-rule selection:
// a buyer-specific rule always beats a general rule regardless of quantity
// threshold; among rules of equal specificity the strictly higher minimum
// quantity wins.
func Beats(a, b domain.PricingRule) bool {
	if a.IsBuyerSpecific() != b.IsBuyerSpecific() {
		return a.IsBuyerSpecific()
	}
	return a.MinQuantity > b.MinQuantity
}

// Less orders the visibility set: buyer-specific rules before general rules,
// then minimum quantity ascending within the same specificity.
func Less(a, b domain.PricingRule) bool {
	if a.IsBuyerSpecific() != b.IsBuyerSpecific() {
		return a.IsBuyerSpecific()
	}
	return a.MinQuantity < b.MinQuantity
}
