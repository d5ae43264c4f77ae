package pricing

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tmcalister/crucible/internal/domain"
)

// Calculator applies the best matching rule to a base price. It is a pure
// function of its inputs plus the supplied time; safe for concurrent use.
type Calculator struct {
	resolver *Resolver
}

// NewCalculator creates a Calculator over the given rule store.
func NewCalculator(store RuleStore) *Calculator {
	return &Calculator{resolver: NewResolver(store)}
}

// PriceFor computes the final unit price for a product at the given quantity.
// With no applicable rule the base price stands. The final price is clamped
// at zero so a misconfigured rule (percentage above 100, fixed price above
// base) never produces a negative price.
func (c *Calculator) PriceFor(ctx context.Context, productID uuid.UUID, quantity int32, classification string, asOf time.Time, basePriceCents int64) (*domain.ResolvedPrice, error) {
	visible, err := c.resolver.ApplicableRules(ctx, productID, classification, asOf)
	if err != nil {
		return nil, err
	}

	applicable := make([]domain.PricingRule, 0, len(visible))
	for _, rule := range visible {
		if rule.AppliesToQuantity(quantity) {
			applicable = append(applicable, rule)
		}
	}

	resolved := &domain.ResolvedPrice{
		ProductID:       productID,
		Quantity:        quantity,
		BasePriceCents:  basePriceCents,
		MatchedRules:    applicable,
		FinalPriceCents: basePriceCents,
	}

	if len(applicable) == 0 {
		return resolved, nil
	}

	best := applicable[0]
	for _, rule := range applicable[1:] {
		if Beats(rule, best) {
			best = rule
		}
	}
	resolved.AppliedRule = &best

	switch best.Discount.Kind {
	case domain.DiscountFixedPrice:
		resolved.FinalPriceCents = best.Discount.PriceCents
		resolved.DiscountCents = basePriceCents - resolved.FinalPriceCents
	case domain.DiscountPercentage:
		resolved.DiscountCents = int64(math.Round(float64(basePriceCents) * best.Discount.Percent / 100))
		resolved.FinalPriceCents = basePriceCents - resolved.DiscountCents
	}

	if resolved.FinalPriceCents < 0 {
		resolved.FinalPriceCents = 0
	}

	if basePriceCents > 0 {
		resolved.DiscountPercent = float64(resolved.DiscountCents) / float64(basePriceCents) * 100
	}

	return resolved, nil
}
