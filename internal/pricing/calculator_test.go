package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmcalister/crucible/internal/domain"
)

func TestPriceFor_GeneralRuleAboveThreshold(t *testing.T) {
	// basePrice=1000.00, general rule {minQty:5, 10% off}, quantity=10
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rule := testRule(domain.ScopeGeneral, 5)

	calc := NewCalculator(&mockRuleStore{rules: []domain.PricingRule{rule}})
	got, err := calc.PriceFor(context.Background(), uuid.New(), 10, "", asOf, 100000)

	require.NoError(t, err)
	require.NotNil(t, got.AppliedRule)
	assert.Equal(t, int64(90000), got.FinalPriceCents)
	assert.Equal(t, int64(10000), got.DiscountCents)
	assert.InDelta(t, 10.0, got.DiscountPercent, 0.001)
}

func TestPriceFor_QuantityBelowThreshold(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rule := testRule(domain.ScopeGeneral, 5)

	calc := NewCalculator(&mockRuleStore{rules: []domain.PricingRule{rule}})
	got, err := calc.PriceFor(context.Background(), uuid.New(), 3, "", asOf, 100000)

	require.NoError(t, err)
	assert.Nil(t, got.AppliedRule)
	assert.Equal(t, int64(100000), got.FinalPriceCents)
	assert.Equal(t, int64(0), got.DiscountCents)
	assert.Equal(t, 0.0, got.DiscountPercent)
}

func TestPriceFor_BuyerSpecificBeatsGeneral(t *testing.T) {
	// General {minQty:5, 10%} and wholesale {minQty:1, 5%} both applicable at
	// quantity=10: buyer specificity dominates volume, so 5% wins.
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	general := testRule(domain.ScopeGeneral, 5)
	wholesale := testRule("wholesale", 1, func(r *domain.PricingRule) {
		r.Discount = domain.PercentageOff(5)
	})

	calc := NewCalculator(&mockRuleStore{rules: []domain.PricingRule{general, wholesale}})
	got, err := calc.PriceFor(context.Background(), uuid.New(), 10, "wholesale", asOf, 100000)

	require.NoError(t, err)
	require.NotNil(t, got.AppliedRule)
	assert.Equal(t, wholesale.ID, got.AppliedRule.ID)
	assert.Equal(t, int64(95000), got.FinalPriceCents)
}

func TestPriceFor_FixedPrice(t *testing.T) {
	// basePrice=1000.00, fixed price 700.00: discount 300.00 = 30%
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rule := testRule(domain.ScopeGeneral, 1, func(r *domain.PricingRule) {
		r.Discount = domain.FixedPrice(70000)
	})

	calc := NewCalculator(&mockRuleStore{rules: []domain.PricingRule{rule}})
	got, err := calc.PriceFor(context.Background(), uuid.New(), 1, "", asOf, 100000)

	require.NoError(t, err)
	assert.Equal(t, int64(70000), got.FinalPriceCents)
	assert.Equal(t, int64(30000), got.DiscountCents)
	assert.InDelta(t, 30.0, got.DiscountPercent, 0.001)
}

func TestPriceFor_HighestMinQuantityWins(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	small := testRule(domain.ScopeGeneral, 1, func(r *domain.PricingRule) {
		r.Discount = domain.PercentageOff(5)
	})
	big := testRule(domain.ScopeGeneral, 50, func(r *domain.PricingRule) {
		r.Discount = domain.PercentageOff(20)
	})

	calc := NewCalculator(&mockRuleStore{rules: []domain.PricingRule{small, big}})
	got, err := calc.PriceFor(context.Background(), uuid.New(), 100, "", asOf, 100000)

	require.NoError(t, err)
	require.NotNil(t, got.AppliedRule)
	assert.Equal(t, big.ID, got.AppliedRule.ID)
	assert.Equal(t, int64(80000), got.FinalPriceCents)
}

func TestPriceFor_NonNegativeClamp(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rule domain.PricingRule
	}{
		{
			name: "percentage above 100",
			rule: testRule(domain.ScopeGeneral, 1, func(r *domain.PricingRule) {
				r.Discount = domain.PercentageOff(150)
			}),
		},
		{
			name: "full 100 percent",
			rule: testRule(domain.ScopeGeneral, 1, func(r *domain.PricingRule) {
				r.Discount = domain.PercentageOff(100)
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewCalculator(&mockRuleStore{rules: []domain.PricingRule{tt.rule}})
			got, err := calc.PriceFor(context.Background(), uuid.New(), 1, "", asOf, 100000)

			require.NoError(t, err)
			assert.GreaterOrEqual(t, got.FinalPriceCents, int64(0))
		})
	}
}

func TestPriceFor_FixedPriceAboveBase(t *testing.T) {
	// Misconfigured fixed price above base still yields a usable, non-negative
	// price; the "discount" is simply negative.
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rule := testRule(domain.ScopeGeneral, 1, func(r *domain.PricingRule) {
		r.Discount = domain.FixedPrice(120000)
	})

	calc := NewCalculator(&mockRuleStore{rules: []domain.PricingRule{rule}})
	got, err := calc.PriceFor(context.Background(), uuid.New(), 1, "", asOf, 100000)

	require.NoError(t, err)
	assert.Equal(t, int64(120000), got.FinalPriceCents)
	assert.Equal(t, int64(-20000), got.DiscountCents)
}

func TestPriceFor_MaxQuantityBound(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	banded := testRule(domain.ScopeGeneral, 5, func(r *domain.PricingRule) {
		r.MaxQuantity = ptrInt32(20)
	})

	calc := NewCalculator(&mockRuleStore{rules: []domain.PricingRule{banded}})

	inBand, err := calc.PriceFor(context.Background(), uuid.New(), 20, "", asOf, 100000)
	require.NoError(t, err)
	assert.NotNil(t, inBand.AppliedRule)

	outOfBand, err := calc.PriceFor(context.Background(), uuid.New(), 21, "", asOf, 100000)
	require.NoError(t, err)
	assert.Nil(t, outOfBand.AppliedRule)
	assert.Equal(t, int64(100000), outOfBand.FinalPriceCents)
}

func TestPriceFor_ZeroBasePrice(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rule := testRule(domain.ScopeGeneral, 1)

	calc := NewCalculator(&mockRuleStore{rules: []domain.PricingRule{rule}})
	got, err := calc.PriceFor(context.Background(), uuid.New(), 1, "", asOf, 0)

	require.NoError(t, err)
	assert.Equal(t, int64(0), got.FinalPriceCents)
	assert.Equal(t, 0.0, got.DiscountPercent)
}

func TestPriceFor_NoRules(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	calc := NewCalculator(&mockRuleStore{})
	got, err := calc.PriceFor(context.Background(), uuid.New(), 7, "", asOf, 52500)

	require.NoError(t, err)
	assert.Nil(t, got.AppliedRule)
	assert.Empty(t, got.MatchedRules)
	assert.Equal(t, int64(52500), got.FinalPriceCents)
}
