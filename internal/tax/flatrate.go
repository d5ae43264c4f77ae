package tax

import (
	"math"
	"strings"

	"github.com/tmcalister/crucible/internal/domain"
)

// FlatRateCalculator splits a single flat tax rate by jurisdiction.
// Jurisdiction comparison is case-insensitive.
//
// Rounding mode: total tax is the taxable amount times the rate, rounded
// half-up to the nearest cent. On an intra-jurisdiction split of an odd
// total, the SGST component absorbs the extra cent, so the components always
// sum to the total exactly.
type FlatRateCalculator struct {
	rate float64 // e.g. 0.18 for 18%
}

// NewFlatRateCalculator creates a calculator for the given rate. A negative
// rate is treated as zero.
func NewFlatRateCalculator(rate float64) *FlatRateCalculator {
	if rate < 0 {
		rate = 0
	}
	return &FlatRateCalculator{rate: rate}
}

// Split implements Calculator.
func (c *FlatRateCalculator) Split(taxableCents int64, sellerJurisdiction, buyerJurisdiction string) domain.TaxBreakdown {
	if taxableCents < 0 {
		taxableCents = 0
	}

	breakdown := domain.TaxBreakdown{
		TaxableCents:  taxableCents,
		Rate:          c.rate,
		TotalTaxCents: int64(math.Round(float64(taxableCents) * c.rate)),
	}

	if strings.EqualFold(strings.TrimSpace(sellerJurisdiction), strings.TrimSpace(buyerJurisdiction)) {
		breakdown.CGSTCents = breakdown.TotalTaxCents / 2
		breakdown.SGSTCents = breakdown.TotalTaxCents - breakdown.CGSTCents
	} else {
		breakdown.IGSTCents = breakdown.TotalTaxCents
	}

	return breakdown
}
