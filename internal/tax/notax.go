package tax

import "github.com/tmcalister/crucible/internal/domain"

// NoTaxCalculator returns zero tax for all computations.
// Used for tax-exempt sellers and in tests.
type NoTaxCalculator struct{}

// NewNoTaxCalculator creates a new no-tax calculator.
func NewNoTaxCalculator() *NoTaxCalculator {
	return &NoTaxCalculator{}
}

// Split always returns a zero breakdown for the given taxable amount.
func (c *NoTaxCalculator) Split(taxableCents int64, sellerJurisdiction, buyerJurisdiction string) domain.TaxBreakdown {
	if taxableCents < 0 {
		taxableCents = 0
	}
	return domain.TaxBreakdown{TaxableCents: taxableCents}
}
