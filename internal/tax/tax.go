package tax

import (
	"github.com/tmcalister/crucible/internal/domain"
)

// Calculator defines the interface for jurisdiction-aware tax splitting.
// Implementations: FlatRateCalculator, NoTaxCalculator, Mock.
//
// Calculators never fail on valid numeric input: pricing must always produce
// a usable number, so the worst case clamps to zero rather than erroring.
type Calculator interface {
	// Split computes the tax on taxableCents and divides it across
	// jurisdiction components: an even two-part split when seller and buyer
	// share a jurisdiction, a single inter-jurisdiction component otherwise.
	Split(taxableCents int64, sellerJurisdiction, buyerJurisdiction string) domain.TaxBreakdown
}
