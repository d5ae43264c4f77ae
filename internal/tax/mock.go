package tax

import "github.com/tmcalister/crucible/internal/domain"

// Mock is a Calculator returning a canned breakdown, for tests.
type Mock struct {
	Result domain.TaxBreakdown
	Calls  int
}

// Split records the call and returns the canned result with the taxable
// amount filled in.
func (m *Mock) Split(taxableCents int64, sellerJurisdiction, buyerJurisdiction string) domain.TaxBreakdown {
	m.Calls++
	result := m.Result
	result.TaxableCents = taxableCents
	return result
}
