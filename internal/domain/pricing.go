package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Pricing-related domain errors.
var (
	ErrProductNotFound       = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrRuleNotFound          = &Error{Code: ENOTFOUND, Message: "Pricing rule not found"}
	ErrInvalidQuantity       = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
	ErrInvalidQuantityBand   = &Error{Code: EINVALID, Message: "Max quantity must exceed min quantity"}
	ErrMissingDiscountSpec   = &Error{Code: EINVALID, Message: "Rule must specify a percentage or a fixed price"}
	ErrInvalidDiscountSpec   = &Error{Code: EINVALID, Message: "Discount value must not be negative"}
	ErrInvalidValidityWindow = &Error{Code: EINVALID, Message: "Valid-until must not precede valid-from"}
)

// ScopeGeneral marks a rule that applies to every buyer, classified or not.
// Any other scope value names a buyer classification (e.g., "wholesale").
const ScopeGeneral = "general"

// DiscountKind discriminates the two discount forms a rule may carry.
type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixedPrice DiscountKind = "fixed_price"
)

// DiscountSpec is a tagged variant: exactly one of Percent or PriceCents is
// meaningful, selected by Kind. Use PercentageOff or FixedPrice to construct.
type DiscountSpec struct {
	Kind       DiscountKind
	Percent    float64 // percentage off base price, e.g. 10 for 10%
	PriceCents int64   // replacement unit price in cents
}

// PercentageOff builds a percentage-off discount.
func PercentageOff(percent float64) DiscountSpec {
	return DiscountSpec{Kind: DiscountPercentage, Percent: percent}
}

// FixedPrice builds a fixed replacement-price discount.
func FixedPrice(priceCents int64) DiscountSpec {
	return DiscountSpec{Kind: DiscountFixedPrice, PriceCents: priceCents}
}

// PricingRule is a stored discount condition for a single product.
// Rules are created by catalog management and deactivated, never mutated,
// when superseded.
type PricingRule struct {
	ID        uuid.UUID
	ProductID uuid.UUID

	// Scope is ScopeGeneral or a buyer classification value.
	Scope string

	// MinQuantity is inclusive and always >= 1.
	MinQuantity int32

	// MaxQuantity is inclusive; nil means unbounded.
	MaxQuantity *int32

	Discount DiscountSpec

	ValidFrom time.Time
	// ValidUntil nil means the rule never expires.
	ValidUntil *time.Time

	Active    bool
	CreatedAt time.Time
}

// Validate rejects malformed rules before they are persisted.
func (r PricingRule) Validate() error {
	if r.MinQuantity < 1 {
		return Errorf(EINVALID, "rule.validate", "min quantity must be >= 1, got %d", r.MinQuantity)
	}
	if r.MaxQuantity != nil && *r.MaxQuantity <= r.MinQuantity {
		return ErrInvalidQuantityBand
	}
	switch r.Discount.Kind {
	case DiscountPercentage:
		if r.Discount.Percent < 0 {
			return ErrInvalidDiscountSpec
		}
	case DiscountFixedPrice:
		if r.Discount.PriceCents < 0 {
			return ErrInvalidDiscountSpec
		}
	default:
		return ErrMissingDiscountSpec
	}
	if r.ValidUntil != nil && r.ValidUntil.Before(r.ValidFrom) {
		return ErrInvalidValidityWindow
	}
	return nil
}

// IsBuyerSpecific reports whether the rule targets a specific buyer
// classification rather than all buyers.
func (r PricingRule) IsBuyerSpecific() bool {
	return r.Scope != ScopeGeneral
}

// InWindow reports whether the rule is active and its validity window
// contains asOf.
func (r PricingRule) InWindow(asOf time.Time) bool {
	if !r.Active {
		return false
	}
	if r.ValidFrom.After(asOf) {
		return false
	}
	if r.ValidUntil != nil && r.ValidUntil.Before(asOf) {
		return false
	}
	return true
}

// AppliesToQuantity reports whether the requested quantity falls inside the
// rule's quantity band.
func (r PricingRule) AppliesToQuantity(quantity int32) bool {
	if quantity < r.MinQuantity {
		return false
	}
	if r.MaxQuantity != nil && quantity > *r.MaxQuantity {
		return false
	}
	return true
}

// ResolvedPrice is the ephemeral result of a price resolution. It is computed
// on demand and never persisted.
type ResolvedPrice struct {
	ProductID       uuid.UUID
	BuyerID         *uuid.UUID
	Quantity        int32
	BasePriceCents  int64
	Currency        string
	MatchedRules    []PricingRule
	AppliedRule     *PricingRule
	FinalPriceCents int64
	DiscountCents   int64
	DiscountPercent float64
}

// PricingService resolves prices and manages pricing rules.
type PricingService interface {
	// ResolvePrice computes the final unit price for a product and quantity.
	// BuyerID is optional; anonymous callers only see general-scope rules.
	ResolvePrice(ctx context.Context, params ResolvePriceParams) (*ResolvedPrice, error)

	// CreatePricingRule validates and persists a new rule.
	CreatePricingRule(ctx context.Context, params CreatePricingRuleParams) (*PricingRule, error)

	// ListPricingRules returns all rules for a product, active or not.
	ListPricingRules(ctx context.Context, productID uuid.UUID) ([]PricingRule, error)

	// DeactivatePricingRule retires a rule without deleting it.
	DeactivatePricingRule(ctx context.Context, ruleID uuid.UUID) error
}

// ResolvePriceParams contains parameters for a price resolution.
type ResolvePriceParams struct {
	ProductID uuid.UUID
	Quantity  int32
	BuyerID   *uuid.UUID
	// AsOf defaults to the current time when zero.
	AsOf time.Time
}

// CreatePricingRuleParams contains parameters for creating a pricing rule.
type CreatePricingRuleParams struct {
	ProductID   uuid.UUID
	Scope       string
	MinQuantity int32
	MaxQuantity *int32
	Discount    DiscountSpec
	ValidFrom   time.Time
	ValidUntil  *time.Time
}
