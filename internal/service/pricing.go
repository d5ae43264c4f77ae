package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tmcalister/crucible/internal/domain"
	"github.com/tmcalister/crucible/internal/pricing"
	"github.com/tmcalister/crucible/internal/telemetry"
)

// PricingRuleRepository is the persistence contract for pricing rules.
// Implemented by postgres.PricingRuleStore.
type PricingRuleRepository interface {
	pricing.RuleStore

	// CreateRule persists a new rule.
	CreateRule(ctx context.Context, rule domain.PricingRule) error

	// GetRule returns a rule by ID, or domain.ErrRuleNotFound.
	GetRule(ctx context.Context, ruleID uuid.UUID) (*domain.PricingRule, error)

	// DeactivateRule clears the active flag. Deactivation, not deletion:
	// superseded rules stay on record.
	DeactivateRule(ctx context.Context, ruleID uuid.UUID) error
}

type pricingService struct {
	rules      PricingRuleRepository
	cache      *pricing.CachedRuleStore
	calculator *pricing.Calculator
	products   domain.ProductLookup
	customers  domain.CustomerLookup
	metrics    *telemetry.BusinessMetrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewPricingService creates a PricingService. Rule reads go through a TTL
// cache so validity-window transitions are observed within cacheTTL; writes
// invalidate the affected product's entry immediately.
func NewPricingService(
	rules PricingRuleRepository,
	products domain.ProductLookup,
	customers domain.CustomerLookup,
	cacheTTL time.Duration,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
) domain.PricingService {
	cache := pricing.NewCachedRuleStore(rules, cacheTTL)

	return &pricingService{
		rules:      rules,
		cache:      cache,
		calculator: pricing.NewCalculator(cache),
		products:   products,
		customers:  customers,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// ResolvePrice computes the final unit price for a product and quantity.
func (s *pricingService) ResolvePrice(ctx context.Context, params domain.ResolvePriceParams) (*domain.ResolvedPrice, error) {
	if params.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := s.products.GetProduct(ctx, params.ProductID)
	if err != nil {
		return nil, err
	}

	// Anonymous callers see only general-scope rules.
	classification := ""
	if params.BuyerID != nil {
		customer, err := s.customers.GetCustomer(ctx, *params.BuyerID)
		if err != nil {
			return nil, err
		}
		classification = customer.Classification
	}

	asOf := params.AsOf
	if asOf.IsZero() {
		asOf = s.now()
	}

	resolved, err := s.calculator.PriceFor(ctx, params.ProductID, params.Quantity, classification, asOf, product.BasePriceCents)
	if err != nil {
		return nil, domain.Internal(err, "pricing.resolve", "failed to resolve price")
	}

	resolved.BuyerID = params.BuyerID
	resolved.Currency = product.Currency

	if s.metrics != nil {
		s.metrics.PriceResolutions.WithLabelValues(strconv.FormatBool(resolved.AppliedRule != nil)).Inc()
	}

	return resolved, nil
}

// CreatePricingRule validates and persists a new rule.
func (s *pricingService) CreatePricingRule(ctx context.Context, params domain.CreatePricingRuleParams) (*domain.PricingRule, error) {
	// The product must exist; rules for unknown products would never match.
	if _, err := s.products.GetProduct(ctx, params.ProductID); err != nil {
		return nil, err
	}

	scope := params.Scope
	if scope == "" {
		scope = domain.ScopeGeneral
	}

	validFrom := params.ValidFrom
	if validFrom.IsZero() {
		validFrom = s.now()
	}

	rule := domain.PricingRule{
		ID:          uuid.New(),
		ProductID:   params.ProductID,
		Scope:       scope,
		MinQuantity: params.MinQuantity,
		MaxQuantity: params.MaxQuantity,
		Discount:    params.Discount,
		ValidFrom:   validFrom,
		ValidUntil:  params.ValidUntil,
		Active:      true,
		CreatedAt:   s.now(),
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}

	if err := s.rules.CreateRule(ctx, rule); err != nil {
		return nil, domain.Internal(err, "rule.create", "failed to save pricing rule")
	}

	s.cache.Invalidate(rule.ProductID)

	if s.metrics != nil {
		s.metrics.RulesCreated.Inc()
	}
	s.logger.Info("pricing rule created",
		"rule_id", rule.ID,
		"product_id", rule.ProductID,
		"scope", rule.Scope,
		"min_quantity", rule.MinQuantity,
	)

	return &rule, nil
}

// ListPricingRules returns all rules for a product, bypassing the cache so
// catalog management sees writes immediately.
func (s *pricingService) ListPricingRules(ctx context.Context, productID uuid.UUID) ([]domain.PricingRule, error) {
	rules, err := s.rules.RulesFor(ctx, productID)
	if err != nil {
		return nil, domain.Internal(err, "rule.list", "failed to list pricing rules")
	}
	return rules, nil
}

// DeactivatePricingRule retires a rule without deleting it.
func (s *pricingService) DeactivatePricingRule(ctx context.Context, ruleID uuid.UUID) error {
	rule, err := s.rules.GetRule(ctx, ruleID)
	if err != nil {
		return err
	}

	if err := s.rules.DeactivateRule(ctx, ruleID); err != nil {
		return domain.Internal(err, "rule.deactivate", "failed to deactivate pricing rule")
	}

	s.cache.Invalidate(rule.ProductID)

	if s.metrics != nil {
		s.metrics.RulesDeactivated.Inc()
	}
	s.logger.Info("pricing rule deactivated", "rule_id", ruleID, "product_id", rule.ProductID)

	return nil
}
