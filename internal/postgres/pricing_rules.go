package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tmcalister/crucible/internal/domain"
	"github.com/tmcalister/crucible/internal/service"
)

// PricingRuleStore persists pricing rules in PostgreSQL.
type PricingRuleStore struct {
	*Store
}

var _ service.PricingRuleRepository = (*PricingRuleStore)(nil)

// NewPricingRuleStore creates a PricingRuleStore.
func NewPricingRuleStore(store *Store) *PricingRuleStore {
	return &PricingRuleStore{Store: store}
}

const ruleColumns = `
	id, product_id, scope, min_quantity, max_quantity,
	discount_kind, discount_percent, discount_price_cents,
	valid_from, valid_until, active, created_at`

// RulesFor returns every rule for a product, active or not. Buyer-specific
// rules sort first, then ascending min quantity, matching the visibility
// ordering the resolver produces.
func (s *PricingRuleStore) RulesFor(ctx context.Context, productID uuid.UUID) ([]domain.PricingRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM pricing_rules
		WHERE product_id = $1
		ORDER BY (scope = 'general'), min_quantity ASC, created_at ASC`

	rows, err := s.pool.Query(ctx, query, pgUUID(productID))
	if err != nil {
		return nil, fmt.Errorf("failed to query pricing rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.PricingRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pricing rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// CreateRule persists a new rule.
func (s *PricingRuleStore) CreateRule(ctx context.Context, rule domain.PricingRule) error {
	query := `
		INSERT INTO pricing_rules (
			id, product_id, scope, min_quantity, max_quantity,
			discount_kind, discount_percent, discount_price_cents,
			valid_from, valid_until, active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.pool.Exec(ctx, query,
		pgUUID(rule.ID),
		pgUUID(rule.ProductID),
		rule.Scope,
		rule.MinQuantity,
		pgInt4Ptr(rule.MaxQuantity),
		string(rule.Discount.Kind),
		rule.Discount.Percent,
		rule.Discount.PriceCents,
		rule.ValidFrom,
		pgTimestamptzPtr(rule.ValidUntil),
		rule.Active,
		rule.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pricing rule: %w", err)
	}

	return nil
}

// GetRule returns a rule by ID.
func (s *PricingRuleStore) GetRule(ctx context.Context, ruleID uuid.UUID) (*domain.PricingRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM pricing_rules
		WHERE id = $1`

	rule, err := scanRule(s.pool.QueryRow(ctx, query, pgUUID(ruleID)))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get pricing rule: %w", err)
	}

	return &rule, nil
}

// DeactivateRule clears the active flag. The row stays on record.
func (s *PricingRuleStore) DeactivateRule(ctx context.Context, ruleID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pricing_rules SET active = FALSE WHERE id = $1`,
		pgUUID(ruleID),
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate pricing rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRuleNotFound
	}

	return nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for shared scan code.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (domain.PricingRule, error) {
	var (
		rule        domain.PricingRule
		id          pgtype.UUID
		productID   pgtype.UUID
		maxQuantity pgtype.Int4
		kind        string
		validUntil  pgtype.Timestamptz
	)

	err := row.Scan(
		&id,
		&productID,
		&rule.Scope,
		&rule.MinQuantity,
		&maxQuantity,
		&kind,
		&rule.Discount.Percent,
		&rule.Discount.PriceCents,
		&rule.ValidFrom,
		&validUntil,
		&rule.Active,
		&rule.CreatedAt,
	)
	if err != nil {
		return domain.PricingRule{}, err
	}

	rule.ID = toUUID(id)
	rule.ProductID = toUUID(productID)
	rule.MaxQuantity = int32PtrFromPg(maxQuantity)
	rule.Discount.Kind = domain.DiscountKind(kind)
	rule.ValidUntil = timePtrFromPg(validUntil)

	return rule, nil
}
