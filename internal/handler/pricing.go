package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tmcalister/crucible/internal/domain"
)

type resolvePriceRequest struct {
	ProductID string     `json:"product_id" validate:"required,uuid"`
	Quantity  int32      `json:"quantity" validate:"required,min=1"`
	BuyerID   *string    `json:"buyer_id" validate:"omitempty,uuid"`
	AsOf      *time.Time `json:"as_of"`
}

type resolvedPriceResponse struct {
	ProductID       string  `json:"product_id"`
	BuyerID         *string `json:"buyer_id,omitempty"`
	Quantity        int32   `json:"quantity"`
	BasePriceCents  int64   `json:"base_price_cents"`
	FinalPriceCents int64   `json:"final_price_cents"`
	DiscountCents   int64   `json:"discount_cents"`
	DiscountPercent float64 `json:"discount_percent"`
	Currency        string   `json:"currency"`
	MatchedRuleIDs  []string `json:"matched_rule_ids,omitempty"`
	AppliedRuleID   *string  `json:"applied_rule_id,omitempty"`
}

// ResolvePrice handles POST /api/pricing/resolve.
func (h *Handler) ResolvePrice(c echo.Context) error {
	var req resolvePriceRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, domain.Invalid("pricing.resolve", "invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return ErrorResponse(c, err)
	}

	params := domain.ResolvePriceParams{
		Quantity: req.Quantity,
	}
	params.ProductID, _ = uuid.Parse(req.ProductID)
	if req.BuyerID != nil {
		buyerID, _ := uuid.Parse(*req.BuyerID)
		params.BuyerID = &buyerID
	}
	if req.AsOf != nil {
		params.AsOf = *req.AsOf
	}

	resolved, err := h.pricing.ResolvePrice(c.Request().Context(), params)
	if err != nil {
		return ErrorResponse(c, err)
	}

	resp := resolvedPriceResponse{
		ProductID:       resolved.ProductID.String(),
		Quantity:        resolved.Quantity,
		BasePriceCents:  resolved.BasePriceCents,
		FinalPriceCents: resolved.FinalPriceCents,
		DiscountCents:   resolved.DiscountCents,
		DiscountPercent: resolved.DiscountPercent,
		Currency:        resolved.Currency,
	}
	if resolved.BuyerID != nil {
		id := resolved.BuyerID.String()
		resp.BuyerID = &id
	}
	for _, rule := range resolved.MatchedRules {
		resp.MatchedRuleIDs = append(resp.MatchedRuleIDs, rule.ID.String())
	}
	if resolved.AppliedRule != nil {
		id := resolved.AppliedRule.ID.String()
		resp.AppliedRuleID = &id
	}

	return c.JSON(http.StatusOK, resp)
}

type createRuleRequest struct {
	ProductID          string     `json:"product_id" validate:"required,uuid"`
	Scope              string     `json:"scope"`
	MinQuantity        int32      `json:"min_quantity" validate:"required,min=1"`
	MaxQuantity        *int32     `json:"max_quantity"`
	DiscountKind       string     `json:"discount_kind" validate:"required,oneof=percentage fixed_price"`
	DiscountPercent    float64    `json:"discount_percent"`
	DiscountPriceCents int64      `json:"discount_price_cents"`
	ValidFrom          *time.Time `json:"valid_from"`
	ValidUntil         *time.Time `json:"valid_until"`
}

type pricingRuleResponse struct {
	ID                 string     `json:"id"`
	ProductID          string     `json:"product_id"`
	Scope              string     `json:"scope"`
	MinQuantity        int32      `json:"min_quantity"`
	MaxQuantity        *int32     `json:"max_quantity,omitempty"`
	DiscountKind       string     `json:"discount_kind"`
	DiscountPercent    float64    `json:"discount_percent,omitempty"`
	DiscountPriceCents int64      `json:"discount_price_cents,omitempty"`
	ValidFrom          time.Time  `json:"valid_from"`
	ValidUntil         *time.Time `json:"valid_until,omitempty"`
	Active             bool       `json:"active"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toRuleResponse(rule domain.PricingRule) pricingRuleResponse {
	return pricingRuleResponse{
		ID:                 rule.ID.String(),
		ProductID:          rule.ProductID.String(),
		Scope:              rule.Scope,
		MinQuantity:        rule.MinQuantity,
		MaxQuantity:        rule.MaxQuantity,
		DiscountKind:       string(rule.Discount.Kind),
		DiscountPercent:    rule.Discount.Percent,
		DiscountPriceCents: rule.Discount.PriceCents,
		ValidFrom:          rule.ValidFrom,
		ValidUntil:         rule.ValidUntil,
		Active:             rule.Active,
		CreatedAt:          rule.CreatedAt,
	}
}

// CreatePricingRule handles POST /api/pricing/rules.
func (h *Handler) CreatePricingRule(c echo.Context) error {
	var req createRuleRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, domain.Invalid("rule.create", "invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return ErrorResponse(c, err)
	}

	params := domain.CreatePricingRuleParams{
		Scope:       req.Scope,
		MinQuantity: req.MinQuantity,
		MaxQuantity: req.MaxQuantity,
		ValidUntil:  req.ValidUntil,
	}
	params.ProductID, _ = uuid.Parse(req.ProductID)
	if req.ValidFrom != nil {
		params.ValidFrom = *req.ValidFrom
	}
	switch domain.DiscountKind(req.DiscountKind) {
	case domain.DiscountPercentage:
		params.Discount = domain.PercentageOff(req.DiscountPercent)
	case domain.DiscountFixedPrice:
		params.Discount = domain.FixedPrice(req.DiscountPriceCents)
	}

	rule, err := h.pricing.CreatePricingRule(c.Request().Context(), params)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, toRuleResponse(*rule))
}

// ListPricingRules handles GET /api/pricing/rules?product_id=...
func (h *Handler) ListPricingRules(c echo.Context) error {
	productID, err := uuid.Parse(c.QueryParam("product_id"))
	if err != nil {
		return ErrorResponse(c, domain.Invalid("rule.list", "product_id must be a valid UUID"))
	}

	rules, err := h.pricing.ListPricingRules(c.Request().Context(), productID)
	if err != nil {
		return ErrorResponse(c, err)
	}

	resp := make([]pricingRuleResponse, 0, len(rules))
	for _, rule := range rules {
		resp = append(resp, toRuleResponse(rule))
	}

	return c.JSON(http.StatusOK, map[string]any{"rules": resp})
}

// DeactivatePricingRule handles DELETE /api/pricing/rules/:id.
func (h *Handler) DeactivatePricingRule(c echo.Context) error {
	ruleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrorResponse(c, domain.Invalid("rule.deactivate", "rule id must be a valid UUID"))
	}

	if err := h.pricing.DeactivatePricingRule(c.Request().Context(), ruleID); err != nil {
		return ErrorResponse(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
