package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmcalister/crucible/internal/domain"
)

// stubPricingService returns canned values for handler tests.
type stubPricingService struct {
	resolved *domain.ResolvedPrice
	rule     *domain.PricingRule
	rules    []domain.PricingRule
	err      error
}

func (s *stubPricingService) ResolvePrice(ctx context.Context, params domain.ResolvePriceParams) (*domain.ResolvedPrice, error) {
	return s.resolved, s.err
}

func (s *stubPricingService) CreatePricingRule(ctx context.Context, params domain.CreatePricingRuleParams) (*domain.PricingRule, error) {
	return s.rule, s.err
}

func (s *stubPricingService) ListPricingRules(ctx context.Context, productID uuid.UUID) ([]domain.PricingRule, error) {
	return s.rules, s.err
}

func (s *stubPricingService) DeactivatePricingRule(ctx context.Context, ruleID uuid.UUID) error {
	return s.err
}

// stubInvoiceService returns canned values for handler tests.
type stubInvoiceService struct {
	inv       *domain.Invoice
	summaries []domain.InvoiceSummary
	err       error
}

func (s *stubInvoiceService) GenerateInvoice(ctx context.Context, params domain.GenerateInvoiceParams) (*domain.Invoice, error) {
	return s.inv, s.err
}

func (s *stubInvoiceService) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error) {
	return s.inv, s.err
}

func (s *stubInvoiceService) GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (*domain.Invoice, error) {
	return s.inv, s.err
}

func (s *stubInvoiceService) ListInvoices(ctx context.Context, limit, offset int32) ([]domain.InvoiceSummary, error) {
	return s.summaries, s.err
}

func (s *stubInvoiceService) TransitionInvoice(ctx context.Context, invoiceID uuid.UUID, target domain.InvoiceStatus) (*domain.Invoice, error) {
	return s.inv, s.err
}

func (s *stubInvoiceService) MarkInvoicesOverdue(ctx context.Context) (int, error) {
	return 0, s.err
}

func newTestHandler(pricing domain.PricingService, invoices domain.InvoiceService) (*Handler, *echo.Echo) {
	e := echo.New()
	e.Validator = NewValidator()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(pricing, invoices, nil, logger)
	return h, e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func sampleInvoice() *domain.Invoice {
	return &domain.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: "INV-202608-0001",
		OrderID:       uuid.New(),
		CustomerID:    uuid.New(),
		IssueDate:     time.Now().UTC(),
		DueDate:       time.Now().UTC().AddDate(0, 0, 30),
		SubtotalCents: 10000000,
		Tax: domain.TaxBreakdown{
			TaxableCents:  10000000,
			Rate:          0.18,
			CGSTCents:     900000,
			SGSTCents:     900000,
			TotalTaxCents: 1800000,
		},
		TotalCents: 11800000,
		Currency:   "INR",
		Status:     domain.InvoiceStatusDraft,
	}
}

func TestResolvePriceHandler(t *testing.T) {
	productID := uuid.New()
	pricing := &stubPricingService{
		resolved: &domain.ResolvedPrice{
			ProductID:       productID,
			Quantity:        10,
			BasePriceCents:  100000,
			FinalPriceCents: 90000,
			DiscountCents:   10000,
			DiscountPercent: 10,
			Currency:        "INR",
		},
	}
	h, e := newTestHandler(pricing, &stubInvoiceService{})

	req := jsonRequest(http.MethodPost, "/api/pricing/resolve",
		`{"product_id":"`+productID.String()+`","quantity":10}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.ResolvePrice(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"final_price_cents":90000`)
	assert.Contains(t, rec.Body.String(), `"discount_cents":10000`)
}

func TestResolvePriceHandler_Validation(t *testing.T) {
	h, e := newTestHandler(&stubPricingService{}, &stubInvoiceService{})

	tests := []struct {
		name string
		body string
	}{
		{"missing product", `{"quantity":10}`},
		{"bad uuid", `{"product_id":"not-a-uuid","quantity":10}`},
		{"zero quantity", `{"product_id":"` + uuid.New().String() + `","quantity":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(http.MethodPost, "/api/pricing/resolve", tt.body)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, h.ResolvePrice(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreatePricingRuleHandler(t *testing.T) {
	productID := uuid.New()
	pricing := &stubPricingService{
		rule: &domain.PricingRule{
			ID:          uuid.New(),
			ProductID:   productID,
			Scope:       domain.ScopeGeneral,
			MinQuantity: 5,
			Discount:    domain.PercentageOff(10),
			ValidFrom:   time.Now(),
			Active:      true,
		},
	}
	h, e := newTestHandler(pricing, &stubInvoiceService{})

	req := jsonRequest(http.MethodPost, "/api/pricing/rules",
		`{"product_id":"`+productID.String()+`","min_quantity":5,"discount_kind":"percentage","discount_percent":10}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.CreatePricingRule(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"discount_kind":"percentage"`)
}

func TestCreatePricingRuleHandler_UnknownKind(t *testing.T) {
	h, e := newTestHandler(&stubPricingService{}, &stubInvoiceService{})

	req := jsonRequest(http.MethodPost, "/api/pricing/rules",
		`{"product_id":"`+uuid.New().String()+`","min_quantity":5,"discount_kind":"bogus"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.CreatePricingRule(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPricingRulesHandler_BadProductID(t *testing.T) {
	h, e := newTestHandler(&stubPricingService{}, &stubInvoiceService{})

	req := httptest.NewRequest(http.MethodGet, "/api/pricing/rules?product_id=nope", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.ListPricingRules(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateInvoiceHandler(t *testing.T) {
	inv := sampleInvoice()
	h, e := newTestHandler(&stubPricingService{}, &stubInvoiceService{inv: inv})

	req := jsonRequest(http.MethodPost, "/api/invoices",
		`{"order_id":"`+inv.OrderID.String()+`"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.GenerateInvoice(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"invoice_number":"INV-202608-0001"`)
	assert.Contains(t, rec.Body.String(), `"total_tax_cents":1800000`)
}

func TestGenerateInvoiceHandler_Duplicate(t *testing.T) {
	h, e := newTestHandler(&stubPricingService{}, &stubInvoiceService{err: domain.ErrInvoiceAlreadyExists})

	req := jsonRequest(http.MethodPost, "/api/invoices",
		`{"order_id":"`+uuid.New().String()+`"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.GenerateInvoice(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetInvoiceHandler_ByNumber(t *testing.T) {
	inv := sampleInvoice()
	h, e := newTestHandler(&stubPricingService{}, &stubInvoiceService{inv: inv})

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/INV-202608-0001", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("INV-202608-0001")

	require.NoError(t, h.GetInvoice(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), inv.ID.String())
}

func TestGetInvoiceHandler_NotFound(t *testing.T) {
	h, e := newTestHandler(&stubPricingService{}, &stubInvoiceService{err: domain.ErrInvoiceNotFound})

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/invoices/"+id.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	require.NoError(t, h.GetInvoice(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransitionInvoiceHandler(t *testing.T) {
	inv := sampleInvoice()
	inv.Status = domain.InvoiceStatusSent
	h, e := newTestHandler(&stubPricingService{}, &stubInvoiceService{inv: inv})

	req := jsonRequest(http.MethodPost, "/api/invoices/"+inv.ID.String()+"/transition",
		`{"status":"sent"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(inv.ID.String())

	require.NoError(t, h.TransitionInvoice(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"sent"`)
}

func TestTransitionInvoiceHandler_Rejected(t *testing.T) {
	h, e := newTestHandler(&stubPricingService{}, &stubInvoiceService{
		err: domain.Invalid("invoice.transition", "cannot transition invoice from paid to sent"),
	})

	id := uuid.New()
	req := jsonRequest(http.MethodPost, "/api/invoices/"+id.String()+"/transition",
		`{"status":"sent"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	require.NoError(t, h.TransitionInvoice(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	h, e := newTestHandler(&stubPricingService{}, &stubInvoiceService{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Healthz(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
