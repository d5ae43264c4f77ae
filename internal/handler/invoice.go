package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tmcalister/crucible/internal/domain"
)

type generateInvoiceRequest struct {
	OrderID string     `json:"order_id" validate:"required,uuid"`
	DueDate *time.Time `json:"due_date"`
	Notes   string     `json:"notes"`
}

type taxBreakdownResponse struct {
	TaxableCents  int64   `json:"taxable_cents"`
	Rate          float64 `json:"rate"`
	CGSTCents     int64   `json:"cgst_cents"`
	SGSTCents     int64   `json:"sgst_cents"`
	IGSTCents     int64   `json:"igst_cents"`
	TotalTaxCents int64   `json:"total_tax_cents"`
}

type invoiceItemResponse struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	Quantity       int32  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	DiscountCents  int64  `json:"discount_cents"`
	TotalCents     int64  `json:"total_cents"`
}

type invoiceResponse struct {
	ID            string                `json:"id"`
	InvoiceNumber string                `json:"invoice_number"`
	OrderID       string                `json:"order_id"`
	CustomerID    string                `json:"customer_id"`
	IssueDate     time.Time             `json:"issue_date"`
	DueDate       time.Time             `json:"due_date"`
	Items         []invoiceItemResponse `json:"items"`
	SubtotalCents int64                 `json:"subtotal_cents"`
	DiscountCents int64                 `json:"discount_cents"`
	Tax           taxBreakdownResponse  `json:"tax"`
	TotalCents    int64                 `json:"total_cents"`
	Currency      string                `json:"currency"`
	Status        string                `json:"status"`
	Notes         string                `json:"notes,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func toInvoiceResponse(inv *domain.Invoice) invoiceResponse {
	resp := invoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		OrderID:       inv.OrderID.String(),
		CustomerID:    inv.CustomerID.String(),
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		SubtotalCents: inv.SubtotalCents,
		DiscountCents: inv.DiscountCents,
		Tax: taxBreakdownResponse{
			TaxableCents:  inv.Tax.TaxableCents,
			Rate:          inv.Tax.Rate,
			CGSTCents:     inv.Tax.CGSTCents,
			SGSTCents:     inv.Tax.SGSTCents,
			IGSTCents:     inv.Tax.IGSTCents,
			TotalTaxCents: inv.Tax.TotalTaxCents,
		},
		TotalCents: inv.TotalCents,
		Currency:   inv.Currency,
		Status:     string(inv.Status),
		Notes:      inv.Notes,
		CreatedAt:  inv.CreatedAt,
		UpdatedAt:  inv.UpdatedAt,
	}

	resp.Items = make([]invoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, invoiceItemResponse{
			ID:             item.ID.String(),
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			DiscountCents:  item.DiscountCents,
			TotalCents:     item.TotalCents,
		})
	}

	return resp
}

// GenerateInvoice handles POST /api/invoices.
func (h *Handler) GenerateInvoice(c echo.Context) error {
	var req generateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, domain.Invalid("invoice.generate", "invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return ErrorResponse(c, err)
	}

	params := domain.GenerateInvoiceParams{
		DueDate: req.DueDate,
		Notes:   req.Notes,
	}
	params.OrderID, _ = uuid.Parse(req.OrderID)

	inv, err := h.invoices.GenerateInvoice(c.Request().Context(), params)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, toInvoiceResponse(inv))
}

// GetInvoice handles GET /api/invoices/:id. The id is an invoice UUID or a
// human-readable invoice number like INV-202508-0001.
func (h *Handler) GetInvoice(c echo.Context) error {
	raw := c.Param("id")

	var (
		inv *domain.Invoice
		err error
	)
	if invoiceID, parseErr := uuid.Parse(raw); parseErr == nil {
		inv, err = h.invoices.GetInvoice(c.Request().Context(), invoiceID)
	} else {
		inv, err = h.invoices.GetInvoiceByNumber(c.Request().Context(), raw)
	}
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, toInvoiceResponse(inv))
}

type invoiceSummaryResponse struct {
	ID            string    `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	OrderID       string    `json:"order_id"`
	Status        string    `json:"status"`
	TotalCents    int64     `json:"total_cents"`
	Currency      string    `json:"currency"`
	DueDate       time.Time `json:"due_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListInvoices handles GET /api/invoices?limit=&offset=.
func (h *Handler) ListInvoices(c echo.Context) error {
	limit := queryInt32(c, "limit", 100)
	offset := queryInt32(c, "offset", 0)

	summaries, err := h.invoices.ListInvoices(c.Request().Context(), limit, offset)
	if err != nil {
		return ErrorResponse(c, err)
	}

	resp := make([]invoiceSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, invoiceSummaryResponse{
			ID:            s.ID.String(),
			InvoiceNumber: s.InvoiceNumber,
			OrderID:       s.OrderID.String(),
			Status:        string(s.Status),
			TotalCents:    s.TotalCents,
			Currency:      s.Currency,
			DueDate:       s.DueDate,
			CreatedAt:     s.CreatedAt,
		})
	}

	return c.JSON(http.StatusOK, map[string]any{"invoices": resp})
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// TransitionInvoice handles POST /api/invoices/:id/transition.
func (h *Handler) TransitionInvoice(c echo.Context) error {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrorResponse(c, domain.Invalid("invoice.transition", "invoice id must be a valid UUID"))
	}

	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, domain.Invalid("invoice.transition", "invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return ErrorResponse(c, err)
	}

	inv, err := h.invoices.TransitionInvoice(c.Request().Context(), invoiceID, domain.InvoiceStatus(req.Status))
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, toInvoiceResponse(inv))
}

func queryInt32(c echo.Context, name string, fallback int32) int32 {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(v)
}
