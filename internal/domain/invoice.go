package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Invoice-related domain errors.
var (
	ErrInvoiceNotFound      = &Error{Code: ENOTFOUND, Message: "Invoice not found"}
	ErrOrderNotPaid         = &Error{Code: EINVALID, Message: "Order is not paid"}
	ErrInvoiceAlreadyExists = &Error{Code: ECONFLICT, Message: "Invoice already exists for this order"}
	ErrInvalidTransition    = &Error{Code: EINVALID, Message: "Invalid invoice status transition"}
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Valid reports whether s is a known invoice status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid,
		InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transitions leave s.
func (s InvoiceStatus) Terminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// invoiceTransitions is the lifecycle transition table. OVERDUE is reached
// from SENT by an external time trigger; CANCELLED is reachable from every
// non-terminal state.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:   {InvoiceStatusSent, InvoiceStatusCancelled},
	InvoiceStatusSent:    {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue: {InvoiceStatusPaid, InvoiceStatusCancelled},
}

// CanTransition reports whether an invoice may move from one status to another.
func CanTransition(from, to InvoiceStatus) bool {
	for _, next := range invoiceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TaxBreakdown splits a flat-rate tax across jurisdiction components.
// For an intra-jurisdiction sale the tax is divided evenly between CGST and
// SGST; for an inter-jurisdiction sale the whole tax is IGST. Exactly one of
// the two forms is nonzero per computation, and the components always sum to
// TotalTaxCents.
type TaxBreakdown struct {
	TaxableCents  int64
	Rate          float64
	CGSTCents     int64
	SGSTCents     int64
	IGSTCents     int64
	TotalTaxCents int64
}

// IntraJurisdiction reports whether the tax was split into CGST and SGST.
func (t TaxBreakdown) IntraJurisdiction() bool {
	return t.IGSTCents == 0 && t.TotalTaxCents > 0
}

// Invoice is the financial document assembled from exactly one paid order.
// At most one non-cancelled invoice exists per order. Status changes only via
// lifecycle transitions; invoices are cancelled, never deleted.
type Invoice struct {
	ID            uuid.UUID
	InvoiceNumber string
	OrderID       uuid.UUID
	CustomerID    uuid.UUID
	IssueDate     time.Time
	DueDate       time.Time
	Items         []InvoiceLineItem
	SubtotalCents int64
	DiscountCents int64
	Tax           TaxBreakdown
	TotalCents    int64
	Currency      string
	Status        InvoiceStatus
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InvoiceLineItem is copied 1:1 from an order line item at assembly time and
// is immutable afterwards.
type InvoiceLineItem struct {
	ID             uuid.UUID
	InvoiceID      uuid.UUID
	Description    string
	Quantity       int32
	UnitPriceCents int64
	DiscountCents  int64
	TotalCents     int64
}

// InvoiceSummary is a lightweight invoice representation for lists.
type InvoiceSummary struct {
	ID            uuid.UUID
	InvoiceNumber string
	OrderID       uuid.UUID
	Status        InvoiceStatus
	TotalCents    int64
	Currency      string
	DueDate       time.Time
	CreatedAt     time.Time
}

// InvoiceService assembles invoices from paid orders and advances them
// through the lifecycle.
type InvoiceService interface {
	// GenerateInvoice turns a paid order into a draft invoice. Concurrent
	// calls for the same order produce exactly one invoice; the loser gets
	// an ECONFLICT error.
	GenerateInvoice(ctx context.Context, params GenerateInvoiceParams) (*Invoice, error)

	// GetInvoice retrieves an invoice with its line items.
	GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*Invoice, error)

	// GetInvoiceByNumber retrieves an invoice by its human-readable number.
	GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)

	// ListInvoices lists invoices with pagination, newest first.
	ListInvoices(ctx context.Context, limit, offset int32) ([]InvoiceSummary, error)

	// TransitionInvoice moves an invoice to the target status, rejecting
	// transitions the lifecycle does not allow.
	TransitionInvoice(ctx context.Context, invoiceID uuid.UUID, target InvoiceStatus) (*Invoice, error)

	// MarkInvoicesOverdue transitions sent invoices past their due date to
	// overdue. Called by an external scheduler; returns the number moved.
	MarkInvoicesOverdue(ctx context.Context) (int, error)
}

// GenerateInvoiceParams contains parameters for invoice generation.
type GenerateInvoiceParams struct {
	OrderID uuid.UUID
	// DueDate defaults to issue date + 30 days when nil.
	DueDate *time.Time
	Notes   string
}
