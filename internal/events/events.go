package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tmcalister/crucible/internal/domain"
)

// NATS subjects for invoice lifecycle events.
const (
	SubjectInvoiceCreated       = "crucible.invoice.created"
	SubjectInvoiceStatusChanged = "crucible.invoice.status_changed"
)

// Publisher emits invoice lifecycle events. Publishing is best-effort:
// implementations log failures but never fail the business operation.
type Publisher interface {
	InvoiceCreated(ctx context.Context, inv *domain.Invoice)
	InvoiceStatusChanged(ctx context.Context, inv *domain.Invoice, from domain.InvoiceStatus)
}

// InvoiceCreatedEvent is the payload for SubjectInvoiceCreated.
type InvoiceCreatedEvent struct {
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	OrderID       uuid.UUID `json:"order_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	TotalCents    int64     `json:"total_cents"`
	Currency      string    `json:"currency"`
	IssueDate     time.Time `json:"issue_date"`
	DueDate       time.Time `json:"due_date"`
}

// InvoiceStatusChangedEvent is the payload for SubjectInvoiceStatusChanged.
type InvoiceStatusChangedEvent struct {
	InvoiceID     uuid.UUID            `json:"invoice_id"`
	InvoiceNumber string               `json:"invoice_number"`
	From          domain.InvoiceStatus `json:"from"`
	To            domain.InvoiceStatus `json:"to"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// Noop is a Publisher that discards all events. Used when no broker is
// configured and in tests.
type Noop struct{}

func (Noop) InvoiceCreated(context.Context, *domain.Invoice) {}

func (Noop) InvoiceStatusChanged(context.Context, *domain.Invoice, domain.InvoiceStatus) {}
