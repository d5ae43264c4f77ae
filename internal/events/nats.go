package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tmcalister/crucible/internal/domain"
)

// NATSPublisher publishes invoice events to a NATS server.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("crucible-invoicing"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	return &NATSPublisher{conn: conn, logger: logger}, nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}

// InvoiceCreated publishes an invoice.created event.
func (p *NATSPublisher) InvoiceCreated(ctx context.Context, inv *domain.Invoice) {
	p.publish(SubjectInvoiceCreated, InvoiceCreatedEvent{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		OrderID:       inv.OrderID,
		CustomerID:    inv.CustomerID,
		TotalCents:    inv.TotalCents,
		Currency:      inv.Currency,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
	})
}

// InvoiceStatusChanged publishes an invoice.status_changed event.
func (p *NATSPublisher) InvoiceStatusChanged(ctx context.Context, inv *domain.Invoice, from domain.InvoiceStatus) {
	p.publish(SubjectInvoiceStatusChanged, InvoiceStatusChangedEvent{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		From:          from,
		To:            inv.Status,
		OccurredAt:    time.Now().UTC(),
	})
}

func (p *NATSPublisher) publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("failed to marshal event", "subject", subject, "error", err)
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
