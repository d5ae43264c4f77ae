package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tmcalister/crucible/internal/domain"
	"github.com/tmcalister/crucible/internal/events"
	"github.com/tmcalister/crucible/internal/tax"
	"github.com/tmcalister/crucible/internal/telemetry"
)

// defaultDueDays applies when invoice generation is not given a due date.
const defaultDueDays = 30

// InvoiceRepository is the persistence contract for invoices.
// Implemented by postgres.InvoiceStore.
type InvoiceRepository interface {
	// CreateInvoice inserts the invoice and its line items atomically.
	// A partial unique index on the order reference makes the duplicate
	// check race-free: the loser of a concurrent create gets
	// domain.ErrInvoiceAlreadyExists.
	CreateInvoice(ctx context.Context, inv *domain.Invoice) error

	// NextInvoiceSequence atomically increments and returns the counter for
	// a numbering period (e.g. "202508"). Sequence values may be burned by
	// failed inserts; they are never reused.
	NextInvoiceSequence(ctx context.Context, period string) (int64, error)

	// GetInvoice returns an invoice with items, or domain.ErrInvoiceNotFound.
	GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error)

	// GetInvoiceByNumber returns an invoice by its human-readable number.
	GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (*domain.Invoice, error)

	// GetInvoiceForOrder returns the non-cancelled invoice referencing the
	// order, or domain.ErrInvoiceNotFound when none exists.
	GetInvoiceForOrder(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error)

	// ListInvoices lists invoice summaries, newest first.
	ListInvoices(ctx context.Context, limit, offset int32) ([]domain.InvoiceSummary, error)

	// ListOverdueCandidates returns sent invoices whose due date is before asOf.
	ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]domain.InvoiceSummary, error)

	// SetInvoiceStatus moves an invoice from one status to another with a
	// compare-and-set. Returns false when the invoice was not in the
	// expected status, without modifying anything.
	SetInvoiceStatus(ctx context.Context, invoiceID uuid.UUID, from, to domain.InvoiceStatus) (bool, error)
}

type invoiceService struct {
	repo      InvoiceRepository
	orders    domain.OrderLookup
	customers domain.CustomerLookup
	taxCalc   tax.Calculator

	// sellerJurisdiction is the seller's home jurisdiction, from config.
	sellerJurisdiction string

	publisher events.Publisher
	metrics   *telemetry.BusinessMetrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewInvoiceService creates an InvoiceService.
func NewInvoiceService(
	repo InvoiceRepository,
	orders domain.OrderLookup,
	customers domain.CustomerLookup,
	taxCalc tax.Calculator,
	sellerJurisdiction string,
	publisher events.Publisher,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
) domain.InvoiceService {
	if publisher == nil {
		publisher = events.Noop{}
	}

	return &invoiceService{
		repo:               repo,
		orders:             orders,
		customers:          customers,
		taxCalc:            taxCalc,
		sellerJurisdiction: sellerJurisdiction,
		publisher:          publisher,
		metrics:            metrics,
		logger:             logger,
		now:                time.Now,
	}
}

// GenerateInvoice turns a paid order into a draft invoice. Line items are
// copied 1:1 from the order; prices were resolved at order time and are not
// re-resolved here. The insert is a single transaction guarded by a
// uniqueness constraint on the order reference, so two concurrent calls for
// the same order produce exactly one invoice.
func (s *invoiceService) GenerateInvoice(ctx context.Context, params domain.GenerateInvoiceParams) (*domain.Invoice, error) {
	order, err := s.orders.GetOrder(ctx, params.OrderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus != domain.PaymentStatusPaid {
		return nil, domain.ErrOrderNotPaid
	}

	// Fast-path duplicate check. The storage constraint still backs this up
	// under concurrency.
	if _, err := s.repo.GetInvoiceForOrder(ctx, order.ID); err == nil {
		return nil, domain.ErrInvoiceAlreadyExists
	} else if !domain.IsCode(err, domain.ENOTFOUND) {
		return nil, domain.Internal(err, "invoice.generate", "failed to check for existing invoice")
	}

	customer, err := s.customers.GetCustomer(ctx, order.CustomerID)
	if err != nil {
		return nil, err
	}

	issueDate := s.now().UTC()
	dueDate := issueDate.AddDate(0, 0, defaultDueDays)
	if params.DueDate != nil {
		dueDate = *params.DueDate
	}

	taxableCents := order.SubtotalCents - order.DiscountCents
	breakdown := s.taxCalc.Split(taxableCents, s.sellerJurisdiction, customer.Jurisdiction)

	invoiceNumber, err := s.nextInvoiceNumber(ctx, issueDate)
	if err != nil {
		return nil, domain.Internal(err, "invoice.generate", "failed to generate invoice number")
	}

	inv := &domain.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: invoiceNumber,
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		SubtotalCents: order.SubtotalCents,
		DiscountCents: order.DiscountCents,
		Tax:           breakdown,
		TotalCents:    taxableCents + breakdown.TotalTaxCents,
		Currency:      order.Currency,
		Status:        domain.InvoiceStatusDraft,
		Notes:         params.Notes,
	}

	inv.Items = make([]domain.InvoiceLineItem, len(order.Items))
	for i, item := range order.Items {
		inv.Items[i] = domain.InvoiceLineItem{
			ID:             uuid.New(),
			InvoiceID:      inv.ID,
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			DiscountCents:  item.DiscountCents,
			TotalCents:     item.TotalCents,
		}
	}

	if err := s.repo.CreateInvoice(ctx, inv); err != nil {
		if domain.IsCode(err, domain.ECONFLICT) {
			if s.metrics != nil {
				s.metrics.InvoiceConflicts.Inc()
			}
			return nil, err
		}
		return nil, domain.Internal(err, "invoice.generate", "failed to create invoice")
	}

	if s.metrics != nil {
		s.metrics.InvoicesGenerated.Inc()
		s.metrics.InvoiceTotal.Observe(float64(inv.TotalCents))
	}
	s.logger.Info("invoice generated",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"order_id", inv.OrderID,
		"total_cents", inv.TotalCents,
	)

	s.publisher.InvoiceCreated(ctx, inv)

	return inv, nil
}

// nextInvoiceNumber formats INV-YYYYMM-NNNN from the atomic per-period
// counter, replacing random-suffix numbering that could collide under load.
func (s *invoiceService) nextInvoiceNumber(ctx context.Context, issueDate time.Time) (string, error) {
	period := issueDate.Format("200601")
	seq, err := s.repo.NextInvoiceSequence(ctx, period)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%s-%04d", period, seq), nil
}

// GetInvoice retrieves an invoice with its line items.
func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error) {
	return s.repo.GetInvoice(ctx, invoiceID)
}

// GetInvoiceByNumber retrieves an invoice by its human-readable number.
func (s *invoiceService) GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (*domain.Invoice, error) {
	return s.repo.GetInvoiceByNumber(ctx, invoiceNumber)
}

// ListInvoices lists invoices with pagination.
func (s *invoiceService) ListInvoices(ctx context.Context, limit, offset int32) ([]domain.InvoiceSummary, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListInvoices(ctx, limit, offset)
}

// TransitionInvoice moves an invoice to the target status. The update is a
// compare-and-set on the current status, so a concurrent transition cannot
// be silently overwritten.
func (s *invoiceService) TransitionInvoice(ctx context.Context, invoiceID uuid.UUID, target domain.InvoiceStatus) (*domain.Invoice, error) {
	if !target.Valid() {
		return nil, domain.Errorf(domain.EINVALID, "invoice.transition", "unknown invoice status: %s", target)
	}

	inv, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	from := inv.Status
	if !domain.CanTransition(from, target) {
		if s.metrics != nil {
			s.metrics.RejectedTransitions.Inc()
		}
		return nil, domain.Errorf(domain.EINVALID, "invoice.transition",
			"cannot transition invoice from %s to %s", from, target)
	}

	moved, err := s.repo.SetInvoiceStatus(ctx, invoiceID, from, target)
	if err != nil {
		return nil, domain.Internal(err, "invoice.transition", "failed to update invoice status")
	}
	if !moved {
		return nil, domain.Conflict("invoice.transition", "invoice status changed concurrently")
	}

	// Reload so the caller sees the stored row, including the updated_at
	// the status update just wrote.
	inv, err = s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, domain.Internal(err, "invoice.transition", "failed to reload invoice")
	}

	if s.metrics != nil {
		s.metrics.InvoiceTransitions.WithLabelValues(string(from), string(target)).Inc()
	}
	s.logger.Info("invoice transitioned",
		"invoice_id", invoiceID,
		"from", from,
		"to", target,
	)

	s.publisher.InvoiceStatusChanged(ctx, inv, from)

	return inv, nil
}

// MarkInvoicesOverdue transitions sent invoices past their due date to
// overdue. Driven by an external trigger (the poll worker); returns the
// number of invoices moved.
func (s *invoiceService) MarkInvoicesOverdue(ctx context.Context) (int, error) {
	candidates, err := s.repo.ListOverdueCandidates(ctx, s.now().UTC())
	if err != nil {
		return 0, domain.Internal(err, "invoice.mark_overdue", "failed to list overdue candidates")
	}

	count := 0
	for _, summary := range candidates {
		moved, err := s.repo.SetInvoiceStatus(ctx, summary.ID, domain.InvoiceStatusSent, domain.InvoiceStatusOverdue)
		if err != nil {
			s.logger.Warn("failed to mark invoice overdue", "invoice_id", summary.ID, "error", err)
			continue
		}
		if !moved {
			// Paid or cancelled since listing; nothing to do.
			continue
		}

		count++
		if s.metrics != nil {
			s.metrics.InvoicesMarkedLate.Inc()
			s.metrics.InvoiceTransitions.WithLabelValues(
				string(domain.InvoiceStatusSent), string(domain.InvoiceStatusOverdue)).Inc()
		}

		inv, err := s.repo.GetInvoice(ctx, summary.ID)
		if err == nil {
			s.publisher.InvoiceStatusChanged(ctx, inv, domain.InvoiceStatusSent)
		}
	}

	return count, nil
}
