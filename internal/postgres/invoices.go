package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tmcalister/crucible/internal/domain"
	"github.com/tmcalister/crucible/internal/service"
)

// InvoiceStore persists invoices and their line items in PostgreSQL.
type InvoiceStore struct {
	*Store
}

var _ service.InvoiceRepository = (*InvoiceStore)(nil)

// NewInvoiceStore creates an InvoiceStore.
func NewInvoiceStore(store *Store) *InvoiceStore {
	return &InvoiceStore{Store: store}
}

const invoiceColumns = `
	id, invoice_number, order_id, customer_id, issue_date, due_date,
	subtotal_cents, discount_cents, taxable_cents, tax_rate,
	cgst_cents, sgst_cents, igst_cents, total_tax_cents,
	total_cents, currency, status, notes, created_at, updated_at`

// CreateInvoice inserts the invoice and its line items in one transaction.
// The partial unique index on order_id (non-cancelled invoices only) turns a
// concurrent duplicate into domain.ErrInvoiceAlreadyExists.
func (s *InvoiceStore) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO invoices (
				id, invoice_number, order_id, customer_id, issue_date, due_date,
				subtotal_cents, discount_cents, taxable_cents, tax_rate,
				cgst_cents, sgst_cents, igst_cents, total_tax_cents,
				total_cents, currency, status, notes
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18
			)
			RETURNING created_at, updated_at`

		err := tx.QueryRow(ctx, query,
			pgUUID(inv.ID),
			inv.InvoiceNumber,
			pgUUID(inv.OrderID),
			pgUUID(inv.CustomerID),
			inv.IssueDate,
			inv.DueDate,
			inv.SubtotalCents,
			inv.DiscountCents,
			inv.Tax.TaxableCents,
			inv.Tax.Rate,
			inv.Tax.CGSTCents,
			inv.Tax.SGSTCents,
			inv.Tax.IGSTCents,
			inv.Tax.TotalTaxCents,
			inv.TotalCents,
			inv.Currency,
			string(inv.Status),
			inv.Notes,
		).Scan(&inv.CreatedAt, &inv.UpdatedAt)
		if err != nil {
			return err
		}

		// position carries the slice index; created_at ties within the
		// transaction and cannot order the lines.
		for i, item := range inv.Items {
			_, err := tx.Exec(ctx, `
				INSERT INTO invoice_items (
					id, invoice_id, position, description, quantity,
					unit_price_cents, discount_cents, total_cents
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				pgUUID(item.ID),
				pgUUID(item.InvoiceID),
				int32(i),
				item.Description,
				item.Quantity,
				item.UnitPriceCents,
				item.DiscountCents,
				item.TotalCents,
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrInvoiceAlreadyExists
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}

// NextInvoiceSequence increments and returns the counter for a numbering
// period in one statement. First call for a period creates the row.
func (s *InvoiceStore) NextInvoiceSequence(ctx context.Context, period string) (int64, error) {
	query := `
		INSERT INTO invoice_counters (period, next_seq)
		VALUES ($1, 1)
		ON CONFLICT (period)
		DO UPDATE SET next_seq = invoice_counters.next_seq + 1
		RETURNING next_seq`

	var seq int64
	if err := s.pool.QueryRow(ctx, query, period).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to advance invoice counter: %w", err)
	}

	return seq, nil
}

// GetInvoice returns an invoice with its line items.
func (s *InvoiceStore) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	return s.getInvoice(ctx, query, pgUUID(invoiceID))
}

// GetInvoiceByNumber returns an invoice by its human-readable number.
func (s *InvoiceStore) GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_number = $1`
	return s.getInvoice(ctx, query, invoiceNumber)
}

// GetInvoiceForOrder returns the non-cancelled invoice for an order. At most
// one exists, enforced by the partial unique index.
func (s *InvoiceStore) GetInvoiceForOrder(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE order_id = $1 AND status <> 'cancelled'`
	return s.getInvoice(ctx, query, pgUUID(orderID))
}

func (s *InvoiceStore) getInvoice(ctx context.Context, query string, arg any) (*domain.Invoice, error) {
	inv, err := scanInvoice(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	items, err := s.invoiceItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items

	return inv, nil
}

func (s *InvoiceStore) invoiceItems(ctx context.Context, invoiceID uuid.UUID) ([]domain.InvoiceLineItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_id, description, quantity,
			unit_price_cents, discount_cents, total_cents
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY position ASC`,
		pgUUID(invoiceID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice items: %w", err)
	}
	defer rows.Close()

	var items []domain.InvoiceLineItem
	for rows.Next() {
		var (
			item      domain.InvoiceLineItem
			id        pgtype.UUID
			invoiceID pgtype.UUID
		)
		err := rows.Scan(
			&id,
			&invoiceID,
			&item.Description,
			&item.Quantity,
			&item.UnitPriceCents,
			&item.DiscountCents,
			&item.TotalCents,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		item.ID = toUUID(id)
		item.InvoiceID = toUUID(invoiceID)
		items = append(items, item)
	}

	return items, rows.Err()
}

// ListInvoices lists invoice summaries, newest first.
func (s *InvoiceStore) ListInvoices(ctx context.Context, limit, offset int32) ([]domain.InvoiceSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_number, order_id, status, total_cents, currency, due_date, created_at
		FROM invoices
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// ListOverdueCandidates returns sent invoices whose due date has passed.
func (s *InvoiceStore) ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]domain.InvoiceSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_number, order_id, status, total_cents, currency, due_date, created_at
		FROM invoices
		WHERE status = 'sent' AND due_date < $1
		ORDER BY due_date ASC`,
		asOf,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue candidates: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// SetInvoiceStatus is a compare-and-set on status. Returns false when the
// invoice was not in the expected status.
func (s *InvoiceStore) SetInvoiceStatus(ctx context.Context, invoiceID uuid.UUID, from, to domain.InvoiceStatus) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE invoices
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		pgUUID(invoiceID), string(from), string(to),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update invoice status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var (
		inv        domain.Invoice
		id         pgtype.UUID
		orderID    pgtype.UUID
		customerID pgtype.UUID
		status     string
	)

	err := row.Scan(
		&id,
		&inv.InvoiceNumber,
		&orderID,
		&customerID,
		&inv.IssueDate,
		&inv.DueDate,
		&inv.SubtotalCents,
		&inv.DiscountCents,
		&inv.Tax.TaxableCents,
		&inv.Tax.Rate,
		&inv.Tax.CGSTCents,
		&inv.Tax.SGSTCents,
		&inv.Tax.IGSTCents,
		&inv.Tax.TotalTaxCents,
		&inv.TotalCents,
		&inv.Currency,
		&status,
		&inv.Notes,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.ID = toUUID(id)
	inv.OrderID = toUUID(orderID)
	inv.CustomerID = toUUID(customerID)
	inv.Status = domain.InvoiceStatus(status)

	return &inv, nil
}

func scanSummaries(rows pgx.Rows) ([]domain.InvoiceSummary, error) {
	var summaries []domain.InvoiceSummary
	for rows.Next() {
		var (
			summary domain.InvoiceSummary
			id      pgtype.UUID
			orderID pgtype.UUID
			status  string
		)
		err := rows.Scan(
			&id,
			&summary.InvoiceNumber,
			&orderID,
			&status,
			&summary.TotalCents,
			&summary.Currency,
			&summary.DueDate,
			&summary.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice summary: %w", err)
		}
		summary.ID = toUUID(id)
		summary.OrderID = toUUID(orderID)
		summary.Status = domain.InvoiceStatus(status)
		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}
