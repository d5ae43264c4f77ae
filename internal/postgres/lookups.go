package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tmcalister/crucible/internal/domain"
)

// OrderStore reads the order slice the engine needs.
type OrderStore struct {
	*Store
}

var _ domain.OrderLookup = (*OrderStore)(nil)

// NewOrderStore creates an OrderStore.
func NewOrderStore(store *Store) *OrderStore {
	return &OrderStore{Store: store}
}

// GetOrder returns an order with its line items.
func (s *OrderStore) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	var (
		order      domain.Order
		id         pgtype.UUID
		customerID pgtype.UUID
		status     string
	)

	err := s.pool.QueryRow(ctx, `
		SELECT id, order_number, customer_id, payment_status,
			subtotal_cents, discount_cents, currency
		FROM orders
		WHERE id = $1`,
		pgUUID(orderID),
	).Scan(
		&id,
		&order.OrderNumber,
		&customerID,
		&status,
		&order.SubtotalCents,
		&order.DiscountCents,
		&order.Currency,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	order.ID = toUUID(id)
	order.CustomerID = toUUID(customerID)
	order.PaymentStatus = domain.PaymentStatus(status)

	rows, err := s.pool.Query(ctx, `
		SELECT description, quantity, unit_price_cents, discount_cents, total_cents
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC`,
		pgUUID(orderID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderLineItem
		err := rows.Scan(
			&item.Description,
			&item.Quantity,
			&item.UnitPriceCents,
			&item.DiscountCents,
			&item.TotalCents,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &order, nil
}

// CustomerStore reads the customer slice the engine needs.
type CustomerStore struct {
	*Store
}

var _ domain.CustomerLookup = (*CustomerStore)(nil)

// NewCustomerStore creates a CustomerStore.
func NewCustomerStore(store *Store) *CustomerStore {
	return &CustomerStore{Store: store}
}

// GetCustomer returns a customer by ID.
func (s *CustomerStore) GetCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Customer, error) {
	var (
		customer domain.Customer
		id       pgtype.UUID
	)

	err := s.pool.QueryRow(ctx, `
		SELECT id, name, classification, jurisdiction
		FROM customers
		WHERE id = $1`,
		pgUUID(customerID),
	).Scan(&id, &customer.Name, &customer.Classification, &customer.Jurisdiction)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	customer.ID = toUUID(id)

	return &customer, nil
}

// ProductStore reads the catalog slice the engine needs.
type ProductStore struct {
	*Store
}

var _ domain.ProductLookup = (*ProductStore)(nil)

// NewProductStore creates a ProductStore.
func NewProductStore(store *Store) *ProductStore {
	return &ProductStore{Store: store}
}

// GetProduct returns a product by ID.
func (s *ProductStore) GetProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	var (
		product domain.Product
		id      pgtype.UUID
	)

	err := s.pool.QueryRow(ctx, `
		SELECT id, name, base_price_cents, currency
		FROM products
		WHERE id = $1`,
		pgUUID(productID),
	).Scan(&id, &product.Name, &product.BasePriceCents, &product.Currency)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	product.ID = toUUID(id)

	return &product, nil
}
