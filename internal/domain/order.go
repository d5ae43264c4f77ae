package domain

import (
	"context"

	"github.com/google/uuid"
)

// Order-related domain errors.
var (
	ErrOrderNotFound    = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrCustomerNotFound = &Error{Code: ENOTFOUND, Message: "Customer not found"}
)

// PaymentStatus is the payment state of an order as recorded by the order
// system. Only paid orders can be invoiced.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Order is the slice of an order this engine needs: payment state, resolved
// totals, and line items. Prices were resolved at order time; invoicing never
// re-resolves them.
type Order struct {
	ID            uuid.UUID
	OrderNumber   string
	CustomerID    uuid.UUID
	PaymentStatus PaymentStatus
	SubtotalCents int64
	DiscountCents int64
	Currency      string
	Items         []OrderLineItem
}

// OrderLineItem is a priced line on an order.
type OrderLineItem struct {
	Description    string
	Quantity       int32
	UnitPriceCents int64
	DiscountCents  int64
	TotalCents     int64
}

// OrderLookup is the order-system collaborator contract.
type OrderLookup interface {
	// GetOrder returns an order with its line items, or ErrOrderNotFound.
	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)
}
