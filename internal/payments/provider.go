package payments

import (
	"context"
	"errors"
	"strings"
)

// Status enumerates the normalised reconciliation classes for a provider
// transaction. Anything the provider reports that is not terminal-paid maps
// to pending; lookups that fail map to not-found.
type Status string

const (
	// StatusConfirmed means the provider reports the money as collected
	// ("paid" or "completed").
	StatusConfirmed Status = "confirmed"
	// StatusPending covers open, authorized, and any other in-progress state.
	StatusPending Status = "pending"
	// StatusNotFound means the transaction could not be retrieved.
	StatusNotFound Status = "not_found"
)

// ErrNotFound is returned when the provider has no record for the id.
var ErrNotFound = errors.New("payments: transaction not found")

// Amount is a monetary value in the provider's decimal-string form. Values
// stay integer cents everywhere else; this struct exists only at the wire.
type Amount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// PaymentRequest creates a flat payment: a single amount with no
// itemization, used for the simple checkout path.
type PaymentRequest struct {
	Amount      Amount
	Description string
	RedirectURL string
	WebhookURL  string
	Metadata    any
}

// OrderLineItem is one itemized line of an order request.
type OrderLineItem struct {
	Name        string
	Quantity    int64
	UnitPrice   Amount
	TotalAmount Amount
	VATRate     string
	VATAmount   Amount
}

// OrderRequest creates an itemized order, required when installment or
// deferred-payment methods need line-item detail.
type OrderRequest struct {
	Amount          Amount
	OrderNumber     string
	Lines           []OrderLineItem
	BillingAddress  OrderAddress
	ShippingAddress OrderAddress
	RedirectURL     string
	WebhookURL      string
	Metadata        any
}

// OrderAddress carries the name/address block of an itemized order.
type OrderAddress struct {
	GivenName       string `json:"givenName"`
	FamilyName      string `json:"familyName"`
	Email           string `json:"email"`
	StreetAndNumber string `json:"streetAndNumber"`
	PostalCode      string `json:"postalCode"`
	City            string `json:"city"`
	Country         string `json:"country"`
}

// Transaction is the provider's view of a created or fetched resource,
// normalised across the payment and order shapes.
type Transaction struct {
	ID          string
	Status      Status
	RawStatus   string
	Amount      Amount
	CheckoutURL string
	Metadata    map[string]any
}

// Provider is the narrow contract the checkout and webhook paths consume.
// GetPayment and GetOrder are the reconciliation reads: webhook deliveries
// carry only an opaque id and are never trusted for status or amount.
type Provider interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (Transaction, error)
	CreateOrder(ctx context.Context, req OrderRequest) (Transaction, error)
	GetPayment(ctx context.Context, id string) (Transaction, error)
	GetOrder(ctx context.Context, id string) (Transaction, error)
}

// IsOrderID reports whether the transaction id belongs to the order
// resource class by prefix convention.
func IsOrderID(id string) bool {
	return strings.HasPrefix(strings.TrimSpace(id), "ord_")
}

// NormalizeStatus maps a provider status string onto a reconciliation class.
func NormalizeStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paid", "completed":
		return StatusConfirmed
	case "":
		return StatusNotFound
	default:
		return StatusPending
	}
}
