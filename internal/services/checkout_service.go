package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RayZn-Ace/boxplanet/internal/domain"
	"github.com/RayZn-Ace/boxplanet/internal/payments"
)

var (
	// ErrCheckoutInvalidTotal indicates the priced order came out non-positive.
	ErrCheckoutInvalidTotal = errors.New("checkout: invalid total amount")
	// ErrCheckoutPaymentFailed indicates the provider rejected the create call.
	ErrCheckoutPaymentFailed = errors.New("checkout: payment failed")
	// ErrCheckoutUnavailable indicates checkout dependencies are currently unavailable.
	ErrCheckoutUnavailable = errors.New("checkout: unavailable")
)

// CreateOrderCommand carries the untrusted checkout request. Cart and the
// ProductOption/Quantity pair are alternative calling conventions; Cart wins
// when both are present.
type CreateOrderCommand struct {
	Customer      domain.Customer
	Address       domain.Address
	Cart          []domain.CartLineRequest
	ProductOption string
	Quantity      any
	Itemized      bool
	// VATRate overrides the configured rate when non-nil. Out-of-range
	// values are rejected during pricing.
	VATRate *float64
}

// CheckoutResult is what the handler needs to answer the storefront:
// redirect target plus the server-side totals for display.
type CheckoutResult struct {
	TransactionID   string
	CheckoutURL     string
	TotalNetCents   int64
	TotalGrossCents int64
	Itemized        bool
}

// CheckoutService converts untrusted cart input into a provider transaction.
type CheckoutService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (CheckoutResult, error)
}

// CheckoutServiceDeps wires the dependencies required by the checkout service.
type CheckoutServiceDeps struct {
	Payments       payments.Provider
	RedirectURL    string
	WebhookURL     string
	VATRatePercent float64
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	payments    payments.Provider
	redirectURL string
	webhookURL  string
	vatRate     float64
	logger      func(ctx context.Context, event string, fields map[string]any)
}

// NewCheckoutService constructs a CheckoutService validating required dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Payments == nil {
		return nil, errors.New("checkout service: payment provider is required")
	}
	if strings.TrimSpace(deps.RedirectURL) == "" {
		return nil, errors.New("checkout service: redirect url is required")
	}

	vatRate := deps.VATRatePercent
	if vatRate == 0 {
		vatRate = domain.DefaultVATRatePercent
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &checkoutService{
		payments:    deps.Payments,
		redirectURL: strings.TrimSpace(deps.RedirectURL),
		webhookURL:  strings.TrimSpace(deps.WebhookURL),
		vatRate:     vatRate,
		logger:      logger,
	}, nil
}

// CreateOrder normalizes the cart, prices it against the catalog, and creates
// the provider transaction. Client-sent prices never enter this path; the
// cart carries product codes and quantities only.
func (s *checkoutService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (CheckoutResult, error) {
	if s == nil || s.payments == nil {
		return CheckoutResult{}, ErrCheckoutUnavailable
	}

	// Customer identity is checked before the cart so a request that is
	// broken in both ways reports the missing fields.
	if err := domain.ValidateCustomer(cmd.Customer); err != nil {
		return CheckoutResult{}, err
	}

	normalized, err := s.normalize(cmd)
	if err != nil {
		return CheckoutResult{}, err
	}

	vatRate := s.vatRate
	if cmd.VATRate != nil {
		vatRate = *cmd.VATRate
	}

	lines := make([]domain.OrderLine, 0, len(normalized))
	for _, item := range normalized {
		line, err := domain.PriceLine(item.Entry, item.Quantity, vatRate)
		if err != nil {
			return CheckoutResult{}, err
		}
		lines = append(lines, line)
	}

	order, err := domain.BuildOrderRequest(cmd.Customer, cmd.Address, lines, vatRate, cmd.Itemized)
	if err != nil {
		return CheckoutResult{}, err
	}
	if order.TotalGrossCents <= 0 {
		return CheckoutResult{}, ErrCheckoutInvalidTotal
	}
	if order.Itemized {
		// The provider requires unitPrice x quantity == totalAmount per
		// line; a gross that does not divide evenly cannot be itemized.
		for _, line := range order.Lines {
			if line.Quantity > 0 && line.GrossCents%line.Quantity != 0 {
				return CheckoutResult{}, ErrCheckoutInvalidTotal
			}
		}
	}

	tx, err := s.createTransaction(ctx, order)
	if err != nil {
		s.logger(ctx, "checkout.create.failed", map[string]any{
			"reference": order.Reference,
			"itemized":  order.Itemized,
			"error":     err.Error(),
		})
		return CheckoutResult{}, fmt.Errorf("%w: %v", ErrCheckoutPaymentFailed, err)
	}

	s.logger(ctx, "checkout.create.succeeded", map[string]any{
		"reference":   order.Reference,
		"transaction": tx.ID,
		"itemized":    order.Itemized,
		"gross_cents": order.TotalGrossCents,
	})

	return CheckoutResult{
		TransactionID:   tx.ID,
		CheckoutURL:     tx.CheckoutURL,
		TotalNetCents:   order.TotalNetCents,
		TotalGrossCents: order.TotalGrossCents,
		Itemized:        order.Itemized,
	}, nil
}

func (s *checkoutService) normalize(cmd CreateOrderCommand) ([]domain.NormalizedLine, error) {
	if len(cmd.Cart) > 0 {
		return domain.NormalizeCart(cmd.Cart)
	}
	return domain.NormalizeSingle(cmd.ProductOption, cmd.Quantity)
}

func (s *checkoutService) createTransaction(ctx context.Context, order domain.OrderRequest) (payments.Transaction, error) {
	metadata := order.BuildMetadata()
	amount := payments.Amount{Currency: "EUR", Value: domain.CentsToDecimal(order.TotalGrossCents)}

	if !order.Itemized {
		return s.payments.CreatePayment(ctx, payments.PaymentRequest{
			Amount:      amount,
			Description: paymentDescription,
			RedirectURL: s.redirectURL,
			WebhookURL:  s.webhookURL,
			Metadata:    metadata,
		})
	}

	items := make([]payments.OrderLineItem, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, payments.OrderLineItem{
			Name:        line.DisplayName,
			Quantity:    line.Quantity,
			UnitPrice:   payments.Amount{Currency: "EUR", Value: domain.CentsToDecimal(grossUnitCents(line))},
			TotalAmount: payments.Amount{Currency: "EUR", Value: domain.CentsToDecimal(line.GrossCents)},
			VATRate:     fmt.Sprintf("%.2f", line.VATRatePercent),
			VATAmount:   payments.Amount{Currency: "EUR", Value: domain.CentsToDecimal(line.VATCents)},
		})
	}
	address := payments.OrderAddress{
		GivenName:       order.Customer.FirstName,
		FamilyName:      order.Customer.LastName,
		Email:           order.Customer.Email,
		StreetAndNumber: order.Address.StreetAndNumber,
		PostalCode:      order.Address.PostalCode,
		City:            order.Address.City,
		Country:         order.Address.Country,
	}

	return s.payments.CreateOrder(ctx, payments.OrderRequest{
		Amount:          amount,
		OrderNumber:     order.Reference,
		Lines:           items,
		BillingAddress:  address,
		ShippingAddress: address,
		RedirectURL:     s.redirectURL,
		WebhookURL:      s.webhookURL,
		Metadata:        metadata,
	})
}

// grossUnitCents derives the per-unit gross for itemized lines. Lines whose
// gross does not divide evenly by quantity are rejected before this runs, so
// the division is exact.
func grossUnitCents(line domain.OrderLine) int64 {
	if line.Quantity <= 0 {
		return line.GrossCents
	}
	return line.GrossCents / line.Quantity
}

// paymentDescription is the statement text shown to the buyer on flat payments.
const paymentDescription = "Boxplanet Direktkauf"
