package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/VictorAvelar/mollie-api-go/v4/mollie"
)

const orderLocale = mollie.Locale("de_DE")

// MollieLogger defines the logging contract for Mollie provider operations.
type MollieLogger func(ctx context.Context, event string, fields map[string]any)

// MollieProviderConfig configures the MollieProvider. BaseURL and Client
// exist so tests can point the SDK at a stub server.
type MollieProviderConfig struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Logger  MollieLogger
}

// MollieProvider implements the Provider interface on top of the Mollie SDK,
// translating its payment and order resources into the normalised
// Transaction view the services consume.
type MollieProvider struct {
	client *mollie.Client
	logger MollieLogger
}

// NewMollieProvider constructs a Mollie Provider using the given configuration.
func NewMollieProvider(cfg MollieProviderConfig) (*MollieProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("mollie: api key is required")
	}

	client, err := mollie.NewClient(cfg.Client, mollie.NewConfig(false, mollie.APITokenEnv))
	if err != nil {
		return nil, fmt.Errorf("mollie: init client: %w", err)
	}
	if err := client.WithAuthenticationValue(apiKey); err != nil {
		return nil, fmt.Errorf("mollie: set api key: %w", err)
	}

	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		parsed, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("mollie: invalid base url: %w", err)
		}
		client.BaseURL = parsed
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &MollieProvider{client: client, logger: logger}, nil
}

// CreatePayment creates a flat Mollie payment and returns its checkout URL.
func (p *MollieProvider) CreatePayment(ctx context.Context, req PaymentRequest) (Transaction, error) {
	if p == nil || p.client == nil {
		return Transaction{}, errors.New("mollie: provider is nil")
	}

	payload := mollie.CreatePayment{
		Amount:      &mollie.Amount{Currency: req.Amount.Currency, Value: req.Amount.Value},
		Description: req.Description,
		RedirectURL: req.RedirectURL,
		WebhookURL:  req.WebhookURL,
		Metadata:    req.Metadata,
	}

	_, payment, err := p.client.Payments.Create(ctx, payload, nil)
	if err != nil {
		return Transaction{}, fmt.Errorf("mollie: create payment: %w", err)
	}

	p.logger(ctx, "payments.mollie.payment.created", map[string]any{
		"paymentId": payment.ID,
		"status":    payment.Status,
	})

	return paymentTransaction(payment), nil
}

// CreateOrder creates an itemized Mollie order.
func (p *MollieProvider) CreateOrder(ctx context.Context, req OrderRequest) (Transaction, error) {
	if p == nil || p.client == nil {
		return Transaction{}, errors.New("mollie: provider is nil")
	}

	lines := make([]mollie.OrderLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, mollie.OrderLine{
			Name:        line.Name,
			Quantity:    int(line.Quantity),
			UnitPrice:   &mollie.Amount{Currency: line.UnitPrice.Currency, Value: line.UnitPrice.Value},
			TotalAmount: &mollie.Amount{Currency: line.TotalAmount.Currency, Value: line.TotalAmount.Value},
			VatRate:     line.VATRate,
			VatAmount:   &mollie.Amount{Currency: line.VATAmount.Currency, Value: line.VATAmount.Value},
		})
	}

	payload := mollie.CreateOrder{
		Amount:         &mollie.Amount{Currency: req.Amount.Currency, Value: req.Amount.Value},
		OrderNumber:    req.OrderNumber,
		Lines:          lines,
		BillingAddress: orderAddress(req.BillingAddress),
		Locale:         orderLocale,
		RedirectURL:    req.RedirectURL,
		WebhookURL:     req.WebhookURL,
		Metadata:       req.Metadata,
	}
	if req.ShippingAddress != (OrderAddress{}) {
		payload.ShippingAddress = orderAddress(req.ShippingAddress)
	}

	_, order, err := p.client.Orders.Create(ctx, payload, nil)
	if err != nil {
		return Transaction{}, fmt.Errorf("mollie: create order: %w", err)
	}

	p.logger(ctx, "payments.mollie.order.created", map[string]any{
		"orderId": order.ID,
		"status":  order.Status,
	})

	return orderTransaction(order), nil
}

// GetPayment fetches the authoritative state of a flat payment.
func (p *MollieProvider) GetPayment(ctx context.Context, id string) (Transaction, error) {
	if p == nil || p.client == nil {
		return Transaction{}, errors.New("mollie: provider is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Transaction{}, ErrNotFound
	}

	_, payment, err := p.client.Payments.Get(ctx, id, nil)
	if err != nil {
		return Transaction{}, lookupError(err)
	}
	return paymentTransaction(payment), nil
}

// GetOrder fetches the authoritative state of an itemized order.
func (p *MollieProvider) GetOrder(ctx context.Context, id string) (Transaction, error) {
	if p == nil || p.client == nil {
		return Transaction{}, errors.New("mollie: provider is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Transaction{}, ErrNotFound
	}

	_, order, err := p.client.Orders.Get(ctx, id, nil)
	if err != nil {
		return Transaction{}, lookupError(err)
	}
	return orderTransaction(order), nil
}

// lookupError collapses gone and never-existed resources into ErrNotFound so
// the reconciler treats both as a dead id.
func lookupError(err error) error {
	var apiErr *mollie.BaseError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusGone) {
		return ErrNotFound
	}
	return err
}

func paymentTransaction(payment *mollie.Payment) Transaction {
	if payment == nil {
		return Transaction{}
	}
	tx := Transaction{
		ID:        payment.ID,
		Status:    NormalizeStatus(payment.Status),
		RawStatus: payment.Status,
		Metadata:  metadataMap(payment.Metadata),
	}
	if payment.Amount != nil {
		tx.Amount = Amount{Currency: payment.Amount.Currency, Value: payment.Amount.Value}
	}
	if payment.Links.Checkout != nil {
		tx.CheckoutURL = payment.Links.Checkout.Href
	}
	return tx
}

func orderTransaction(order *mollie.Order) Transaction {
	if order == nil {
		return Transaction{}
	}
	tx := Transaction{
		ID:        order.ID,
		Status:    NormalizeStatus(string(order.Status)),
		RawStatus: string(order.Status),
		Metadata:  metadataMap(order.Metadata),
	}
	if order.Amount != nil {
		tx.Amount = Amount{Currency: order.Amount.Currency, Value: order.Amount.Value}
	}
	if order.Links.Checkout != nil {
		tx.CheckoutURL = order.Links.Checkout.Href
	}
	return tx
}

func orderAddress(addr OrderAddress) *mollie.OrderAddress {
	return &mollie.OrderAddress{
		GivenName:       addr.GivenName,
		FamilyName:      addr.FamilyName,
		Email:           addr.Email,
		StreetAndNumber: addr.StreetAndNumber,
		PostalCode:      addr.PostalCode,
		City:            addr.City,
		Country:         addr.Country,
	}
}

func metadataMap(raw any) map[string]any {
	meta, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	return meta
}
