package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/RayZn-Ace/boxplanet/internal/domain"
	"github.com/RayZn-Ace/boxplanet/internal/platform/httpx"
	"github.com/RayZn-Ace/boxplanet/internal/services"
)

const (
	maxCreateOrderBody = 16 * 1024
	defaultCountry     = "DE"
)

// CheckoutHandlers exposes the storefront order creation endpoint.
type CheckoutHandlers struct {
	checkout services.CheckoutService
}

// NewCheckoutHandlers constructs checkout handlers.
func NewCheckoutHandlers(checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout}
}

// Routes registers checkout endpoints under the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/create-order", h.createOrder)
}

type createOrderCartLine struct {
	ProductOption string `json:"productOption"`
	Quantity      any    `json:"quantity"`
}

type createOrderRequest struct {
	FirstName       string                `json:"firstName"`
	LastName        string                `json:"lastName"`
	Email           string                `json:"email"`
	StreetAndNumber string                `json:"streetAndNumber"`
	PostalCode      string                `json:"postalCode"`
	City            string                `json:"city"`
	Country         string                `json:"country"`
	ProductOption   string                `json:"productOption"`
	Quantity        any                   `json:"quantity"`
	Cart            []createOrderCartLine `json:"cart"`
	VATRate         *float64              `json:"vatRate"`
	Itemized        bool                  `json:"itemized"`
}

// createOrderResponse keeps the historic url aliases the storefront reads.
type createOrderResponse struct {
	OK          bool   `json:"ok"`
	CheckoutURL string `json:"checkoutUrl"`
	URL         string `json:"url"`
	PaymentURL  string `json:"paymentUrl"`
	PaymentID   string `json:"paymentId,omitempty"`
	OrderID     string `json:"orderId,omitempty"`
	TotalNet    string `json:"totalNet"`
	TotalGross  string `json:"totalGross"`
}

func (h *CheckoutHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		// Checkout stays unwired when no provider key is configured.
		httpx.WriteError(ctx, w, httpx.NewError("Missing MOLLIE_API_KEY", http.StatusInternalServerError))
		return
	}

	body, err := readLimitedBody(r, maxCreateOrderBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("Invalid request body", status))
		return
	}

	var req createOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("Invalid request body", http.StatusBadRequest))
		return
	}

	country := strings.TrimSpace(req.Country)
	if country == "" {
		country = defaultCountry
	}

	cart := make([]domain.CartLineRequest, 0, len(req.Cart))
	for _, line := range req.Cart {
		cart = append(cart, domain.CartLineRequest{
			ProductCode: line.ProductOption,
			Quantity:    line.Quantity,
		})
	}

	cmd := services.CreateOrderCommand{
		Customer: domain.Customer{
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Email:     strings.TrimSpace(req.Email),
		},
		Address: domain.Address{
			StreetAndNumber: strings.TrimSpace(req.StreetAndNumber),
			PostalCode:      strings.TrimSpace(req.PostalCode),
			City:            strings.TrimSpace(req.City),
			Country:         country,
		},
		Cart:          cart,
		ProductOption: strings.TrimSpace(req.ProductOption),
		Quantity:      req.Quantity,
		Itemized:      req.Itemized,
		VATRate:       req.VATRate,
	}

	result, err := h.checkout.CreateOrder(ctx, cmd)
	if err != nil {
		h.writeCreateOrderError(ctx, w, err)
		return
	}

	if result.CheckoutURL == "" {
		httpx.WriteError(ctx, w, httpx.NewError("No checkoutUrl returned by Mollie", http.StatusInternalServerError))
		return
	}

	resp := createOrderResponse{
		OK:          true,
		CheckoutURL: result.CheckoutURL,
		URL:         result.CheckoutURL,
		PaymentURL:  result.CheckoutURL,
		TotalNet:    domain.CentsToDecimal(result.TotalNetCents),
		TotalGross:  domain.CentsToDecimal(result.TotalGrossCents),
	}
	if result.Itemized {
		resp.OrderID = result.TransactionID
	} else {
		resp.PaymentID = result.TransactionID
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *CheckoutHandlers) writeCreateOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingCustomerFields):
		httpx.WriteError(ctx, w, httpx.NewError("Missing customer fields", http.StatusBadRequest))
	case errors.Is(err, domain.ErrUnknownProduct):
		httpx.WriteError(ctx, w, httpx.NewError("Invalid productOption", http.StatusBadRequest))
	case errors.Is(err, domain.ErrEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("No valid cart items", http.StatusBadRequest))
	case errors.Is(err, domain.ErrInvalidVATRate):
		httpx.WriteError(ctx, w, httpx.NewError("Invalid vatRate", http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutInvalidTotal):
		httpx.WriteError(ctx, w, httpx.NewError("Invalid total amount", http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("create-order failed", http.StatusInternalServerError).
			WithDetails(err.Error()))
	}
}
