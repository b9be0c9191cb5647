package domain

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/oklog/ulid/v2"
)

// ErrMissingCustomerFields is returned when required identity fields are
// absent. The itemized order variant additionally requires a full shipping
// address because deferred-payment methods demand it.
var ErrMissingCustomerFields = errors.New("domain: missing customer fields")

// Customer identifies the buyer.
type Customer struct {
	FirstName string
	LastName  string
	Email     string
}

// ValidateCustomer checks the identity fields every order requires.
func ValidateCustomer(c Customer) error {
	if strings.TrimSpace(c.FirstName) == "" ||
		strings.TrimSpace(c.LastName) == "" ||
		strings.TrimSpace(c.Email) == "" {
		return ErrMissingCustomerFields
	}
	return nil
}

// Address is the optional shipping address.
type Address struct {
	StreetAndNumber string
	PostalCode      string
	City            string
	Country         string
}

// Complete reports whether every address field is present.
func (a Address) Complete() bool {
	return strings.TrimSpace(a.StreetAndNumber) != "" &&
		strings.TrimSpace(a.PostalCode) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.Country) != ""
}

// OrderRequest is the provider-facing aggregate. TotalGrossCents is the
// amount charged; the net figure travels only inside Metadata. Totals are
// sums of the pre-priced lines, never recomputed from raw cart data.
type OrderRequest struct {
	Reference       string
	Customer        Customer
	Address         Address
	Lines           []OrderLine
	TotalNetCents   int64
	TotalGrossCents int64
	VATRatePercent  float64
	Itemized        bool
}

// Metadata is the order breakdown attached to the provider request. The
// provider echoes it back unmodified on every status lookup, which is what
// lets the webhook path recover order content without a local database.
type Metadata struct {
	Reference  string           `json:"reference"`
	Customer   MetadataCustomer `json:"customer"`
	Items      []MetadataItem   `json:"items"`
	VATRate    float64          `json:"vatRate"`
	TotalNet   string           `json:"totalNet"`
	TotalGross string           `json:"totalGross"`
	// Email duplicates Customer.Email at the top level so the webhook
	// mailer can read it without descending into the customer object.
	Email string `json:"email"`
}

// MetadataCustomer mirrors the customer and address fields into metadata.
type MetadataCustomer struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	StreetAndNumber string `json:"streetAndNumber,omitempty"`
	PostalCode      string `json:"postalCode,omitempty"`
	City            string `json:"city,omitempty"`
	Country         string `json:"country,omitempty"`
}

// MetadataItem is one priced line in decimal-string form.
type MetadataItem struct {
	ProductOption string `json:"productOption"`
	Quantity      int64  `json:"quantity"`
	Name          string `json:"name"`
	UnitPriceNet  string `json:"unitPriceNet"`
	LineNet       string `json:"lineNet"`
	LineGross     string `json:"lineGross"`
	VATAmount     string `json:"vatAmount"`
}

// BuildOrderRequest validates customer data and aggregates priced lines
// into an OrderRequest. The itemized variant is selected by caller intent,
// not cart size.
func BuildOrderRequest(customer Customer, address Address, lines []OrderLine, vatRatePercent float64, itemized bool) (OrderRequest, error) {
	if err := ValidateCustomer(customer); err != nil {
		return OrderRequest{}, err
	}
	if itemized && !address.Complete() {
		return OrderRequest{}, ErrMissingCustomerFields
	}
	if len(lines) == 0 {
		return OrderRequest{}, ErrEmptyCart
	}

	return OrderRequest{
		Reference:       ulid.Make().String(),
		Customer:        customer,
		Address:         address,
		Lines:           lines,
		TotalNetCents:   SumNetCents(lines),
		TotalGrossCents: SumGrossCents(lines),
		VATRatePercent:  vatRatePercent,
		Itemized:        itemized,
	}, nil
}

// BuildMetadata renders the full breakdown of an OrderRequest.
func (o OrderRequest) BuildMetadata() Metadata {
	items := make([]MetadataItem, 0, len(o.Lines))
	for _, line := range o.Lines {
		items = append(items, MetadataItem{
			ProductOption: line.ProductCode,
			Quantity:      line.Quantity,
			Name:          line.DisplayName,
			UnitPriceNet:  CentsToDecimal(line.UnitPriceNetCents),
			LineNet:       CentsToDecimal(line.NetCents),
			LineGross:     CentsToDecimal(line.GrossCents),
			VATAmount:     CentsToDecimal(line.VATCents),
		})
	}
	return Metadata{
		Reference: o.Reference,
		Customer: MetadataCustomer{
			FirstName:       o.Customer.FirstName,
			LastName:        o.Customer.LastName,
			Email:           o.Customer.Email,
			StreetAndNumber: o.Address.StreetAndNumber,
			PostalCode:      o.Address.PostalCode,
			City:            o.Address.City,
			Country:         o.Address.Country,
		},
		Items:      items,
		VATRate:    o.VATRatePercent,
		TotalNet:   CentsToDecimal(o.TotalNetCents),
		TotalGross: CentsToDecimal(o.TotalGrossCents),
		Email:      o.Customer.Email,
	}
}

// ParseMetadata recovers a Metadata breakdown from the loosely typed blob
// the provider returns. Unknown shapes yield ok=false; the webhook path
// treats that as "no recoverable order content", not an error.
func ParseMetadata(raw map[string]any) (Metadata, bool) {
	if len(raw) == 0 {
		return Metadata{}, false
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return Metadata{}, false
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, false
	}
	return meta, true
}
