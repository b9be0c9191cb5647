package domain

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MinVATRatePercent and MaxVATRatePercent bound the accepted VAT range.
	MinVATRatePercent = 0
	MaxVATRatePercent = 30

	// DefaultVATRatePercent is the German standard rate applied when a
	// request does not specify one.
	DefaultVATRatePercent = 19
)

// ErrInvalidVATRate is returned for VAT rates outside the accepted range.
var ErrInvalidVATRate = errors.New("domain: vat rate out of range")

// OrderLine is a fully priced cart line. All monetary fields are integer
// cents. GrossCents is rounded half-up at cent granularity; VATCents is
// always GrossCents-NetCents so the triple balances by construction.
type OrderLine struct {
	ProductCode       string
	DisplayName       string
	Quantity          int64
	UnitPriceNetCents int64
	NetCents          int64
	GrossCents        int64
	VATCents          int64
	VATRatePercent    float64
}

// PriceLine derives the net/gross/vat triple for one catalog entry and
// quantity. Net is the exact integer product; gross is rounded half-up.
func PriceLine(entry CatalogEntry, quantity int64, vatRatePercent float64) (OrderLine, error) {
	if vatRatePercent < MinVATRatePercent || vatRatePercent > MaxVATRatePercent {
		return OrderLine{}, fmt.Errorf("%w: %v", ErrInvalidVATRate, vatRatePercent)
	}
	if quantity < 1 {
		quantity = 1
	}

	net := entry.UnitPriceNetCents * quantity
	gross := roundHalfUpCents(float64(net) * (1 + vatRatePercent/100))

	return OrderLine{
		ProductCode:       entry.Code,
		DisplayName:       entry.DisplayName,
		Quantity:          quantity,
		UnitPriceNetCents: entry.UnitPriceNetCents,
		NetCents:          net,
		GrossCents:        gross,
		VATCents:          gross - net,
		VATRatePercent:    vatRatePercent,
	}, nil
}

// SumNetCents totals the net amounts of pre-priced lines.
func SumNetCents(lines []OrderLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.NetCents
	}
	return total
}

// SumGrossCents totals the gross amounts of pre-priced lines. Totals are
// sums over already-rounded lines so per-line and total figures shown to
// the customer never drift apart.
func SumGrossCents(lines []OrderLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.GrossCents
	}
	return total
}

func roundHalfUpCents(value float64) int64 {
	return int64(math.Floor(value + 0.5))
}

// CentsToDecimal renders integer cents as the provider's two-decimal
// string form, e.g. 395080 -> "3950.80". This is the single point where
// money leaves integer representation.
func CentsToDecimal(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
