package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	// MinQuantity and MaxQuantity bound the per-line quantity after clamping.
	MinQuantity = 1
	MaxQuantity = 50
)

// ErrEmptyCart is returned when no valid lines remain after normalization.
var ErrEmptyCart = errors.New("domain: no valid cart items")

// CartLineRequest is an untrusted client cart line. Quantity is kept loose
// because browsers send numbers, numeric strings, or garbage; ClampQuantity
// resolves all of them.
type CartLineRequest struct {
	ProductCode string
	Quantity    any
}

// NormalizedLine pairs a catalog entry with a clamped quantity. It carries
// no money; pricing happens afterwards against the catalog entry.
type NormalizedLine struct {
	Entry    CatalogEntry
	Quantity int64
}

// ClampQuantity converts an arbitrary client-sent quantity into the closed
// range [MinQuantity, MaxQuantity]. Missing, non-numeric, or non-finite
// values default to 1; fractional values are floored first.
func ClampQuantity(raw any) int64 {
	var n float64
	switch v := raw.(type) {
	case nil:
		return MinQuantity
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return MinQuantity
		}
		n = parsed
	default:
		return MinQuantity
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return MinQuantity
	}
	q := int64(math.Floor(n))
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// NormalizeCart validates an array cart against the catalog. Unknown or
// blank product codes are dropped silently; this matches the array calling
// convention where a stale frontend may still hold retired codes. Returns
// ErrEmptyCart when nothing valid remains.
func NormalizeCart(lines []CartLineRequest) ([]NormalizedLine, error) {
	normalized := make([]NormalizedLine, 0, len(lines))
	for _, line := range lines {
		code := strings.TrimSpace(line.ProductCode)
		if code == "" {
			continue
		}
		entry, err := LookupProduct(code)
		if err != nil {
			continue
		}
		normalized = append(normalized, NormalizedLine{
			Entry:    entry,
			Quantity: ClampQuantity(line.Quantity),
		})
	}
	if len(normalized) == 0 {
		return nil, ErrEmptyCart
	}
	return normalized, nil
}

// NormalizeSingle handles the backward-compatible single-item checkout.
// Unlike the array path, an unknown product code is a hard rejection: the
// caller named exactly one product, so dropping it silently would price an
// empty order.
func NormalizeSingle(productCode string, quantity any) ([]NormalizedLine, error) {
	code := strings.TrimSpace(productCode)
	if code == "" {
		return nil, ErrUnknownProduct
	}
	entry, err := LookupProduct(code)
	if err != nil {
		return nil, err
	}
	return []NormalizedLine{{Entry: entry, Quantity: ClampQuantity(quantity)}}, nil
}
