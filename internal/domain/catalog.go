package domain

import (
	"errors"
	"strings"
)

// ErrUnknownProduct is returned when a product code has no catalog entry.
var ErrUnknownProduct = errors.New("domain: unknown product code")

// CatalogEntry describes a sellable product with its server-side net price.
// The catalog is the single price authority; any price-like value arriving
// from a client is display-only and never used for computing amounts.
type CatalogEntry struct {
	Code              string
	DisplayName       string
	UnitPriceNetCents int64
}

var catalog = map[string]CatalogEntry{
	"coin": {Code: "coin", DisplayName: "Münzzähler", UnitPriceNetCents: 1660 * 100},
	"cash": {Code: "cash", DisplayName: "Münz & Scheinzähler", UnitPriceNetCents: 1890 * 100},
}

// LookupProduct returns the catalog entry for the given product code.
func LookupProduct(code string) (CatalogEntry, error) {
	entry, ok := catalog[strings.TrimSpace(code)]
	if !ok {
		return CatalogEntry{}, ErrUnknownProduct
	}
	return entry, nil
}

// CatalogEntries returns all entries in a stable order for rendering.
func CatalogEntries() []CatalogEntry {
	out := make([]CatalogEntry, 0, len(catalog))
	for _, code := range []string{"coin", "cash"} {
		out = append(out, catalog[code])
	}
	return out
}
