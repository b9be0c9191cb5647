package notifications

import (
	"fmt"
	"strings"

	"github.com/RayZn-Ace/boxplanet/internal/domain"
)

// Audience distinguishes the two notification targets.
type Audience string

const (
	// AudienceAdmin is the operator notification, sent on every confirmation.
	AudienceAdmin Audience = "admin"
	// AudienceCustomer is the buyer confirmation, sent only when a
	// plausible address was recovered from metadata.
	AudienceCustomer Audience = "customer"
)

// Intent is a fully rendered message awaiting dispatch. Intents are never
// persisted; if the process dies before send, provider webhook redelivery
// is the only recovery path.
type Intent struct {
	Audience  Audience
	Recipient string
	Subject   string
	Body      string
}

// ConfirmedOrder carries everything the renderer needs about a confirmed
// transaction: provider facts plus the breakdown recovered from metadata.
type ConfirmedOrder struct {
	TransactionID string
	RawStatus     string
	AmountValue   string
	Currency      string
	Live          bool
	Metadata      domain.Metadata
}

// displayNames maps product codes to human-readable names for mail bodies.
// Deliberately separate from the catalog: mail rendering must keep working
// for retired codes that old metadata may still carry.
var displayNames = map[string]string{
	"coin": "Münzzähler",
	"cash": "Münz & Scheinzähler",
}

// DisplayName resolves a product code for rendering, falling back to the
// code itself.
func DisplayName(code string) string {
	if name, ok := displayNames[code]; ok {
		return name
	}
	return code
}

// PlausibleEmail reports whether the recovered address looks sendable.
// Intentionally shallow: the address came back from provider metadata that
// the creation path already validated.
func PlausibleEmail(addr string) bool {
	return strings.Contains(addr, "@")
}

func envTag(live bool) string {
	if live {
		return "LIVE"
	}
	return "TEST"
}

// Subject builds the notification subject line carrying the environment
// tag and paid amount.
func Subject(order ConfirmedOrder) string {
	product := "-"
	if len(order.Metadata.Items) == 1 {
		product = order.Metadata.Items[0].ProductOption
	} else if len(order.Metadata.Items) > 1 {
		product = fmt.Sprintf("%d Positionen", len(order.Metadata.Items))
	}
	amount := "-"
	if order.AmountValue != "" {
		amount = order.AmountValue + " " + order.Currency
	}
	return fmt.Sprintf("Zahlung eingegangen (%s): %s (%s)", envTag(order.Live), product, amount)
}

// RenderAdminBody produces the operator summary: transaction facts, the
// recovered breakdown, and the duplicate-delivery caveat.
func RenderAdminBody(order ConfirmedOrder) string {
	var b strings.Builder
	b.WriteString("Zahlung ist eingegangen.\n\n")
	fmt.Fprintf(&b, "ENV: %s\n", envTag(order.Live))
	fmt.Fprintf(&b, "Transaktion: %s\n", order.TransactionID)
	fmt.Fprintf(&b, "Status: %s\n", order.RawStatus)
	if order.AmountValue != "" {
		fmt.Fprintf(&b, "Betrag: %s %s\n", order.AmountValue, order.Currency)
	}
	writeBreakdown(&b, order.Metadata)
	if order.Metadata.Email != "" {
		fmt.Fprintf(&b, "Kunden-E-Mail: %s\n", order.Metadata.Email)
	}
	b.WriteString("\nHinweis: Webhooks können mehrfach zugestellt werden; doppelte Mails sind möglich.\n")
	return b.String()
}

// RenderCustomerBody produces the buyer confirmation with the same
// deterministic breakdown, minus operational details.
func RenderCustomerBody(order ConfirmedOrder) string {
	var b strings.Builder
	name := strings.TrimSpace(order.Metadata.Customer.FirstName + " " + order.Metadata.Customer.LastName)
	if name == "" {
		name = "Kundin/Kunde"
	}
	fmt.Fprintf(&b, "Hallo %s,\n\n", name)
	b.WriteString("vielen Dank für Ihre Bestellung. Ihre Zahlung ist eingegangen.\n\n")
	fmt.Fprintf(&b, "Bestellnummer: %s\n", order.TransactionID)
	writeBreakdown(&b, order.Metadata)
	b.WriteString("\nIhr boxplanet Team\n")
	return b.String()
}

func writeBreakdown(b *strings.Builder, meta domain.Metadata) {
	if len(meta.Items) > 0 {
		b.WriteString("\nPositionen:\n")
		for _, item := range meta.Items {
			name := item.Name
			if name == "" {
				name = DisplayName(item.ProductOption)
			}
			fmt.Fprintf(b, "  %dx %s à %s EUR netto\n", item.Quantity, name, item.UnitPriceNet)
		}
	}
	if meta.TotalNet != "" {
		fmt.Fprintf(b, "Netto: %s EUR\n", meta.TotalNet)
	}
	if meta.TotalNet != "" && meta.TotalGross != "" {
		fmt.Fprintf(b, "MwSt (%s%%): %s EUR\n", trimRate(meta.VATRate), vatFromTotals(meta))
	}
	if meta.TotalGross != "" {
		fmt.Fprintf(b, "Brutto: %s EUR\n", meta.TotalGross)
	}
}

func trimRate(rate float64) string {
	s := fmt.Sprintf("%.2f", rate)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func vatFromTotals(meta domain.Metadata) string {
	net, okNet := parseDecimalCents(meta.TotalNet)
	gross, okGross := parseDecimalCents(meta.TotalGross)
	if !okNet || !okGross || gross < net {
		return "-"
	}
	return domain.CentsToDecimal(gross - net)
}

func parseDecimalCents(value string) (int64, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), ".", 2)
	if len(parts) != 2 || len(parts[1]) != 2 {
		return 0, false
	}
	var euros, cents int64
	if _, err := fmt.Sscanf(parts[0], "%d", &euros); err != nil {
		return 0, false
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &cents); err != nil {
		return 0, false
	}
	return euros*100 + cents, true
}
