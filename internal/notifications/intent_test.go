package notifications

import (
	"strings"
	"testing"

	"github.com/RayZn-Ace/boxplanet/internal/domain"
)

func confirmedOrderFixture() ConfirmedOrder {
	return ConfirmedOrder{
		TransactionID: "ord_123",
		RawStatus:     "paid",
		AmountValue:   "3950.80",
		Currency:      "EUR",
		Live:          false,
		Metadata: domain.Metadata{
			Customer: domain.MetadataCustomer{FirstName: "Max", LastName: "Muster", Email: "max@example.com"},
			Items: []domain.MetadataItem{
				{ProductOption: "coin", Quantity: 2, Name: "Münzzähler", UnitPriceNet: "1660.00", LineGross: "3950.80"},
			},
			VATRate:    19,
			TotalNet:   "3320.00",
			TotalGross: "3950.80",
			Email:      "max@example.com",
		},
	}
}

func TestSubjectCarriesEnvAndAmount(t *testing.T) {
	subject := Subject(confirmedOrderFixture())
	if !strings.Contains(subject, "TEST") {
		t.Fatalf("expected TEST tag in subject, got %q", subject)
	}
	if !strings.Contains(subject, "3950.80 EUR") {
		t.Fatalf("expected amount in subject, got %q", subject)
	}
	if !strings.Contains(subject, "coin") {
		t.Fatalf("expected product option in subject, got %q", subject)
	}

	live := confirmedOrderFixture()
	live.Live = true
	if !strings.Contains(Subject(live), "LIVE") {
		t.Fatalf("expected LIVE tag for live mode")
	}
}

func TestRenderAdminBodyDeterministic(t *testing.T) {
	order := confirmedOrderFixture()
	first := RenderAdminBody(order)
	second := RenderAdminBody(order)
	if first != second {
		t.Fatalf("admin body must be deterministic")
	}

	for _, want := range []string{
		"ord_123",
		"Status: paid",
		"2x Münzzähler à 1660.00 EUR netto",
		"Netto: 3320.00 EUR",
		"MwSt (19%): 630.80 EUR",
		"Brutto: 3950.80 EUR",
		"max@example.com",
	} {
		if !strings.Contains(first, want) {
			t.Fatalf("admin body missing %q:\n%s", want, first)
		}
	}
}

func TestRenderCustomerBodyAddressesBuyer(t *testing.T) {
	body := RenderCustomerBody(confirmedOrderFixture())
	if !strings.Contains(body, "Hallo Max Muster") {
		t.Fatalf("expected salutation, got:\n%s", body)
	}
	if !strings.Contains(body, "Brutto: 3950.80 EUR") {
		t.Fatalf("expected gross total, got:\n%s", body)
	}
	if strings.Contains(body, "Hinweis") {
		t.Fatalf("customer body must not carry the operator caveat")
	}
}

func TestDisplayNameFallsBackToCode(t *testing.T) {
	if DisplayName("coin") != "Münzzähler" {
		t.Fatalf("known code must resolve")
	}
	if DisplayName("retired-sku") != "retired-sku" {
		t.Fatalf("unknown code must fall back to itself")
	}
}

func TestPlausibleEmail(t *testing.T) {
	if !PlausibleEmail("a@b.com") {
		t.Fatalf("a@b.com must be plausible")
	}
	if PlausibleEmail("") || PlausibleEmail("nope") {
		t.Fatalf("addresses without @ must not be plausible")
	}
}
