package domain

import (
	"errors"
	"testing"
)

func TestPriceLineCoinScenario(t *testing.T) {
	entry, err := LookupProduct("coin")
	if err != nil {
		t.Fatalf("lookup coin: %v", err)
	}

	line, err := PriceLine(entry, 2, 19)
	if err != nil {
		t.Fatalf("price line: %v", err)
	}

	if line.NetCents != 332000 {
		t.Fatalf("expected net 332000, got %d", line.NetCents)
	}
	if line.GrossCents != 395080 {
		t.Fatalf("expected gross 395080, got %d", line.GrossCents)
	}
	if line.VATCents != 63080 {
		t.Fatalf("expected vat 63080, got %d", line.VATCents)
	}
	if CentsToDecimal(line.GrossCents) != "3950.80" {
		t.Fatalf("expected gross string 3950.80, got %s", CentsToDecimal(line.GrossCents))
	}
}

func TestPriceLineTripleAlwaysBalances(t *testing.T) {
	entries := CatalogEntries()
	rates := []float64{0, 7, 16, 19, 25.5, 30}
	for _, entry := range entries {
		for _, rate := range rates {
			for qty := int64(1); qty <= 50; qty += 7 {
				line, err := PriceLine(entry, qty, rate)
				if err != nil {
					t.Fatalf("price %s qty=%d rate=%v: %v", entry.Code, qty, rate, err)
				}
				if line.GrossCents-line.NetCents != line.VATCents {
					t.Fatalf("%s qty=%d rate=%v: gross-net=%d but vat=%d",
						entry.Code, qty, rate, line.GrossCents-line.NetCents, line.VATCents)
				}
				if line.NetCents != entry.UnitPriceNetCents*qty {
					t.Fatalf("net must be the exact product, got %d", line.NetCents)
				}
			}
		}
	}
}

func TestPriceLineRejectsVATRateOutOfRange(t *testing.T) {
	entry, _ := LookupProduct("coin")
	for _, rate := range []float64{-1, 30.01, 100} {
		if _, err := PriceLine(entry, 1, rate); !errors.Is(err, ErrInvalidVATRate) {
			t.Fatalf("rate %v: expected ErrInvalidVATRate, got %v", rate, err)
		}
	}
}

func TestSumsEqualLineTotals(t *testing.T) {
	coin, _ := LookupProduct("coin")
	cash, _ := LookupProduct("cash")

	lineA, _ := PriceLine(coin, 3, 19)
	lineB, _ := PriceLine(cash, 5, 19)
	lines := []OrderLine{lineA, lineB}

	if got := SumNetCents(lines); got != lineA.NetCents+lineB.NetCents {
		t.Fatalf("net sum drifted: %d", got)
	}
	if got := SumGrossCents(lines); got != lineA.GrossCents+lineB.GrossCents {
		t.Fatalf("gross sum drifted: %d", got)
	}
}

func TestCentsToDecimal(t *testing.T) {
	cases := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		100:    "1.00",
		395080: "3950.80",
		166000: "1660.00",
	}
	for cents, want := range cases {
		if got := CentsToDecimal(cents); got != want {
			t.Fatalf("CentsToDecimal(%d) = %s, want %s", cents, got, want)
		}
	}
}
