package cart

import (
	"errors"
	"testing"
)

var testRates = Rates{
	ShippingFlatFee:       15000,
	FreeShippingThreshold: 299900,
}

func TestAddLine_MergesSameProduct(t *testing.T) {
	ledger := NewLedger(testRates)

	first, err := ledger.AddLine("ring-gold-01", 2, 120000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := ledger.AddLine("ring-gold-01", 3, 120000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := ledger.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line after merging, got %d", len(lines))
	}
	if lines[0].Quantity != 5 {
		t.Errorf("expected merged quantity 5, got %d", lines[0].Quantity)
	}
	if second.LineID != first.LineID {
		t.Errorf("line id changed on merge: %s != %s", second.LineID, first.LineID)
	}
}

func TestAddLine_RejectsQuantityBelowOne(t *testing.T) {
	ledger := NewLedger(testRates)

	testCases := []struct {
		name     string
		quantity int
	}{
		{"zero", 0},
		{"negative", -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ledger.AddLine("ring-gold-01", tc.quantity, 120000); !errors.Is(err, ErrInvalidQuantity) {
				t.Errorf("expected ErrInvalidQuantity for quantity=%d, got %v", tc.quantity, err)
			}
			if len(ledger.Lines()) != 0 {
				t.Errorf("rejected add must not mutate the ledger")
			}
		})
	}
}

func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	ledger := NewLedger(testRates)
	line, _ := ledger.AddLine("necklace-02", 2, 80000)
	ledger.AddLine("ring-gold-01", 1, 120000)

	if err := ledger.UpdateQuantity(line.LineID, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, l := range ledger.Lines() {
		if l.LineID == line.LineID {
			t.Fatalf("line should have been removed at quantity 0")
		}
	}

	totals := ledger.Totals()
	if totals.Subtotal != 120000 {
		t.Errorf("totals must exclude removed line: subtotal = %d", totals.Subtotal)
	}
}

func TestUpdateQuantity_UnknownLine(t *testing.T) {
	ledger := NewLedger(testRates)

	if err := ledger.UpdateQuantity("no-such-line", 2); !errors.Is(err, ErrLineNotFound) {
		t.Errorf("expected ErrLineNotFound, got %v", err)
	}
}

func TestUpdateQuantity_KeepsLineIDStable(t *testing.T) {
	ledger := NewLedger(testRates)
	line, _ := ledger.AddLine("earrings-07", 1, 45000)

	if err := ledger.UpdateQuantity(line.LineID, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := ledger.Lines()
	if lines[0].LineID != line.LineID {
		t.Errorf("line id must be stable across quantity updates")
	}
	if lines[0].Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", lines[0].Quantity)
	}
}

func TestRemoveLine_IdempotentWhenAbsent(t *testing.T) {
	ledger := NewLedger(testRates)
	ledger.AddLine("ring-gold-01", 1, 120000)

	ledger.RemoveLine("no-such-line")
	ledger.RemoveLine("no-such-line")

	if len(ledger.Lines()) != 1 {
		t.Errorf("removing absent lines must not change the ledger")
	}
}

func TestTotals_RecomputedAfterEveryMutation(t *testing.T) {
	ledger := NewLedger(testRates)

	a, _ := ledger.AddLine("ring-gold-01", 2, 100000)
	b, _ := ledger.AddLine("necklace-02", 1, 50000)

	assertTotals := func(wantSubtotal int64, wantCount int) {
		t.Helper()
		totals := ledger.Totals()
		if totals.Subtotal != wantSubtotal {
			t.Errorf("subtotal = %d, want %d", totals.Subtotal, wantSubtotal)
		}
		if totals.ItemCount != wantCount {
			t.Errorf("item count = %d, want %d", totals.ItemCount, wantCount)
		}
		if totals.GrandTotal != totals.Subtotal+totals.ShippingFee {
			t.Errorf("grand total must equal subtotal + shipping")
		}
	}

	assertTotals(250000, 3)

	ledger.UpdateQuantity(a.LineID, 1)
	assertTotals(150000, 2)

	ledger.RemoveLine(b.LineID)
	assertTotals(100000, 1)

	ledger.Clear()
	assertTotals(0, 0)
}

func TestTotals_ShippingFee(t *testing.T) {
	testCases := []struct {
		name         string
		unitPrice    int64
		quantity     int
		wantShipping int64
	}{
		{"empty cart pays nothing", 0, 0, 0},
		{"below threshold pays flat fee", 100000, 1, 15000},
		{"at threshold still pays", 299900, 1, 15000},
		{"above threshold ships free", 299900, 2, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := NewLedger(testRates)
			if tc.quantity > 0 {
				ledger.AddLine("ring-gold-01", tc.quantity, tc.unitPrice)
			}

			totals := ledger.Totals()
			if totals.ShippingFee != tc.wantShipping {
				t.Errorf("shipping = %d, want %d", totals.ShippingFee, tc.wantShipping)
			}
		})
	}
}

func TestRestore_PreservesInsertionOrder(t *testing.T) {
	original := NewLedger(testRates)
	original.AddLine("ring-gold-01", 1, 120000)
	original.AddLine("necklace-02", 2, 80000)
	original.AddLine("earrings-07", 3, 45000)

	restored := Restore(original.Lines(), testRates)

	want := original.Lines()
	got := restored.Lines()
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d differs after restore: %+v != %+v", i, got[i], want[i])
		}
	}

	if restored.Totals() != original.Totals() {
		t.Errorf("totals differ after restore")
	}
}
