package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"serenia/backend/internal/domain"
	"serenia/backend/internal/money"
	"serenia/backend/internal/store"
)

func sampleCart() []domain.CartLine {
	return []domain.CartLine{
		Line("P001", "Sample Product 1", money.MustFromString("10.00"), 3),
	}
}

func TestComputeWithoutDiscount(t *testing.T) {
	priced, err := Compute(sampleCart(), decimal.Zero, decimal.NewFromInt(18), false)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}

	if priced.Subtotal.String() != "30.00" {
		t.Fatalf("subtotal: expected 30.00, got %s", priced.Subtotal)
	}
	if priced.DiscountAmount.String() != "0.00" {
		t.Fatalf("discount: expected 0.00, got %s", priced.DiscountAmount)
	}
	if priced.SubtotalAfterDiscount.String() != "30.00" {
		t.Fatalf("after discount: expected 30.00, got %s", priced.SubtotalAfterDiscount)
	}
	if priced.TaxTotal.String() != "5.40" {
		t.Fatalf("tax: expected 5.40, got %s", priced.TaxTotal)
	}
	if priced.CGST.String() != "2.70" || priced.SGST.String() != "2.70" {
		t.Fatalf("tax split: expected 2.70/2.70, got %s/%s", priced.CGST, priced.SGST)
	}
	if priced.GrandTotal.String() != "35.40" {
		t.Fatalf("grand total: expected 35.40, got %s", priced.GrandTotal)
	}
	if priced.TotalItemCount != 3 {
		t.Fatalf("item count: expected 3, got %d", priced.TotalItemCount)
	}
}

func TestComputeLoyaltyBonusStacks(t *testing.T) {
	priced, err := Compute(sampleCart(), decimal.Zero, decimal.NewFromInt(18), true)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}

	if priced.DiscountAmount.String() != "3.00" {
		t.Fatalf("discount: expected 3.00, got %s", priced.DiscountAmount)
	}
	if priced.SubtotalAfterDiscount.String() != "27.00" {
		t.Fatalf("after discount: expected 27.00, got %s", priced.SubtotalAfterDiscount)
	}
	if priced.TaxTotal.String() != "4.86" {
		t.Fatalf("tax: expected 4.86, got %s", priced.TaxTotal)
	}
	if priced.GrandTotal.String() != "31.86" {
		t.Fatalf("grand total: expected 31.86, got %s", priced.GrandTotal)
	}
}

func TestComputeIdentitiesHold(t *testing.T) {
	lines := []domain.CartLine{
		Line("P001", "Sample Product 1", money.MustFromString("10.00"), 3),
		Line("P003", "Sample Product 3", money.MustFromString("15.75"), 2),
		Line("CUSTOM-abc", "Gift Wrap", money.MustFromString("3.33"), 1),
	}

	for _, tc := range []struct {
		discount string
		tax      string
		loyalty  bool
	}{
		{"0", "18", false},
		{"5", "18", false},
		{"12.5", "12", true},
		{"100", "0", false},
		{"33", "7.25", true},
	} {
		discount, _ := decimal.NewFromString(tc.discount)
		tax, _ := decimal.NewFromString(tc.tax)
		priced, err := Compute(lines, discount, tax, tc.loyalty)
		if err != nil {
			t.Fatalf("compute(%s,%s) failed: %v", tc.discount, tc.tax, err)
		}

		if !priced.DiscountAmount.Add(priced.SubtotalAfterDiscount).Equal(priced.Subtotal) {
			t.Fatalf("discount identity broken at %s/%s", tc.discount, tc.tax)
		}
		if !priced.CGST.Add(priced.SGST).Equal(priced.TaxTotal) {
			t.Fatalf("tax split identity broken at %s/%s", tc.discount, tc.tax)
		}
		if !priced.SubtotalAfterDiscount.Add(priced.TaxTotal).Equal(priced.GrandTotal) {
			t.Fatalf("grand total identity broken at %s/%s", tc.discount, tc.tax)
		}
	}
}

func TestComputeRejectsNegativePercents(t *testing.T) {
	if _, err := Compute(sampleCart(), decimal.NewFromInt(-1), decimal.Zero, false); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("negative discount: err = %v, want ErrInvalidInput", err)
	}
	if _, err := Compute(sampleCart(), decimal.Zero, decimal.NewFromInt(-1), false); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("negative tax: err = %v, want ErrInvalidInput", err)
	}
	if _, err := Compute(sampleCart(), decimal.NewFromInt(101), decimal.Zero, false); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("discount above 100: err = %v, want ErrInvalidInput", err)
	}
}

func TestComputeEmptyCart(t *testing.T) {
	priced, err := Compute(nil, decimal.Zero, decimal.NewFromInt(18), false)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if !priced.GrandTotal.IsZero() || priced.TotalItemCount != 0 {
		t.Fatalf("expected zero totals for empty cart")
	}
}

func TestComputeReturnReversal(t *testing.T) {
	// Returning 2 of 3 units sold at 10.00 with 0% discount, 18% GST.
	returnLines := []domain.CartLine{
		{
			Code:      "P001",
			Name:      "Sample Product 1",
			UnitPrice: money.MustFromString("10.00"),
			Qty:       -2,
			LineTotal: money.MustFromString("-20.00"),
		},
	}
	priced, err := Compute(returnLines, decimal.Zero, decimal.NewFromInt(18), false)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if priced.Subtotal.String() != "-20.00" {
		t.Fatalf("subtotal: expected -20.00, got %s", priced.Subtotal)
	}
	if priced.TaxTotal.String() != "-3.60" {
		t.Fatalf("tax: expected -3.60, got %s", priced.TaxTotal)
	}
	if priced.GrandTotal.String() != "-23.60" {
		t.Fatalf("grand total: expected -23.60, got %s", priced.GrandTotal)
	}
	if !priced.CGST.Add(priced.SGST).Equal(priced.TaxTotal) {
		t.Fatalf("tax split broken on negative total: %s + %s != %s", priced.CGST, priced.SGST, priced.TaxTotal)
	}
}
