// Package pricing computes the monetary breakdown of a cart. Compute is
// pure and deterministic: the same lines and percent inputs always produce
// the same PricedInvoice, so callers may invoke it on every cart edit.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"serenia/backend/internal/domain"
	"serenia/backend/internal/money"
	"serenia/backend/internal/store"
)

// LoyaltyBonusPercent is the extra discount granted to loyalty-eligible
// customers on top of the manual discount. The stacked total is deliberately
// left uncapped.
var LoyaltyBonusPercent = decimal.NewFromInt(10)

var oneHundred = decimal.NewFromInt(100)

// Compute derives the full breakdown from the cart lines and the two percent
// inputs. Line totals are trusted as already rounded; the discount is taken
// from the raw subtotal, the tax from the discounted subtotal, and the tax is
// split into two halves that sum exactly.
func Compute(lines []domain.CartLine, discountPercent, taxPercent decimal.Decimal, loyaltyEligible bool) (domain.PricedInvoice, error) {
	if discountPercent.IsNegative() || discountPercent.Cmp(oneHundred) > 0 {
		return domain.PricedInvoice{}, fmt.Errorf("%w: discount percent %s out of range [0,100]", store.ErrInvalidInput, discountPercent)
	}
	if taxPercent.IsNegative() {
		return domain.PricedInvoice{}, fmt.Errorf("%w: tax percent %s must not be negative", store.ErrInvalidInput, taxPercent)
	}

	subtotal := money.Zero()
	itemCount := 0
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
		itemCount += line.Qty
	}

	effectiveDiscount := discountPercent
	if loyaltyEligible {
		effectiveDiscount = effectiveDiscount.Add(LoyaltyBonusPercent)
	}

	discountAmount := subtotal.Percent(effectiveDiscount)
	afterDiscount := subtotal.Sub(discountAmount)
	taxTotal := afterDiscount.Percent(taxPercent)
	cgst, sgst := taxTotal.SplitHalf()

	return domain.PricedInvoice{
		Subtotal:              subtotal,
		DiscountPercent:       discountPercent,
		DiscountAmount:        discountAmount,
		SubtotalAfterDiscount: afterDiscount,
		TaxPercent:            taxPercent,
		TaxTotal:              taxTotal,
		CGST:                  cgst,
		SGST:                  sgst,
		GrandTotal:            afterDiscount.Add(taxTotal),
		TotalItemCount:        itemCount,
	}, nil
}

// Line builds a cart line with its rounded total.
func Line(code, name string, unitPrice money.Money, qty int) domain.CartLine {
	return domain.CartLine{
		Code:      code,
		Name:      name,
		UnitPrice: unitPrice,
		Qty:       qty,
		LineTotal: unitPrice.MulInt(int64(qty)),
	}
}
