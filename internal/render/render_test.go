package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"serenia/backend/internal/domain"
	"serenia/backend/internal/money"
)

func testRecord() domain.InvoiceRecord {
	return domain.InvoiceRecord{
		InvoiceNumber: 12,
		Kind:          domain.InvoiceKindSale,
		Date:          time.Date(2026, 8, 28, 9, 15, 0, 0, time.UTC),
		CustomerID:    "C001",
		CustomerName:  "Sample Customer",
		CustomerPhone: "1234567890",
		Lines: []domain.CartLine{
			{Code: "P001", Name: "Sample Product 1", UnitPrice: money.MustFromString("10.00"), Qty: 3, LineTotal: money.MustFromString("30.00")},
		},
		Totals: domain.PricedInvoice{
			Subtotal:              money.MustFromString("30.00"),
			DiscountPercent:       decimal.Zero,
			DiscountAmount:        money.MustFromString("0.00"),
			SubtotalAfterDiscount: money.MustFromString("30.00"),
			TaxPercent:            decimal.NewFromInt(18),
			TaxTotal:              money.MustFromString("5.40"),
			CGST:                  money.MustFromString("2.70"),
			SGST:                  money.MustFromString("2.70"),
			GrandTotal:            money.MustFromString("35.40"),
			TotalItemCount:        3,
		},
		PointsAwarded: 3,
		PaymentStatus: domain.StatusPaid,
	}
}

func TestInvoiceHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := InvoiceHTML(&buf, "Serenia Ltd.", "29ABCDE1234F1Z5", testRecord()); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"Serenia Ltd.",
		"Invoice #12",
		"Sample Product 1",
		"35.40",
		"Loyalty points earned",
		"2026-08-28 09:15:00",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("missing %q in rendered invoice:\n%s", want, html)
		}
	}
}

func TestInvoiceHTMLEscapesNames(t *testing.T) {
	record := testRecord()
	record.Lines[0].Name = `<script>alert("x")</script>`

	var buf bytes.Buffer
	if err := InvoiceHTML(&buf, "Serenia Ltd.", "GST", record); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if strings.Contains(buf.String(), "<script>alert") {
		t.Fatal("line name was not escaped")
	}
}

func TestInvoiceHTMLReturnVariant(t *testing.T) {
	record := testRecord()
	record.Kind = domain.InvoiceKindReturn
	record.InvoiceNumber = 13
	record.OriginalInvoiceNumber = 12
	record.Totals.GrandTotal = money.MustFromString("-35.40")
	record.Lines = []domain.CartLine{
		{Code: "P001", Name: "Sample Product 1", UnitPrice: money.MustFromString("10.00"), Qty: -3, LineTotal: money.MustFromString("-30.00")},
	}

	var buf bytes.Buffer
	if err := InvoiceHTML(&buf, "Serenia Ltd.", "GST", record); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "Return #13") || !strings.Contains(html, "Original invoice #12") {
		t.Fatalf("return header missing:\n%s", html)
	}
	if !strings.Contains(html, "Loyalty points deducted") {
		t.Fatal("missing points deducted row")
	}
}
