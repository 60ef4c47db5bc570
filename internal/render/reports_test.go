package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"serenia/backend/internal/domain"
	"serenia/backend/internal/money"
)

func TestProfitReportCSV(t *testing.T) {
	report := domain.ProfitReport{
		TotalSales:    money.MustFromString("30.00"),
		TotalCost:     money.MustFromString("15.00"),
		Profit:        money.MustFromString("15.00"),
		TopSellerCode: "P001",
		TopSellerName: "Sample Product 1",
		ItemSales: []domain.ItemSales{
			{Code: "P001", Name: "Sample Product 1", UnitsSold: 3},
		},
	}

	var buf bytes.Buffer
	if err := ProfitReportCSV(&buf, report); err != nil {
		t.Fatalf("write profit report: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"total_sales,30.00", "profit,15.00", "top_seller_code,P001", "P001,Sample Product 1,3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in CSV output:\n%s", want, out)
		}
	}
}

func TestCategorySalesCSV(t *testing.T) {
	report := domain.CategorySalesReport{
		Categories: []domain.CategorySales{
			{Category: "Custom", TotalSales: money.MustFromString("7.00"), UnitsSold: 2},
			{Category: "General", TotalSales: money.MustFromString("10.00"), UnitsSold: 1},
		},
	}

	var buf bytes.Buffer
	if err := CategorySalesCSV(&buf, report); err != nil {
		t.Fatalf("write category report: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Custom,7.00,2") || !strings.Contains(out, "General,10.00,1") {
		t.Fatalf("unexpected CSV output:\n%s", out)
	}
}

func TestPurchaseHistoryCSV(t *testing.T) {
	report := domain.PurchaseHistoryReport{
		CustomerID: "C001",
		Entries: []domain.PurchaseHistoryEntry{
			{InvoiceNumber: 4, Date: time.Date(2026, 8, 28, 9, 15, 0, 0, time.UTC), Kind: domain.InvoiceKindSale, GrandTotal: money.MustFromString("35.40")},
		},
	}

	var buf bytes.Buffer
	if err := PurchaseHistoryCSV(&buf, report); err != nil {
		t.Fatalf("write history report: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "customer_id,C001") {
		t.Fatalf("expected customer header in output:\n%s", out)
	}
	if !strings.Contains(out, "4,2026-08-28 09:15:00,sale,35.40") {
		t.Fatalf("expected entry row in output:\n%s", out)
	}
}

func TestLowStockCSV(t *testing.T) {
	report := domain.LowStockReport{
		Items: []domain.Product{
			{Code: "P009", Name: "Nearly Gone", StockQty: 2, ReorderThreshold: 10},
		},
	}

	var buf bytes.Buffer
	if err := LowStockCSV(&buf, report); err != nil {
		t.Fatalf("write low stock report: %v", err)
	}
	if !strings.Contains(buf.String(), "P009,Nearly Gone,2,10") {
		t.Fatalf("unexpected CSV output:\n%s", buf.String())
	}
}
