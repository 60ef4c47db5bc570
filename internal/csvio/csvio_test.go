package csvio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"serenia/backend/internal/domain"
	"serenia/backend/internal/money"
)

func TestReadProductsSkipsMalformedRows(t *testing.T) {
	input := strings.Join([]string{
		"code,name,price,cost_price,stock,low_stock_threshold,category",
		"P001,Sample Product 1,10.00,5.00,100,10,General",
		",Missing Code,1.00,0.50,5,10,General",
		"P002,Bad Price,abc,10.00,50,10,General",
		"P003,Sample Product 3,15.75,7.00,75,10,General",
	}, "\n")

	products, report, err := ReadProducts(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadProducts: %v", err)
	}
	if report.Loaded != 2 {
		t.Fatalf("loaded = %d, want 2", report.Loaded)
	}
	if len(report.Skipped) != 2 {
		t.Fatalf("skipped = %d, want 2", len(report.Skipped))
	}
	if report.Skipped[0].Line != 3 || report.Skipped[1].Line != 4 {
		t.Fatalf("skipped lines = %d,%d, want 3,4", report.Skipped[0].Line, report.Skipped[1].Line)
	}
	if products[0].Code != "P001" || products[1].Code != "P003" {
		t.Fatalf("unexpected codes: %s, %s", products[0].Code, products[1].Code)
	}
	if !products[1].UnitPrice.Equal(money.MustFromString("15.75")) {
		t.Fatalf("P003 price = %s", products[1].UnitPrice)
	}
}

func TestReadProductsDefaultsThresholdAndCategory(t *testing.T) {
	input := "code,name,price,cost_price,stock,low_stock_threshold,category\nP010,Widget,5.00,2.00,30,,\n"
	products, _, err := ReadProducts(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadProducts: %v", err)
	}
	if products[0].ReorderThreshold != 10 {
		t.Fatalf("threshold = %d, want 10", products[0].ReorderThreshold)
	}
	if products[0].Category != "General" {
		t.Fatalf("category = %q, want General", products[0].Category)
	}
}

func TestReadProductsMissingColumn(t *testing.T) {
	if _, _, err := ReadProducts(strings.NewReader("code,name\nP001,x\n")); err == nil {
		t.Fatal("expected error for missing price column")
	}
}

func TestProductsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteProducts(&buf, SeedProducts()); err != nil {
		t.Fatalf("WriteProducts: %v", err)
	}
	products, report, err := ReadProducts(&buf)
	if err != nil {
		t.Fatalf("ReadProducts: %v", err)
	}
	if report.Loaded != 3 || len(report.Skipped) != 0 {
		t.Fatalf("report = %+v", report)
	}
	if products[2].Code != "P003" || products[2].StockQty != 75 {
		t.Fatalf("P003 = %+v", products[2])
	}
}

func TestCustomersRoundTrip(t *testing.T) {
	customers := []domain.Customer{
		{ID: "C001", Name: "Sample Customer", Phone: "1234567890", LoyaltyPoints: 0},
		{ID: "C002", Name: "Asha Rao", Phone: "9988776655", LoyaltyPoints: 120},
	}
	var buf bytes.Buffer
	if err := WriteCustomers(&buf, customers); err != nil {
		t.Fatalf("WriteCustomers: %v", err)
	}
	got, report, err := ReadCustomers(&buf)
	if err != nil {
		t.Fatalf("ReadCustomers: %v", err)
	}
	if report.Loaded != 2 {
		t.Fatalf("loaded = %d, want 2", report.Loaded)
	}
	if got[1].LoyaltyPoints != 120 {
		t.Fatalf("C002 points = %d, want 120", got[1].LoyaltyPoints)
	}
}

func TestReadCustomersSkipsNegativePoints(t *testing.T) {
	input := "id,name,phone,loyalty_points\nC001,Ok,111,5\nC002,Bad,222,-3\n"
	got, report, err := ReadCustomers(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCustomers: %v", err)
	}
	if len(got) != 1 || report.Loaded != 1 || len(report.Skipped) != 1 {
		t.Fatalf("got %d customers, report %+v", len(got), report)
	}
}

func saleRecord() domain.InvoiceRecord {
	return domain.InvoiceRecord{
		InvoiceNumber: 7,
		Kind:          domain.InvoiceKindSale,
		Date:          time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC),
		CustomerID:    "C001",
		CustomerName:  "Sample Customer",
		CustomerPhone: "1234567890",
		Lines: []domain.CartLine{
			{Code: "P001", Name: "Sample Product 1", UnitPrice: money.MustFromString("10.00"), Qty: 3, LineTotal: money.MustFromString("30.00")},
		},
		Totals: domain.PricedInvoice{
			Subtotal:              money.MustFromString("30.00"),
			DiscountPercent:       decimal.NewFromInt(0),
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

func TestInvoiceRecordRoundTrip(t *testing.T) {
	rec := saleRecord()
	var buf bytes.Buffer
	if err := WriteInvoice(&buf, "Serenia Ltd.", "29ABCDE1234F1Z5", rec); err != nil {
		t.Fatalf("WriteInvoice: %v", err)
	}

	got, err := ReadInvoice(&buf)
	if err != nil {
		t.Fatalf("ReadInvoice: %v", err)
	}
	if got.Kind != domain.InvoiceKindSale {
		t.Fatalf("kind = %q", got.Kind)
	}
	if got.InvoiceNumber != 7 {
		t.Fatalf("number = %d, want 7", got.InvoiceNumber)
	}
	if !got.Date.Equal(rec.Date) {
		t.Fatalf("date = %v, want %v", got.Date, rec.Date)
	}
	if got.CustomerID != "C001" {
		t.Fatalf("customer id = %q", got.CustomerID)
	}
	if len(got.Lines) != 1 || got.Lines[0].Qty != 3 {
		t.Fatalf("lines = %+v", got.Lines)
	}
	if !got.Totals.GrandTotal.Equal(rec.Totals.GrandTotal) {
		t.Fatalf("grand total = %s, want %s", got.Totals.GrandTotal, rec.Totals.GrandTotal)
	}
	if !got.Totals.TaxPercent.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("gst percent = %s", got.Totals.TaxPercent)
	}
	if got.PointsAwarded != 3 || got.PaymentStatus != domain.StatusPaid {
		t.Fatalf("points = %d, status = %q", got.PointsAwarded, got.PaymentStatus)
	}
}

func TestReturnRecordRoundTrip(t *testing.T) {
	rec := saleRecord()
	rec.Kind = domain.InvoiceKindReturn
	rec.InvoiceNumber = 8
	rec.OriginalInvoiceNumber = 7
	rec.PaymentStatus = domain.StatusRefunded
	rec.Totals.GrandTotal = money.MustFromString("-35.40")
	rec.Lines = []domain.CartLine{
		{Code: "P001", Name: "Sample Product 1", UnitPrice: money.MustFromString("10.00"), Qty: -3, LineTotal: money.MustFromString("-30.00")},
	}

	var buf bytes.Buffer
	if err := WriteInvoice(&buf, "Serenia Ltd.", "29ABCDE1234F1Z5", rec); err != nil {
		t.Fatalf("WriteInvoice: %v", err)
	}
	text := buf.String()
	if !strings.Contains(text, "return_number,8") {
		t.Fatalf("missing return_number row:\n%s", text)
	}
	if !strings.Contains(text, "points_deducted,3") {
		t.Fatalf("missing points_deducted row:\n%s", text)
	}
	if !strings.Contains(text, "P001,Sample Product 1,10.00,-3,-30.00") {
		t.Fatalf("missing signed reversal line:\n%s", text)
	}

	got, err := ReadInvoice(strings.NewReader(text))
	if err != nil {
		t.Fatalf("ReadInvoice: %v", err)
	}
	if got.Kind != domain.InvoiceKindReturn {
		t.Fatalf("kind = %q", got.Kind)
	}
	if got.OriginalInvoiceNumber != 7 {
		t.Fatalf("original = %d, want 7", got.OriginalInvoiceNumber)
	}
	if len(got.Lines) != 1 || got.Lines[0].Qty != -3 || !got.Lines[0].LineTotal.Equal(money.MustFromString("-30.00")) {
		t.Fatalf("signed line not preserved: %+v", got.Lines)
	}
	if !got.Totals.GrandTotal.Equal(money.MustFromString("-35.40")) {
		t.Fatalf("grand total = %s", got.Totals.GrandTotal)
	}
}
