package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"serenia/backend/internal/domain"
	"serenia/backend/internal/money"
)

func TestNewBootstrapsSchema(t *testing.T) {
	databaseURL := os.Getenv("SERENIA_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set SERENIA_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	// New must leave a usable schema behind, including the numbering row
	// every commit depends on.
	var last int64
	if err := s.db.QueryRowContext(ctx, `SELECT last FROM invoice_seq WHERE id = 1`).Scan(&last); err != nil {
		t.Fatalf("invoice_seq row missing after bootstrap: %v", err)
	}
	if last < 0 {
		t.Fatalf("invoice_seq.last = %d, want >= 0", last)
	}

	for _, table := range []string{"products", "customers", "invoices", "users"} {
		var one int
		if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM `+table+` LIMIT 1`).Scan(&one); err != nil && err != sql.ErrNoRows {
			t.Fatalf("table %s not queryable after bootstrap: %v", table, err)
		}
	}
}

func TestCommitReturnRestocksInventory(t *testing.T) {
	databaseURL := os.Getenv("SERENIA_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set SERENIA_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	code := fmt.Sprintf("P-RET-IT-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM invoices WHERE lines::text LIKE '%'||$1||'%'`, code)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE code = $1`, code)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO products (code, name, unit_price, unit_cost, stock_qty, reorder_threshold, category, created_at, updated_at)
		VALUES ($1, 'Return IT Product', 10.00, 4.00, 10, 3, 'General', now(), now())
	`, code); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	price := money.MustFromString("10.00")
	sale := domain.InvoiceRecord{
		Kind: domain.InvoiceKindSale,
		Lines: []domain.CartLine{
			{Code: code, Name: "Return IT Product", UnitPrice: price, Qty: 4, LineTotal: price.MulInt(4)},
		},
		PaymentStatus: domain.StatusPending,
	}
	committed, err := s.CommitSale(ctx, sale)
	if err != nil {
		t.Fatalf("commit sale: %v", err)
	}

	product, err := s.GetProduct(ctx, code)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.StockQty != 6 {
		t.Fatalf("stock after sale = %d, want 6", product.StockQty)
	}

	ret := domain.InvoiceRecord{
		OriginalInvoiceNumber: committed.InvoiceNumber,
		Lines: []domain.CartLine{
			{Code: code, Name: "Return IT Product", UnitPrice: price, Qty: 3, LineTotal: price.MulInt(3)},
		},
	}
	returned, err := s.CommitReturn(ctx, ret, []domain.StockAdjustment{{Code: code, Qty: 3}}, 0)
	if err != nil {
		t.Fatalf("commit return: %v", err)
	}
	if returned.Kind != domain.InvoiceKindReturn {
		t.Fatalf("kind = %q", returned.Kind)
	}

	product, err = s.GetProduct(ctx, code)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.StockQty != 9 {
		t.Fatalf("stock after return = %d, want 9", product.StockQty)
	}

	original, err := s.GetInvoice(ctx, committed.InvoiceNumber)
	if err != nil {
		t.Fatalf("get original: %v", err)
	}
	if original.PaymentStatus != domain.StatusPartialRefunded {
		t.Fatalf("original status = %q", original.PaymentStatus)
	}

	qty, err := s.ReturnedQtyByInvoice(ctx, committed.InvoiceNumber)
	if err != nil {
		t.Fatalf("returned qty: %v", err)
	}
	if qty[code] != 3 {
		t.Fatalf("returned qty = %d, want 3", qty[code])
	}
}
