// Package csvio reads and writes the persisted CSV formats: the product
// catalog, the customer table and invoice/return records. Malformed rows are
// skipped and reported, never fatal, so a damaged file degrades instead of
// blocking startup.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"serenia/backend/internal/domain"
	"serenia/backend/internal/money"
)

const DateLayout = "2006-01-02 15:04:05"

var productHeader = []string{"code", "name", "price", "cost_price", "stock", "low_stock_threshold", "category"}
var customerHeader = []string{"id", "name", "phone", "loyalty_points"}
var itemHeader = []string{"code", "name", "price", "qty", "total"}

type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// LoadReport tells the caller how a load went: how many rows were accepted
// and which were skipped and why.
type LoadReport struct {
	Loaded  int          `json:"loaded"`
	Skipped []SkippedRow `json:"skipped,omitempty"`
}

// SeedProducts returns the sample catalog written when no products file
// exists yet.
func SeedProducts() []domain.Product {
	return []domain.Product{
		{Code: "P001", Name: "Sample Product 1", UnitPrice: money.MustFromString("10.00"), UnitCost: money.MustFromString("5.00"), StockQty: 100, ReorderThreshold: 10, Category: "General"},
		{Code: "P002", Name: "Sample Product 2", UnitPrice: money.MustFromString("20.00"), UnitCost: money.MustFromString("10.00"), StockQty: 50, ReorderThreshold: 10, Category: "General"},
		{Code: "P003", Name: "Sample Product 3", UnitPrice: money.MustFromString("15.75"), UnitCost: money.MustFromString("7.00"), StockQty: 75, ReorderThreshold: 10, Category: "General"},
	}
}

func SeedCustomers() []domain.Customer {
	return []domain.Customer{
		{ID: "C001", Name: "Sample Customer", Phone: "1234567890", LoyaltyPoints: 0},
	}
}

func ReadProducts(r io.Reader) ([]domain.Product, LoadReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("read products header: %w", err)
	}
	idx := headerIndex(header)
	for _, required := range []string{"code", "name", "price", "stock"} {
		if _, ok := idx[required]; !ok {
			return nil, LoadReport{}, fmt.Errorf("products file missing column %q", required)
		}
	}

	var products []domain.Product
	var report LoadReport
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: err.Error()})
			continue
		}

		code := strings.TrimSpace(field(row, idx, "code"))
		if code == "" {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: "empty code"})
			continue
		}

		price, err := money.FromString(orDefault(field(row, idx, "price"), "0"))
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: "bad price: " + err.Error()})
			continue
		}
		cost, err := money.FromString(orDefault(field(row, idx, "cost_price"), "0"))
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: "bad cost_price: " + err.Error()})
			continue
		}
		stock, err := strconv.Atoi(orDefault(field(row, idx, "stock"), "0"))
		if err != nil || stock < 0 {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: "bad stock"})
			continue
		}
		threshold, err := strconv.Atoi(orDefault(field(row, idx, "low_stock_threshold"), "10"))
		if err != nil || threshold < 0 {
			threshold = 10
		}

		products = append(products, domain.Product{
			Code:             code,
			Name:             field(row, idx, "name"),
			UnitPrice:        price,
			UnitCost:         cost,
			StockQty:         stock,
			ReorderThreshold: threshold,
			Category:         orDefault(field(row, idx, "category"), "General"),
		})
		report.Loaded++
	}

	return products, report, nil
}

func WriteProducts(w io.Writer, products []domain.Product) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(productHeader); err != nil {
		return err
	}
	for _, p := range products {
		row := []string{
			p.Code, p.Name, p.UnitPrice.String(), p.UnitCost.String(),
			strconv.Itoa(p.StockQty), strconv.Itoa(p.ReorderThreshold), p.Category,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadCustomers(r io.Reader) ([]domain.Customer, LoadReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("read customers header: %w", err)
	}
	idx := headerIndex(header)
	for _, required := range []string{"id", "name", "phone"} {
		if _, ok := idx[required]; !ok {
			return nil, LoadReport{}, fmt.Errorf("customers file missing column %q", required)
		}
	}

	var customers []domain.Customer
	var report LoadReport
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: err.Error()})
			continue
		}

		id := strings.TrimSpace(field(row, idx, "id"))
		if id == "" {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: "empty id"})
			continue
		}
		points, err := strconv.Atoi(orDefault(field(row, idx, "loyalty_points"), "0"))
		if err != nil || points < 0 {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: "bad loyalty_points"})
			continue
		}

		customers = append(customers, domain.Customer{
			ID:            id,
			Name:          field(row, idx, "name"),
			Phone:         field(row, idx, "phone"),
			LoyaltyPoints: points,
		})
		report.Loaded++
	}

	return customers, report, nil
}

func WriteCustomers(w io.Writer, customers []domain.Customer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(customerHeader); err != nil {
		return err
	}
	for _, c := range customers {
		row := []string{c.ID, c.Name, c.Phone, strconv.Itoa(c.LoyaltyPoints)}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteInvoice renders an invoice or return record as the key/value CSV
// layout: a header block, a blank separator, the line-item table, another
// separator and the totals block.
func WriteInvoice(w io.Writer, shopName, gstNumber string, rec domain.InvoiceRecord) error {
	writer := csv.NewWriter(w)

	kv := func(key, value string) error {
		return writer.Write([]string{key, value})
	}

	if err := kv("shop_name", shopName); err != nil {
		return err
	}
	if err := kv("gst_number", gstNumber); err != nil {
		return err
	}
	if rec.Kind == domain.InvoiceKindReturn {
		if err := kv("return_number", strconv.FormatInt(rec.InvoiceNumber, 10)); err != nil {
			return err
		}
		if err := kv("original_invoice", strconv.FormatInt(rec.OriginalInvoiceNumber, 10)); err != nil {
			return err
		}
	} else {
		if err := kv("invoice_number", strconv.FormatInt(rec.InvoiceNumber, 10)); err != nil {
			return err
		}
	}
	if err := kv("date", rec.Date.Format(DateLayout)); err != nil {
		return err
	}
	if err := kv("customer_id", rec.CustomerID); err != nil {
		return err
	}
	if err := kv("customer_name", rec.CustomerName); err != nil {
		return err
	}
	if err := kv("customer_phone", rec.CustomerPhone); err != nil {
		return err
	}
	if err := kv("total_item_count", strconv.Itoa(rec.Totals.TotalItemCount)); err != nil {
		return err
	}
	if err := writer.Write([]string{""}); err != nil {
		return err
	}

	if err := writer.Write(itemHeader); err != nil {
		return err
	}
	for _, line := range rec.Lines {
		row := []string{line.Code, line.Name, line.UnitPrice.String(), strconv.Itoa(line.Qty), line.LineTotal.String()}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{""}); err != nil {
		return err
	}

	totals := rec.Totals
	pointsKey := "points_awarded"
	if rec.Kind == domain.InvoiceKindReturn {
		pointsKey = "points_deducted"
	}
	for _, pair := range [][2]string{
		{"subtotal", totals.Subtotal.String()},
		{"discount_percent", totals.DiscountPercent.String()},
		{"discount_amount", totals.DiscountAmount.String()},
		{"subtotal_after_discount", totals.SubtotalAfterDiscount.String()},
		{"gst_percent", totals.TaxPercent.String()},
		{"gst_total", totals.TaxTotal.String()},
		{"cgst", totals.CGST.String()},
		{"sgst", totals.SGST.String()},
		{"grand_total", totals.GrandTotal.String()},
		{pointsKey, strconv.Itoa(rec.PointsAwarded)},
		{"payment_status", rec.PaymentStatus},
	} {
		if err := kv(pair[0], pair[1]); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadInvoice parses a record previously written by WriteInvoice. Key/value
// rows are collected into a map; the line-item table is detected by its
// header row.
func ReadInvoice(r io.Reader) (domain.InvoiceRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var rec domain.InvoiceRecord
	kv := map[string]string{}
	inItems := false

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.InvoiceRecord{}, err
		}
		if isItemHeader(row) {
			inItems = true
			continue
		}
		if inItems {
			if len(row) != 5 {
				inItems = false
			} else {
				line, err := parseItemRow(row)
				if err != nil {
					return domain.InvoiceRecord{}, err
				}
				rec.Lines = append(rec.Lines, line)
				continue
			}
		}
		if len(row) >= 2 && row[0] != "" {
			kv[row[0]] = row[1]
		}
	}

	rec.Kind = domain.InvoiceKindSale
	numberKey := "invoice_number"
	if _, ok := kv["return_number"]; ok {
		rec.Kind = domain.InvoiceKindReturn
		numberKey = "return_number"
	}

	number, err := strconv.ParseInt(kv[numberKey], 10, 64)
	if err != nil {
		return domain.InvoiceRecord{}, fmt.Errorf("bad %s: %w", numberKey, err)
	}
	rec.InvoiceNumber = number
	if raw, ok := kv["original_invoice"]; ok {
		if rec.OriginalInvoiceNumber, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return domain.InvoiceRecord{}, fmt.Errorf("bad original_invoice: %w", err)
		}
	}

	if raw, ok := kv["date"]; ok {
		if rec.Date, err = time.Parse(DateLayout, raw); err != nil {
			return domain.InvoiceRecord{}, fmt.Errorf("bad date: %w", err)
		}
	}
	rec.CustomerID = kv["customer_id"]
	rec.CustomerName = kv["customer_name"]
	rec.CustomerPhone = kv["customer_phone"]
	rec.PaymentStatus = orDefault(kv["payment_status"], domain.StatusPending)

	totals := &rec.Totals
	if totals.TotalItemCount, err = strconv.Atoi(orDefault(kv["total_item_count"], "0")); err != nil {
		return domain.InvoiceRecord{}, fmt.Errorf("bad total_item_count: %w", err)
	}
	for _, pair := range []struct {
		key  string
		dest *money.Money
	}{
		{"subtotal", &totals.Subtotal},
		{"discount_amount", &totals.DiscountAmount},
		{"subtotal_after_discount", &totals.SubtotalAfterDiscount},
		{"gst_total", &totals.TaxTotal},
		{"cgst", &totals.CGST},
		{"sgst", &totals.SGST},
		{"grand_total", &totals.GrandTotal},
	} {
		if *pair.dest, err = money.FromString(orDefault(kv[pair.key], "0")); err != nil {
			return domain.InvoiceRecord{}, fmt.Errorf("bad %s: %w", pair.key, err)
		}
	}
	if totals.DiscountPercent, err = decimal.NewFromString(orDefault(kv["discount_percent"], "0")); err != nil {
		return domain.InvoiceRecord{}, fmt.Errorf("bad discount_percent: %w", err)
	}
	if totals.TaxPercent, err = decimal.NewFromString(orDefault(kv["gst_percent"], "0")); err != nil {
		return domain.InvoiceRecord{}, fmt.Errorf("bad gst_percent: %w", err)
	}

	pointsKey := "points_awarded"
	if rec.Kind == domain.InvoiceKindReturn {
		pointsKey = "points_deducted"
	}
	if rec.PointsAwarded, err = strconv.Atoi(orDefault(kv[pointsKey], "0")); err != nil {
		return domain.InvoiceRecord{}, fmt.Errorf("bad %s: %w", pointsKey, err)
	}

	return rec, nil
}

// LoadProductsFile reads the catalog from path, creating the file with
// sample rows when it does not exist yet.
func LoadProductsFile(path string) ([]domain.Product, LoadReport, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		seeded := SeedProducts()
		if err := writeFile(path, func(w io.Writer) error { return WriteProducts(w, seeded) }); err != nil {
			return nil, LoadReport{}, err
		}
		return seeded, LoadReport{Loaded: len(seeded)}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, LoadReport{}, err
	}
	defer f.Close()
	return ReadProducts(f)
}

// LoadCustomersFile reads the customer table from path, seeding it when
// missing.
func LoadCustomersFile(path string) ([]domain.Customer, LoadReport, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		seeded := SeedCustomers()
		if err := writeFile(path, func(w io.Writer) error { return WriteCustomers(w, seeded) }); err != nil {
			return nil, LoadReport{}, err
		}
		return seeded, LoadReport{Loaded: len(seeded)}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, LoadReport{}, err
	}
	defer f.Close()
	return ReadCustomers(f)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

func field(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func isItemHeader(row []string) bool {
	if len(row) != len(itemHeader) {
		return false
	}
	for i, name := range itemHeader {
		if row[i] != name {
			return false
		}
	}
	return true
}

func parseItemRow(row []string) (domain.CartLine, error) {
	price, err := money.FromString(row[2])
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("bad item price: %w", err)
	}
	qty, err := strconv.Atoi(row[3])
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("bad item qty: %w", err)
	}
	total, err := money.FromString(row[4])
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("bad item total: %w", err)
	}
	return domain.CartLine{Code: row[0], Name: row[1], UnitPrice: price, Qty: qty, LineTotal: total}, nil
}
