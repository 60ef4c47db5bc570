package render

import (
	"encoding/csv"
	"io"
	"strconv"

	"serenia/backend/internal/csvio"
	"serenia/backend/internal/domain"
)

// ProfitReportCSV writes the profit summary followed by per-item unit sales.
func ProfitReportCSV(w io.Writer, report domain.ProfitReport) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"total_sales", report.TotalSales.String()},
		{"total_cost", report.TotalCost.String()},
		{"profit", report.Profit.String()},
		{"top_seller_code", report.TopSellerCode},
		{"top_seller_name", report.TopSellerName},
		{},
		{"code", "name", "units_sold"},
	}
	for _, item := range report.ItemSales {
		rows = append(rows, []string{item.Code, item.Name, strconv.Itoa(item.UnitsSold)})
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func CategorySalesCSV(w io.Writer, report domain.CategorySalesReport) error {
	cw := csv.NewWriter(w)

	rows := [][]string{{"category", "total_sales", "units_sold"}}
	for _, cat := range report.Categories {
		rows = append(rows, []string{cat.Category, cat.TotalSales.String(), strconv.Itoa(cat.UnitsSold)})
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func PurchaseHistoryCSV(w io.Writer, report domain.PurchaseHistoryReport) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"customer_id", report.CustomerID},
		{},
		{"invoice_number", "date", "kind", "grand_total"},
	}
	for _, entry := range report.Entries {
		rows = append(rows, []string{
			strconv.FormatInt(entry.InvoiceNumber, 10),
			entry.Date.Format(csvio.DateLayout),
			entry.Kind,
			entry.GrandTotal.String(),
		})
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func LowStockCSV(w io.Writer, report domain.LowStockReport) error {
	cw := csv.NewWriter(w)

	rows := [][]string{{"code", "name", "stock_qty", "reorder_threshold"}}
	for _, item := range report.Items {
		rows = append(rows, []string{
			item.Code,
			item.Name,
			strconv.Itoa(item.StockQty),
			strconv.Itoa(item.ReorderThreshold),
		})
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
