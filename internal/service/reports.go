package service

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"

	"serenia/backend/internal/domain"
	"serenia/backend/internal/money"
	"serenia/backend/internal/store"
)

// reportKey folds the ledger generation into the cache key, so a commit
// naturally invalidates every cached report without explicit deletes.
func (s *Service) reportKey(name string, extra string) string {
	if extra != "" {
		return fmt.Sprintf("report:%s:%s:gen=%d", name, extra, s.generation.Load())
	}
	return fmt.Sprintf("report:%s:gen=%d", name, s.generation.Load())
}

func (s *Service) ProfitReport(ctx context.Context) (domain.ProfitReport, error) {
	key := s.reportKey("profit", "")
	var cached domain.ProfitReport
	if hit, err := s.reports.Get(ctx, key, &cached); err != nil {
		log.Printf("[service] WARN: report cache get failed: %v", err)
	} else if hit {
		return cached, nil
	}

	records, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return domain.ProfitReport{}, err
	}
	products, err := s.productsByCode(ctx)
	if err != nil {
		return domain.ProfitReport{}, err
	}

	report := domain.ProfitReport{
		TotalSales: money.Zero(),
		TotalCost:  money.Zero(),
		Profit:     money.Zero(),
	}
	unitsByCode := map[string]int{}
	nameByCode := map[string]string{}

	for _, record := range records {
		report.TotalSales = report.TotalSales.Add(record.Totals.GrandTotal)

		// Return lines carry negative quantities, so they subtract on
		// their own.
		for _, line := range record.Lines {
			nameByCode[line.Code] = line.Name
			unitsByCode[line.Code] += line.Qty
			if product, ok := products[line.Code]; ok {
				report.TotalCost = report.TotalCost.Add(product.UnitCost.MulInt(int64(line.Qty)))
			}
		}
	}
	report.Profit = report.TotalSales.Sub(report.TotalCost)

	report.ItemSales = make([]domain.ItemSales, 0, len(unitsByCode))
	for code, units := range unitsByCode {
		report.ItemSales = append(report.ItemSales, domain.ItemSales{
			Code:      code,
			Name:      nameByCode[code],
			UnitsSold: units,
		})
	}
	slices.SortFunc(report.ItemSales, func(a, b domain.ItemSales) int {
		if a.UnitsSold != b.UnitsSold {
			return b.UnitsSold - a.UnitsSold
		}
		return strings.Compare(a.Code, b.Code)
	})
	if len(report.ItemSales) > 0 && report.ItemSales[0].UnitsSold > 0 {
		report.TopSellerCode = report.ItemSales[0].Code
		report.TopSellerName = report.ItemSales[0].Name
	}

	s.cacheReport(ctx, key, report)
	return report, nil
}

// CategorySalesReport groups sold value by catalog category. Custom lines
// have no catalog entry and land in their own "Custom" bucket.
func (s *Service) CategorySalesReport(ctx context.Context) (domain.CategorySalesReport, error) {
	key := s.reportKey("category-sales", "")
	var cached domain.CategorySalesReport
	if hit, err := s.reports.Get(ctx, key, &cached); err != nil {
		log.Printf("[service] WARN: report cache get failed: %v", err)
	} else if hit {
		return cached, nil
	}

	records, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return domain.CategorySalesReport{}, err
	}
	products, err := s.productsByCode(ctx)
	if err != nil {
		return domain.CategorySalesReport{}, err
	}

	salesByCategory := map[string]money.Money{}
	unitsByCategory := map[string]int{}
	for _, record := range records {
		for _, line := range record.Lines {
			category := "Custom"
			if product, ok := products[line.Code]; ok {
				category = product.Category
			} else if !isCustomCode(line.Code) {
				category = "Uncategorized"
			}
			current, ok := salesByCategory[category]
			if !ok {
				current = money.Zero()
			}
			salesByCategory[category] = current.Add(line.LineTotal)
			unitsByCategory[category] += line.Qty
		}
	}

	report := domain.CategorySalesReport{
		Categories: make([]domain.CategorySales, 0, len(salesByCategory)),
	}
	for category, total := range salesByCategory {
		report.Categories = append(report.Categories, domain.CategorySales{
			Category:   category,
			TotalSales: total,
			UnitsSold:  unitsByCategory[category],
		})
	}
	slices.SortFunc(report.Categories, func(a, b domain.CategorySales) int {
		return strings.Compare(a.Category, b.Category)
	})

	s.cacheReport(ctx, key, report)
	return report, nil
}

func (s *Service) PurchaseHistory(ctx context.Context, customerID string) (domain.PurchaseHistoryReport, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return domain.PurchaseHistoryReport{}, store.ErrInvalidInput
	}
	if _, err := s.repo.GetCustomer(ctx, customerID); err != nil {
		return domain.PurchaseHistoryReport{}, err
	}

	key := s.reportKey("purchase-history", customerID)
	var cached domain.PurchaseHistoryReport
	if hit, err := s.reports.Get(ctx, key, &cached); err != nil {
		log.Printf("[service] WARN: report cache get failed: %v", err)
	} else if hit {
		return cached, nil
	}

	records, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return domain.PurchaseHistoryReport{}, err
	}

	report := domain.PurchaseHistoryReport{
		CustomerID: customerID,
		Entries:    make([]domain.PurchaseHistoryEntry, 0, 16),
	}
	for _, record := range records {
		if record.CustomerID != customerID {
			continue
		}
		report.Entries = append(report.Entries, domain.PurchaseHistoryEntry{
			InvoiceNumber: record.InvoiceNumber,
			Date:          record.Date,
			Kind:          record.Kind,
			GrandTotal:    record.Totals.GrandTotal,
		})
	}
	slices.SortFunc(report.Entries, func(a, b domain.PurchaseHistoryEntry) int {
		if a.Date.Equal(b.Date) {
			return int(a.InvoiceNumber - b.InvoiceNumber)
		}
		if a.Date.Before(b.Date) {
			return -1
		}
		return 1
	})

	s.cacheReport(ctx, key, report)
	return report, nil
}

func (s *Service) LowStockReport(ctx context.Context) (domain.LowStockReport, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.LowStockReport{}, err
	}

	report := domain.LowStockReport{Items: make([]domain.Product, 0, 8)}
	for _, product := range products {
		if product.StockQty <= product.ReorderThreshold {
			report.Items = append(report.Items, product)
		}
	}
	return report, nil
}

func (s *Service) productsByCode(ctx context.Context) (map[string]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]domain.Product, len(products))
	for _, product := range products {
		byCode[product.Code] = product
	}
	return byCode, nil
}

func (s *Service) cacheReport(ctx context.Context, key string, value any) {
	if err := s.reports.Set(ctx, key, value, s.reportTTL); err != nil {
		log.Printf("[service] WARN: report cache set failed: %v", err)
	}
}
