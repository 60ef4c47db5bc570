package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"serenia/backend/internal/cache"
	"serenia/backend/internal/cart"
	"serenia/backend/internal/csvio"
	"serenia/backend/internal/domain"
	"serenia/backend/internal/money"
	"serenia/backend/internal/pricing"
	"serenia/backend/internal/store"
	"serenia/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Options carries the billing knobs the engine needs at construction time.
type Options struct {
	ShopName          string
	GSTNumber         string
	DefaultTaxPercent decimal.Decimal
	LoyaltyThreshold  int
	ReportTTL         time.Duration
}

// Service is the billing engine. Reports are cached under a key that
// includes a generation counter; every committing operation bumps the
// counter, so stale report entries simply stop being referenced and age out
// by TTL.
type Service struct {
	repo             store.Repository
	reports          cache.ReportCache
	shopName         string
	gstNumber        string
	defaultTax       decimal.Decimal
	loyaltyThreshold int
	reportTTL        time.Duration

	generation atomic.Int64

	// Held carts by handle. In-memory only; a restart abandons any sale
	// still being rung up.
	cartsMu   sync.Mutex
	openCarts map[string]*cart.Cart

	// Last successfully parsed percent inputs. Malformed input on a later
	// request falls back to these instead of failing the sale.
	percentMu    sync.Mutex
	lastDiscount decimal.Decimal
	lastTax      decimal.Decimal
}

func New(repo store.Repository, reports cache.ReportCache, opts Options) *Service {
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if opts.ShopName == "" {
		opts.ShopName = "Serenia Ltd."
	}
	if opts.DefaultTaxPercent.IsZero() {
		opts.DefaultTaxPercent = decimal.NewFromInt(18)
	}
	if opts.LoyaltyThreshold < 1 {
		opts.LoyaltyThreshold = 100
	}
	if opts.ReportTTL <= 0 {
		opts.ReportTTL = 5 * time.Minute
	}

	return &Service{
		repo:             repo,
		reports:          reports,
		shopName:         opts.ShopName,
		gstNumber:        opts.GSTNumber,
		defaultTax:       opts.DefaultTaxPercent,
		loyaltyThreshold: opts.LoyaltyThreshold,
		reportTTL:        opts.ReportTTL,
		openCarts:        make(map[string]*cart.Cart),
		lastDiscount:     decimal.Zero,
		lastTax:          opts.DefaultTaxPercent,
	}
}

func (s *Service) ShopName() string {
	return s.shopName
}

func (s *Service) GSTNumber() string {
	return s.gstNumber
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, code string) (domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) SaveProduct(ctx context.Context, req domain.ProductSaveRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Code == "" || req.Name == "" {
		return domain.Product{}, store.ErrInvalidInput
	}
	if req.StockQty < 0 || req.ReorderThreshold < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}

	price, err := money.FromString(req.UnitPrice)
	if err != nil || price.IsNegative() {
		return domain.Product{}, store.ErrInvalidInput
	}
	cost, err := money.FromString(orDefault(req.UnitCost, "0"))
	if err != nil || cost.IsNegative() {
		return domain.Product{}, store.ErrInvalidInput
	}

	saved, err := s.repo.SaveProduct(ctx, domain.Product{
		Code:             req.Code,
		Name:             req.Name,
		UnitPrice:        price,
		UnitCost:         cost,
		StockQty:         req.StockQty,
		ReorderThreshold: req.ReorderThreshold,
		Category:         req.Category,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.bumpGeneration()
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, code string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return store.ErrInvalidInput
	}
	if err := s.repo.DeleteProduct(ctx, code); err != nil {
		return err
	}

	s.bumpGeneration()
	return nil
}

func (s *Service) Restock(ctx context.Context, req domain.RestockRequest) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	adjustments := make([]domain.StockAdjustment, 0, len(req.Items))
	for _, item := range req.Items {
		code := strings.ToUpper(strings.TrimSpace(item.Code))
		if code == "" || item.Qty < 1 {
			return store.ErrInvalidInput
		}
		adjustments = append(adjustments, domain.StockAdjustment{Code: code, Qty: item.Qty})
	}
	if len(adjustments) == 0 {
		return store.ErrNoItemsSelected
	}

	if err := s.repo.IncreaseStock(ctx, adjustments); err != nil {
		return err
	}

	s.bumpGeneration()
	return nil
}

// ImportProducts upserts every parseable row and reports the rest.
func (s *Service) ImportProducts(ctx context.Context, r io.Reader) (csvio.LoadReport, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return csvio.LoadReport{}, fmt.Errorf("admin role required")
	}

	products, report, err := csvio.ReadProducts(r)
	if err != nil {
		return csvio.LoadReport{}, err
	}
	for _, product := range products {
		if _, err := s.repo.SaveProduct(ctx, product); err != nil {
			return report, err
		}
	}

	s.bumpGeneration()
	return report, nil
}

func (s *Service) ExportProducts(ctx context.Context, w io.Writer) error {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return err
	}
	return csvio.WriteProducts(w, products)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	customer, err := s.repo.GetCustomer(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

// CreateCustomer registers a new customer. A blank ID means the next free
// C-prefixed number is assigned; an explicit ID that is already taken fails
// with ErrDuplicateCustomer.
func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerSaveRequest) (domain.Customer, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" {
		return domain.Customer{}, store.ErrInvalidInput
	}

	if req.ID == "" {
		id, err := s.nextCustomerID(ctx)
		if err != nil {
			return domain.Customer{}, err
		}
		req.ID = id
	} else if _, err := s.repo.GetCustomer(ctx, req.ID); err == nil {
		return domain.Customer{}, store.ErrDuplicateCustomer
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Customer{}, err
	}

	saved, err := s.repo.SaveCustomer(ctx, domain.Customer{
		ID:    req.ID,
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return *saved, nil
}

// UpdateCustomer edits an existing customer's name and phone. Loyalty
// balances are only moved by commits, never by this call, so the stored
// balance is preserved.
func (s *Service) UpdateCustomer(ctx context.Context, req domain.CustomerSaveRequest) (domain.Customer, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.ID == "" || req.Name == "" {
		return domain.Customer{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetCustomer(ctx, req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	saved, err := s.repo.SaveCustomer(ctx, domain.Customer{
		ID:            req.ID,
		Name:          req.Name,
		Phone:         req.Phone,
		LoyaltyPoints: existing.LoyaltyPoints,
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return *saved, nil
}

func (s *Service) nextCustomerID(ctx context.Context) (string, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return "", err
	}
	max := 0
	for _, c := range customers {
		var n int
		if _, err := fmt.Sscanf(c.ID, "C%d", &n); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("C%03d", max+1), nil
}

// Quote prices a cart without committing anything. Prices and names for
// catalog-backed lines come from the catalog, not the request.
func (s *Service) Quote(ctx context.Context, req domain.QuoteRequest) (domain.PricedInvoice, error) {
	lines, err := s.normalizeLines(ctx, req.Lines)
	if err != nil {
		return domain.PricedInvoice{}, err
	}

	discount, tax := s.resolvePercents(req.DiscountPercent, req.TaxPercent)
	eligible, err := s.loyaltyEligible(ctx, req.CustomerID)
	if err != nil {
		return domain.PricedInvoice{}, err
	}

	return pricing.Compute(lines, discount, tax, eligible)
}

func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	lines, err := s.normalizeLines(ctx, req.Lines)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}
	if len(lines) == 0 {
		return domain.CheckoutResponse{}, store.ErrNoItemsSelected
	}

	discount, tax := s.resolvePercents(req.DiscountPercent, req.TaxPercent)

	record := domain.InvoiceRecord{
		Kind:          domain.InvoiceKindSale,
		Date:          time.Now().UTC(),
		Lines:         lines,
		PaymentStatus: domain.StatusPending,
	}

	eligible := false
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID != "" {
		customer, err := s.repo.GetCustomer(ctx, customerID)
		if err != nil {
			return domain.CheckoutResponse{}, err
		}
		record.CustomerID = customer.ID
		record.CustomerName = customer.Name
		record.CustomerPhone = customer.Phone
		eligible = customer.LoyaltyPoints >= s.loyaltyThreshold
	}

	totals, err := pricing.Compute(lines, discount, tax, eligible)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}
	record.Totals = totals
	if record.CustomerID != "" {
		record.PointsAwarded = totals.GrandTotal.Floor10()
	}

	committed, err := s.repo.CommitSale(ctx, record)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}
	s.bumpGeneration()

	return domain.CheckoutResponse{
		Invoice:  *committed,
		LowStock: s.lowStockAlerts(ctx, committed.Lines),
	}, nil
}

// QuickSale rings up a single catalog item at default rates and marks it
// paid immediately.
func (s *Service) QuickSale(ctx context.Context, req domain.QuickSaleRequest) (domain.CheckoutResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	qty := req.Qty
	if qty < 1 {
		qty = 1
	}

	product, err := s.repo.GetProduct(ctx, code)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	lines := []domain.CartLine{pricing.Line(product.Code, product.Name, product.UnitPrice, qty)}
	totals, err := pricing.Compute(lines, decimal.Zero, s.defaultTax, false)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	committed, err := s.repo.CommitSale(ctx, domain.InvoiceRecord{
		Kind:          domain.InvoiceKindSale,
		Date:          time.Now().UTC(),
		Lines:         lines,
		Totals:        totals,
		PaymentStatus: domain.StatusPaid,
	})
	if err != nil {
		return domain.CheckoutResponse{}, err
	}
	s.bumpGeneration()

	return domain.CheckoutResponse{
		Invoice:  *committed,
		LowStock: s.lowStockAlerts(ctx, committed.Lines),
	}, nil
}

// ProcessReturn reverses part or all of a sale at the sale's original
// rates. Quantities are validated per line against what the original sold
// minus what earlier returns already took back.
func (s *Service) ProcessReturn(ctx context.Context, req domain.ReturnRequest) (domain.ReturnResponse, error) {
	original, err := s.repo.GetInvoice(ctx, req.OriginalInvoiceNumber)
	if err != nil {
		return domain.ReturnResponse{}, err
	}
	if original.Kind != domain.InvoiceKindSale {
		return domain.ReturnResponse{}, store.ErrInvalidInput
	}

	alreadyReturned, err := s.repo.ReturnedQtyByInvoice(ctx, original.InvoiceNumber)
	if err != nil {
		return domain.ReturnResponse{}, err
	}

	originalByCode := make(map[string]domain.CartLine, len(original.Lines))
	for _, line := range original.Lines {
		originalByCode[line.Code] = line
	}

	returnLines := make([]domain.CartLine, 0, len(req.Quantities))
	restock := make([]domain.StockAdjustment, 0, len(req.Quantities))
	codes := make([]string, 0, len(req.Quantities))
	for code := range req.Quantities {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	for _, code := range codes {
		qty := req.Quantities[code]
		if qty < 0 {
			return domain.ReturnResponse{}, store.ErrInvalidInput
		}
		if qty == 0 {
			continue
		}
		sold, ok := originalByCode[code]
		if !ok {
			return domain.ReturnResponse{}, store.ErrInvalidInput
		}
		if qty+alreadyReturned[code] > sold.Qty {
			return domain.ReturnResponse{}, store.ErrReturnExceedsOriginal
		}
		returnLines = append(returnLines, pricing.Line(sold.Code, sold.Name, sold.UnitPrice, qty))
		if !isCustomCode(code) {
			restock = append(restock, domain.StockAdjustment{Code: code, Qty: qty})
		}
	}
	if len(returnLines) == 0 {
		return domain.ReturnResponse{}, store.ErrNoItemsSelected
	}

	refund, err := pricing.Compute(returnLines, original.Totals.DiscountPercent, original.Totals.TaxPercent, saleHadLoyaltyBonus(original.Totals))
	if err != nil {
		return domain.ReturnResponse{}, err
	}
	totals := negateTotals(refund)
	reversalLines := negateLines(returnLines)

	pointsDeducted := 0
	if original.CustomerID != "" && original.PointsAwarded > 0 {
		remaining, err := s.remainingAwardedPoints(ctx, original)
		if err != nil {
			return domain.ReturnResponse{}, err
		}
		pointsDeducted = totals.GrandTotal.Floor10()
		if pointsDeducted > remaining {
			pointsDeducted = remaining
		}
	}

	committed, err := s.repo.CommitReturn(ctx, domain.InvoiceRecord{
		Kind:                  domain.InvoiceKindReturn,
		Date:                  time.Now().UTC(),
		CustomerID:            original.CustomerID,
		CustomerName:          original.CustomerName,
		CustomerPhone:         original.CustomerPhone,
		Lines:                 reversalLines,
		Totals:                totals,
		PaymentStatus:         domain.StatusRefunded,
		OriginalInvoiceNumber: original.InvoiceNumber,
	}, restock, pointsDeducted)
	if err != nil {
		return domain.ReturnResponse{}, err
	}
	s.bumpGeneration()

	return domain.ReturnResponse{Invoice: *committed, PointsDeducted: pointsDeducted}, nil
}

func (s *Service) GetInvoice(ctx context.Context, number int64) (domain.InvoiceRecord, error) {
	record, err := s.repo.GetInvoice(ctx, number)
	if err != nil {
		return domain.InvoiceRecord{}, err
	}
	return *record, nil
}

func (s *Service) ListInvoices(ctx context.Context) ([]domain.InvoiceRecord, error) {
	return s.repo.ListInvoices(ctx)
}

func (s *Service) ListArchivedInvoices(ctx context.Context) ([]domain.InvoiceRecord, error) {
	return s.repo.ListArchivedInvoices(ctx)
}

// UpdatePaymentStatus accepts any non-blank status. Statuses outside the
// well-known set are allowed but logged, matching how operators actually
// annotate invoices.
func (s *Service) UpdatePaymentStatus(ctx context.Context, req domain.StatusUpdateRequest) (domain.InvoiceRecord, error) {
	status := strings.TrimSpace(req.Status)
	if status == "" {
		return domain.InvoiceRecord{}, store.ErrInvalidInput
	}
	if !isKnownStatus(status) {
		log.Printf("[service] WARN: free-form payment status %q on invoice %d", status, req.InvoiceNumber)
	}

	updated, err := s.repo.UpdatePaymentStatus(ctx, req.InvoiceNumber, status)
	if err != nil {
		return domain.InvoiceRecord{}, err
	}
	return *updated, nil
}

func (s *Service) ArchiveInvoices(ctx context.Context) (domain.ArchiveResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.ArchiveResponse{}, fmt.Errorf("admin role required")
	}

	moved, err := s.repo.ArchiveInvoices(ctx)
	if err != nil {
		return domain.ArchiveResponse{}, err
	}
	s.bumpGeneration()
	return domain.ArchiveResponse{Archived: moved}, nil
}

func (s *Service) CreateCashier(ctx context.Context, req domain.CashierCreateRequest) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || len(req.Password) < 6 {
		return store.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.CreateUser(ctx, domain.UserAccount{
		Username: username,
		Password: string(hash),
		Role:     "cashier",
	})
}

func (s *Service) ListCashiers(ctx context.Context) ([]domain.CashierUser, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]domain.CashierUser, 0, len(users))
	for _, user := range users {
		result = append(result, domain.CashierUser{
			Username:  user.Username,
			Role:      user.Role,
			Active:    user.Active,
			CreatedAt: user.CreatedAt,
		})
	}
	return result, nil
}

func (s *Service) lowStockAlerts(ctx context.Context, lines []domain.CartLine) []domain.LowStockAlert {
	seen := map[string]struct{}{}
	var alerts []domain.LowStockAlert
	for _, line := range lines {
		if isCustomCode(line.Code) {
			continue
		}
		if _, dup := seen[line.Code]; dup {
			continue
		}
		seen[line.Code] = struct{}{}

		product, err := s.repo.GetProduct(ctx, line.Code)
		if err != nil {
			log.Printf("[service] WARN: low-stock check failed for %s: %v", line.Code, err)
			continue
		}
		if product.StockQty <= product.ReorderThreshold {
			alerts = append(alerts, domain.LowStockAlert{
				Code:     product.Code,
				Name:     product.Name,
				StockQty: product.StockQty,
			})
		}
	}
	return alerts
}

func (s *Service) remainingAwardedPoints(ctx context.Context, original *domain.InvoiceRecord) (int, error) {
	records, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return 0, err
	}
	deducted := 0
	for _, record := range records {
		if record.Kind == domain.InvoiceKindReturn && record.OriginalInvoiceNumber == original.InvoiceNumber {
			deducted += record.PointsAwarded
		}
	}
	remaining := original.PointsAwarded - deducted
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *Service) normalizeLines(ctx context.Context, lines []domain.CartLine) ([]domain.CartLine, error) {
	merged := make([]domain.CartLine, 0, len(lines))
	index := map[string]int{}

	for _, line := range lines {
		code := strings.TrimSpace(line.Code)
		if code == "" || line.Qty < 1 {
			return nil, store.ErrInvalidInput
		}

		var normalized domain.CartLine
		if isCustomCode(code) {
			name := strings.TrimSpace(line.Name)
			if name == "" || line.UnitPrice.IsNegative() || line.UnitPrice.IsZero() {
				return nil, store.ErrInvalidInput
			}
			normalized = pricing.Line(code, name, line.UnitPrice, line.Qty)
		} else {
			code = strings.ToUpper(code)
			product, err := s.repo.GetProduct(ctx, code)
			if err != nil {
				return nil, err
			}
			normalized = pricing.Line(product.Code, product.Name, product.UnitPrice, line.Qty)
		}

		if i, ok := index[code]; ok {
			qty := merged[i].Qty + normalized.Qty
			merged[i] = pricing.Line(merged[i].Code, merged[i].Name, merged[i].UnitPrice, qty)
			continue
		}
		index[code] = len(merged)
		merged = append(merged, normalized)
	}

	return merged, nil
}

func (s *Service) loyaltyEligible(ctx context.Context, customerID string) (bool, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return false, nil
	}
	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return false, err
	}
	return customer.LoyaltyPoints >= s.loyaltyThreshold, nil
}

// resolvePercents parses the two percent strings, remembering the last good
// values and falling back to them when an input does not parse.
func (s *Service) resolvePercents(rawDiscount, rawTax string) (decimal.Decimal, decimal.Decimal) {
	s.percentMu.Lock()
	defer s.percentMu.Unlock()

	discount := s.lastDiscount
	if raw := strings.TrimSpace(rawDiscount); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.IsNegative() || parsed.Cmp(decimal.NewFromInt(100)) > 0 {
			log.Printf("[service] WARN: discarding discount percent %q, keeping %s", raw, s.lastDiscount)
		} else {
			discount = parsed
			s.lastDiscount = parsed
		}
	} else {
		discount = decimal.Zero
		s.lastDiscount = decimal.Zero
	}

	tax := s.lastTax
	if raw := strings.TrimSpace(rawTax); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.IsNegative() {
			log.Printf("[service] WARN: discarding gst percent %q, keeping %s", raw, s.lastTax)
		} else {
			tax = parsed
			s.lastTax = parsed
		}
	} else {
		tax = s.defaultTax
		s.lastTax = s.defaultTax
	}

	return discount, tax
}

func (s *Service) bumpGeneration() {
	s.generation.Add(1)
}

// saleHadLoyaltyBonus detects whether the stored discount amount exceeds
// what the stored discount percent alone explains, which means the loyalty
// bonus was stacked on at sale time and must be honored by the refund.
func saleHadLoyaltyBonus(totals domain.PricedInvoice) bool {
	expected := totals.Subtotal.Percent(totals.DiscountPercent)
	return totals.DiscountAmount.Cmp(expected) > 0
}

// negateLines turns priced return lines into signed reversal lines, so a
// return record's item table reconciles with its negative totals block.
func negateLines(lines []domain.CartLine) []domain.CartLine {
	signed := make([]domain.CartLine, len(lines))
	for i, line := range lines {
		line.Qty = -line.Qty
		line.LineTotal = line.LineTotal.Neg()
		signed[i] = line
	}
	return signed
}

func negateTotals(t domain.PricedInvoice) domain.PricedInvoice {
	t.Subtotal = t.Subtotal.Neg()
	t.DiscountAmount = t.DiscountAmount.Neg()
	t.SubtotalAfterDiscount = t.SubtotalAfterDiscount.Neg()
	t.TaxTotal = t.TaxTotal.Neg()
	t.CGST = t.CGST.Neg()
	t.SGST = t.SGST.Neg()
	t.GrandTotal = t.GrandTotal.Neg()
	return t
}

func isKnownStatus(status string) bool {
	switch status {
	case domain.StatusPending, domain.StatusPaid, domain.StatusOverdue,
		domain.StatusRefunded, domain.StatusPartialRefunded:
		return true
	}
	return false
}

func isCustomCode(code string) bool {
	return xid.IsCustom(code)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
