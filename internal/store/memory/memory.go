package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"serenia/backend/internal/csvio"
	"serenia/backend/internal/domain"
	"serenia/backend/internal/store"
	"serenia/backend/internal/xid"
)

// Store keeps the catalog, customers and the transaction ledger behind a
// single mutex so multi-step commits stay atomic. Numbering is a plain
// counter guarded by the same mutex; archiving resets it to zero.
type Store struct {
	mu               sync.RWMutex
	products         map[string]domain.Product
	customers        map[string]domain.Customer
	invoicesByNumber map[int64]*domain.InvoiceRecord
	archived         []domain.InvoiceRecord
	lastInvoiceNum   int64
	usersByUsername  map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; if
// unset, hardcoded dev defaults are used with a warning. These credentials
// are never used in production (the backend uses PostgreSQL when
// DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewSeeded returns a store preloaded with the sample catalog and customer.
func NewSeeded() *Store {
	return NewWithData(csvio.SeedProducts(), csvio.SeedCustomers())
}

// NewWithData returns a store preloaded with the given catalog and customer
// rows, typically loaded from the CSV files.
func NewWithData(products []domain.Product, customers []domain.Customer) *Store {
	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productMap[p.Code] = p
	}
	customerMap := make(map[string]domain.Customer, len(customers))
	for _, c := range customers {
		customerMap[c.ID] = c
	}
	return &Store{
		products:         productMap,
		customers:        customerMap,
		invoicesByNumber: make(map[int64]*domain.InvoiceRecord),
		archived:         make([]domain.InvoiceRecord, 0, 64),
		usersByUsername:  seedUsers(),
	}
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return cmpString(a.Code, b.Code)
	})
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, code string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[code]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) SaveProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Code == "" || product.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if product.StockQty < 0 || product.ReorderThreshold < 0 {
		return nil, store.ErrInvalidInput
	}
	if product.UnitPrice.IsNegative() || product.UnitCost.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	if product.Category == "" {
		product.Category = "General"
	}

	s.products[product.Code] = product
	saved := product
	return &saved, nil
}

func (s *Store) DeleteProduct(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[code]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, code)
	return nil
}

func (s *Store) IncreaseStock(_ context.Context, adjustments []domain.StockAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, adj := range adjustments {
		if adj.Qty < 1 {
			continue
		}
		product, exists := s.products[adj.Code]
		if !exists {
			return store.ErrNotFound
		}
		product.StockQty += adj.Qty
		s.products[adj.Code] = product
	}
	return nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return cmpString(a.ID, b.ID)
	})
	return customers, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCustomer := customer
	return &copyCustomer, nil
}

func (s *Store) SaveCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ID == "" || customer.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if customer.LoyaltyPoints < 0 {
		customer.LoyaltyPoints = 0
	}

	s.customers[customer.ID] = customer
	saved := customer
	return &saved, nil
}

func (s *Store) CommitSale(_ context.Context, record domain.InvoiceRecord) (*domain.InvoiceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(record.Lines) == 0 {
		return nil, store.ErrInvalidInput
	}
	if record.InvoiceNumber != 0 {
		if _, exists := s.invoicesByNumber[record.InvoiceNumber]; exists {
			return nil, store.ErrDuplicateInvoice
		}
	}

	// Validate every stock decrement before touching anything so a failed
	// line leaves the catalog and ledger unchanged.
	deductions := map[string]int{}
	for _, line := range record.Lines {
		if line.Qty < 1 {
			return nil, store.ErrInvalidInput
		}
		if isCustomCode(line.Code) {
			continue
		}
		product, exists := s.products[line.Code]
		if !exists {
			return nil, store.ErrNotFound
		}
		deductions[line.Code] += line.Qty
		if deductions[line.Code] > product.StockQty {
			return nil, store.ErrInsufficientStock
		}
	}
	if record.CustomerID != "" {
		if _, exists := s.customers[record.CustomerID]; !exists {
			return nil, store.ErrNotFound
		}
	}

	if record.InvoiceNumber == 0 {
		s.lastInvoiceNum++
		record.InvoiceNumber = s.lastInvoiceNum
	} else if record.InvoiceNumber > s.lastInvoiceNum {
		s.lastInvoiceNum = record.InvoiceNumber
	}
	if record.Date.IsZero() {
		record.Date = time.Now().UTC()
	}
	if record.Kind == "" {
		record.Kind = domain.InvoiceKindSale
	}
	if record.PaymentStatus == "" {
		record.PaymentStatus = domain.StatusPending
	}

	for code, qty := range deductions {
		product := s.products[code]
		product.StockQty -= qty
		s.products[code] = product
	}
	if record.CustomerID != "" && record.PointsAwarded > 0 {
		customer := s.customers[record.CustomerID]
		customer.LoyaltyPoints += record.PointsAwarded
		s.customers[record.CustomerID] = customer
	}

	saved := cloneRecord(&record)
	s.invoicesByNumber[record.InvoiceNumber] = saved
	return cloneRecord(saved), nil
}

func (s *Store) CommitReturn(_ context.Context, record domain.InvoiceRecord, restock []domain.StockAdjustment, pointsDeducted int) (*domain.InvoiceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(record.Lines) == 0 {
		return nil, store.ErrNoItemsSelected
	}
	original, exists := s.invoicesByNumber[record.OriginalInvoiceNumber]
	if !exists {
		return nil, store.ErrNotFound
	}
	for _, adj := range restock {
		if adj.Qty < 1 {
			continue
		}
		if _, exists := s.products[adj.Code]; !exists {
			return nil, store.ErrNotFound
		}
	}

	s.lastInvoiceNum++
	record.InvoiceNumber = s.lastInvoiceNum
	if record.Date.IsZero() {
		record.Date = time.Now().UTC()
	}
	record.Kind = domain.InvoiceKindReturn
	if record.PaymentStatus == "" {
		record.PaymentStatus = domain.StatusRefunded
	}
	record.PointsAwarded = pointsDeducted

	for _, adj := range restock {
		if adj.Qty < 1 {
			continue
		}
		product := s.products[adj.Code]
		product.StockQty += adj.Qty
		s.products[adj.Code] = product
	}
	if record.CustomerID != "" && pointsDeducted > 0 {
		if customer, ok := s.customers[record.CustomerID]; ok {
			customer.LoyaltyPoints -= pointsDeducted
			if customer.LoyaltyPoints < 0 {
				log.Printf("[memory-store] WARN: loyalty balance for %s went below zero on return %d, clamping", record.CustomerID, record.InvoiceNumber)
				customer.LoyaltyPoints = 0
			}
			s.customers[record.CustomerID] = customer
		}
	}

	original.PaymentStatus = domain.StatusPartialRefunded

	saved := cloneRecord(&record)
	s.invoicesByNumber[record.InvoiceNumber] = saved
	return cloneRecord(saved), nil
}

func (s *Store) GetInvoice(_ context.Context, number int64) (*domain.InvoiceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.invoicesByNumber[number]
	if !exists {
		return nil, store.ErrNotFound
	}
	return cloneRecord(record), nil
}

func (s *Store) ListInvoices(_ context.Context) ([]domain.InvoiceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.InvoiceRecord, 0, len(s.invoicesByNumber))
	for _, record := range s.invoicesByNumber {
		records = append(records, *cloneRecord(record))
	}
	slices.SortFunc(records, func(a, b domain.InvoiceRecord) int {
		if a.InvoiceNumber < b.InvoiceNumber {
			return -1
		}
		if a.InvoiceNumber > b.InvoiceNumber {
			return 1
		}
		return 0
	})
	return records, nil
}

func (s *Store) ReturnedQtyByInvoice(_ context.Context, number int64) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]int)
	for _, record := range s.invoicesByNumber {
		if record.Kind != domain.InvoiceKindReturn || record.OriginalInvoiceNumber != number {
			continue
		}
		// Reversal lines are stored with negative quantities.
		for _, line := range record.Lines {
			qty := line.Qty
			if qty < 0 {
				qty = -qty
			}
			result[line.Code] += qty
		}
	}
	return result, nil
}

func (s *Store) UpdatePaymentStatus(_ context.Context, number int64, status string) (*domain.InvoiceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(status) == "" {
		return nil, store.ErrInvalidInput
	}
	record, exists := s.invoicesByNumber[number]
	if !exists {
		return nil, store.ErrNotFound
	}
	record.PaymentStatus = status
	return cloneRecord(record), nil
}

func (s *Store) ArchiveInvoices(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	moved := 0
	numbers := make([]int64, 0, len(s.invoicesByNumber))
	for number := range s.invoicesByNumber {
		numbers = append(numbers, number)
	}
	slices.Sort(numbers)
	for _, number := range numbers {
		s.archived = append(s.archived, *cloneRecord(s.invoicesByNumber[number]))
		moved++
	}
	s.invoicesByNumber = make(map[int64]*domain.InvoiceRecord)
	s.lastInvoiceNum = 0
	return moved, nil
}

func (s *Store) ListArchivedInvoices(_ context.Context) ([]domain.InvoiceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.InvoiceRecord, len(s.archived))
	for i := range s.archived {
		records[i] = *cloneRecord(&s.archived[i])
	}
	return records, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidInput
	}
	user.Username = username
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func isCustomCode(code string) bool {
	return xid.IsCustom(code)
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneRecord(src *domain.InvoiceRecord) *domain.InvoiceRecord {
	if src == nil {
		return nil
	}
	dup := *src
	lines := make([]domain.CartLine, len(src.Lines))
	copy(lines, src.Lines)
	dup.Lines = lines
	return &dup
}
