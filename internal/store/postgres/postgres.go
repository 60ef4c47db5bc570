package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"serenia/backend/internal/domain"
	"serenia/backend/internal/money"
	"serenia/backend/internal/store"
)

// Store is the PostgreSQL-backed Repository. Monetary columns are NUMERIC
// and scanned through their decimal string form; invoice lines and totals
// are stored as JSONB documents. Invoice numbering lives in the invoice_seq
// row and is advanced inside the same transaction as the ledger insert, so
// numbers are gapless even under concurrent checkouts.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// ensureSchema creates the tables and seeds the numbering row on first run.
// Every statement is idempotent, so startup against an existing database
// changes nothing. Invoice numbers are only unique among live records;
// archived records keep their numbers while the sequence restarts at 1.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			code TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			unit_price NUMERIC(12,2) NOT NULL,
			unit_cost NUMERIC(12,2) NOT NULL,
			stock_qty INTEGER NOT NULL DEFAULT 0,
			reorder_threshold INTEGER NOT NULL DEFAULT 10,
			category TEXT NOT NULL DEFAULT 'General',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			loyalty_points INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS invoices (
			id BIGSERIAL PRIMARY KEY,
			invoice_number BIGINT NOT NULL,
			kind TEXT NOT NULL,
			date TIMESTAMPTZ NOT NULL,
			customer_id TEXT,
			customer_name TEXT NOT NULL DEFAULT '',
			customer_phone TEXT NOT NULL DEFAULT '',
			lines JSONB NOT NULL,
			totals JSONB NOT NULL,
			points_awarded INTEGER NOT NULL DEFAULT 0,
			payment_status TEXT NOT NULL,
			original_invoice BIGINT,
			archived BOOLEAN NOT NULL DEFAULT false,
			archived_at TIMESTAMPTZ
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS invoices_live_number
			ON invoices (invoice_number) WHERE archived = false`,
		`CREATE TABLE IF NOT EXISTS invoice_seq (
			id INTEGER PRIMARY KEY,
			last BIGINT NOT NULL DEFAULT 0
		)`,
		`INSERT INTO invoice_seq (id, last) VALUES (1, 0) ON CONFLICT (id) DO NOTHING`,
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'cashier',
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, unit_price::text, unit_cost::text, stock_qty, reorder_threshold, category
		FROM products
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, code string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT code, name, unit_price::text, unit_cost::text, stock_qty, reorder_threshold, category
		FROM products
		WHERE code = $1
	`, code)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) SaveProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (code, name, unit_price, unit_cost, stock_qty, reorder_threshold, category, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
		ON CONFLICT (code) DO UPDATE
		SET name = $2, unit_price = $3, unit_cost = $4, stock_qty = $5, reorder_threshold = $6, category = $7, updated_at = now()
	`, product.Code, product.Name, product.UnitPrice.String(), product.UnitCost.String(),
		product.StockQty, product.ReorderThreshold, product.Category)
	if err != nil {
		return nil, err
	}

	saved := product
	return &saved, nil
}

func (s *Store) DeleteProduct(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE code = $1`, code)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) IncreaseStock(ctx context.Context, adjustments []domain.StockAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, adj := range adjustments {
		if adj.Qty < 1 {
			continue
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET stock_qty = stock_qty + $2, updated_at = now() WHERE code = $1
		`, adj.Code, adj.Qty)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return store.ErrNotFound
		}
	}

	return tx.Commit()
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, loyalty_points
		FROM customers
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.LoyaltyPoints); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return customers, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, loyalty_points
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Phone, &c.LoyaltyPoints)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) SaveCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" || customer.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if customer.LoyaltyPoints < 0 {
		customer.LoyaltyPoints = 0
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, loyalty_points, created_at, updated_at)
		VALUES ($1,$2,$3,$4,now(),now())
		ON CONFLICT (id) DO UPDATE
		SET name = $2, phone = $3, loyalty_points = $4, updated_at = now()
	`, customer.ID, customer.Name, customer.Phone, customer.LoyaltyPoints)
	if err != nil {
		return nil, err
	}

	saved := customer
	return &saved, nil
}

func (s *Store) CommitSale(ctx context.Context, record domain.InvoiceRecord) (*domain.InvoiceRecord, error) {
	if len(record.Lines) == 0 {
		return nil, store.ErrInvalidInput
	}
	for _, line := range record.Lines {
		if line.Qty < 1 {
			return nil, store.ErrInvalidInput
		}
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

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	for _, line := range record.Lines {
		if isCustomCode(line.Code) {
			continue
		}
		res, err := pgTx.ExecContext(ctx, `
			UPDATE products
			SET stock_qty = stock_qty - $2, updated_at = now()
			WHERE code = $1 AND stock_qty >= $2
		`, line.Code, line.Qty)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			var exists bool
			if err := pgTx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE code = $1)`, line.Code).Scan(&exists); err != nil {
				return nil, err
			}
			if !exists {
				return nil, store.ErrNotFound
			}
			return nil, store.ErrInsufficientStock
		}
	}

	if record.CustomerID != "" && record.PointsAwarded > 0 {
		res, err := pgTx.ExecContext(ctx, `
			UPDATE customers SET loyalty_points = loyalty_points + $2, updated_at = now() WHERE id = $1
		`, record.CustomerID, record.PointsAwarded)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, store.ErrNotFound
		}
	}

	if record.InvoiceNumber == 0 {
		if err := pgTx.QueryRowContext(ctx, `
			UPDATE invoice_seq SET last = last + 1 WHERE id = 1 RETURNING last
		`).Scan(&record.InvoiceNumber); err != nil {
			return nil, err
		}
	}

	if err := insertInvoice(ctx, pgTx, record); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateInvoice
		}
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Store) CommitReturn(ctx context.Context, record domain.InvoiceRecord, restock []domain.StockAdjustment, pointsDeducted int) (*domain.InvoiceRecord, error) {
	if len(record.Lines) == 0 {
		return nil, store.ErrNoItemsSelected
	}
	if record.Date.IsZero() {
		record.Date = time.Now().UTC()
	}
	record.Kind = domain.InvoiceKindReturn
	if record.PaymentStatus == "" {
		record.PaymentStatus = domain.StatusRefunded
	}
	record.PointsAwarded = pointsDeducted

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	res, err := pgTx.ExecContext(ctx, `
		UPDATE invoices SET payment_status = $2 WHERE invoice_number = $1 AND archived = false
	`, record.OriginalInvoiceNumber, domain.StatusPartialRefunded)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	for _, adj := range restock {
		if adj.Qty < 1 {
			continue
		}
		res, err := pgTx.ExecContext(ctx, `
			UPDATE products SET stock_qty = stock_qty + $2, updated_at = now() WHERE code = $1
		`, adj.Code, adj.Qty)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, store.ErrNotFound
		}
	}

	if record.CustomerID != "" && pointsDeducted > 0 {
		_, err := pgTx.ExecContext(ctx, `
			UPDATE customers
			SET loyalty_points = GREATEST(loyalty_points - $2, 0), updated_at = now()
			WHERE id = $1
		`, record.CustomerID, pointsDeducted)
		if err != nil {
			return nil, err
		}
	}

	if err := pgTx.QueryRowContext(ctx, `
		UPDATE invoice_seq SET last = last + 1 WHERE id = 1 RETURNING last
	`).Scan(&record.InvoiceNumber); err != nil {
		return nil, err
	}

	if err := insertInvoice(ctx, pgTx, record); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateInvoice
		}
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Store) GetInvoice(ctx context.Context, number int64) (*domain.InvoiceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT invoice_number, kind, date, customer_id, customer_name, customer_phone,
		       lines, totals, points_awarded, payment_status, original_invoice
		FROM invoices
		WHERE invoice_number = $1 AND archived = false
	`, number)
	record, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *Store) ListInvoices(ctx context.Context) ([]domain.InvoiceRecord, error) {
	return s.listInvoices(ctx, false)
}

func (s *Store) ListArchivedInvoices(ctx context.Context) ([]domain.InvoiceRecord, error) {
	return s.listInvoices(ctx, true)
}

func (s *Store) listInvoices(ctx context.Context, archived bool) ([]domain.InvoiceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT invoice_number, kind, date, customer_id, customer_name, customer_phone,
		       lines, totals, points_awarded, payment_status, original_invoice
		FROM invoices
		WHERE archived = $1
		ORDER BY archived_at NULLS FIRST, invoice_number
	`, archived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.InvoiceRecord, 0, 128)
	for rows.Next() {
		record, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *Store) ReturnedQtyByInvoice(ctx context.Context, number int64) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lines
		FROM invoices
		WHERE kind = $1 AND original_invoice = $2 AND archived = false
	`, domain.InvoiceKindReturn, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var lines []domain.CartLine
		if err := json.Unmarshal(payload, &lines); err != nil {
			log.Printf("[postgres-store] WARN: undecodable lines payload for return of invoice %d: %v", number, err)
			continue
		}
		// Reversal lines are stored with negative quantities.
		for _, line := range lines {
			qty := line.Qty
			if qty < 0 {
				qty = -qty
			}
			result[line.Code] += qty
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, number int64, status string) (*domain.InvoiceRecord, error) {
	if strings.TrimSpace(status) == "" {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE invoices SET payment_status = $2 WHERE invoice_number = $1 AND archived = false
	`, number, status)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetInvoice(ctx, number)
}

// ArchiveInvoices flags every live record as archived and rewinds the
// numbering sequence, all in one transaction.
func (s *Store) ArchiveInvoices(ctx context.Context) (int, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, err
	}
	defer func() { _ = pgTx.Rollback() }()

	res, err := pgTx.ExecContext(ctx, `
		UPDATE invoices SET archived = true, archived_at = now() WHERE archived = false
	`)
	if err != nil {
		return 0, err
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := pgTx.ExecContext(ctx, `UPDATE invoice_seq SET last = 0 WHERE id = 1`); err != nil {
		return 0, err
	}

	if err := pgTx.Commit(); err != nil {
		return 0, err
	}
	return int(moved), nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,true,$4)
	`, username, user.Password, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var price, cost string
	if err := row.Scan(&p.Code, &p.Name, &price, &cost, &p.StockQty, &p.ReorderThreshold, &p.Category); err != nil {
		return domain.Product{}, err
	}
	var err error
	if p.UnitPrice, err = money.FromString(price); err != nil {
		return domain.Product{}, err
	}
	if p.UnitCost, err = money.FromString(cost); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func insertInvoice(ctx context.Context, pgTx *sql.Tx, record domain.InvoiceRecord) error {
	linesPayload, err := json.Marshal(record.Lines)
	if err != nil {
		return err
	}
	totalsPayload, err := json.Marshal(record.Totals)
	if err != nil {
		return err
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO invoices (invoice_number, kind, date, customer_id, customer_name, customer_phone,
		                      lines, totals, points_awarded, payment_status, original_invoice, archived)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,false)
	`, record.InvoiceNumber, record.Kind, record.Date, nullIfEmpty(record.CustomerID),
		record.CustomerName, record.CustomerPhone, linesPayload, totalsPayload,
		record.PointsAwarded, record.PaymentStatus, nullIfZero(record.OriginalInvoiceNumber))
	return err
}

func scanInvoice(row rowScanner) (domain.InvoiceRecord, error) {
	var record domain.InvoiceRecord
	var customerID sql.NullString
	var original sql.NullInt64
	var linesPayload, totalsPayload []byte

	if err := row.Scan(&record.InvoiceNumber, &record.Kind, &record.Date, &customerID,
		&record.CustomerName, &record.CustomerPhone, &linesPayload, &totalsPayload,
		&record.PointsAwarded, &record.PaymentStatus, &original); err != nil {
		return domain.InvoiceRecord{}, err
	}
	record.Date = record.Date.UTC()
	record.CustomerID = customerID.String
	record.OriginalInvoiceNumber = original.Int64
	if err := json.Unmarshal(linesPayload, &record.Lines); err != nil {
		return domain.InvoiceRecord{}, err
	}
	if err := json.Unmarshal(totalsPayload, &record.Totals); err != nil {
		return domain.InvoiceRecord{}, err
	}
	return record, nil
}

func isCustomCode(code string) bool {
	return strings.HasPrefix(code, "CUSTOM-")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullIfZero(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}
