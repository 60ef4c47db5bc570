package store

import (
	"context"
	"errors"

	"serenia/backend/internal/domain"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrInvalidInput          = errors.New("invalid input")
	ErrDuplicateInvoice      = errors.New("duplicate invoice number")
	ErrDuplicateCustomer     = errors.New("duplicate customer id")
	ErrReturnExceedsOriginal = errors.New("return exceeds original quantity")
	ErrNoItemsSelected       = errors.New("no items selected")
)

// Repository is the durable mirror for the catalog, the customer ledger and
// the append-only transaction ledger. CommitSale and CommitReturn are single
// atomic units: invoice number assignment, ledger append, stock mutation and
// loyalty adjustment either all apply or none do.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, code string) (*domain.Product, error)
	SaveProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, code string) error
	IncreaseStock(ctx context.Context, adjustments []domain.StockAdjustment) error

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	SaveCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)

	// CommitSale assigns the next invoice number when record.InvoiceNumber
	// is zero, appends the record, decrements stock for catalog-backed
	// lines and credits PointsAwarded to the customer, atomically.
	CommitSale(ctx context.Context, record domain.InvoiceRecord) (*domain.InvoiceRecord, error)

	// CommitReturn appends a reversal record, restocks the given
	// adjustments, deducts pointsDeducted from the customer (clamped at
	// zero) and flips the original invoice to partial_refunded, atomically.
	CommitReturn(ctx context.Context, record domain.InvoiceRecord, restock []domain.StockAdjustment, pointsDeducted int) (*domain.InvoiceRecord, error)

	GetInvoice(ctx context.Context, number int64) (*domain.InvoiceRecord, error)
	// ListInvoices returns a point-in-time snapshot of the live ledger;
	// appends running concurrently do not surface mid-scan. Order is not
	// guaranteed.
	ListInvoices(ctx context.Context) ([]domain.InvoiceRecord, error)
	ReturnedQtyByInvoice(ctx context.Context, number int64) (map[string]int, error)
	UpdatePaymentStatus(ctx context.Context, number int64, status string) (*domain.InvoiceRecord, error)

	// ArchiveInvoices moves every live record to the cold store and resets
	// numbering so the next committed invoice is number 1.
	ArchiveInvoices(ctx context.Context) (int, error)
	ListArchivedInvoices(ctx context.Context) ([]domain.InvoiceRecord, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
