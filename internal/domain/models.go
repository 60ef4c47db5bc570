package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"serenia/backend/internal/money"
)

type Product struct {
	Code             string      `json:"code"`
	Name             string      `json:"name"`
	UnitPrice        money.Money `json:"unit_price"`
	UnitCost         money.Money `json:"unit_cost"`
	StockQty         int         `json:"stock_qty"`
	ReorderThreshold int         `json:"reorder_threshold"`
	Category         string      `json:"category"`
}

type ProductSaveRequest struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	UnitPrice        string `json:"unit_price"`
	UnitCost         string `json:"unit_cost"`
	StockQty         int    `json:"stock_qty"`
	ReorderThreshold int    `json:"reorder_threshold"`
	Category         string `json:"category"`
}

type Customer struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	LoyaltyPoints int    `json:"loyalty_points"`
}

type CustomerSaveRequest struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CartLine is a single cart entry. Code may be a synthetic custom-item code
// (prefix "CUSTOM-") that is not backed by any catalog product; such lines
// are exempt from stock tracking.
type CartLine struct {
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	UnitPrice money.Money `json:"unit_price"`
	Qty       int         `json:"qty"`
	LineTotal money.Money `json:"line_total"`
}

// PricedInvoice is the deterministic monetary breakdown of a cart. It is
// recomputed on every cart edit and only persisted as part of an
// InvoiceRecord.
type PricedInvoice struct {
	Subtotal              money.Money     `json:"subtotal"`
	DiscountPercent       decimal.Decimal `json:"discount_percent"`
	DiscountAmount        money.Money     `json:"discount_amount"`
	SubtotalAfterDiscount money.Money     `json:"subtotal_after_discount"`
	TaxPercent            decimal.Decimal `json:"gst_percent"`
	TaxTotal              money.Money     `json:"gst_total"`
	CGST                  money.Money     `json:"cgst"`
	SGST                  money.Money     `json:"sgst"`
	GrandTotal            money.Money     `json:"grand_total"`
	TotalItemCount        int             `json:"total_item_count"`
}

const (
	InvoiceKindSale   = "sale"
	InvoiceKindReturn = "return"
)

const (
	StatusPending         = "pending"
	StatusPaid            = "paid"
	StatusOverdue         = "overdue"
	StatusRefunded        = "refunded"
	StatusPartialRefunded = "partial_refunded"
)

// InvoiceRecord is the persisted form of a committed transaction. It is
// write-once except for PaymentStatus, the single field the status-update
// operation may change after commit.
type InvoiceRecord struct {
	InvoiceNumber         int64         `json:"invoice_number"`
	Kind                  string        `json:"kind"`
	Date                  time.Time     `json:"date"`
	CustomerID            string        `json:"customer_id,omitempty"`
	CustomerName          string        `json:"customer_name"`
	CustomerPhone         string        `json:"customer_phone,omitempty"`
	Lines                 []CartLine    `json:"lines"`
	Totals                PricedInvoice `json:"totals"`
	PointsAwarded         int           `json:"points_awarded"`
	PaymentStatus         string        `json:"payment_status"`
	OriginalInvoiceNumber int64         `json:"original_invoice_number,omitempty"`
}

type QuoteRequest struct {
	Lines           []CartLine `json:"lines"`
	DiscountPercent string     `json:"discount_percent"`
	TaxPercent      string     `json:"gst_percent"`
	CustomerID      string     `json:"customer_id,omitempty"`
}

type CheckoutRequest struct {
	CustomerID      string     `json:"customer_id,omitempty"`
	DiscountPercent string     `json:"discount_percent"`
	TaxPercent      string     `json:"gst_percent"`
	Lines           []CartLine `json:"lines"`
}

type LowStockAlert struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	StockQty int    `json:"stock_qty"`
}

type CheckoutResponse struct {
	Invoice  InvoiceRecord   `json:"invoice"`
	LowStock []LowStockAlert `json:"low_stock,omitempty"`
}

type QuickSaleRequest struct {
	Code string `json:"code"`
	Qty  int    `json:"qty"`
}

type CartLineRequest struct {
	Code string `json:"code"`
	Qty  int    `json:"qty"`
}

type CartCustomLineRequest struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Qty       int    `json:"qty"`
}

type CartAdjustRequest struct {
	Delta int `json:"delta"`
}

type CartCheckoutRequest struct {
	CustomerID      string `json:"customer_id,omitempty"`
	DiscountPercent string `json:"discount_percent"`
	TaxPercent      string `json:"gst_percent"`
}

// CartView is a snapshot of a held cart with totals re-priced against the
// current percent inputs.
type CartView struct {
	ID     string        `json:"id"`
	Lines  []CartLine    `json:"lines"`
	Totals PricedInvoice `json:"totals"`
}

type ReturnRequest struct {
	OriginalInvoiceNumber int64          `json:"original_invoice_number"`
	Quantities            map[string]int `json:"quantities"`
}

type ReturnResponse struct {
	Invoice        InvoiceRecord `json:"invoice"`
	PointsDeducted int           `json:"points_deducted"`
}

type StatusUpdateRequest struct {
	InvoiceNumber int64  `json:"invoice_number"`
	Status        string `json:"status"`
}

type RestockItem struct {
	Code string `json:"code"`
	Qty  int    `json:"qty"`
}

type RestockRequest struct {
	Items []RestockItem `json:"items"`
}

type StockAdjustment struct {
	Code string `json:"code"`
	Qty  int    `json:"qty"`
}

type ArchiveResponse struct {
	Archived int `json:"archived"`
}

type ItemSales struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	UnitsSold int    `json:"units_sold"`
}

type ProfitReport struct {
	TotalSales    money.Money `json:"total_sales"`
	TotalCost     money.Money `json:"total_cost"`
	Profit        money.Money `json:"profit"`
	TopSellerCode string      `json:"top_seller_code"`
	TopSellerName string      `json:"top_seller_name"`
	ItemSales     []ItemSales `json:"item_sales"`
}

type CategorySales struct {
	Category   string      `json:"category"`
	TotalSales money.Money `json:"total_sales"`
	UnitsSold  int         `json:"units_sold"`
}

type CategorySalesReport struct {
	Categories []CategorySales `json:"categories"`
}

type PurchaseHistoryEntry struct {
	InvoiceNumber int64       `json:"invoice_number"`
	Date          time.Time   `json:"date"`
	Kind          string      `json:"kind"`
	GrandTotal    money.Money `json:"grand_total"`
}

type PurchaseHistoryReport struct {
	CustomerID string                 `json:"customer_id"`
	Entries    []PurchaseHistoryEntry `json:"entries"`
}

type LowStockReport struct {
	Items []Product `json:"items"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
