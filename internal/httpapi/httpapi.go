package httpapi

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"serenia/backend/internal/domain"
	"serenia/backend/internal/render"
	"serenia/backend/internal/service"
	"serenia/backend/internal/store"
)

// API wires the billing service to HTTP routes.
type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
	csrfSecret    []byte
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string) *API {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		log.Fatalf("[httpapi] generate csrf secret: %v", err)
	}
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(10, time.Minute),
		csrfSecret:    secret,
	}
}

// csrfExemptPaths are safe to call without a CSRF token: login bootstraps the
// session and the token endpoint issues the token itself.
var csrfExemptPaths = map[string]bool{
	"/api/v1/auth/login":      true,
	"/api/v1/auth/csrf-token": true,
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)
	mux.HandleFunc("/api/v1/auth/csrf-token", a.handleCSRFToken)

	mux.HandleFunc("/api/v1/products", a.requireAuth(a.handleProducts, "cashier", "admin"))
	mux.HandleFunc("/api/v1/products/import", a.requireAuth(a.handleProductImport, "admin"))
	mux.HandleFunc("/api/v1/products/export", a.requireAuth(a.handleProductExport, "cashier", "admin"))
	mux.HandleFunc("/api/v1/products/", a.requireAuth(a.handleProductActions, "cashier", "admin"))

	mux.HandleFunc("/api/v1/customers", a.requireAuth(a.handleCustomers, "cashier", "admin"))
	mux.HandleFunc("/api/v1/customers/", a.requireAuth(a.handleCustomerActions, "cashier", "admin"))

	mux.HandleFunc("/api/v1/carts", a.requireAuth(a.handleCarts, "cashier", "admin"))
	mux.HandleFunc("/api/v1/carts/", a.requireAuth(a.handleCartActions, "cashier", "admin"))

	mux.HandleFunc("/api/v1/quote", a.requireAuth(a.handleQuote, "cashier", "admin"))
	mux.HandleFunc("/api/v1/checkout", a.requireAuth(a.handleCheckout, "cashier", "admin"))
	mux.HandleFunc("/api/v1/quick-sale", a.requireAuth(a.handleQuickSale, "cashier", "admin"))
	mux.HandleFunc("/api/v1/returns", a.requireAuth(a.handleReturns, "cashier", "admin"))

	mux.HandleFunc("/api/v1/invoices", a.requireAuth(a.handleInvoices, "cashier", "admin"))
	mux.HandleFunc("/api/v1/invoices/archive", a.requireAuth(a.handleArchive, "admin"))
	mux.HandleFunc("/api/v1/invoices/archived", a.requireAuth(a.handleArchivedInvoices, "admin"))
	mux.HandleFunc("/api/v1/invoices/", a.requireAuth(a.handleInvoiceActions, "cashier", "admin"))

	mux.HandleFunc("/api/v1/restock", a.requireAuth(a.handleRestock, "admin"))

	mux.HandleFunc("/api/v1/reports/profit", a.requireAuth(a.handleProfitReport, "admin"))
	mux.HandleFunc("/api/v1/reports/category-sales", a.requireAuth(a.handleCategorySalesReport, "admin"))
	mux.HandleFunc("/api/v1/reports/low-stock", a.requireAuth(a.handleLowStockReport, "admin"))
	mux.HandleFunc("/api/v1/reports/purchase-history/", a.requireAuth(a.handlePurchaseHistory, "cashier", "admin"))

	mux.HandleFunc("/api/v1/users/cashiers", a.requireAuth(a.handleCashiers, "admin"))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		actor, err := a.auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		allowed := false
		for _, role := range roles {
			if actor.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			writeError(w, http.StatusForbidden, "insufficient role")
			return
		}

		if !a.checkCSRF(w, r) {
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := a.auth.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"csrf_token": a.generateCSRFToken()})
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		products, err := a.service.ListProducts(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	case http.MethodPost:
		var req domain.ProductSaveRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		product, err := a.service.SaveProduct(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/api/v1/products/")
	if code == "" || strings.Contains(code, "/") {
		writeError(w, http.StatusNotFound, "unknown product path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := a.service.GetProduct(r.Context(), code)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	case http.MethodPut:
		var req domain.ProductSaveRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Code = code
		product, err := a.service.SaveProduct(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	case http.MethodDelete:
		if err := a.service.DeleteProduct(r.Context(), code); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleProductImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	report, err := a.service.ImportProducts(r.Context(), r.Body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleProductExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="products.csv"`)
	if err := a.service.ExportProducts(r.Context(), w); err != nil {
		log.Printf("[httpapi] export products: %v", err)
	}
}

func (a *API) handleCustomers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		customers, err := a.service.ListCustomers(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, customers)
	case http.MethodPost:
		var req domain.CustomerSaveRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		customer, err := a.service.CreateCustomer(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, customer)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCustomerActions(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/customers/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "unknown customer path")
		return
	}
	switch r.Method {
	case http.MethodGet:
		customer, err := a.service.GetCustomer(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, customer)
	case http.MethodPut:
		var req domain.CustomerSaveRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.ID = id
		customer, err := a.service.UpdateCustomer(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, customer)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCarts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	view, err := a.service.OpenCart(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (a *API) handleCartActions(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/carts/")
	parts := strings.SplitN(rest, "/", 3)
	cartID := parts[0]
	if cartID == "" {
		writeError(w, http.StatusNotFound, "unknown cart path")
		return
	}

	switch {
	case len(parts) == 1:
		a.handleCartRoot(w, r, cartID)
	case parts[1] == "lines":
		code := ""
		if len(parts) == 3 {
			code = parts[2]
		}
		a.handleCartLines(w, r, cartID, code)
	case parts[1] == "custom-lines" && len(parts) == 2:
		a.handleCartCustomLines(w, r, cartID)
	case parts[1] == "checkout" && len(parts) == 2:
		a.handleCartCheckout(w, r, cartID)
	default:
		writeError(w, http.StatusNotFound, "unknown cart path")
	}
}

func (a *API) handleCartRoot(w http.ResponseWriter, r *http.Request, cartID string) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		view, err := a.service.GetCart(r.Context(), cartID, q.Get("discount_percent"), q.Get("gst_percent"), q.Get("customer_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case http.MethodDelete:
		if err := a.service.DropCart(cartID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCartLines(w http.ResponseWriter, r *http.Request, cartID, code string) {
	switch {
	case code == "" && r.Method == http.MethodPost:
		var req domain.CartLineRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		view, err := a.service.AddCartLine(r.Context(), cartID, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case code == "" && r.Method == http.MethodDelete:
		view, err := a.service.ClearCart(r.Context(), cartID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case code != "" && r.Method == http.MethodPatch:
		var req domain.CartAdjustRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		view, err := a.service.AdjustCartLine(r.Context(), cartID, code, req.Delta)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case code != "" && r.Method == http.MethodDelete:
		view, err := a.service.RemoveCartLine(r.Context(), cartID, code)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCartCustomLines(w http.ResponseWriter, r *http.Request, cartID string) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.CartCustomLineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := a.service.AddCartCustomLine(r.Context(), cartID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleCartCheckout(w http.ResponseWriter, r *http.Request, cartID string) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.CartCheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := a.service.CheckoutCart(r.Context(), cartID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.QuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	totals, err := a.service.Quote(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := a.service.Checkout(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleQuickSale(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.QuickSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := a.service.QuickSale(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleReturns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.ReturnRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := a.service.ProcessReturn(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	records, err := a.service.ListInvoices(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *API) handleArchive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	resp, err := a.service.ArchiveInvoices(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleArchivedInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	records, err := a.service.ListArchivedInvoices(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleInvoiceActions serves /api/v1/invoices/{number} and the nested
// /status and /render resources.
func (a *API) handleInvoiceActions(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/invoices/")
	parts := strings.SplitN(rest, "/", 2)
	number, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || number < 1 {
		writeError(w, http.StatusBadRequest, "invalid invoice number")
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		record, err := a.service.GetInvoice(r.Context(), number)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	case "status":
		if r.Method != http.MethodPatch && r.Method != http.MethodPut {
			writeMethodNotAllowed(w)
			return
		}
		var req domain.StatusUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.InvoiceNumber = number
		record, err := a.service.UpdatePaymentStatus(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	case "render":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		a.renderInvoice(w, r, number)
	default:
		writeError(w, http.StatusNotFound, "unknown invoice path")
	}
}

func (a *API) renderInvoice(w http.ResponseWriter, r *http.Request, number int64) {
	record, err := a.service.GetInvoice(r.Context(), number)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render.InvoiceHTML(w, a.service.ShopName(), a.service.GSTNumber(), record); err != nil {
			log.Printf("[httpapi] render invoice %d: %v", number, err)
		}
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%d.csv"`, number))
		if err := render.InvoiceCSV(w, a.service.ShopName(), a.service.GSTNumber(), record); err != nil {
			log.Printf("[httpapi] render invoice %d: %v", number, err)
		}
	default:
		writeError(w, http.StatusBadRequest, "format must be html or csv")
	}
}

func (a *API) handleRestock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.RestockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.service.Restock(r.Context(), req); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restocked"})
}

func (a *API) handleProfitReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	report, err := a.service.ProfitReport(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if wantsCSV(r) {
		writeReportCSV(w, "profit.csv", func(out io.Writer) error {
			return render.ProfitReportCSV(out, report)
		})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleCategorySalesReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	report, err := a.service.CategorySalesReport(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if wantsCSV(r) {
		writeReportCSV(w, "category-sales.csv", func(out io.Writer) error {
			return render.CategorySalesCSV(out, report)
		})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleLowStockReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	report, err := a.service.LowStockReport(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if wantsCSV(r) {
		writeReportCSV(w, "low-stock.csv", func(out io.Writer) error {
			return render.LowStockCSV(out, report)
		})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handlePurchaseHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	customerID := strings.TrimPrefix(r.URL.Path, "/api/v1/reports/purchase-history/")
	if customerID == "" || strings.Contains(customerID, "/") {
		writeError(w, http.StatusNotFound, "unknown report path")
		return
	}
	report, err := a.service.PurchaseHistory(r.Context(), customerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if wantsCSV(r) {
		writeReportCSV(w, "purchase-history-"+customerID+".csv", func(out io.Writer) error {
			return render.PurchaseHistoryCSV(out, report)
		})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleCashiers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		users, err := a.service.ListCashiers(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	case http.MethodPost:
		var req domain.CashierCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.service.CreateCashier(r.Context(), req); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
	default:
		writeMethodNotAllowed(w)
	}
}

func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == "csv"
}

func writeReportCSV(w http.ResponseWriter, filename string, write func(io.Writer) error) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := write(w); err != nil {
		log.Printf("[httpapi] write %s: %v", filename, err)
	}
}

// CSRF tokens are an HMAC over the current hour bucket, so they expire on
// their own and need no server-side storage. The previous hour's token is
// still accepted to avoid failures right at the boundary.
func (a *API) csrfTokenForHour(hour int64) string {
	mac := hmac.New(sha256.New, a.csrfSecret)
	fmt.Fprintf(mac, "csrf:%d", hour)
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *API) generateCSRFToken() string {
	return a.csrfTokenForHour(time.Now().Unix() / 3600)
}

func (a *API) validateCSRFToken(token string) bool {
	if token == "" {
		return false
	}
	hour := time.Now().Unix() / 3600
	for _, candidate := range []string{a.csrfTokenForHour(hour), a.csrfTokenForHour(hour - 1)} {
		if hmac.Equal([]byte(token), []byte(candidate)) {
			return true
		}
	}
	return false
}

func (a *API) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	if csrfExemptPaths[r.URL.Path] {
		return true
	}
	if !a.validateCSRFToken(r.Header.Get("X-CSRF-Token")) {
		writeError(w, http.StatusForbidden, "missing or invalid CSRF token")
		return false
	}
	return true
}

// attemptLimiter is a fixed-window rate limiter keyed by client address.
type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string]attemptEntry
}

type attemptEntry struct {
	count       int
	windowStart time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	return &attemptLimiter{
		max:     max,
		window:  window,
		entries: make(map[string]attemptEntry),
	}
}

func (l *attemptLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.entries[key]
	if !ok || now.Sub(entry.windowStart) > l.window {
		l.entries[key] = attemptEntry{count: 1, windowStart: now}
		return true
	}
	if entry.count >= l.max {
		return false
	}
	entry.count++
	l.entries[key] = entry
	return true
}

func clientKey(r *http.Request) string {
	addrPort, err := netip.ParseAddrPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return addrPort.Addr().String()
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")

		if a.allowedOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-CSRF-Token")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[httpapi] %s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}

// writeServiceError maps service and store errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, store.ErrReturnExceedsOriginal),
		errors.Is(err, store.ErrDuplicateInvoice),
		errors.Is(err, store.ErrDuplicateCustomer):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInvalidInput), errors.Is(err, store.ErrNoItemsSelected):
		writeError(w, http.StatusBadRequest, err.Error())
	case strings.Contains(err.Error(), "admin role required"):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	if status >= 500 {
		log.Printf("[httpapi] ERROR %d: %s", status, message)
		message = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[httpapi] encode response: %v", err)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
