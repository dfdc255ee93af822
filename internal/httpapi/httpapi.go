package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"gudangku/backend/internal/domain"
	"gudangku/backend/internal/ledger"
	"gudangku/backend/internal/report"
	"gudangku/backend/internal/xid"
)

type API struct {
	ledger        *ledger.Ledger
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
}

func New(ldg *ledger.Ledger, auth *AuthManager, allowedOrigin string) *API {
	return &API{
		ledger:        ldg,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)

	mux.HandleFunc("/api/v1/state", a.requireAuth(a.handleState, domain.RoleEmployee, domain.RoleDealer))

	mux.HandleFunc("/api/v1/employees", a.requireAuth(a.handleEmployees, domain.RoleEmployee, domain.RoleDealer))
	mux.HandleFunc("/api/v1/employees/", a.requireAuth(a.handleEmployeeActions, domain.RoleEmployee))
	mux.HandleFunc("/api/v1/dealers", a.requireAuth(a.handleDealers, domain.RoleEmployee, domain.RoleDealer))
	mux.HandleFunc("/api/v1/dealers/", a.requireAuth(a.handleDealerActions, domain.RoleEmployee))
	mux.HandleFunc("/api/v1/vendors", a.requireAuth(a.handleVendors, domain.RoleEmployee, domain.RoleDealer))
	mux.HandleFunc("/api/v1/vendors/", a.requireAuth(a.handleVendorActions, domain.RoleEmployee))
	mux.HandleFunc("/api/v1/shelf-locations", a.requireAuth(a.handleShelfLocations, domain.RoleEmployee, domain.RoleDealer))
	mux.HandleFunc("/api/v1/shelf-locations/", a.requireAuth(a.handleShelfLocationActions, domain.RoleEmployee))
	mux.HandleFunc("/api/v1/devices", a.requireAuth(a.handleDevices, domain.RoleEmployee, domain.RoleDealer))
	mux.HandleFunc("/api/v1/devices/", a.requireAuth(a.handleDeviceActions, domain.RoleEmployee))
	mux.HandleFunc("/api/v1/products", a.requireAuth(a.handleProducts, domain.RoleEmployee, domain.RoleDealer))
	mux.HandleFunc("/api/v1/products/", a.requireAuth(a.handleProductActions, domain.RoleEmployee))

	mux.HandleFunc("/api/v1/sales", a.requireAuth(a.handleSales, domain.RoleEmployee))
	mux.HandleFunc("/api/v1/sales/", a.requireAuth(a.handleSaleActions, domain.RoleEmployee))
	mux.HandleFunc("/api/v1/bulk-deliveries", a.requireAuth(a.handleBulkDeliveries, domain.RoleEmployee))
	mux.HandleFunc("/api/v1/bulk-deliveries/", a.requireAuth(a.handleBulkDeliveryActions, domain.RoleEmployee))
	mux.HandleFunc("/api/v1/bulk-breakings", a.requireAuth(a.handleBulkBreakings, domain.RoleEmployee))
	mux.HandleFunc("/api/v1/movements", a.requireAuth(a.handleMovements, domain.RoleEmployee))
	mux.HandleFunc("/api/v1/receipts", a.requireAuth(a.handleReceipts, domain.RoleEmployee))
	mux.HandleFunc("/api/v1/payments", a.requireAuth(a.handlePayments, domain.RoleEmployee))

	mux.HandleFunc("/api/v1/reports/monthly-sales", a.requireAuth(a.handleMonthlySales, domain.RoleEmployee, domain.RoleDealer))
	mux.HandleFunc("/api/v1/reports/dealer-sales", a.requireAuth(a.handleDealerSales, domain.RoleEmployee, domain.RoleDealer))
	mux.HandleFunc("/api/v1/reports/product-profit", a.requireAuth(a.handleProductProfit, domain.RoleEmployee))
	mux.HandleFunc("/api/v1/reports/vendor-purchases", a.requireAuth(a.handleVendorPurchases, domain.RoleEmployee))
	mux.HandleFunc("/api/v1/reports/employee-activity", a.requireAuth(a.handleEmployeeActivity, domain.RoleEmployee))
	mux.HandleFunc("/api/v1/reports/valuation", a.requireAuth(a.handleValuation, domain.RoleEmployee))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r.WithContext(WithActor(r.Context(), actor)))
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

// requireEmployee guards the mutating arm of mixed-method collection
// handlers; dealers can list but never write.
func requireEmployee(w http.ResponseWriter, r *http.Request) bool {
	actor, ok := ActorFromContext(r.Context())
	if !ok || actor.Role != domain.RoleEmployee {
		writeError(w, http.StatusForbidden, errors.New("forbidden role"))
		return false
	}
	return true
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, redactState(a.ledger.Snapshot()))
}

// redactState blanks credentials on a snapshot copy before it leaves the
// API. The ledger keeps the real values; only responses are scrubbed.
func redactState(state *domain.AppState) *domain.AppState {
	for i := range state.Employees {
		state.Employees[i].Passcode = ""
	}
	for i := range state.Dealers {
		state.Dealers[i].Passcode = ""
	}
	return state
}

func redactEmployee(employee domain.Employee) domain.Employee {
	employee.Passcode = ""
	return employee
}

func redactDealer(dealer domain.Dealer) domain.Dealer {
	dealer.Passcode = ""
	return dealer
}

func (a *API) handleEmployees(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"employees": redactState(a.ledger.Snapshot()).Employees})
	case http.MethodPost:
		if !requireEmployee(w, r) {
			return
		}
		var employee domain.Employee
		if err := decodeJSON(r, &employee); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		hashed, err := ensureHashedPasscode(employee.Passcode)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		employee.Passcode = hashed
		if err := a.ledger.AddEmployee(r.Context(), employee); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"employee": redactEmployee(employee)})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleEmployeeActions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathKey(w, r, "/api/v1/employees/", "employee id required")
	if !ok {
		return
	}

	var employee domain.Employee
	if err := decodeJSON(r, &employee); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	hashed, err := ensureHashedPasscode(employee.Passcode)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	employee.Passcode = hashed
	if err := a.ledger.UpdateEmployee(r.Context(), id, employee); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employee": redactEmployee(employee)})
}

func (a *API) handleDealers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"dealers": redactState(a.ledger.Snapshot()).Dealers})
	case http.MethodPost:
		if !requireEmployee(w, r) {
			return
		}
		var dealer domain.Dealer
		if err := decodeJSON(r, &dealer); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		hashed, err := ensureHashedPasscode(dealer.Passcode)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		dealer.Passcode = hashed
		if err := a.ledger.AddDealer(r.Context(), dealer); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"dealer": redactDealer(dealer)})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleDealerActions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathKey(w, r, "/api/v1/dealers/", "dealer id required")
	if !ok {
		return
	}

	var dealer domain.Dealer
	if err := decodeJSON(r, &dealer); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	hashed, err := ensureHashedPasscode(dealer.Passcode)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	dealer.Passcode = hashed
	if err := a.ledger.UpdateDealer(r.Context(), id, dealer); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dealer": redactDealer(dealer)})
}

func (a *API) handleVendors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"vendors": a.ledger.Snapshot().Vendors})
	case http.MethodPost:
		if !requireEmployee(w, r) {
			return
		}
		var vendor domain.Vendor
		if err := decodeJSON(r, &vendor); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := a.ledger.AddVendor(r.Context(), vendor); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"vendor": vendor})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleVendorActions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathKey(w, r, "/api/v1/vendors/", "vendor id required")
	if !ok {
		return
	}

	var vendor domain.Vendor
	if err := decodeJSON(r, &vendor); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.ledger.UpdateVendor(r.Context(), id, vendor); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vendor": vendor})
}

func (a *API) handleShelfLocations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"shelfLocations": a.ledger.Snapshot().ShelfLocations})
	case http.MethodPost:
		if !requireEmployee(w, r) {
			return
		}
		var location domain.ShelfLocation
		if err := decodeJSON(r, &location); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := a.ledger.AddShelfLocation(r.Context(), location); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"shelfLocation": location})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleShelfLocationActions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathKey(w, r, "/api/v1/shelf-locations/", "shelf location id required")
	if !ok {
		return
	}

	var location domain.ShelfLocation
	if err := decodeJSON(r, &location); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.ledger.UpdateShelfLocation(r.Context(), id, location); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shelfLocation": location})
}

func (a *API) handleDevices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"devices": a.ledger.Snapshot().Devices})
	case http.MethodPost:
		if !requireEmployee(w, r) {
			return
		}
		var device domain.Device
		if err := decodeJSON(r, &device); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := a.ledger.AddDevice(r.Context(), device); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"device": device})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleDeviceActions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathKey(w, r, "/api/v1/devices/", "device id required")
	if !ok {
		return
	}

	var device domain.Device
	if err := decodeJSON(r, &device); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.ledger.UpdateDevice(r.Context(), id, device); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"device": device})
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"products": a.ledger.Snapshot().Products})
	case http.MethodPost:
		if !requireEmployee(w, r) {
			return
		}
		var product domain.Product
		if err := decodeJSON(r, &product); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := a.ledger.AddProduct(r.Context(), product); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"product": product})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	sku, ok := pathKey(w, r, "/api/v1/products/", "product sku required")
	if !ok {
		return
	}

	var product domain.Product
	if err := decodeJSON(r, &product); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.ledger.UpdateProduct(r.Context(), sku, product); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (a *API) handleSales(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"sales": a.ledger.Snapshot().SaleTransactions})
	case http.MethodPost:
		var sale domain.SaleTransaction
		if err := decodeJSON(r, &sale); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if strings.TrimSpace(sale.ID) == "" {
			sale.ID = xid.New("sale")
		}
		if err := a.ledger.RecordSale(r.Context(), sale); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"sale": sale})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSaleActions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathKey(w, r, "/api/v1/sales/", "sale id required")
	if !ok {
		return
	}

	var sale domain.SaleTransaction
	if err := decodeJSON(r, &sale); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(sale.ID) == "" {
		sale.ID = id
	}
	if err := a.ledger.ReviseSale(r.Context(), id, sale); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
}

func (a *API) handleBulkDeliveries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"bulkDeliveries": a.ledger.Snapshot().BulkDeliveries})
	case http.MethodPost:
		var delivery domain.BulkDelivery
		if err := decodeJSON(r, &delivery); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if strings.TrimSpace(delivery.ID) == "" {
			delivery.ID = xid.New("bulkdel")
		}
		if err := a.ledger.RecordBulkDelivery(r.Context(), delivery); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"bulkDelivery": delivery})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleBulkDeliveryActions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathKey(w, r, "/api/v1/bulk-deliveries/", "bulk delivery id required")
	if !ok {
		return
	}

	var delivery domain.BulkDelivery
	if err := decodeJSON(r, &delivery); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(delivery.ID) == "" {
		delivery.ID = id
	}
	if err := a.ledger.ReviseBulkDelivery(r.Context(), id, delivery); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bulkDelivery": delivery})
}

func (a *API) handleBulkBreakings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"bulkBreakings": a.ledger.Snapshot().BulkBreakings})
	case http.MethodPost:
		var breaking domain.BulkBreaking
		if err := decodeJSON(r, &breaking); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if strings.TrimSpace(breaking.ID) == "" {
			breaking.ID = xid.New("break")
		}
		if err := a.ledger.RecordBulkBreaking(r.Context(), breaking); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"bulkBreaking": breaking})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleMovements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"movements": a.ledger.Snapshot().InventoryMovements})
	case http.MethodPost:
		var movement domain.InventoryMovement
		if err := decodeJSON(r, &movement); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if strings.TrimSpace(movement.ID) == "" {
			movement.ID = xid.New("move")
		}
		if err := a.ledger.RecordMovement(r.Context(), movement); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"movement": movement})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleReceipts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"receipts": a.ledger.Snapshot().ProductReceipts})
	case http.MethodPost:
		var receipt domain.ProductReceipt
		if err := decodeJSON(r, &receipt); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if strings.TrimSpace(receipt.ID) == "" {
			receipt.ID = xid.New("rcpt")
		}
		if err := a.ledger.RecordReceipt(r.Context(), receipt); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"receipt": receipt})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handlePayments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"payments": a.ledger.Snapshot().EmployeePayments})
	case http.MethodPost:
		var payment domain.EmployeePayment
		if err := decodeJSON(r, &payment); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if strings.TrimSpace(payment.ID) == "" {
			payment.ID = xid.New("pay")
		}
		if err := a.ledger.AddEmployeePayment(r.Context(), payment); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"payment": payment})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleMonthlySales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": report.MonthlySales(a.ledger.Snapshot())})
}

func (a *API) handleDealerSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dealers": report.DealerSalesRanking(a.ledger.Snapshot())})
}

func (a *API) handleProductProfit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": report.ProductProfits(a.ledger.Snapshot())})
}

func (a *API) handleVendorPurchases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vendors": report.VendorBulkPurchases(a.ledger.Snapshot())})
}

func (a *API) handleEmployeeActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": report.EmployeeActivities(a.ledger.Snapshot())})
}

func (a *API) handleValuation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": report.InventoryValuation(a.ledger.Snapshot())})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

// pathKey extracts the trailing key from an action path and enforces the
// PUT-only method contract shared by every catalog and revision endpoint.
func pathKey(w http.ResponseWriter, r *http.Request, prefix string, missing string) (string, bool) {
	if r.Method != http.MethodPut {
		writeMethodNotAllowed(w)
		return "", false
	}
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeError(w, http.StatusBadRequest, errors.New("invalid path"))
		return "", false
	}
	key := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	if key == "" {
		writeError(w, http.StatusBadRequest, errors.New(missing))
		return "", false
	}
	return key, true
}

func writeLedgerError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateKey):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidRecord):
		status = http.StatusBadRequest
	}
	writeError(w, status, err)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
