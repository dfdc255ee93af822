package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gudangku/backend/internal/domain"
	"gudangku/backend/internal/ledger"
	"gudangku/backend/internal/snapshot/memory"
)

// newTestAPI builds a full API over an in-memory slot with a real ledger and
// AuthManager so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	ctx := context.Background()
	ldg, err := ledger.Open(ctx, memory.New(), "test-slot")
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	if err := ldg.AddEmployee(ctx, domain.Employee{ID: "emp-1", Name: "Asep", Passcode: "rahasia1"}); err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	if err := ldg.AddDealer(ctx, domain.Dealer{ID: "dlr-1", Name: "Toko Maju", Passcode: "dealer-pass"}); err != nil {
		t.Fatalf("seed dealer: %v", err)
	}
	if err := ldg.AddProduct(ctx, domain.Product{SKU: "SKU-1", Name: "Beans", Quantity: 10, Cost: 2.0}); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	auth := NewAuthManager("test-secret-key", time.Hour, ldg)
	return New(ldg, auth, "*")
}

func loginToken(t *testing.T, api *API, id string, passcode string) string {
	t.Helper()

	resp, err := api.auth.Login(domain.LoginRequest{ID: id, Passcode: passcode})
	if err != nil {
		t.Fatalf("login %s: %v", id, err)
	}
	return resp.AccessToken
}

func doJSON(t *testing.T, api *API, method string, path string, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := doJSON(t, api, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestLoginEndpointIssuesToken(t *testing.T) {
	api := newTestAPI(t)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{ID: "emp-1", Passcode: "rahasia1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken == "" || resp.Role != domain.RoleEmployee {
		t.Fatalf("unexpected login response: %#v", resp)
	}
}

func TestStateRequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	rec := doJSON(t, api, http.MethodGet, "/api/v1/state", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestStateReturnsFullAggregate(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "emp-1", "rahasia1")

	rec := doJSON(t, api, http.MethodGet, "/api/v1/state", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var state domain.AppState
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if len(state.Products) != 1 || state.Products[0].SKU != "SKU-1" {
		t.Fatalf("unexpected products: %#v", state.Products)
	}
}

func TestStateRedactsPasscodes(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "dlr-1", "dealer-pass")

	rec := doJSON(t, api, http.MethodGet, "/api/v1/state", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var state domain.AppState
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	for _, employee := range state.Employees {
		if employee.Passcode != "" {
			t.Fatalf("employee passcode leaked in state response: %q", employee.Passcode)
		}
	}
	for _, dealer := range state.Dealers {
		if dealer.Passcode != "" {
			t.Fatalf("dealer passcode leaked in state response: %q", dealer.Passcode)
		}
	}
}

func TestEmployeeListRedactsPasscodes(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "dlr-1", "dealer-pass")

	rec := doJSON(t, api, http.MethodGet, "/api/v1/employees", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Employees []domain.Employee `json:"employees"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Employees) == 0 {
		t.Fatalf("expected employees in response")
	}
	for _, employee := range body.Employees {
		if employee.Passcode != "" {
			t.Fatalf("passcode leaked in employee list: %q", employee.Passcode)
		}
	}
}

func TestCreateEmployeeHashesPasscodeAtRest(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "emp-1", "rahasia1")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/employees", token, domain.Employee{
		ID: "emp-2", Name: "Budi", Passcode: "kode-baru",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Employee domain.Employee `json:"employee"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Employee.Passcode != "" {
		t.Fatalf("passcode echoed in create response: %q", body.Employee.Passcode)
	}

	var stored string
	for _, employee := range api.ledger.Snapshot().Employees {
		if employee.ID == "emp-2" {
			stored = employee.Passcode
		}
	}
	if !isPasscodeHash(stored) {
		t.Fatalf("expected bcrypt hash at rest, got %q", stored)
	}

	// The new account logs in with the plain passcode against the hash.
	if _, err := api.auth.Login(domain.LoginRequest{ID: "emp-2", Passcode: "kode-baru"}); err != nil {
		t.Fatalf("login as new employee: %v", err)
	}
}

func TestUpdateDealerHashesPasscodeAtRest(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "emp-1", "rahasia1")

	rec := doJSON(t, api, http.MethodPut, "/api/v1/dealers/dlr-1", token, domain.Dealer{
		ID: "dlr-1", Name: "Toko Maju", Passcode: "sandi-baru",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	stored := api.ledger.Snapshot().Dealers[0].Passcode
	if !isPasscodeHash(stored) {
		t.Fatalf("expected bcrypt hash at rest, got %q", stored)
	}
	if _, err := api.auth.Login(domain.LoginRequest{ID: "dlr-1", Passcode: "sandi-baru"}); err != nil {
		t.Fatalf("login with updated passcode: %v", err)
	}
}

func TestDealerCannotCreateProducts(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "dlr-1", "dealer-pass")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/products", token, domain.Product{SKU: "SKU-2"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for dealer create, got %d", rec.Code)
	}
}

func TestDealerCannotRecordSales(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "dlr-1", "dealer-pass")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/sales", token, domain.SaleTransaction{
		ProductsSold: []domain.SaleItem{{SKU: "SKU-1", Quantity: 1}},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for dealer sale, got %d", rec.Code)
	}
}

func TestCreateProductAndDuplicateConflict(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "emp-1", "rahasia1")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/products", token, domain.Product{SKU: "SKU-2", Name: "Rice"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, api, http.MethodPost, "/api/v1/products", token, domain.Product{SKU: "SKU-2", Name: "Other"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate sku, got %d", rec.Code)
	}
}

func TestRecordSaleGeneratesIDAndDecrementsStock(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "emp-1", "rahasia1")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/sales", token, domain.SaleTransaction{
		DealerID:     "dlr-1",
		ProductsSold: []domain.SaleItem{{SKU: "SKU-1", Quantity: 4, Price: 3.0}},
		TotalAmount:  12.0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Sale domain.SaleTransaction `json:"sale"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Sale.ID == "" {
		t.Fatalf("expected generated sale id")
	}

	state := api.ledger.Snapshot()
	if state.Products[0].Quantity != 6 {
		t.Fatalf("expected quantity 6, got %d", state.Products[0].Quantity)
	}
}

func TestRecordSaleInsufficientStockReturns422(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "emp-1", "rahasia1")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/sales", token, domain.SaleTransaction{
		ProductsSold: []domain.SaleItem{{SKU: "SKU-1", Quantity: 50}},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestReviseMissingSaleReturns404(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "emp-1", "rahasia1")

	rec := doJSON(t, api, http.MethodPut, "/api/v1/sales/sale-missing", token, domain.SaleTransaction{
		ProductsSold: []domain.SaleItem{{SKU: "SKU-1", Quantity: 1}},
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBulkDeliveryToNonBulkProductReturns422(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "emp-1", "rahasia1")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/bulk-deliveries", token, domain.BulkDelivery{
		ProductID: "SKU-1", Quantity: 5, TotalAmount: 10,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateProductEndpointCascades(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "emp-1", "rahasia1")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/sales", token, domain.SaleTransaction{
		ProductsSold: []domain.SaleItem{{SKU: "SKU-1", Quantity: 1, Price: 3.0}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed sale: %d", rec.Code)
	}

	rec = doJSON(t, api, http.MethodPut, "/api/v1/products/SKU-1", token, domain.Product{
		SKU: "SKU-9", Name: "Beans", Quantity: 9, Cost: 2.0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	state := api.ledger.Snapshot()
	if state.SaleTransactions[0].ProductsSold[0].SKU != "SKU-9" {
		t.Fatalf("sale line not rewritten after rename")
	}
}

func TestDealerCanReadReports(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "dlr-1", "dealer-pass")

	rec := doJSON(t, api, http.MethodGet, "/api/v1/reports/monthly-sales", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestDealerCannotReadValuation(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "dlr-1", "dealer-pass")

	rec := doJSON(t, api, http.MethodGet, "/api/v1/reports/valuation", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestPaymentsEndpointGeneratesID(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "emp-1", "rahasia1")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/payments", token, domain.EmployeePayment{
		EmployeeID: "emp-1", Amount: 250, Description: "weekly wage",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	state := api.ledger.Snapshot()
	if len(state.EmployeePayments) != 1 || state.EmployeePayments[0].ID == "" {
		t.Fatalf("payment not recorded with generated id: %#v", state.EmployeePayments)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "emp-1", "rahasia1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBufferString(`{"sku":"SKU-3","bogus":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	api := newTestAPI(t)

	var last int
	for i := 0; i < 6; i++ {
		rec := doJSON(t, api, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{ID: "emp-1", Passcode: "wrong"})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated attempts, got %d", last)
	}
}
