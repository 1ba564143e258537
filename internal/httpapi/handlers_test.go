package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tokokita/backend/internal/cache"
	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/notify"
	"tokokita/backend/internal/service"
	"tokokita/backend/internal/store/memory"
)

// newTestAPI builds a full API with the seeded in-memory store, a real
// Service and a real AuthManager so handler tests exercise the complete
// request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, notify.NewEngine(), cache.NoopNotificationCache{}, 5*time.Minute)
	auth := NewAuthManager("test-secret-key-0123456789abcdef", time.Hour, svc)

	return New(svc, auth, "*")
}

func loginAs(t *testing.T, api *API, username, password string) string {
	t.Helper()

	body, _ := json.Marshal(domain.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("login as %s failed, status %d (body: %s)", username, res.Code, res.Body.String())
	}

	var payload domain.LoginResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode login response failed: %v", err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		t.Fatalf("expected access token in login response")
	}
	return payload.AccessToken
}

func fetchCSRFToken(t *testing.T, api *API) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/csrf-token", nil)
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("csrf-token endpoint returned status %d", res.Code)
	}

	var payload map[string]string
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode csrf-token response failed: %v", err)
	}
	tok := payload["csrf_token"]
	if strings.TrimSpace(tok) == "" {
		t.Fatalf("expected non-empty csrf_token in response")
	}
	return tok
}

// authedJSON fires an authenticated JSON request with a CSRF token attached.
func authedJSON(t *testing.T, api *API, method, path, token, csrf string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)
	return res
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

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

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)

	payload, _ := json.Marshal(domain.LoginRequest{Username: "admin", Password: "wrongpassword"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleProducts_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleProducts_ListWithToken(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var page struct {
		Items []domain.Product `json:"items"`
		Total int              `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if page.Total == 0 || len(page.Items) == 0 {
		t.Fatalf("expected seeded products, got total=%d items=%d", page.Total, len(page.Items))
	}
}

func TestCreateProductFullFlow(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "admin", "admin123")
	csrf := fetchCSRFToken(t, api)

	res := authedJSON(t, api, http.MethodPost, "/api/v1/products", token, csrf, domain.ProductCreateRequest{
		Name:         "Teh Botol",
		SKU:          "sku-teh-01",
		SellingCents: 4500,
		Category:     "beverage",
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (body: %s)", res.Code, res.Body.String())
	}

	var created struct {
		Product domain.Product `json:"product"`
	}
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Product.ID == "" {
		t.Fatalf("expected product id, got %+v", created.Product)
	}
	if created.Product.SKU != "SKU-TEH-01" {
		t.Fatalf("SKU should be upper-cased on create, got %q", created.Product.SKU)
	}

	get := authedJSON(t, api, http.MethodGet, "/api/v1/products/"+created.Product.ID, token, "", nil)
	if get.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d (body: %s)", get.Code, get.Body.String())
	}
}

func TestStaffCannotCreateProduct(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")
	csrf := fetchCSRFToken(t, api)

	res := authedJSON(t, api, http.MethodPost, "/api/v1/products", token, csrf, domain.ProductCreateRequest{
		Name:         "Tidak Boleh",
		SellingCents: 1000,
	})
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff create, got %d (body: %s)", res.Code, res.Body.String())
	}
}

func TestGetUnknownProductReturns404(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")

	res := authedJSON(t, api, http.MethodGet, "/api/v1/products/prd-missing", token, "", nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (body: %s)", res.Code, res.Body.String())
	}
}

func TestCheckoutFlow(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")
	csrf := fetchCSRFToken(t, api)

	res := authedJSON(t, api, http.MethodPost, "/api/v1/pos/checkout", token, csrf, domain.CheckoutRequest{
		WarehouseID:   "wh-utama",
		PaymentMethod: "cash",
		Items: []domain.CartLine{
			{ProductID: "prd-mie", Qty: 2},
		},
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d (body: %s)", res.Code, res.Body.String())
	}

	var created struct {
		Transaction domain.Transaction `json:"transaction"`
	}
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("decode checkout response: %v", err)
	}
	if created.Transaction.TotalCents != 7000 {
		t.Fatalf("expected total 7000, got %d", created.Transaction.TotalCents)
	}
	if created.Transaction.Status != "paid" {
		t.Fatalf("expected status paid, got %q", created.Transaction.Status)
	}

	receipt := authedJSON(t, api, http.MethodGet, "/api/v1/transactions/"+created.Transaction.ID+"/receipt", token, "", nil)
	if receipt.Code != http.StatusOK {
		t.Fatalf("receipt: expected 200, got %d (body: %s)", receipt.Code, receipt.Body.String())
	}
	var wrapped struct {
		Receipt domain.Receipt `json:"receipt"`
	}
	if err := json.NewDecoder(receipt.Body).Decode(&wrapped); err != nil {
		t.Fatalf("decode receipt response: %v", err)
	}
	if !strings.Contains(wrapped.Receipt.QRPayload, `"APPROVED"`) {
		t.Fatalf("expected approved QR payload, got %s", wrapped.Receipt.QRPayload)
	}
	if wrapped.Receipt.EscposBase64 == "" {
		t.Fatalf("expected ESC/POS payload in receipt")
	}
}

func TestCheckoutInsufficientStockReturns409(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")
	csrf := fetchCSRFToken(t, api)

	// prd-roti is seeded with only 4 units in wh-utama.
	res := authedJSON(t, api, http.MethodPost, "/api/v1/pos/checkout", token, csrf, domain.CheckoutRequest{
		WarehouseID:   "wh-utama",
		PaymentMethod: "cash",
		Items: []domain.CartLine{
			{ProductID: "prd-roti", Qty: 5},
		},
	})
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (body: %s)", res.Code, res.Body.String())
	}
}

func scanEventsFor(payload string, stepMs int64, terminator string) []map[string]any {
	events := make([]map[string]any, 0, len(payload)+1)
	offset := int64(0)
	for _, r := range payload {
		events = append(events, map[string]any{"char": string(r), "offset_ms": offset})
		offset += stepMs
	}
	if terminator != "" {
		events = append(events, map[string]any{"char": terminator, "offset_ms": offset})
	}
	return events
}

func TestScanResolvesSeededProduct(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")
	csrf := fetchCSRFToken(t, api)

	res := authedJSON(t, api, http.MethodPost, "/api/v1/pos/scan", token, csrf, map[string]any{
		"events": scanEventsFor("8991002101012", 10, "\n"),
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", res.Code, res.Body.String())
	}

	var body struct {
		Source  string          `json:"source"`
		Payload string          `json:"payload"`
		Product *domain.Product `json:"product"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode scan response: %v", err)
	}
	if body.Source != "scanner" {
		t.Fatalf("expected scanner source, got %q", body.Source)
	}
	if body.Product == nil || body.Product.ID != "prd-mie" {
		t.Fatalf("expected prd-mie, got %+v", body.Product)
	}
}

func TestScanUnknownBarcodeReturnsNullProduct(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")
	csrf := fetchCSRFToken(t, api)

	res := authedJSON(t, api, http.MethodPost, "/api/v1/pos/scan", token, csrf, map[string]any{
		"events": scanEventsFor("0000000099999", 10, "\r"),
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown barcode, got %d (body: %s)", res.Code, res.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode scan response: %v", err)
	}
	if product, present := body["product"]; !present || product != nil {
		t.Fatalf("expected product:null, got %v", body)
	}
}

func TestScanSlowTypingStaysManual(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")
	csrf := fetchCSRFToken(t, api)

	res := authedJSON(t, api, http.MethodPost, "/api/v1/pos/scan", token, csrf, map[string]any{
		"events": scanEventsFor("8991002101012", 150, "\n"),
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", res.Code, res.Body.String())
	}

	var body struct {
		Source  string `json:"source"`
		Payload string `json:"payload"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode scan response: %v", err)
	}
	if body.Source != "manual" {
		t.Fatalf("expected manual source, got %q", body.Source)
	}
	if body.Payload != "8991002101012" {
		t.Fatalf("payload should survive classification, got %q", body.Payload)
	}
}

func TestManualItemLandsInExtraWarehouse(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")
	csrf := fetchCSRFToken(t, api)

	res := authedJSON(t, api, http.MethodPost, "/api/v1/pos/manual-item", token, csrf, domain.ManualPOSItemRequest{
		Name:         "Kerupuk Eceran",
		SellingCents: 2000,
		Qty:          10,
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", res.Code, res.Body.String())
	}

	var created struct {
		Product domain.Product `json:"product"`
	}
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	class := authedJSON(t, api, http.MethodGet,
		fmt.Sprintf("/api/v1/products/%s/classification", created.Product.ID), token, "", nil)
	if class.Code != http.StatusOK {
		t.Fatalf("classification: expected 200, got %d", class.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(class.Body).Decode(&body); err != nil {
		t.Fatalf("decode classification: %v", err)
	}
	if body["classification"] != "extra" {
		t.Fatalf("expected extra classification, got %v", body["classification"])
	}
}

func TestStaffCannotListEmployees(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")

	res := authedJSON(t, api, http.MethodGet, "/api/v1/employees", token, "", nil)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff on employees, got %d", res.Code)
	}
}

func TestNotificationsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")

	res := authedJSON(t, api, http.MethodGet, "/api/v1/notifications", token, "", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", res.Code, res.Body.String())
	}

	var body struct {
		Notifications []domain.Notification `json:"notifications"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	// prd-roti is seeded below its minimum stock level, so at least low_stock fires.
	found := false
	for _, n := range body.Notifications {
		if n.ID == "low_stock" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected low_stock notification, got %+v", body.Notifications)
	}
}

func TestProductExportReturnsCSV(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv content type, got %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "name,sku,barcode") {
		t.Fatalf("unexpected CSV header: %q", rec.Body.String()[:min(60, rec.Body.Len())])
	}
}
