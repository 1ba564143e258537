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

	"tokokita/backend/internal/domain"
)

func timeNowHourBucket() int64 {
	return time.Now().UTC().Truncate(time.Hour).Unix()
}

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if got := res.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options nosniff, got %q", got)
	}
	if got := res.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := res.Header().Get("Referrer-Policy"); got == "" {
		t.Fatalf("expected Referrer-Policy to be set")
	}
}

func TestOptionsRequestShortCircuits(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", res.Code)
	}
}

func TestLoginRateLimitReturns429(t *testing.T) {
	api := newTestAPI(t)
	body, _ := json.Marshal(domain.LoginRequest{Username: "admin", Password: "wrong-pass"})

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "127.0.0.1:5000"
		res := httptest.NewRecorder()

		api.Handler().ServeHTTP(res, req)

		if i < 5 && res.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d expected 401 before limit, got %d", i+1, res.Code)
		}
		if i == 5 && res.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt 6 expected 429, got %d", res.Code)
		}
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	api := newTestAPI(t)
	veryLong := strings.Repeat("a", (1<<20)+1024)
	body := fmt.Sprintf(`{"username":"%s","password":"x"}`, veryLong)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too large body, got %d", res.Code)
	}
}

func TestMutatingRequestWithoutCSRFTokenRejected(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "admin", "admin123")

	payload, _ := json.Marshal(domain.ProductCreateRequest{Name: "Tanpa CSRF", SellingCents: 1000})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without CSRF token, got %d (body: %s)", res.Code, res.Body.String())
	}
}

func TestForgedCSRFTokenRejected(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "admin", "admin123")

	res := authedJSON(t, api, http.MethodPost, "/api/v1/products", token, "deadbeef", domain.ProductCreateRequest{
		Name:         "CSRF Palsu",
		SellingCents: 1000,
	})
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for forged CSRF token, got %d", res.Code)
	}
}

func TestCSRFNotRequiredForReads(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")

	res := authedJSON(t, api, http.MethodGet, "/api/v1/products", token, "", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("GET must not require a CSRF token, got %d", res.Code)
	}
}

func TestLoginExemptFromCSRF(t *testing.T) {
	api := newTestAPI(t)

	// loginAs never sends a CSRF token, so a successful login proves the exemption.
	if token := loginAs(t, api, "admin", "admin123"); token == "" {
		t.Fatalf("expected login to succeed without CSRF token")
	}
}

func TestCSRFTokenValidatesAcrossHourBoundary(t *testing.T) {
	api := newTestAPI(t)

	current := api.generateCSRFToken()
	if !api.validateCSRFToken(current) {
		t.Fatalf("freshly generated token must validate")
	}

	// A token minted in the previous hour bucket is still inside the window.
	prev := api.csrfTokenForHour(timeNowHourBucket() - 3600)
	if !api.validateCSRFToken(prev) {
		t.Fatalf("previous-hour token must validate")
	}

	stale := api.csrfTokenForHour(timeNowHourBucket() - 7200)
	if api.validateCSRFToken(stale) {
		t.Fatalf("token two buckets old must not validate")
	}
}

func TestWrongRoleOnAdminRouteReturns403(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")

	res := authedJSON(t, api, http.MethodGet, "/api/v1/audit-logs", token, "", nil)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff on audit-logs, got %d", res.Code)
	}
}

func TestMalformedBearerTokenReturns401(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer totally-not-a-jwt")
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed token, got %d", res.Code)
	}
}

func TestParsePositiveLimitCaps(t *testing.T) {
	if got := parsePositiveLimit("9999", 50, 200); got != 200 {
		t.Fatalf("expected capped limit 200, got %d", got)
	}
	if got := parsePositiveLimit("", 50, 200); got != 50 {
		t.Fatalf("expected fallback limit 50, got %d", got)
	}
	if got := parsePositiveLimit("invalid", 50, 200); got != 50 {
		t.Fatalf("expected fallback on invalid input, got %d", got)
	}
}

func TestMetricPathTruncatesIDs(t *testing.T) {
	if got := metricPath("/api/v1/products/prd-123/classification"); got != "/api/v1/products" {
		t.Fatalf("expected /api/v1/products, got %q", got)
	}
	if got := metricPath("/healthz"); got != "/healthz" {
		t.Fatalf("expected /healthz, got %q", got)
	}
}
