package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"olist-dashboard/internal/config"
	"olist-dashboard/internal/middleware"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/server"
	"olist-dashboard/internal/services"
)

// Test helper to create a dashboard over a small fixed dataset
func newTestDashboard() *services.Dashboard {
	ts := func(month time.Month, day int) time.Time {
		return time.Date(2017, month, day, 14, 0, 0, 0, time.UTC)
	}
	records := models.RecordSet{
		{OrderID: "a1", PurchasedAt: ts(time.March, 6), Price: decimal.RequireFromString("129.90"), PaymentType: "credit_card", PaymentValue: decimal.RequireFromString("141.46"), Category: "health_beauty", CustomerState: "SP", SellerState: "SP", OrderStatus: "delivered"},
		{OrderID: "a2", PurchasedAt: ts(time.April, 11), Price: decimal.RequireFromString("49.99"), PaymentType: "boleto", PaymentValue: decimal.RequireFromString("59.28"), Category: "sports_leisure", CustomerState: "RJ", SellerState: "PR", OrderStatus: "delivered"},
		{OrderID: "a3", PurchasedAt: ts(time.April, 20), Price: decimal.RequireFromString("18.90"), PaymentType: "credit_card", PaymentValue: decimal.RequireFromString("24.65"), Category: "health_beauty", CustomerState: "MG", SellerState: "SP", OrderStatus: "shipped"},
	}
	return services.NewDashboard(records, services.Options{TopN: 10, Logger: quietLogger()})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(metrics config.MetricsConfig) *server.Server {
	dashboard := newTestDashboard()
	logger := quietLogger()
	templateHandlers := &server.TemplateHandlers{Dashboard: dashboardHandler(dashboard, logger)}
	return server.NewServer(dashboard, logger, templateHandlers, metrics)
}

// Integration tests for HTTP routes
func TestServer_Routes(t *testing.T) {
	srv := newTestServer(config.MetricsConfig{Enabled: true, Path: "/metrics"})

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/?page=sales-trends&start=2017-04-01", http.StatusOK, "text/html"},
		{"/api/pages", http.StatusOK, "application/json"},
		{"/api/pages/home", http.StatusOK, "application/json"},
		{"/api/pages/payment-insights?end=2017-04-30", http.StatusOK, "application/json"},
		{"/api/aggregations/monthly_order_count", http.StatusOK, "application/json"},
		{"/sse/pages/product-distribution", http.StatusOK, "text/event-stream"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
		{"/metrics", http.StatusOK, "text/plain"},
		{"/api/pages/unknown", http.StatusNotFound, "application/json"},
		{"/api/aggregations/unknown", http.StatusNotFound, "application/json"},
		{"/api/pages/home?start=2020-01-01&end=2020-02-01", http.StatusUnprocessableEntity, "application/json"},
		{"/api/pages/home?end=not-a-date", http.StatusBadRequest, "application/json"},
		{"/?page=unknown", http.StatusNotFound, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", tt.path, nil)

			srv.ServeHTTP(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}

			ct := w.Header().Get("Content-Type")
			if !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}

			// Validate JSON responses
			if tt.contentType == "application/json" {
				var result any
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			}
		})
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	srv := newTestServer(config.MetricsConfig{})

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// Test JSON API responses
func TestServer_JSONResponse(t *testing.T) {
	srv := newTestServer(config.MetricsConfig{})

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/pages/home", nil)
	srv.ServeHTTP(w, r)

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			Page    string `json:"page"`
			Rows    int    `json:"rows"`
			Results []struct {
				Aggregation string          `json:"aggregation"`
				Value       json.RawMessage `json:"value"`
			} `json:"results"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if !response.Success {
		t.Error("expected success=true")
	}
	if response.Data.Rows != 3 {
		t.Errorf("rows = %d, want 3", response.Data.Rows)
	}

	values := make(map[string]string)
	for _, r := range response.Data.Results {
		values[r.Aggregation] = string(r.Value)
	}
	if values["total_transactions"] != "3" {
		t.Errorf("total_transactions = %s, want 3", values["total_transactions"])
	}
	if values["dominant_payment_type"] != `"credit_card"` {
		t.Errorf("dominant_payment_type = %s", values["dominant_payment_type"])
	}
	if !strings.Contains(values["most_sold_category"], `"health_beauty"`) {
		t.Errorf("most_sold_category = %s", values["most_sold_category"])
	}
}

// Test error handling for invalid methods
func TestServer_ErrorHandling(t *testing.T) {
	srv := newTestServer(config.MetricsConfig{})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"POST", "/api/pages/home", http.StatusMethodNotAllowed},
		{"PUT", "/", http.StatusMethodNotAllowed},
		{"DELETE", "/health", http.StatusMethodNotAllowed},
		{"PATCH", "/sse/pages/home", http.StatusMethodNotAllowed},
		{"GET", "/favicon.ico", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, tt.path, nil)

			srv.ServeHTTP(w, r)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

// Test dashboard template rendering
func TestDashboardTemplate(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)

	// Test the template handler directly
	dashboardHandler(newTestDashboard(), quietLogger())(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, "E-commerce Data Analysis Dashboard") {
		t.Error("dashboard should contain title")
	}

	// Check for key dashboard components
	expectedComponents := []string{
		"Home",
		"Product Analysis",
		"Product Distribution",
		"Sales Trends",
		"Payment Insights",
		"Advanced Visualizations",
		"Total transactions",
		`min="2017-03-06"`,
		`max="2017-04-20"`,
	}

	for _, component := range expectedComponents {
		if !strings.Contains(body, component) {
			t.Errorf("dashboard should contain '%s'", component)
		}
	}
}

func TestDashboardTemplate_EmptySelection(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/?start=2019-01-01&end=2019-01-31", nil)

	dashboardHandler(newTestDashboard(), quietLogger())(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "No orders in the selected period.") {
		t.Error("empty selection should render the notice inside the shell")
	}
}

func TestMiddlewareChain(t *testing.T) {
	srv := newTestServer(config.MetricsConfig{Enabled: true, Path: "/metrics"})
	logger := quietLogger()
	security := config.SecurityConfig{EnableRateLimit: true, RateLimitRPS: 1, RateLimitBurst: 2}

	handler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.RateLimit(middleware.NewRateLimiter(security), logger, "/health", "/metrics"),
		middleware.Metrics(),
	)(srv)

	var codes []int
	for range 3 {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/pages", nil))
		codes = append(codes, w.Code)

		if w.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		if w.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Error("expected security headers")
		}
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 200 429]", codes)
	}

	// Health probes are never throttled, even for a client out of tokens.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `http_requests_total{method="GET",route="GET /api/pages",status_code="200"}`) {
		t.Error("metrics should count requests by route pattern")
	}
}
