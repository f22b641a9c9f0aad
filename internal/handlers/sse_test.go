package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestNewSSEHandlers(t *testing.T) {
	dashboard := createTestDashboard()
	logger := quietLogger()

	handlers := NewSSEHandlers(dashboard, logger)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if handlers.dashboard != dashboard {
		t.Error("NewSSEHandlers() should set dashboard field")
	}
	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func servePage(t *testing.T, page, rawQuery string) *httptest.ResponseRecorder {
	t.Helper()
	handlers := NewSSEHandlers(createTestDashboard(), quietLogger())

	target := "/sse/pages/" + page
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.SetPathValue("page", page)
	w := httptest.NewRecorder()

	handlers.HandlePage(w, req)
	return w
}

func TestSSEHandlers_HandlePage(t *testing.T) {
	tests := []struct {
		page     string
		contains []string
	}{
		{"home", []string{"Total transactions", "credit_card", "SP (R$ 30.00)"}},
		{"product-analysis", []string{"Top categories by revenue", "toys", "R$ 30.00"}},
		{"product-distribution", []string{"<select", `value="MG"`, "Category revenue for seller state: SP"}},
		{"sales-trends", []string{"<polyline", "2018-02: 1"}},
		{"payment-insights", []string{"Average payment by type", "R$ 15.00"}},
		{"advanced-visualizations", []string{"<table", "delivered", "Revenue by customer state"}},
	}

	for _, tt := range tests {
		t.Run(tt.page, func(t *testing.T) {
			w := servePage(t, tt.page, "")

			if w.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
			}

			body := w.Body.String()
			if !strings.Contains(body, "event:") || !strings.Contains(body, "data:") {
				t.Error("response should contain SSE event format")
			}
			if !strings.Contains(body, `id="page-content"`) {
				t.Error("response should patch #page-content")
			}
			for _, want := range tt.contains {
				if !strings.Contains(body, want) {
					t.Errorf("expected body to contain %q", want)
				}
			}
			if !strings.Contains(body, `"page":"`+tt.page+`"`) {
				t.Error("response should patch the page signal")
			}
		})
	}
}

func TestSSEHandlers_HandlePage_Signals(t *testing.T) {
	signals := url.Values{"datastar": {`{"page":"product-distribution","start":"2018-01-01","end":"2018-12-31","state":"MG"}`}}
	w := servePage(t, "product-distribution", signals.Encode())

	body := w.Body.String()
	if !strings.Contains(body, "Category revenue for seller state: MG") {
		t.Error("state signal should select the seller state")
	}
	if !strings.Contains(body, `"start":"2018-01-01"`) || !strings.Contains(body, `"state":"MG"`) {
		t.Errorf("effective filter should be echoed as signals: %s", body)
	}
}

func TestSSEHandlers_HandlePage_EmptySelection(t *testing.T) {
	w := servePage(t, "home", "start=2019-01-01&end=2019-12-31")

	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Fatalf("expected an event stream, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "No orders in the selected period.") {
		t.Error("expected the empty-selection panel")
	}
}

func TestSSEHandlers_HandlePage_Errors(t *testing.T) {
	tests := []struct {
		name       string
		page       string
		query      string
		wantStatus int
	}{
		{"unknown page", "reports", "", http.StatusNotFound},
		{"bad date", "home", "end=31-12-2018", http.StatusBadRequest},
		{"bad signals", "home", "datastar=%7Bnot-json", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := servePage(t, tt.page, tt.query)
			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("errors before streaming should be JSON, got %q", ct)
			}
		})
	}
}
