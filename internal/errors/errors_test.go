package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestAppError_Is(t *testing.T) {
	cause := fmt.Errorf("open data.csv: no such file")
	err := fmt.Errorf("startup: %w", Load(cause, "cannot read dataset"))

	if !stderrors.Is(err, ErrLoad) {
		t.Error("expected wrapped load error to match ErrLoad")
	}
	if stderrors.Is(err, ErrSchema) {
		t.Error("load error must not match ErrSchema")
	}
	if !stderrors.Is(EmptyAggregation("avg_payment_by_type"), ErrEmptyAggregation) {
		t.Error("expected empty aggregation to match ErrEmptyAggregation")
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("bad timestamp")
	err := Parse(cause, "row 3")

	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if got := err.Error(); got != "PARSE_ERROR: row 3 (caused by: bad timestamp)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{Validation("x"), http.StatusBadRequest},
		{NotFound("x"), http.StatusNotFound},
		{RateLimit("x"), http.StatusTooManyRequests},
		{EmptyAggregation("x"), http.StatusUnprocessableEntity},
		{Schema("x"), http.StatusInternalServerError},
		{Load(nil, "x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			if tt.err.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", tt.err.StatusCode, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("wrap: %w", Schema("missing column"))); got != CodeSchema {
		t.Errorf("CodeOf() = %s, want %s", got, CodeSchema)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeInternal {
		t.Errorf("CodeOf() = %s, want %s", got, CodeInternal)
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, testLogger(), fmt.Errorf("page: %w", ErrEmptyAggregation), "req-1")

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}

	var response struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if response.Success {
		t.Error("expected success=false")
	}
	if response.Error.Code != string(CodeEmptyAggregation) || response.Error.RequestID != "req-1" {
		t.Errorf("unexpected error body: %+v", response.Error)
	}
	if ErrEmptyAggregation.RequestID != "" {
		t.Error("sentinel must not be stamped with a request id")
	}
}

func TestWriteError_PlainError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, testLogger(), stderrors.New("boom"), "req-2")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestWriteSuccessWithHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessWithHeaders(w, map[string]int{"n": 1}, map[string]string{"Cache-Control": "no-store"})

	if w.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected custom header")
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Error("expected json content type")
	}
}
