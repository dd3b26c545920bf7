package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func newJSON(buf *bytes.Buffer, level slog.Level) *Logger {
	return New(Config{Level: level, Component: ComponentApp, Format: "json", Output: buf})
}

func TestLogger_ComponentIsNotDuplicated(t *testing.T) {
	var buf bytes.Buffer
	l := newJSON(&buf, slog.LevelInfo).With("instance", "a").WithComponent(ComponentLedger)
	l.Info("hello")

	if strings.Count(buf.String(), `"component"`) != 1 {
		t.Fatalf("expected one component key: %s", buf.String())
	}
	lines := decodeLines(t, &buf)
	if lines[0][FieldComponent] != ComponentLedger || lines[0]["instance"] != "a" {
		t.Fatalf("unexpected line: %v", lines[0])
	}
	if l.Component() != ComponentLedger {
		t.Fatalf("component = %q", l.Component())
	}
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := newJSON(&buf, slog.LevelWarn)
	l.Info("dropped")
	l.Warn("kept")
	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "kept" {
		t.Fatalf("unexpected output: %v", lines)
	}
}

func TestFields(t *testing.T) {
	f := NewFields().
		WithRequestID("").
		WithError(nil).
		WithTransaction("t1", "income", "500", "Sales", "manual").
		WithHTTPResponse(404, 12)
	if _, ok := f[FieldRequestID]; ok {
		t.Fatal("empty request id should be skipped")
	}
	if _, ok := f[FieldError]; ok {
		t.Fatal("nil error should be skipped")
	}
	if f[FieldSuccess] != false || f[FieldTransactionID] != "t1" {
		t.Fatalf("unexpected fields: %v", f)
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("slice length mismatch")
	}
	if NewFields().WithError(errors.New("boom"))[FieldError] != "boom" {
		t.Fatal("error message not recorded")
	}
}

func TestMiddleware_RequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := newJSON(&buf, slog.LevelInfo)
	h := Middleware(base, func(*http.Request) string { return "req_1" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0][FieldRequestID] != "req_1" {
		t.Fatalf("unexpected output: %v", lines)
	}
}

func TestFromContext_Default(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger: %+v", l)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newJSON(&buf, slog.LevelDebug))
	ctx := context.Background()

	sl.LogTransactionCreated(ctx, "t1", "expense", "40", "Ads", "manual")
	req := httptest.NewRequest(http.MethodDelete, "/api/transactions/x", nil)
	sl.LogHTTPEnd(ctx, req, 409, 3, "10.0.0.1")
	sl.LogError(ctx, "failed", errors.New("boom"), ComponentStorage, OpCreate, ErrorTypeDatabase)

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0][FieldComponent] != ComponentLedger || lines[0][FieldOperation] != OpCreate {
		t.Fatalf("created line: %v", lines[0])
	}
	if lines[1]["level"] != "WARN" || lines[1][FieldComponent] != ComponentHTTP {
		t.Fatalf("http line: %v", lines[1])
	}
	if lines[2]["level"] != "ERROR" || lines[2][FieldErrorType] != ErrorTypeDatabase || lines[2][FieldComponent] != ComponentStorage {
		t.Fatalf("error line: %v", lines[2])
	}
}
