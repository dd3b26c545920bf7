package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finboard/internal/core"
	"finboard/internal/estimate"
	"finboard/internal/log"
	"finboard/internal/report"
	"finboard/internal/services"
	"finboard/internal/sources/memory"

	"github.com/shopspring/decimal"
)

type testEnv struct {
	srv   *Server
	store *memory.Store
}

func newTestEnv(t *testing.T, checks map[string]ReadinessCheck) *testEnv {
	t.Helper()
	store := memory.New()
	loader := report.NewLoader(report.Sources{Ledger: store, Aggregate: store, Channels: store, Roster: store}, nil)
	reports := report.NewService(loader, report.NewEngine(estimate.DefaultModel()), time.Minute, nil)
	ledger := services.NewLedgerService(store, services.OnChange(reports.Invalidate))

	srv := NewServer(Config{
		Addr:               ":0",
		EntityName:         "Acme Corp",
		RateLimitPerMinute: 100,
		Logger:             log.New(log.Config{Output: io.Discard}),
		Checks:             checks,
	}, reports, ledger)
	srv.now = func() time.Time { return time.Date(2026, 1, 9, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, store: store}
}

func (e *testEnv) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, map[string]ReadinessCheck{
		"ledger": func(context.Context) error { return nil },
	})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s missing middleware headers: %v", path, rr.Header())
		}
	}

	failing := newTestEnv(t, map[string]ReadinessCheck{
		"feed": func(context.Context) error { return errors.New("down") },
	})
	rr := failing.do(http.MethodGet, "/readyz", "", "")
	if rr.Code != http.StatusServiceUnavailable || !strings.Contains(rr.Body.String(), "failed: down") {
		t.Fatalf("readyz = %d %s", rr.Code, rr.Body.String())
	}
}

func TestCreateTransaction(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(http.MethodPost, "/api/transactions", "application/json", `{"type":"income","amount":""}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing amount: expected 422, got %d", rr.Code)
	}
	rr = env.do(http.MethodPost, "/api/transactions", "application/json", `{"type":"refund","amount":"5"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad kind: expected 422, got %d", rr.Code)
	}
	rr = env.do(http.MethodPost, "/api/transactions", "application/json", `{"amount":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed: expected 400, got %d", rr.Code)
	}

	rr = env.do(http.MethodPost, "/api/transactions", "application/x-www-form-urlencoded",
		"type=expense&amount=-40&category=Ads&date=2026-01-08&description=Campaign")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[transactionJSON](t, rr)
	if created.ID == "" || created.Type != core.Expense || !created.Amount.Equal(decimal.NewFromInt(40)) || created.Source != core.SourceManual {
		t.Fatalf("unexpected transaction: %+v", created)
	}
	if rr.Header().Get("Location") != "/api/transactions/"+created.ID {
		t.Fatalf("location = %q", rr.Header().Get("Location"))
	}

	// The report reflects the change immediately.
	rr = env.do(http.MethodGet, "/api/report", "", "")
	if !strings.Contains(rr.Body.String(), `"estimatedConversionRatePct":null`) {
		t.Fatalf("conversion rate must be labelled as an estimate: %s", rr.Body.String())
	}
	rep := decode[reportJSON](t, rr)
	if rep.Total != 1 || rep.Authority != "local" || !rep.KPIs.MonthlyExpenses.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if rep.KPIs.ProfitMarginPct != nil {
		t.Fatalf("margin without revenue should be null, got %v", *rep.KPIs.ProfitMarginPct)
	}
}

// importOrders imports n income rows spread over January 2026.
func (e *testEnv) importOrders(t *testing.T, n int) {
	t.Helper()
	var csv bytes.Buffer
	csv.WriteString("date,amount,category,description\n")
	for i := range n {
		day := 1 + i%28
		csv.WriteString("2026-01-")
		if day < 10 {
			csv.WriteString("0")
		}
		csv.WriteString(decimal.NewFromInt(int64(day)).String())
		csv.WriteString(",")
		csv.WriteString(decimal.NewFromInt(int64(100 + i)).String())
		csv.WriteString(",Sales,Order\n")
	}
	rr := e.do(http.MethodPost, "/api/transactions/import", "text/csv", csv.String())
	if rr.Code != http.StatusCreated {
		t.Fatalf("import: %d %s", rr.Code, rr.Body.String())
	}
}

func TestImportAndReportWindow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.importOrders(t, 60)
	var rr *httptest.ResponseRecorder

	rep := decode[reportJSON](t, env.do(http.MethodGet, "/api/report?sort=date", "", ""))
	if rep.Loaded != 50 || rep.Total != 60 || !rep.HasMore {
		t.Fatalf("first window: loaded=%d total=%d more=%v", rep.Loaded, rep.Total, rep.HasMore)
	}
	if rep.Transactions[0].Date != "2026-01-28" || rep.Sort.Direction != "desc" {
		t.Fatalf("expected newest first, got %s (%s)", rep.Transactions[0].Date, rep.Sort.Direction)
	}
	if rep.Transactions[0].Source != core.SourceGenerated {
		t.Fatalf("imported source = %q", rep.Transactions[0].Source)
	}

	rep = decode[reportJSON](t, env.do(http.MethodGet, "/api/report?sort=date&loaded=100", "", ""))
	if rep.Loaded != 60 || rep.HasMore {
		t.Fatalf("second window: loaded=%d more=%v", rep.Loaded, rep.HasMore)
	}

	rr = env.do(http.MethodPost, "/api/transactions/import", "text/csv", "date,amount\n2026-01-01,abc\n")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad batch: expected 422, got %d", rr.Code)
	}
	rr = env.do(http.MethodPost, "/api/transactions/import", "application/xml", "<x/>")
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rr.Code)
	}

	rr = env.do(http.MethodGet, "/api/report?sort=colour", "", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad sort: expected 400, got %d", rr.Code)
	}
}

func TestReportWindowRules(t *testing.T) {
	env := newTestEnv(t, nil)
	env.importOrders(t, 120)

	tests := []struct {
		name    string
		query   string
		loaded  int
		window  int
		hasMore bool
	}{
		{"rounds up to whole pages", "sort=date&loaded=73", 100, 100, true},
		{"capped by working set", "sort=date&loaded=1000000000", 120, 150, false},
		{"same sort keeps window", "sort=date&dir=desc&loaded=100&prevSort=date&prevDir=desc", 100, 100, true},
		{"new field resets window", "sort=amount&loaded=100&prevSort=date&prevDir=desc", 50, 50, true},
		{"flipped direction resets window", "sort=date&dir=asc&loaded=100&prevSort=date&prevDir=desc", 50, 50, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodGet, "/api/report?"+tt.query, "", "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d %s", rr.Code, rr.Body.String())
			}
			rep := decode[reportJSON](t, rr)
			if rep.Loaded != tt.loaded || len(rep.Transactions) != tt.loaded || rep.Window != tt.window || rep.HasMore != tt.hasMore {
				t.Fatalf("got loaded=%d rows=%d window=%d more=%v, want loaded=%d window=%d more=%v",
					rep.Loaded, len(rep.Transactions), rep.Window, rep.HasMore, tt.loaded, tt.window, tt.hasMore)
			}
			if rep.Total != 120 {
				t.Fatalf("total=%d", rep.Total)
			}
		})
	}

	rep := decode[reportJSON](t, env.do(http.MethodGet, "/api/report?sort=amount&dir=desc&loaded=100&prevSort=date", "", ""))
	if rep.Transactions[0].Amount.String() != "219" {
		t.Fatalf("reset window should start at the largest amount, got %s", rep.Transactions[0].Amount)
	}

	rr := env.do(http.MethodGet, "/api/report?prevSort=colour", "", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad prevSort: expected 400, got %d", rr.Code)
	}
}

func TestDeleteTransaction(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.SetAggregate(&core.Aggregate{
		DataSource: core.DataSourceLive,
		EmbeddedTransactions: []core.Transaction{
			{ID: "qb-1", Kind: core.Income, Amount: decimal.NewFromInt(500), Date: "9-Jan-2026", Source: core.SourceSynced},
		},
	})

	rr := env.do(http.MethodDelete, "/api/transactions/qb-1", "", "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("synced delete: expected 409, got %d", rr.Code)
	}
	rr = env.do(http.MethodDelete, "/api/transactions/missing", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing delete: expected 404, got %d", rr.Code)
	}

	rr = env.do(http.MethodPost, "/api/transactions", "application/json", `{"type":"expense","amount":"10"}`)
	created := decode[transactionJSON](t, rr)
	rr = env.do(http.MethodDelete, "/api/transactions/"+created.ID, "", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rr.Code)
	}
	if _, err := env.store.GetTransaction(context.Background(), created.ID); err == nil {
		t.Fatal("transaction still stored")
	}
}

func TestExports(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(http.MethodPost, "/api/transactions", "application/json", `{"type":"income","amount":"1000","category":"Sales","date":"2026-01-09"}`)
	env.do(http.MethodPost, "/api/transactions", "application/json", `{"type":"expense","amount":"400","category":"Ads","date":"2026-01-08"}`)

	rr := env.do(http.MethodGet, "/api/export/pnl", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("pnl: %d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="PnL_Acme_Corp_2026-01-09.csv"` {
		t.Fatalf("disposition = %q", cd)
	}
	body := rr.Body.String()
	for _, want := range []string{`"Total Revenue","1,000"`, `"Profit Margin","60.0%"`, `Category,Income,Expenses,Count`} {
		if !strings.Contains(body, want) {
			t.Fatalf("pnl missing %q:\n%s", want, body)
		}
	}

	rr = env.do(http.MethodGet, "/api/export/transactions?sort=amount&dir=desc", "", "")
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="Transactions_Acme_Corp_2026-01-09.csv"` {
		t.Fatalf("disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], `"2026-01-09","income"`) {
		t.Fatalf("unexpected export:\n%s", rr.Body.String())
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	store := memory.New()
	loader := report.NewLoader(report.Sources{Ledger: store}, nil)
	reports := report.NewService(loader, report.NewEngine(estimate.DefaultModel()), time.Minute, nil)
	srv := NewServer(Config{RateLimitPerMinute: 1, Logger: log.New(log.Config{Output: io.Discard})},
		reports, services.NewLedgerService(store))
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	codes := make([]int, 0, 3)
	for range 2 {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/transactions/x", nil))
		codes = append(codes, rr.Code)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/report", nil))
	codes = append(codes, rr.Code)

	if codes[0] != http.StatusNotFound || codes[1] != http.StatusTooManyRequests || codes[2] != http.StatusOK {
		t.Fatalf("codes = %v", codes)
	}
}
