package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finboard/internal/core"
	"finboard/internal/sources"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets serves Values.Get responses keyed by sheet name.
func fakeSheets(t *testing.T, tabs map[string][][]any) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for name, values := range tabs {
			if strings.Contains(r.URL.Path, "/values/"+name+"!") {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{"range": name, "values": values})
				return
			}
		}
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return New(svc, "sheet-id", DefaultSheetNames(), nil)
}

func TestFetchAggregateReport(t *testing.T) {
	c := fakeSheets(t, map[string][][]any{
		"KPIs": {
			{"Monthly Revenue", 12000.0},
			{"Monthly Expenses", 8000.0},
			{"Burn Rate", 8000.0},
		},
		"Projections": {
			{"Month", "Revenue", "Expenses"},
			{"2026-02", 13000.0, 8100.0},
		},
		"Transactions": {
			{"Date", "Type", "Amount", "Category", "Client"},
			{"9-Jan-2026", "income", 500.0, "Sales", "Acme"},
			{"10-Jan-2026", "expense", -1234.5, "Rent", ""},
		},
	})
	agg, err := c.FetchAggregateReport(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if agg.DataSource != core.DataSourceLive {
		t.Fatalf("tag = %q", agg.DataSource)
	}
	if agg.KPIs.MonthlyRevenue.Value != 12000 || agg.KPIs.BurnRate.Value != 8000 {
		t.Fatalf("kpis = %+v", agg.KPIs)
	}
	if len(agg.Projections) != 1 {
		t.Fatalf("projections = %+v", agg.Projections)
	}
	if len(agg.EmbeddedTransactions) != 2 {
		t.Fatalf("transactions = %+v", agg.EmbeddedTransactions)
	}
	rent := agg.EmbeddedTransactions[1]
	if rent.Amount.String() != "1234.5" || rent.Source != core.SourceSynced || rent.ID != "Transactions!3" {
		t.Fatalf("rent = %+v", rent)
	}
}

func TestFetchAggregateReportMissingKPITab(t *testing.T) {
	c := fakeSheets(t, map[string][][]any{})
	if _, err := c.FetchAggregateReport(context.Background()); err == nil {
		t.Fatal("expected error when the KPI tab cannot be read")
	}
}

func TestPayrollAndChannels(t *testing.T) {
	c := fakeSheets(t, map[string][][]any{
		"Payroll":  {{"Employee", "Title", "Salary"}, {"Ada", "CTO", 5000.0}},
		"Channels": {{"Channel", "Spend", "Revenue"}, {"meta", 1000.0, nil}},
	})
	ctx := context.Background()
	p, err := c.ListPayroll(ctx)
	if err != nil || len(p) != 1 || p[0].MonthlyAmount.IntPart() != 5000 {
		t.Fatalf("payroll = %+v err=%v", p, err)
	}
	m, err := c.FetchChannelMetrics(ctx, core.ChannelMeta)
	if err != nil || m.Spend.Value != 1000 || m.Revenue.Valid {
		t.Fatalf("meta = %+v err=%v", m, err)
	}
	if _, err := c.FetchChannelMetrics(ctx, core.ChannelShopify); !errors.Is(err, sources.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestDisabledTabsAreNotConnected(t *testing.T) {
	c := New(nil, "id", SheetNames{}, nil)
	if _, err := c.ListPayroll(context.Background()); !errors.Is(err, sources.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if _, err := c.FetchAggregateReport(context.Background()); err == nil {
		t.Fatal("expected error without a service")
	}
}

func TestNewServiceMissingCredentials(t *testing.T) {
	if _, err := NewService(context.Background(), Credentials{}); err == nil {
		t.Fatal("expected error without credentials")
	}
	if _, err := NewService(context.Background(), Credentials{File: "/nonexistent/key.json"}); err == nil {
		t.Fatal("expected error for unreadable key file")
	}
}

func TestToStrings(t *testing.T) {
	got := toStrings([]any{1234.5, 1e6, nil, " x ", true})
	want := []string{"1234.5", "1000000", "", "x", "true"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d = %q, want %q", i, got[i], want[i])
		}
	}
}
