package main

import (
	"bytes"
	"strings"
	"testing"

	"finboard/internal/breakdown"
	"finboard/internal/core"
	"finboard/internal/reconcile"
	"finboard/internal/report"

	"github.com/shopspring/decimal"
)

func TestPrintKPIs(t *testing.T) {
	r := report.Report{
		Authority: reconcile.AuthorityLocal,
		KPIs: core.KPISet{
			MonthlyRevenue:  decimal.NewFromInt(1000),
			MonthlyExpenses: decimal.NewFromInt(400),
			NetProfit:       decimal.NewFromInt(600),
			ProfitMarginPct: core.Some(60),

			ConversionRatePct: core.Some(4),
		},
	}
	var buf bytes.Buffer
	printKPIs(&buf, r)
	out := buf.String()

	for _, want := range []string{"Authority", "local", "1,000", "60.0%", "ROAS", "Conversion rate (est.)", "4.00%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Fell back") {
		t.Fatalf("unexpected fallback line:\n%s", out)
	}
	if strings.Contains(out, "Break-even") {
		t.Fatalf("break-even printed without a month:\n%s", out)
	}
}

func TestPrintCategories(t *testing.T) {
	r := report.Report{Categories: breakdown.CategoryBreakdown{Buckets: []breakdown.Bucket{
		{CategoryBucket: core.CategoryBucket{Name: "Sales", IncomeTotal: decimal.NewFromInt(2500), Count: 3}},
	}}}
	var buf bytes.Buffer
	printCategories(&buf, r)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "Sales") || !strings.Contains(lines[1], "2,500") {
		t.Fatalf("unexpected row %q", lines[1])
	}
}
