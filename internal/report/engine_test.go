package report

import (
	"math"
	"testing"
	"time"

	"finboard/internal/breakdown"
	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/estimate"
	"finboard/internal/ledgerview"
	"finboard/internal/reconcile"

	"github.com/shopspring/decimal"
)

func tx(id string, kind core.Kind, amount int64, date, category string) core.Transaction {
	return core.Transaction{ID: id, Kind: kind, Amount: decimal.NewFromInt(amount), Date: date, Category: category}
}

func TestRecomputeScenario(t *testing.T) {
	e := NewEngine(estimate.DefaultModel())
	r := e.Recompute(Snapshot{
		Local: []core.Transaction{
			tx("1", core.Income, 100, "2026-01-01", "Sales"),
			tx("2", core.Expense, 40, "2026-01-02", "Rent"),
		},
		Sort: ledgerview.DefaultSortState(),
	})
	if !r.KPIs.NetProfit.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("net profit = %s", r.KPIs.NetProfit)
	}
	if len(r.Categories.Buckets) != 2 {
		t.Fatalf("buckets = %+v", r.Categories.Buckets)
	}
	if r.Working[0].ID != "2" {
		t.Fatalf("default sort should be date descending, got %s first", r.Working[0].ID)
	}
	if r.Authority != reconcile.AuthorityLocal {
		t.Fatalf("authority = %s", r.Authority)
	}
	for _, c := range r.Channels {
		if c.Connected {
			t.Fatalf("%s should be not connected without feeds", c.Label)
		}
	}
}

func TestRecomputeEmptyLiveFeedFallsBack(t *testing.T) {
	e := NewEngine(estimate.DefaultModel())
	local := []core.Transaction{
		tx("1", core.Income, 1, "2026-01-01", ""),
		tx("2", core.Income, 1, "2026-01-02", ""),
		tx("3", core.Income, 1, "2026-01-03", ""),
	}
	agg := &core.Aggregate{DataSource: core.DataSourceLive, KPIs: core.AggregateKPIs{MonthlyRevenue: core.Some(999)}}
	r := e.Recompute(Snapshot{
		Local:     local,
		Remote:    reconcile.RemoteSet{DataSource: core.DataSourceLive},
		Aggregate: agg,
		Sort:      ledgerview.DefaultSortState(),
	})
	if len(r.Working) != 3 || !r.FellBack {
		t.Fatalf("working=%d fellBack=%v", len(r.Working), r.FellBack)
	}
	if !r.KPIs.MonthlyRevenue.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("revenue should come from the shown set, got %s", r.KPIs.MonthlyRevenue)
	}
}

func TestRecomputeLiveFeedUsesAggregate(t *testing.T) {
	e := NewEngine(estimate.DefaultModel())
	agg := &core.Aggregate{
		DataSource: core.DataSourceLive,
		KPIs: core.AggregateKPIs{
			MonthlyRevenue:   core.Some(5000),
			MonthlyExpenses:  core.Some(2000),
			CashRunwayMonths: core.Some(9),
		},
		CategoryBreakdown: []core.CategoryBucket{{Name: "Consulting", IncomeTotal: decimal.NewFromInt(5000), Count: 4}},
		Projections:       []core.Projection{{Month: "2026-02"}},
	}
	remote := []core.Transaction{{ID: "r1", Kind: core.Income, Amount: decimal.NewFromInt(10), Source: core.SourceSynced}}
	r := e.Recompute(Snapshot{
		Local:     []core.Transaction{tx("l1", core.Expense, 7, "", "")},
		Remote:    reconcile.RemoteSet{Transactions: remote, DataSource: core.DataSourceLive},
		Aggregate: agg,
	})
	if r.Authority != reconcile.AuthorityRemote || len(r.Working) != 1 || r.Working[0].ID != "r1" {
		t.Fatalf("working = %+v", r.Working)
	}
	if !r.KPIs.NetProfit.Equal(decimal.NewFromInt(3000)) || r.KPIs.CashRunwayMonths.Value != 9 {
		t.Fatalf("kpis = %+v", r.KPIs)
	}
	if r.Categories.Buckets[0].Name != "Consulting" || r.Categories.Buckets[0].Dominance != breakdown.IncomeDominant {
		t.Fatalf("categories = %+v", r.Categories)
	}
	if len(r.Projections) != 1 {
		t.Fatalf("projections = %+v", r.Projections)
	}
}

func TestRecomputeChannelsAndMarketing(t *testing.T) {
	e := NewEngine(estimate.DefaultModel())
	r := e.Recompute(Snapshot{
		Channels: map[core.Channel]core.ChannelMetrics{
			core.ChannelShopify: {Revenue: core.Some(10000), Orders: core.Some(20)},
			core.ChannelMeta:    {Spend: core.Some(1000), Clicks: core.Some(200)},
		},
	})
	if r.KPIs.ROAS.Value != 10 {
		t.Fatalf("roas = %+v", r.KPIs.ROAS)
	}
	if math.Abs(r.KPIs.ConversionRatePct.Value-4) > 1e-9 {
		t.Fatalf("conversion = %+v", r.KPIs.ConversionRatePct)
	}
	if !r.Channels[0].EstimatedValue.Equal(decimal.NewFromInt(7500)) || !r.Channels[1].Connected {
		t.Fatalf("channels = %+v", r.Channels)
	}
}

func TestRecomputeIsMemoized(t *testing.T) {
	memo := cache.NewLRU[Report](8, time.Minute)
	e := NewEngine(estimate.DefaultModel(), WithMemo(memo))
	s := Snapshot{Local: []core.Transaction{tx("1", core.Income, 1, "2026-01-01", "")}}

	first := e.Recompute(s)
	second := e.Recompute(s)
	if &first.Working[0] != &second.Working[0] {
		t.Fatal("identical snapshot should reuse the memoized report")
	}
	if hits, _ := memo.Stats(); hits != 1 {
		t.Fatalf("hits = %d", hits)
	}

	s.Sort = s.Sort.Toggle(ledgerview.FieldAmount)
	e.Recompute(s)
	if memo.Len() != 2 {
		t.Fatalf("sort change should produce a new entry, len=%d", memo.Len())
	}

	e.Invalidate()
	if memo.Len() != 0 {
		t.Fatal("invalidate should purge the memo")
	}
}
