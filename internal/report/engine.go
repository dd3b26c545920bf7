package report

import (
	"log/slog"

	"finboard/internal/breakdown"
	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/estimate"
	"finboard/internal/kpi"
	"finboard/internal/ledgerview"
	"finboard/internal/reconcile"

	"github.com/shopspring/decimal"
)

// Engine computes reports. Results are memoized by snapshot content, so an
// unchanged snapshot never pays for another sort.
type Engine struct {
	model  estimate.Model
	sorter *ledgerview.Sorter
	policy reconcile.Policy
	memo   cache.Store[Report]
	logger *slog.Logger
}

type EngineOption func(*Engine)

func WithPolicy(p reconcile.Policy) EngineOption   { return func(e *Engine) { e.policy = p } }
func WithSorter(s *ledgerview.Sorter) EngineOption { return func(e *Engine) { e.sorter = s } }
func WithMemo(m cache.Store[Report]) EngineOption  { return func(e *Engine) { e.memo = m } }
func WithLogger(l *slog.Logger) EngineOption       { return func(e *Engine) { e.logger = l } }

func NewEngine(model estimate.Model, opts ...EngineOption) *Engine {
	e := &Engine{
		model:  model,
		sorter: ledgerview.DefaultSorter(),
		policy: reconcile.PreferRemoteIfNonEmpty{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recompute returns the report for s. It is a pure function of s and the
// engine configuration.
func (e *Engine) Recompute(s Snapshot) Report {
	var key string
	if e.memo != nil {
		k, err := s.fingerprint()
		if err != nil {
			e.logger.Warn("Snapshot fingerprint failed, computing without memo", "error", err)
		} else if r, ok := e.memo.Get(k); ok {
			return r
		} else {
			key = k
		}
	}
	r := e.compute(s)
	if key != "" {
		e.memo.Set(key, r)
	}
	return r
}

// Invalidate drops every memoized report.
func (e *Engine) Invalidate() {
	if e.memo != nil {
		e.memo.Purge()
	}
}

func (e *Engine) compute(s Snapshot) Report {
	sel := e.policy.Select(s.Remote, s.Local)
	if sel.FellBack {
		e.logger.Warn("Live feed returned no transactions, showing local ledger",
			"local_count", len(s.Local))
	}

	working := e.sorter.Sort(sel.Working, s.Sort)

	agg := s.Aggregate
	if agg != nil && sel.Authority != reconcile.AuthorityRemote {
		// Money figures of a feed we are not showing would contradict the
		// working set; keep only the pass-through fields.
		passThrough := *agg
		passThrough.KPIs.MonthlyRevenue = core.None()
		passThrough.KPIs.MonthlyExpenses = core.None()
		passThrough.KPIs.NetProfit = core.None()
		agg = &passThrough
	}

	shop, shopOK := s.Channels[core.ChannelShopify]
	meta, metaOK := s.Channels[core.ChannelMeta]

	r := Report{
		Working:    working,
		Authority:  sel.Authority,
		FellBack:   sel.FellBack,
		DataSource: s.Remote.DataSource,
		Sort:       s.Sort,
		KPIs: kpi.Calculate(working, agg, kpi.Marketing{
			Revenue: shop.Revenue,
			AdSpend: meta.Spend,
			Orders:  shop.Orders,
			Clicks:  meta.Clicks,
		}, e.model),
		Channels: breakdown.Channels(breakdown.ChannelInput{
			ShopifyRevenue:   decimal.NewFromFloat(shop.Revenue.OrZero()),
			MetaSpend:        decimal.NewFromFloat(meta.Spend.OrZero()),
			ShopifyConnected: shopOK,
			MetaConnected:    metaOK,
		}, e.model),
		Payroll:          s.Roster,
		PayrollConnected: s.RosterConnected,
	}

	if sel.Authority == reconcile.AuthorityRemote && s.Aggregate != nil && len(s.Aggregate.CategoryBreakdown) > 0 {
		r.Categories = breakdown.FromBuckets(s.Aggregate.CategoryBreakdown)
	} else {
		r.Categories = breakdown.Categories(working)
	}
	if s.Aggregate != nil {
		r.Projections = s.Aggregate.Projections
	}
	return r
}
