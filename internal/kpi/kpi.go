// Package kpi derives the scalar business metrics of a report.
//
// Money totals come either from the working transaction set or from the
// backend aggregate, whichever is authoritative for the view. Burn rate, cash
// runway, break-even month and acquisition cost are never computed here; they
// pass through from the aggregate when it supplies them.
package kpi

import (
	"finboard/internal/core"
	"finboard/internal/estimate"

	"github.com/shopspring/decimal"
)

// Marketing carries the channel figures used for ROAS and conversion.
type Marketing struct {
	Revenue core.Optional
	AdSpend core.Optional
	Orders  core.Optional
	Clicks  core.Optional
}

// FromTransactions sums income and expenses of the working set.
func FromTransactions(txs []core.Transaction) core.KPISet {
	revenue, expenses := decimal.Zero, decimal.Zero
	for _, t := range txs {
		s := t.SignedAmount()
		if s.IsPositive() {
			revenue = revenue.Add(s)
		} else {
			expenses = expenses.Add(s.Neg())
		}
	}
	net := revenue.Sub(expenses)
	return core.KPISet{
		MonthlyRevenue:  revenue,
		MonthlyExpenses: expenses,
		NetProfit:       net,
		ProfitMarginPct: Margin(net, revenue),
	}
}

// FromAggregate builds the set from backend figures. Absent money figures
// default to zero; net profit is recomputed whenever revenue and expenses are
// both supplied so the two can never disagree.
func FromAggregate(a core.AggregateKPIs) core.KPISet {
	revenue := decimal.NewFromFloat(a.MonthlyRevenue.OrZero())
	expenses := decimal.NewFromFloat(a.MonthlyExpenses.OrZero())

	var net decimal.Decimal
	switch {
	case a.MonthlyRevenue.Valid && a.MonthlyExpenses.Valid:
		net = revenue.Sub(expenses)
	case a.NetProfit.Valid:
		net = decimal.NewFromFloat(a.NetProfit.Value)
	default:
		net = revenue.Sub(expenses)
	}

	k := core.KPISet{
		MonthlyRevenue:  revenue,
		MonthlyExpenses: expenses,
		NetProfit:       net,
		ProfitMarginPct: Margin(net, revenue),
	}
	passThrough(&k, a)
	return k
}

func passThrough(k *core.KPISet, a core.AggregateKPIs) {
	k.BurnRate = a.BurnRate
	k.CashRunwayMonths = a.CashRunwayMonths
	k.BreakEvenMonth = a.BreakEvenMonth
	k.CustomerAcquisitionCost = a.CustomerAcquisitionCost
}

// Margin is net/revenue as a percentage, undefined when revenue is zero.
func Margin(net, revenue decimal.Decimal) core.Optional {
	if revenue.IsZero() {
		return core.None()
	}
	return core.Some(net.Div(revenue).Mul(decimal.NewFromInt(100)).InexactFloat64())
}

// ROAS is revenue over ad spend, undefined unless spend is positive.
func ROAS(revenue, adSpend core.Optional) core.Optional {
	if !adSpend.Valid || adSpend.Value <= 0 {
		return core.None()
	}
	return core.Some(revenue.OrZero() / adSpend.Value)
}

// ConversionRate is orders over estimated visits, in percent. The visit count
// is the model's heuristic, not tracked traffic; see estimate.Model.
func ConversionRate(orders, clicks core.Optional, m estimate.Model) core.Optional {
	if !orders.Valid {
		return core.None()
	}
	visits := m.EstimatedVisits(orders.Value, clicks.OrZero())
	if visits <= 0 {
		return core.None()
	}
	return core.Some(orders.Value / visits * 100)
}

// Calculate picks the money source and adds the marketing ratios. The
// aggregate is used when it carries revenue or expenses; otherwise the
// working set is summed and the aggregate only contributes pass-through
// fields.
func Calculate(working []core.Transaction, agg *core.Aggregate, mkt Marketing, m estimate.Model) core.KPISet {
	var k core.KPISet
	if agg != nil && (agg.KPIs.MonthlyRevenue.Valid || agg.KPIs.MonthlyExpenses.Valid) {
		k = FromAggregate(agg.KPIs)
	} else {
		k = FromTransactions(working)
		if agg != nil {
			passThrough(&k, agg.KPIs)
		}
	}
	k.ROAS = ROAS(mkt.Revenue, mkt.AdSpend)
	k.ConversionRatePct = ConversionRate(mkt.Orders, mkt.Clicks, m)
	return k
}
