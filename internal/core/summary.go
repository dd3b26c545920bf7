package core

import "github.com/shopspring/decimal"

// DataSourceTag marks how an aggregate payload was produced upstream.
type DataSourceTag string

const (
	// DataSourceLive marks data from the synced accounting feed.
	DataSourceLive DataSourceTag = "live"
	DataSourceDemo DataSourceTag = "demo"
)

// CategoryBucket is the per-category accumulation of a transaction set.
// ExpenseTotal is stored as a positive magnitude.
type CategoryBucket struct {
	Name         string
	IncomeTotal  decimal.Decimal
	ExpenseTotal decimal.Decimal
	Count        int
}

// KPISet holds the scalar business metrics of a report.
type KPISet struct {
	MonthlyRevenue          decimal.Decimal
	MonthlyExpenses         decimal.Decimal
	NetProfit               decimal.Decimal
	ProfitMarginPct         Optional
	BurnRate                Optional
	CashRunwayMonths        Optional
	BreakEvenMonth          string
	CustomerAcquisitionCost Optional
	ROAS                    Optional
	ConversionRatePct       Optional
}

// ChannelAttribution is a derived, never persisted revenue estimate.
type ChannelAttribution struct {
	Label          string
	EstimatedValue decimal.Decimal
	Share          float64
	Connected      bool
}

// AggregateKPIs are the figures a backend aggregate may supply. Any of them
// can be missing.
type AggregateKPIs struct {
	MonthlyRevenue          Optional
	MonthlyExpenses         Optional
	NetProfit               Optional
	BurnRate                Optional
	CashRunwayMonths        Optional
	BreakEvenMonth          string
	CustomerAcquisitionCost Optional
}

type Projection struct {
	Month    string
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
}

// Aggregate is the payload of the backend aggregate report.
type Aggregate struct {
	KPIs                 AggregateKPIs
	Projections          []Projection
	CategoryBreakdown    []CategoryBucket
	EmbeddedTransactions []Transaction
	DataSource           DataSourceTag
}

// Channel names a marketing metrics feed.
type Channel string

const (
	ChannelShopify Channel = "shopify"
	ChannelMeta    Channel = "meta"
)

type DailyPoint struct {
	Date  string
	Value float64
}

// ChannelMetrics is what a channel feed returns. Every figure is optional.
type ChannelMetrics struct {
	Spend       Optional
	Revenue     Optional
	Clicks      Optional
	Impressions Optional
	Orders      Optional
	DailySeries []DailyPoint
}

// PayrollEntry is a team roster line normalized at ingestion.
type PayrollEntry struct {
	Name          string
	Role          string
	MonthlyAmount decimal.Decimal
}
