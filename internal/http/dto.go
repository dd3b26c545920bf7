package http

import (
	"finboard/internal/breakdown"
	"finboard/internal/core"
	"finboard/internal/ledgerview"
	"finboard/internal/report"

	"github.com/shopspring/decimal"
)

// JSON views of the report. Undefined figures encode as null; amounts encode
// as decimal strings.

type transactionJSON struct {
	ID            string          `json:"id"`
	Type          core.Kind       `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Date          string          `json:"date"`
	ClientName    string          `json:"clientName,omitempty"`
	InvoiceNumber string          `json:"invoiceNumber,omitempty"`
	Source        core.Source     `json:"source"`
}

type kpisJSON struct {
	MonthlyRevenue             decimal.Decimal `json:"monthlyRevenue"`
	MonthlyExpenses            decimal.Decimal `json:"monthlyExpenses"`
	NetProfit                  decimal.Decimal `json:"netProfit"`
	ProfitMarginPct            *float64        `json:"profitMarginPct"`
	BurnRate                   *float64        `json:"burnRate"`
	CashRunwayMonths           *float64        `json:"cashRunwayMonths"`
	BreakEvenMonth             string          `json:"breakEvenMonth,omitempty"`
	CustomerAcquisitionCost    *float64        `json:"customerAcquisitionCost"`
	ROAS                       *float64        `json:"roas"`
	// Orders over modelled visits, not a measured rate.
	EstimatedConversionRatePct *float64        `json:"estimatedConversionRatePct"`
}

type categoryJSON struct {
	Name         string          `json:"name"`
	IncomeTotal  decimal.Decimal `json:"incomeTotal"`
	ExpenseTotal decimal.Decimal `json:"expenseTotal"`
	Count        int             `json:"count"`
	Dominance    string          `json:"dominance"`
	Ratio        float64         `json:"ratio"`
}

type channelJSON struct {
	Label          string          `json:"label"`
	EstimatedValue decimal.Decimal `json:"estimatedValue"`
	Share          float64         `json:"share"`
	Connected      bool            `json:"connected"`
}

type projectionJSON struct {
	Month    string          `json:"month"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
}

type payrollEntryJSON struct {
	Name          string          `json:"name"`
	Role          string          `json:"role,omitempty"`
	MonthlyAmount decimal.Decimal `json:"monthlyAmount"`
}

type payrollJSON struct {
	Connected bool               `json:"connected"`
	Entries   []payrollEntryJSON `json:"entries"`
}

type sortJSON struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

type sourceErrorJSON struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

type reportJSON struct {
	Authority    string            `json:"authority"`
	FellBack     bool              `json:"fellBack"`
	DataSource   string            `json:"dataSource,omitempty"`
	Sort         sortJSON          `json:"sort"`
	Transactions []transactionJSON `json:"transactions"`
	Loaded       int               `json:"loaded"`
	Window       int               `json:"window"`
	Total        int               `json:"total"`
	HasMore      bool              `json:"hasMore"`
	KPIs         kpisJSON          `json:"kpis"`
	Categories   []categoryJSON    `json:"categories"`
	Channels     []channelJSON     `json:"channels"`
	Projections  []projectionJSON  `json:"projections"`
	Payroll      payrollJSON       `json:"payroll"`
	Errors       []sourceErrorJSON `json:"errors,omitempty"`
}

func optional(o core.Optional) *float64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:            t.ID,
		Type:          t.Kind,
		Amount:        t.Amount,
		Category:      t.Category,
		Description:   t.Description,
		Date:          t.Date,
		ClientName:    t.ClientName,
		InvoiceNumber: t.InvoiceNumber,
		Source:        t.Source,
	}
}

func toTransactionsJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t))
	}
	return out
}

func toKPIsJSON(k core.KPISet) kpisJSON {
	return kpisJSON{
		MonthlyRevenue:             k.MonthlyRevenue,
		MonthlyExpenses:            k.MonthlyExpenses,
		NetProfit:                  k.NetProfit,
		ProfitMarginPct:            optional(k.ProfitMarginPct),
		BurnRate:                   optional(k.BurnRate),
		CashRunwayMonths:           optional(k.CashRunwayMonths),
		BreakEvenMonth:             k.BreakEvenMonth,
		CustomerAcquisitionCost:    optional(k.CustomerAcquisitionCost),
		ROAS:                       optional(k.ROAS),
		EstimatedConversionRatePct: optional(k.ConversionRatePct),
	}
}

func toCategoriesJSON(b breakdown.CategoryBreakdown) []categoryJSON {
	out := make([]categoryJSON, 0, len(b.Buckets))
	for _, c := range b.Buckets {
		out = append(out, categoryJSON{
			Name:         c.Name,
			IncomeTotal:  c.IncomeTotal,
			ExpenseTotal: c.ExpenseTotal,
			Count:        c.Count,
			Dominance:    string(c.Dominance),
			Ratio:        c.Ratio,
		})
	}
	return out
}

// reportView rebuilds the client's window over the working set. The window
// was loaded under prev; when the requested sort differs it resets to one
// page. loaded is capped at the working-set length.
func reportView(sorter *ledgerview.Sorter, res report.Result, prev ledgerview.SortState, loaded int) *ledgerview.View {
	r := res.Report
	v := ledgerview.NewView(sorter, r.Working)
	v.SetSort(prev)
	for v.Window() < min(loaded, len(r.Working)) {
		v.LoadMore()
	}
	v.SetSort(r.Sort)
	return v
}

// toReportJSON renders res with the rows visible in v.
func toReportJSON(res report.Result, v *ledgerview.View) reportJSON {
	r := res.Report
	visible := v.Visible()
	out := reportJSON{
		Authority:    string(r.Authority),
		FellBack:     r.FellBack,
		DataSource:   string(r.DataSource),
		Sort:         sortJSON{Field: string(r.Sort.Field), Direction: string(r.Sort.Direction)},
		Transactions: toTransactionsJSON(visible),
		Loaded:       len(visible),
		Window:       v.Window(),
		Total:        len(r.Working),
		HasMore:      v.HasMore(),
		KPIs:         toKPIsJSON(r.KPIs),
		Categories:   toCategoriesJSON(r.Categories),
		Channels:     make([]channelJSON, 0, len(r.Channels)),
		Projections:  make([]projectionJSON, 0, len(r.Projections)),
		Payroll:      payrollJSON{Connected: r.PayrollConnected, Entries: make([]payrollEntryJSON, 0, len(r.Payroll))},
	}
	for _, c := range r.Channels {
		out.Channels = append(out.Channels, channelJSON(c))
	}
	for _, p := range r.Projections {
		out.Projections = append(out.Projections, projectionJSON(p))
	}
	for _, p := range r.Payroll {
		out.Payroll.Entries = append(out.Payroll.Entries, payrollEntryJSON(p))
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, sourceErrorJSON{Source: e.Source, Error: e.Err.Error()})
	}
	return out
}
