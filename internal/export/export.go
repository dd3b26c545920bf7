package export

import (
	"strings"
	"time"

	"finboard/internal/breakdown"
	"finboard/internal/core"
)

const (
	ReportPnL          = "PnL"
	ReportTransactions = "Transactions"
)

// PnLInput is everything the profit and loss report shows.
type PnLInput struct {
	EntityName string
	Date       time.Time
	KPIs       core.KPISet
	Payroll    []core.PayrollEntry
	Categories []breakdown.Bucket
}

// PnL renders the profit and loss statement. The category table is only
// written when category data is present.
func PnL(in PnLInput) string {
	var w rowWriter
	w.Text("Profit & Loss Statement").Text(in.EntityName).End()
	w.Text("Date").Text(in.Date.Format(time.DateOnly)).End()
	w.Blank()

	w.Text("Revenue").End()
	w.Text("Total Revenue").Amount(in.KPIs.MonthlyRevenue).End()
	w.Blank()

	w.Text("Expenses").End()
	for _, p := range in.Payroll {
		label := "Payroll: " + p.Name
		if p.Role != "" {
			label += " (" + p.Role + ")"
		}
		w.Text(label).Amount(p.MonthlyAmount).End()
	}
	w.Text("Total Expenses").Amount(in.KPIs.MonthlyExpenses).End()
	w.Blank()

	w.Text("Net Profit").Amount(in.KPIs.NetProfit).End()
	margin := in.KPIs.ProfitMarginPct.Format(1)
	if in.KPIs.ProfitMarginPct.Valid {
		margin += "%"
	}
	w.Text("Profit Margin").Text(margin).End()

	if len(in.Categories) > 0 {
		w.Blank()
		w.Text("Category Breakdown").End()
		w.Header("Category", "Income", "Expenses", "Count")
		for _, b := range in.Categories {
			w.Text(b.Name).Amount(b.IncomeTotal).Amount(b.ExpenseTotal).Int(b.Count).End()
		}
	}
	return w.String()
}

// Transactions renders every transaction of the sorted set, not a page of it.
// Amounts are magnitudes; the Type column carries the direction.
func Transactions(sorted []core.Transaction) string {
	var w rowWriter
	w.Header("Date", "Type", "Category", "Description", "Client", "Invoice", "Amount")
	for _, t := range sorted {
		w.Text(t.Date).
			Text(string(t.Kind)).
			Text(t.Category).
			Text(t.Description).
			Text(t.ClientName).
			Text(t.InvoiceNumber).
			Amount(t.Amount.Abs()).
			End()
	}
	return w.String()
}

// Filename returns <ReportType>_<EntityName>_<ISODate>.csv. Whitespace runs
// in the entity name become a single underscore.
func Filename(reportType, entityName string, date time.Time) string {
	entity := strings.Join(strings.Fields(entityName), "_")
	entity = strings.NewReplacer("/", "-", `\`, "-").Replace(entity)
	return reportType + "_" + entity + "_" + date.Format(time.DateOnly) + ".csv"
}
