package mapping

import (
	"fmt"
	"strings"

	"finboard/internal/core"

	"github.com/shopspring/decimal"
)

// kpiKeys maps key/value sheet labels to aggregate fields.
var kpiKeys = map[string]string{
	"monthlyrevenue":          "revenue",
	"revenue":                 "revenue",
	"monthlyexpenses":         "expenses",
	"expenses":                "expenses",
	"netprofit":               "net",
	"profit":                  "net",
	"burnrate":                "burn",
	"burn":                    "burn",
	"cashrunwaymonths":        "runway",
	"runway":                  "runway",
	"runwaymonths":            "runway",
	"breakevenmonth":          "breakeven",
	"breakeven":               "breakeven",
	"customeracquisitioncost": "cac",
	"cac":                     "cac",
	"datasource":              "source",
}

// Transactions maps a header-led table to transactions. Rows without a usable
// amount or with an unknown kind are skipped and counted. When the kind
// column is absent or blank the sign of the amount decides it. Rows without
// an ID get idPrefix plus their row number.
func Transactions(values [][]string, src core.Source, idPrefix string) (txs []core.Transaction, skipped int) {
	if len(values) == 0 {
		return nil, 0
	}
	cols := TransactionFields.Resolve(values[0])
	for i, row := range values[1:] {
		if blank(row) {
			continue
		}
		amount, err := core.ParseAmount(cols.Get(row, FieldAmount))
		if err != nil {
			skipped++
			continue
		}
		kind := core.Income
		if amount.IsNegative() {
			kind = core.Expense
		}
		if raw := cols.Get(row, FieldKind); raw != "" {
			if kind, err = core.ParseKind(raw); err != nil {
				skipped++
				continue
			}
		}
		id := cols.Get(row, FieldID)
		if id == "" {
			id = fmt.Sprintf("%s%d", idPrefix, i+2)
		}
		rowSrc := src
		if s := core.Source(strings.ToLower(cols.Get(row, FieldSource))); s == core.SourceSynced || s == core.SourceGenerated || s == core.SourceManual {
			rowSrc = s
		}
		t := core.Transaction{
			ID:            id,
			Kind:          kind,
			Amount:        amount,
			Category:      cols.Get(row, FieldCategory),
			Description:   cols.Get(row, FieldDescription),
			Date:          cols.Get(row, FieldDate),
			ClientName:    cols.Get(row, FieldClientName),
			InvoiceNumber: cols.Get(row, FieldInvoice),
			Source:        rowSrc,
		}
		txs = append(txs, t.Normalize())
	}
	return txs, skipped
}

// Inputs maps a header-led table to unvalidated creation inputs, one per
// non-blank row. A blank kind is taken from the amount sign when the amount
// reads as a number.
func Inputs(values [][]string) []core.TransactionInput {
	if len(values) == 0 {
		return nil
	}
	cols := TransactionFields.Resolve(values[0])
	var out []core.TransactionInput
	for _, row := range values[1:] {
		if blank(row) {
			continue
		}
		in := core.TransactionInput{
			Kind:          cols.Get(row, FieldKind),
			Amount:        cols.Get(row, FieldAmount),
			Category:      cols.Get(row, FieldCategory),
			Description:   cols.Get(row, FieldDescription),
			Date:          cols.Get(row, FieldDate),
			ClientName:    cols.Get(row, FieldClientName),
			InvoiceNumber: cols.Get(row, FieldInvoice),
		}
		if in.Kind == "" {
			if amt, err := core.ParseAmount(in.Amount); err == nil {
				in.Kind = string(core.Income)
				if amt.IsNegative() {
					in.Kind = string(core.Expense)
				}
			}
		}
		out = append(out, in)
	}
	return out
}

// Payroll maps a roster table. Rows without a name or with an unreadable
// amount are dropped.
func Payroll(values [][]string) []core.PayrollEntry {
	if len(values) == 0 {
		return nil
	}
	cols := PayrollFields.Resolve(values[0])
	var out []core.PayrollEntry
	for _, row := range values[1:] {
		name := cols.Get(row, FieldName)
		if name == "" {
			continue
		}
		amount, err := core.ParseAmount(cols.Get(row, FieldAmount))
		if err != nil {
			continue
		}
		out = append(out, core.PayrollEntry{
			Name:          name,
			Role:          cols.Get(row, FieldRole),
			MonthlyAmount: amount.Abs(),
		})
	}
	return out
}

// KPIs reads a two column label/value table. Unknown labels are ignored and
// the data source tag defaults to live.
func KPIs(values [][]string) (core.AggregateKPIs, core.DataSourceTag) {
	var k core.AggregateKPIs
	tag := core.DataSourceLive
	for _, row := range values {
		if len(row) < 2 {
			continue
		}
		key, ok := kpiKeys[normalizeKey(row[0])]
		if !ok {
			continue
		}
		val := strings.TrimSpace(row[1])
		switch key {
		case "revenue":
			k.MonthlyRevenue = Optional(val)
		case "expenses":
			k.MonthlyExpenses = Optional(val)
		case "net":
			k.NetProfit = Optional(val)
		case "burn":
			k.BurnRate = Optional(val)
		case "runway":
			k.CashRunwayMonths = Optional(val)
		case "breakeven":
			k.BreakEvenMonth = val
		case "cac":
			k.CustomerAcquisitionCost = Optional(val)
		case "source":
			if val != "" {
				tag = core.DataSourceTag(strings.ToLower(val))
			}
		}
	}
	return k, tag
}

// Projections maps a month/revenue/expenses table.
func Projections(values [][]string) []core.Projection {
	if len(values) == 0 {
		return nil
	}
	cols := ProjectionFields.Resolve(values[0])
	var out []core.Projection
	for _, row := range values[1:] {
		month := cols.Get(row, FieldMonth)
		if month == "" {
			continue
		}
		out = append(out, core.Projection{
			Month:    month,
			Revenue:  amountOrZero(cols.Get(row, FieldRevenue)),
			Expenses: amountOrZero(cols.Get(row, FieldExpenses)).Abs(),
		})
	}
	return out
}

// Channels maps a one-row-per-channel metrics table, keyed by lowercased
// channel name.
func Channels(values [][]string) map[core.Channel]core.ChannelMetrics {
	out := make(map[core.Channel]core.ChannelMetrics)
	if len(values) == 0 {
		return out
	}
	cols := ChannelFields.Resolve(values[0])
	for _, row := range values[1:] {
		ch := core.Channel(strings.ToLower(cols.Get(row, FieldChannel)))
		if ch == "" {
			continue
		}
		out[ch] = core.ChannelMetrics{
			Spend:       Optional(cols.Get(row, FieldSpend)),
			Revenue:     Optional(cols.Get(row, FieldRevenue)),
			Clicks:      Optional(cols.Get(row, FieldClicks)),
			Impressions: Optional(cols.Get(row, FieldImpressions)),
			Orders:      Optional(cols.Get(row, FieldOrders)),
		}
	}
	return out
}

// Optional parses a numeric cell; blank or unreadable cells are undefined.
func Optional(s string) core.Optional {
	d, err := core.ParseAmount(s)
	if err != nil {
		return core.None()
	}
	return core.Some(d.InexactFloat64())
}

func amountOrZero(s string) decimal.Decimal {
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
