// Package mapping turns tabular upstream rows into domain values.
//
// Upstream feeds name the same field in different ways ("client_name",
// "clientName", "client"). Each field is resolved against a fixed synonym
// list once, at the header row, so consumers never see the variants.
package mapping

import (
	"strings"
	"unicode"
)

// Field is a canonical field name.
type Field string

// Table lists the accepted header synonyms per field, in priority order.
type Table map[Field][]string

const (
	FieldID          Field = "id"
	FieldDate        Field = "date"
	FieldKind        Field = "kind"
	FieldAmount      Field = "amount"
	FieldCategory    Field = "category"
	FieldDescription Field = "description"
	FieldClientName  Field = "clientName"
	FieldInvoice     Field = "invoiceNumber"
	FieldSource      Field = "source"

	FieldName Field = "name"
	FieldRole Field = "role"

	FieldChannel     Field = "channel"
	FieldSpend       Field = "spend"
	FieldRevenue     Field = "revenue"
	FieldClicks      Field = "clicks"
	FieldImpressions Field = "impressions"
	FieldOrders      Field = "orders"

	FieldMonth    Field = "month"
	FieldExpenses Field = "expenses"
)

var TransactionFields = Table{
	FieldID:          {"id", "transaction_id", "uuid"},
	FieldDate:        {"date", "transaction_date", "posted_at", "posted"},
	FieldKind:        {"type", "kind", "direction"},
	FieldAmount:      {"amount", "value", "total"},
	FieldCategory:    {"category", "account", "account_name"},
	FieldDescription: {"description", "memo", "details", "narration"},
	FieldClientName:  {"client_name", "client", "customer", "contact"},
	FieldInvoice:     {"invoice_number", "invoice", "invoice_no", "reference"},
	FieldSource:      {"source", "origin"},
}

var PayrollFields = Table{
	FieldName:   {"name", "employee", "full_name"},
	FieldRole:   {"role", "title", "position"},
	FieldAmount: {"amount", "salary", "monthly_amount", "monthly_cost"},
}

var ChannelFields = Table{
	FieldChannel:     {"channel", "platform", "source"},
	FieldSpend:       {"spend", "ad_spend", "cost"},
	FieldRevenue:     {"revenue", "sales", "total_sales"},
	FieldClicks:      {"clicks", "link_clicks"},
	FieldImpressions: {"impressions", "views"},
	FieldOrders:      {"orders", "order_count", "purchases"},
}

var ProjectionFields = Table{
	FieldMonth:    {"month", "period"},
	FieldRevenue:  {"revenue", "projected_revenue"},
	FieldExpenses: {"expenses", "projected_expenses"},
}

// Columns maps each resolved field to its column index.
type Columns map[Field]int

// Resolve matches a header row against the table. The first synonym that
// appears in the header wins; unmatched fields are absent from the result.
func (t Table) Resolve(header []string) Columns {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		k := normalizeKey(h)
		if _, dup := pos[k]; !dup {
			pos[k] = i
		}
	}
	cols := make(Columns, len(t))
	for field, synonyms := range t {
		for _, s := range synonyms {
			if i, ok := pos[normalizeKey(s)]; ok {
				cols[field] = i
				break
			}
		}
	}
	return cols
}

// Has reports whether the field was found in the header.
func (c Columns) Has(f Field) bool {
	_, ok := c[f]
	return ok
}

// Get returns the trimmed cell for f, or "" when the column or cell is absent.
func (c Columns) Get(row []string, f Field) string {
	i, ok := c[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// normalizeKey folds case and drops separators so that "Client Name",
// "client_name" and "clientName" compare equal.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
