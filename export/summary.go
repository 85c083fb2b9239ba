// Package export filters a ledger snapshot for download and renders it as JSON,
// PDF, Word-compatible HTML or XLSX.
package export

import (
	"github.com/shopspring/decimal"

	"spendora-backend/aggregate"
	"spendora-backend/ledger"
	"spendora-backend/rates"
)

// Filter narrows an export. Empty fields do not constrain. Dates are ISO strings
// compared lexicographically on their date part.
type Filter struct {
	From     string `form:"from" json:"from,omitempty" binding:"omitempty,isodate"`
	To       string `form:"to" json:"to,omitempty" binding:"omitempty,isodate"`
	Category string `form:"category" json:"category,omitempty"`
}

func (f Filter) IsEmpty() bool {
	return f.From == "" && f.To == "" && f.Category == ""
}

// Match reports whether r passes the filter. A record without a date fails any
// date bound. Records saved without a category match "Uncategorized".
func (f Filter) Match(r ledger.Record) bool {
	if f.Category != "" && aggregate.CategoryLabel(r.Category) != f.Category {
		return false
	}
	date := aggregate.DateKey(r.Date)
	if f.From != "" && (date == "" || date < f.From) {
		return false
	}
	if f.To != "" && (date == "" || date > f.To) {
		return false
	}
	return true
}

// Apply returns the records passing the filter in their original order.
func (f Filter) Apply(records []ledger.Record) []ledger.Record {
	out := make([]ledger.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

type Summary struct {
	Records        []ledger.Record
	ByCategory     []aggregate.CategoryTotal
	GrandTotalBase decimal.Decimal
}

func Summarize(records []ledger.Record, f Filter) Summary {
	filtered := f.Apply(records)
	return Summary{
		Records:        filtered,
		ByCategory:     aggregate.CategoryDistribution(filtered),
		GrandTotalBase: aggregate.SumBase(filtered),
	}
}

// Row is one line of the export table. Value is the converted amount rounded to
// cents and Amount its formatted text.
type Row struct {
	Date     string
	Title    string
	Category string
	Amount   string
	Value    decimal.Decimal
}

func BuildExportTable(records []ledger.Record, currency string, table *rates.Table) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		value := table.ToDisplay(r.Amount.Decimal(), currency).Round(2)
		rows = append(rows, Row{
			Date:     r.Date,
			Title:    r.Title,
			Category: aggregate.CategoryLabel(r.Category),
			Amount:   rates.FormatNumber(value),
			Value:    value,
		})
	}
	return rows
}

// BuildSummaryBlock returns one "category: amount" line per category followed by
// the grand total, converted to currency.
func BuildSummaryBlock(byCategory []aggregate.CategoryTotal, grandTotalBase decimal.Decimal, currency string, table *rates.Table) []string {
	lines := make([]string, 0, len(byCategory)+1)
	for _, c := range byCategory {
		lines = append(lines, c.Category+": "+rates.FormatNumber(table.ToDisplay(c.Total, currency)))
	}
	return append(lines, "Total: "+rates.FormatNumber(table.ToDisplay(grandTotalBase, currency)))
}
