// Package aggregate turns a ledger snapshot into the derived totals, category
// distribution and time trend shown on the dashboard. All values are in the base
// unit; converting to a display currency is left to callers.
package aggregate

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendora-backend/ledger"
)

// Uncategorized labels records saved without a category.
const Uncategorized = "Uncategorized"

const dateLayout = "2006-01-02"

type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// View is the full derived state for one snapshot. It is never persisted.
type View struct {
	Count           int             `json:"count"`
	TotalBase       decimal.Decimal `json:"totalBase"`
	MonthToDateBase decimal.Decimal `json:"monthToDateBase"`
	Categories      []CategoryTotal `json:"categories"`
	Granularity     Granularity     `json:"granularity"`
	Trend           []TrendPoint    `json:"trend"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

// Compute recomputes every field of the view from scratch.
func Compute(records []ledger.Record, now time.Time, g Granularity, window int) View {
	return View{
		Count:           len(records),
		TotalBase:       SumBase(records),
		MonthToDateBase: MonthToDate(records, now),
		Categories:      CategoryDistribution(records),
		Granularity:     g,
		Trend:           TimeTrend(records, g, window, now),
		GeneratedAt:     now,
	}
}

func SumBase(records []ledger.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount.Decimal())
	}
	return total
}

// MonthToDate sums the records dated in now's calendar month. Records with a
// missing or malformed date are skipped.
func MonthToDate(records []ledger.Record, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		d, ok := ParseDate(r.Date)
		if !ok {
			continue
		}
		if d.Year() == now.Year() && d.Month() == now.Month() {
			total = total.Add(r.Amount.Decimal())
		}
	}
	return total
}

// CategoryDistribution sums amounts per category in order of first appearance.
func CategoryDistribution(records []ledger.Record) []CategoryTotal {
	index := map[string]int{}
	out := make([]CategoryTotal, 0)
	for _, r := range records {
		label := CategoryLabel(r.Category)
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, CategoryTotal{Category: label, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(r.Amount.Decimal())
	}
	return out
}

// CategoryLabel returns the label a record's category aggregates under.
func CategoryLabel(category string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return Uncategorized
}

// DateKey returns the ISO date part of a record date, dropping any time suffix.
func DateKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		return s[:len(dateLayout)]
	}
	return s
}

// ParseDate reads the calendar date of a record. Timestamps carrying a time part
// are truncated to their date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return time.Time{}, false
	}
	d, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
