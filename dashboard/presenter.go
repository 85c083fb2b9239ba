package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"spendora-backend/aggregate"
	"spendora-backend/ledger"
	"spendora-backend/rates"
)

// Money is an amount converted to the display currency. Value is rounded to cents
// here, at render time, and Text carries the formatted string with its symbol.
type Money struct {
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

func money(base decimal.Decimal, currency string, table *rates.Table) Money {
	display := table.ToDisplay(base, currency)
	return Money{
		Value: display.Round(2).InexactFloat64(),
		Text:  rates.Format(display, currency),
	}
}

type ListRow struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Date      string    `json:"date"`
	Amount    Money     `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

type Totals struct {
	Count       int   `json:"count"`
	Total       Money `json:"total"`
	MonthToDate Money `json:"monthToDate"`
}

// Chart is a label/data series ready for a chart library.
type Chart struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// Screen is the rendered dashboard for one snapshot.
type Screen struct {
	Principal   string                `json:"principal"`
	Currency    string                `json:"currency"`
	Symbol      string                `json:"symbol"`
	Granularity aggregate.Granularity `json:"granularity"`
	Rows        []ListRow             `json:"rows"`
	Totals      Totals                `json:"totals"`
	Trend       Chart                 `json:"trend"`
	Categories  Chart                 `json:"categories"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

func RenderList(records []ledger.Record, currency string, table *rates.Table) []ListRow {
	rows := make([]ListRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, ListRow{
			ID:        r.ID,
			Title:     r.Title,
			Category:  aggregate.CategoryLabel(r.Category),
			Date:      r.Date,
			Amount:    money(r.Amount.Decimal(), currency, table),
			CreatedAt: r.CreatedAt,
		})
	}
	return rows
}

func RenderTotals(view aggregate.View, currency string, table *rates.Table) Totals {
	return Totals{
		Count:       view.Count,
		Total:       money(view.TotalBase, currency, table),
		MonthToDate: money(view.MonthToDateBase, currency, table),
	}
}

func RenderTrendChart(trend []aggregate.TrendPoint, currency string, table *rates.Table) Chart {
	c := Chart{Labels: make([]string, 0, len(trend)), Data: make([]float64, 0, len(trend))}
	for _, p := range trend {
		c.Labels = append(c.Labels, p.Label)
		c.Data = append(c.Data, table.ToDisplay(p.Total, currency).Round(2).InexactFloat64())
	}
	return c
}

func RenderCategoryChart(dist []aggregate.CategoryTotal, currency string, table *rates.Table) Chart {
	c := Chart{Labels: make([]string, 0, len(dist)), Data: make([]float64, 0, len(dist))}
	for _, d := range dist {
		c.Labels = append(c.Labels, d.Category)
		c.Data = append(c.Data, table.ToDisplay(d.Total, currency).Round(2).InexactFloat64())
	}
	return c
}
