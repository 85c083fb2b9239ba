// Package dashboard holds the per-principal application state: the last ledger
// snapshot, the display preferences and the view derived from them.
package dashboard

import (
	"sync"
	"time"

	"spendora-backend/aggregate"
	"spendora-backend/ledger"
	"spendora-backend/rates"
)

const DefaultWindow = 12

type Options struct {
	Currency    string
	Rates       *rates.Table
	Granularity aggregate.Granularity
	Window      int
	Now         func() time.Time
}

// Controller owns the state for one principal. Every input change recomputes the
// view from the full snapshot; nothing is patched incrementally.
type Controller struct {
	mu          sync.Mutex
	principal   string
	records     []ledger.Record
	currency    string
	table       *rates.Table
	granularity aggregate.Granularity
	window      int
	view        aggregate.View
	now         func() time.Time
}

func NewController(principal string, opts Options) *Controller {
	c := &Controller{
		principal:   principal,
		currency:    rates.NormalizeCode(opts.Currency),
		table:       opts.Rates,
		granularity: opts.Granularity,
		window:      opts.Window,
		now:         opts.Now,
	}
	if c.currency == "" {
		c.currency = rates.BaseCurrency
	}
	if c.table == nil {
		c.table = rates.Default()
	}
	if c.granularity == "" {
		c.granularity = aggregate.Month
	}
	if c.window <= 0 {
		c.window = DefaultWindow
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.recomputeLocked()
	return c
}

// OnSnapshot replaces the record list with the store's latest delivery.
func (c *Controller) OnSnapshot(records []ledger.Record) Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = records
	c.recomputeLocked()
	return c.screenLocked()
}

func (c *Controller) SetCurrency(code string, table *rates.Table) Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	if code = rates.NormalizeCode(code); code != "" {
		c.currency = code
	}
	if table != nil {
		c.table = table
	}
	return c.screenLocked()
}

func (c *Controller) SetGranularity(g aggregate.Granularity, window int) Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.granularity = g
	if window > 0 {
		c.window = window
	}
	c.recomputeLocked()
	return c.screenLocked()
}

func (c *Controller) View() aggregate.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) Screen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screenLocked()
}

func (c *Controller) recomputeLocked() {
	c.view = aggregate.Compute(c.records, c.now(), c.granularity, c.window)
}

func (c *Controller) screenLocked() Screen {
	return Screen{
		Principal:   c.principal,
		Currency:    c.currency,
		Symbol:      rates.Symbol(c.currency),
		Granularity: c.view.Granularity,
		Rows:        RenderList(c.records, c.currency, c.table),
		Totals:      RenderTotals(c.view, c.currency, c.table),
		Trend:       RenderTrendChart(c.view.Trend, c.currency, c.table),
		Categories:  RenderCategoryChart(c.view.Categories, c.currency, c.table),
		GeneratedAt: c.view.GeneratedAt,
	}
}
