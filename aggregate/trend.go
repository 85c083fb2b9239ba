package aggregate

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendora-backend/ledger"
)

type Granularity string

const (
	Day   Granularity = "day"
	Month Granularity = "month"
	Year  Granularity = "year"
)

// ParseGranularity accepts day, month or year in any case. Empty input means Month.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return Month, nil
	case Day, Month, Year:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

// TrendPoint is one bucket of the trend. Key identifies the bucket; Label is for display only.
type TrendPoint struct {
	Key   string          `json:"key"`
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
}

func (g Granularity) keyLayout() string {
	switch g {
	case Day:
		return "2006-01-02"
	case Year:
		return "2006"
	default:
		return "2006-01"
	}
}

func (g Granularity) labelLayout() string {
	switch g {
	case Day:
		return "02 Jan"
	case Year:
		return "2006"
	default:
		return "Jan 06"
	}
}

// start truncates t to the first instant of its bucket.
func (g Granularity) start(t time.Time) time.Time {
	switch g {
	case Day:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Year:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

func (g Granularity) step(t time.Time, n int) time.Time {
	switch g {
	case Day:
		return t.AddDate(0, 0, n)
	case Year:
		return t.AddDate(n, 0, 0)
	default:
		return t.AddDate(0, n, 0)
	}
}

// Key returns the bucket key for a calendar date.
func (g Granularity) Key(t time.Time) string {
	return t.Format(g.keyLayout())
}

// TimeTrend returns exactly window buckets ending at the bucket containing now,
// oldest first. Buckets without records are zero. Records outside the window or
// with an unparseable date do not contribute.
func TimeTrend(records []ledger.Record, g Granularity, window int, now time.Time) []TrendPoint {
	if window <= 0 {
		return []TrendPoint{}
	}
	if _, err := ParseGranularity(string(g)); err != nil || g == "" {
		g = Month
	}

	last := g.start(now)
	points := make([]TrendPoint, window)
	index := make(map[string]int, window)
	for i := 0; i < window; i++ {
		b := g.step(last, i-window+1)
		key := g.Key(b)
		points[i] = TrendPoint{Key: key, Label: b.Format(g.labelLayout()), Total: decimal.Zero}
		index[key] = i
	}

	for _, r := range records {
		d, ok := ParseDate(r.Date)
		if !ok {
			continue
		}
		if i, ok := index[g.Key(d)]; ok {
			points[i].Total = points[i].Total.Add(r.Amount.Decimal())
		}
	}
	return points
}
