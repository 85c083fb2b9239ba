package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendora-backend/ledger"
)

func sampleRecords() []ledger.Record {
	return []ledger.Record{
		{Title: "Groceries", Amount: 100, Category: "Food", Date: "2024-01-05"},
		{Title: "Dinner", Amount: 50, Category: "Food", Date: "2024-02-10"},
	}
}

func mustEqual(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: got %s, want %s", name, got, want)
	}
}

func TestTotalsAndDistribution(t *testing.T) {
	records := sampleRecords()

	mustEqual(t, "total", SumBase(records), "150")

	dist := CategoryDistribution(records)
	if len(dist) != 1 || dist[0].Category != "Food" {
		t.Fatalf("unexpected distribution %+v", dist)
	}
	mustEqual(t, "food", dist[0].Total, "150")
}

func TestMonthToDate(t *testing.T) {
	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	mustEqual(t, "february", MonthToDate(sampleRecords(), now), "50")

	withBroken := append(sampleRecords(),
		ledger.Record{Title: "no date", Amount: 10},
		ledger.Record{Title: "bad date", Amount: 10, Date: "15/02/2024"},
		ledger.Record{Title: "timestamp", Amount: 5, Date: "2024-02-20T10:00:00Z"},
	)
	mustEqual(t, "skip malformed", MonthToDate(withBroken, now), "55")
}

func TestSumBaseOrderIndependent(t *testing.T) {
	records := []ledger.Record{
		{Amount: 0.1}, {Amount: 0.2}, {Amount: 12.35}, {Amount: 1000}, {Amount: 7.05},
	}
	forward := SumBase(records)
	reversed := make([]ledger.Record, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}
	if !forward.Equal(SumBase(reversed)) {
		t.Fatalf("sum depends on order: %s vs %s", forward, SumBase(reversed))
	}
	mustEqual(t, "sum", forward, "1019.7")
	mustEqual(t, "empty", SumBase(nil), "0")
}

func TestDistributionPartitionsTotal(t *testing.T) {
	records := []ledger.Record{
		{Amount: 20, Category: "Travel"},
		{Amount: 5.5, Category: ""},
		{Amount: 10, Category: "Food"},
		{Amount: 4.5, Category: "  "},
		{Amount: 30, Category: "Travel"},
	}
	dist := CategoryDistribution(records)

	order := []string{"Travel", Uncategorized, "Food"}
	if len(dist) != len(order) {
		t.Fatalf("expected %d categories, got %+v", len(order), dist)
	}
	sum := decimal.Zero
	for i, c := range dist {
		if c.Category != order[i] {
			t.Fatalf("category %d: got %s, want %s", i, c.Category, order[i])
		}
		sum = sum.Add(c.Total)
	}
	if !sum.Equal(SumBase(records)) {
		t.Fatalf("distribution sum %s != total %s", sum, SumBase(records))
	}
	mustEqual(t, "uncategorized", dist[1].Total, "10")
}

func TestTimeTrendMonthZeroFill(t *testing.T) {
	now := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	trend := TimeTrend(sampleRecords(), Month, 12, now)

	if len(trend) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(trend))
	}
	if trend[0].Key != "2023-03" || trend[11].Key != "2024-02" {
		t.Fatalf("unexpected window %s..%s", trend[0].Key, trend[11].Key)
	}
	if trend[11].Label != "Feb 24" {
		t.Fatalf("unexpected label %q", trend[11].Label)
	}
	mustEqual(t, "jan", trend[10].Total, "100")
	mustEqual(t, "feb", trend[11].Total, "50")
	for _, p := range trend[:10] {
		mustEqual(t, p.Key, p.Total, "0")
	}

	empty := TimeTrend(nil, Month, 12, now)
	if len(empty) != 12 {
		t.Fatalf("empty ledger must still yield 12 buckets, got %d", len(empty))
	}
}

func TestTimeTrendGranularities(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	records := []ledger.Record{
		{Amount: 3, Date: "2024-02-29"},
		{Amount: 4, Date: "2024-03-01"},
		{Amount: 9, Date: "2022-06-01"},
		{Amount: 1, Date: "garbage"},
	}

	days := TimeTrend(records, Day, 3, now)
	wantKeys := []string{"2024-02-28", "2024-02-29", "2024-03-01"}
	for i, p := range days {
		if p.Key != wantKeys[i] {
			t.Fatalf("day %d: got %s, want %s", i, p.Key, wantKeys[i])
		}
	}
	mustEqual(t, "leap day", days[1].Total, "3")
	mustEqual(t, "today", days[2].Total, "4")
	if days[2].Label != "01 Mar" {
		t.Fatalf("unexpected day label %q", days[2].Label)
	}

	years := TimeTrend(records, Year, 3, now)
	if years[0].Key != "2022" || years[2].Key != "2024" {
		t.Fatalf("unexpected years %+v", years)
	}
	mustEqual(t, "2022", years[0].Total, "9")
	mustEqual(t, "2023", years[1].Total, "0")
	mustEqual(t, "2024", years[2].Total, "7")

	if got := TimeTrend(records, Month, 0, now); len(got) != 0 {
		t.Fatalf("zero window should be empty, got %d", len(got))
	}
}

func TestParseGranularity(t *testing.T) {
	cases := map[string]Granularity{"": Month, "DAY": Day, " month ": Month, "year": Year}
	for in, want := range cases {
		got, err := ParseGranularity(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q, %v", in, got, err)
		}
	}
	if _, err := ParseGranularity("week"); err == nil {
		t.Fatalf("week should be rejected")
	}
}

func TestCompute(t *testing.T) {
	now := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	v := Compute(sampleRecords(), now, Month, 6)
	if v.Count != 2 || len(v.Trend) != 6 || len(v.Categories) != 1 {
		t.Fatalf("unexpected view %+v", v)
	}
	mustEqual(t, "total", v.TotalBase, "150")
	mustEqual(t, "mtd", v.MonthToDateBase, "50")
}

func TestDateKeyMatchesParseDate(t *testing.T) {
	for in, want := range map[string]string{
		"2024-02-28":           "2024-02-28",
		"2024-02-28T10:00:00Z": "2024-02-28",
		" 2024-02-28 ":         "2024-02-28",
		"":                     "",
	} {
		if got := DateKey(in); got != want {
			t.Errorf("DateKey(%q) = %q, want %q", in, got, want)
		}
		if d, ok := ParseDate(in); ok && d.Format("2006-01-02") != DateKey(in) {
			t.Errorf("%q: ParseDate and DateKey disagree", in)
		}
	}
}
