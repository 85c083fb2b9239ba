package rates

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestGetDefaultsToOne(t *testing.T) {
	table := Default()
	if !table.Get("XYZ").Equal(dec("1")) {
		t.Fatalf("unknown code should map to 1, got %s", table.Get("XYZ"))
	}
	if !table.Get("usd").Equal(dec("0.012")) {
		t.Fatalf("expected lower-case lookup to work, got %s", table.Get("usd"))
	}
	var nilTable *Table
	if !nilTable.Get("USD").Equal(dec("1")) {
		t.Fatalf("nil table should degrade to 1")
	}
}

func TestToBaseAndToDisplay(t *testing.T) {
	table := Default()

	base := table.ToBase(dec("12.00"), "USD")
	if !base.Equal(dec("1000")) {
		t.Fatalf("ToBase(12, USD) = %s, want 1000.00", base)
	}
	display := table.ToDisplay(dec("1000.00"), "USD")
	if !display.Equal(dec("12")) {
		t.Fatalf("ToDisplay(1000, USD) = %s, want 12.00", display)
	}

	// Storage-bound conversions are rounded to two places.
	if got := table.ToBase(dec("1"), "EUR"); !got.Equal(dec("90.91")) {
		t.Fatalf("ToBase(1, EUR) = %s, want 90.91", got)
	}
	// Display conversions are not.
	if got := table.ToDisplay(dec("90.91"), "EUR"); !got.Equal(dec("1.00001")) {
		t.Fatalf("ToDisplay(90.91, EUR) = %s, want 1.00001", got)
	}
}

func TestRoundTripWithinTolerance(t *testing.T) {
	table := Default()
	tolerance := dec("0.01")
	amounts := []string{"0", "0.01", "1", "99.99", "1234.56", "100000"}
	for _, code := range table.Codes() {
		for _, a := range amounts {
			x := dec(a)
			got := table.ToBase(table.ToDisplay(x, code), code)
			if got.Sub(x).Abs().GreaterThan(tolerance) {
				t.Fatalf("round trip %s via %s = %s", a, code, got)
			}
		}
	}
}

func TestNewDropsInvalidFactorsAndPinsBase(t *testing.T) {
	table := New(map[string]decimal.Decimal{
		"usd": dec("0.02"),
		"GBP": dec("-1"),
		"JPY": dec("0"),
		"INR": dec("5"),
	})
	if table.Has("GBP") || table.Has("JPY") {
		t.Fatalf("non-positive factors must be dropped: %v", table.Codes())
	}
	if !table.Get("INR").Equal(dec("1")) {
		t.Fatalf("base factor must be 1, got %s", table.Get("INR"))
	}
	if !table.Get("USD").Equal(dec("0.02")) {
		t.Fatalf("USD factor = %s", table.Get("USD"))
	}

	if got := New(nil).Codes(); len(got) != 3 {
		t.Fatalf("empty input should fall back to defaults, got %v", got)
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		ok     bool
		code   string
		factor string
	}{
		{"numbers", `{"INR":1,"USD":0.02}`, true, "USD", "0.02"},
		{"strings", `{"INR":"1","GBP":"0.0095"}`, true, "GBP", "0.0095"},
		{"corrupt", `{"INR":`, false, "USD", "0.012"},
		{"empty object", `{}`, false, "EUR", "0.011"},
		{"garbage values", `{"USD":true,"EUR":"abc"}`, false, "USD", "0.012"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			table, ok := Parse([]byte(tc.raw))
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !table.Get(tc.code).Equal(dec(tc.factor)) {
				t.Fatalf("factor(%s) = %s, want %s", tc.code, table.Get(tc.code), tc.factor)
			}
		})
	}
}

func TestFromFloats(t *testing.T) {
	table := FromFloats(map[string]float64{"USD": 0.012, "EUR": -3})
	if table.Has("EUR") {
		t.Fatalf("negative factor kept")
	}
	if !table.Get("USD").Equal(dec("0.012")) {
		t.Fatalf("USD = %s", table.Get("USD"))
	}
}

func TestFormat(t *testing.T) {
	if got := Format(dec("12"), "USD"); got != "$12.00" {
		t.Fatalf("Format = %q", got)
	}
	if got := Format(dec("0.005"), "EUR"); got != "€0.01" {
		t.Fatalf("Format rounding = %q", got)
	}
	if got := Symbol("gbp"); got != "GBP" {
		t.Fatalf("Symbol fallback = %q", got)
	}
}
