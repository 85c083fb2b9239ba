// Package rates holds the static currency table used to normalize amounts to the
// base unit before storage and to derive display amounts at render time.
package rates

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the unit every stored amount is expressed in.
const BaseCurrency = "INR"

var defaultFactors = map[string]string{
	"INR": "1",
	"USD": "0.012",
	"EUR": "0.011",
}

// Table maps a currency code to its factor relative to BaseCurrency.
type Table struct {
	factors map[string]decimal.Decimal
}

// Default returns the built-in table.
func Default() *Table {
	factors := make(map[string]decimal.Decimal, len(defaultFactors))
	for code, f := range defaultFactors {
		factors[code] = decimal.RequireFromString(f)
	}
	return &Table{factors: factors}
}

// New builds a table from the given factors. Non-positive entries are dropped and the
// base currency is always pinned to 1. An input without any usable entry yields Default().
func New(factors map[string]decimal.Decimal) *Table {
	t, _ := build(factors)
	return t
}

func build(factors map[string]decimal.Decimal) (*Table, bool) {
	t := &Table{factors: make(map[string]decimal.Decimal, len(factors)+1)}
	for code, f := range factors {
		code = NormalizeCode(code)
		if code == "" || !f.IsPositive() {
			continue
		}
		t.factors[code] = f
	}
	if len(t.factors) == 0 {
		return Default(), false
	}
	t.factors[BaseCurrency] = decimal.NewFromInt(1)
	return t, true
}

// FromFloats builds a table from persisted float factors.
func FromFloats(factors map[string]float64) *Table {
	converted := make(map[string]decimal.Decimal, len(factors))
	for code, f := range factors {
		if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			continue
		}
		converted[code] = decimal.NewFromFloat(f)
	}
	return New(converted)
}

// Parse decodes a JSON object of code -> factor. Values may be numbers or numeric
// strings. Corrupt input falls back to the built-in table; ok reports whether the
// input was used.
func Parse(raw []byte) (t *Table, ok bool) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return Default(), false
	}
	factors := make(map[string]decimal.Decimal, len(m))
	for code, v := range m {
		var (
			d   decimal.Decimal
			err error
		)
		switch val := v.(type) {
		case float64:
			d = decimal.NewFromFloat(val)
		case string:
			d, err = decimal.NewFromString(strings.TrimSpace(val))
		default:
			continue
		}
		if err != nil {
			continue
		}
		factors[code] = d
	}
	return build(factors)
}

// NormalizeCode upper-cases and trims a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Get returns the factor for code, or 1 when the code is unknown.
func (t *Table) Get(code string) decimal.Decimal {
	if t != nil {
		if f, ok := t.factors[NormalizeCode(code)]; ok {
			return f
		}
	}
	return decimal.NewFromInt(1)
}

// Has reports whether the table carries an explicit factor for code.
func (t *Table) Has(code string) bool {
	if t == nil {
		return false
	}
	_, ok := t.factors[NormalizeCode(code)]
	return ok
}

// ToBase converts an amount entered in code to the base unit, rounded to 2 places.
func (t *Table) ToBase(display decimal.Decimal, code string) decimal.Decimal {
	return display.Div(t.Get(code)).Round(2)
}

// ToDisplay converts a base amount to code. The result is not rounded; callers
// round when formatting.
func (t *Table) ToDisplay(base decimal.Decimal, code string) decimal.Decimal {
	return base.Mul(t.Get(code))
}

// Codes returns the known currency codes in sorted order.
func (t *Table) Codes() []string {
	if t == nil {
		return nil
	}
	codes := make([]string, 0, len(t.factors))
	for code := range t.factors {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Floats returns the factors as floats for persistence.
func (t *Table) Floats() map[string]float64 {
	out := make(map[string]float64, len(t.factors))
	for code, f := range t.factors {
		out[code] = f.InexactFloat64()
	}
	return out
}

func (t *Table) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.Number, len(t.factors))
	for code, f := range t.factors {
		out[code] = json.Number(f.String())
	}
	return json.Marshal(out)
}
