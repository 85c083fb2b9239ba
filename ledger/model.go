package ledger

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

var (
	ErrNotFound      = errors.New("expense not found")
	ErrInvalidTitle  = errors.New("title is required")
	ErrInvalidAmount = errors.New("amount must be greater than zero")
)

// Record is one user-entered spending event. Amount is always in the base currency.
type Record struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string    `bson:"user_id" json:"-"`
	Title     string    `bson:"title" json:"title"`
	Amount    Amount    `bson:"amount" json:"amount"`
	Category  string    `bson:"category" json:"category"`
	Date      string    `bson:"date" json:"date"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	SourceID  string    `bson:"source_id,omitempty" json:"-"`
}

// Patch carries the fields an edit may change. Category, date and creation time are
// immutable once written.
type Patch struct {
	Title  string
	Amount Amount
}

// Amount is a base-currency value that decodes leniently: numbers, numeric strings
// and nulls are accepted, anything unparseable reads as zero.
type Amount float64

// NewAmount converts a decimal to an Amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount(d.InexactFloat64())
}

// Decimal returns the amount as a decimal; non-finite values read as zero.
func (a Amount) Decimal() decimal.Decimal {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = 0
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	switch val := v.(type) {
	case float64:
		*a = Amount(val)
	case string:
		*a = parseAmount(val)
	}
	return nil
}

func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*a = 0
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Double:
		*a = Amount(raw.Double())
	case bsontype.Int32:
		*a = Amount(raw.Int32())
	case bsontype.Int64:
		*a = Amount(raw.Int64())
	case bsontype.Decimal128:
		*a = parseAmount(raw.Decimal128().String())
	case bsontype.String:
		*a = parseAmount(raw.StringValue())
	}
	return nil
}

func (a Amount) nonNegative() Amount {
	f := float64(a)
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return a
}

func parseAmount(s string) Amount {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Amount(f)
}

// ValidateEntry checks user input for an add or edit: a non-empty title and a
// strictly positive amount.
func ValidateEntry(title string, amount decimal.Decimal) error {
	if strings.TrimSpace(title) == "" {
		return ErrInvalidTitle
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Today returns the ISO calendar date for t.
func Today(t time.Time) string {
	return t.Format("2006-01-02")
}
