package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	ImportedTitle    = "Imported"
	ImportedCategory = "Other"
)

var ErrInvalidImport = errors.New("import payload must be an array or an object with an expenses array")

type importItem struct {
	ID       any    `json:"id"`
	Title    any    `json:"title"`
	Amount   Amount `json:"amount"`
	Category any    `json:"category"`
	Date     any    `json:"date"`
}

// ParseImport decodes an exported snapshot ({"expenses": [...]}) or a bare array
// into records ready to be written. Missing fields get defaults; amounts are taken
// as base-currency values and negative ones read as zero. An item's id, when present, becomes its SourceID.
func ParseImport(data []byte, today string) ([]Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrInvalidImport
	}

	var items []importItem
	if data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
	} else {
		var envelope struct {
			Expenses *[]importItem `json:"expenses"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		if envelope.Expenses == nil {
			return nil, ErrInvalidImport
		}
		items = *envelope.Expenses
	}

	records := make([]Record, 0, len(items))
	for _, it := range items {
		records = append(records, Record{
			Title:    orDefault(text(it.Title), ImportedTitle),
			Amount:   it.Amount.nonNegative(),
			Category: orDefault(text(it.Category), ImportedCategory),
			Date:     orDefault(text(it.Date), today),
			SourceID: text(it.ID),
		})
	}
	return records, nil
}

func text(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strings.TrimSpace(fmt.Sprint(val))
	default:
		return ""
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
