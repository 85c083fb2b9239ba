package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"spendora-backend/ledger"
	"spendora-backend/rates"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
	FormatDoc  Format = "doc"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatPDF, FormatDoc, FormatXLSX:
		return f, nil
	case "word", "docx":
		return FormatDoc, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDoc:
		return "application/msword"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

func (f Format) Extension() string {
	return string(f)
}

// Filename returns the attachment name for an export generated at t.
func (f Format) Filename(t time.Time) string {
	return "expenses-" + t.Format("2006-01-02") + "." + f.Extension()
}

// Document is everything a writer needs. Every format renders the same filtered list.
type Document struct {
	ExportedAt time.Time
	Currency   string
	Filter     Filter
	Records    []ledger.Record
	Rows       []Row
	Summary    []string
}

func NewDocument(s Summary, f Filter, currency string, table *rates.Table, now time.Time) Document {
	currency = rates.NormalizeCode(currency)
	if currency == "" {
		currency = rates.BaseCurrency
	}
	return Document{
		ExportedAt: now.UTC(),
		Currency:   currency,
		Filter:     f,
		Records:    s.Records,
		Rows:       BuildExportTable(s.Records, currency, table),
		Summary:    BuildSummaryBlock(s.ByCategory, s.GrandTotalBase, currency, table),
	}
}

// Title describes the filter applied, for document headers.
func (d Document) Title() string {
	parts := []string{"Expenses"}
	if d.Filter.Category != "" {
		parts = append(parts, d.Filter.Category)
	}
	switch {
	case d.Filter.From != "" && d.Filter.To != "":
		parts = append(parts, d.Filter.From+" to "+d.Filter.To)
	case d.Filter.From != "":
		parts = append(parts, "from "+d.Filter.From)
	case d.Filter.To != "":
		parts = append(parts, "until "+d.Filter.To)
	}
	return strings.Join(parts, " - ")
}

// Render writes doc in the given format.
func Render(w io.Writer, f Format, doc Document) error {
	switch f {
	case FormatPDF:
		return WritePDF(w, doc)
	case FormatDoc:
		return WriteDoc(w, doc)
	case FormatXLSX:
		return WriteXLSX(w, doc)
	default:
		return WriteJSON(w, doc)
	}
}

type snapshot struct {
	ExportedAt string          `json:"exportedAt"`
	Expenses   []ledger.Record `json:"expenses"`
}

// WriteJSON writes the {exportedAt, expenses} snapshot. Amounts stay in the base unit
// so the file can be imported back.
func WriteJSON(w io.Writer, doc Document) error {
	records := doc.Records
	if records == nil {
		records = []ledger.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot{
		ExportedAt: doc.ExportedAt.Format(time.RFC3339),
		Expenses:   records,
	})
}
