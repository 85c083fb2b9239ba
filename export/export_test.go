package export

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"spendora-backend/ledger"
	"spendora-backend/rates"
)

func sampleRecords() []ledger.Record {
	return []ledger.Record{
		{ID: "a", Title: "Groceries", Amount: 100, Category: "Food", Date: "2024-01-05"},
		{ID: "b", Title: "Dinner", Amount: 50, Category: "Food", Date: "2024-02-10"},
	}
}

func TestSummarizeDateRange(t *testing.T) {
	s := Summarize(sampleRecords(), Filter{From: "2024-02-01", To: "2024-02-28"})
	if len(s.Records) != 1 || s.Records[0].ID != "b" {
		t.Fatalf("unexpected filtered list %+v", s.Records)
	}
	if !s.GrandTotalBase.Equal(ledger.Amount(50).Decimal()) {
		t.Fatalf("grand total: got %s", s.GrandTotalBase)
	}
}

func TestFilterMatch(t *testing.T) {
	cases := []struct {
		name   string
		filter Filter
		record ledger.Record
		want   bool
	}{
		{"empty filter", Filter{}, ledger.Record{}, true},
		{"category equal", Filter{Category: "Food"}, ledger.Record{Category: "Food"}, true},
		{"category differs", Filter{Category: "Food"}, ledger.Record{Category: "Travel"}, false},
		{"uncategorized label", Filter{Category: "Uncategorized"}, ledger.Record{}, true},
		{"on lower bound", Filter{From: "2024-02-01"}, ledger.Record{Date: "2024-02-01"}, true},
		{"before lower bound", Filter{From: "2024-02-01"}, ledger.Record{Date: "2024-01-31"}, false},
		{"on upper bound", Filter{To: "2024-02-28"}, ledger.Record{Date: "2024-02-28"}, true},
		{"after upper bound", Filter{To: "2024-02-28"}, ledger.Record{Date: "2024-02-29"}, false},
		{"missing date lower", Filter{From: "2024-02-01"}, ledger.Record{}, false},
		{"missing date upper", Filter{To: "2024-02-28"}, ledger.Record{}, false},
		{"timestamp on upper bound", Filter{To: "2024-02-28"}, ledger.Record{Date: "2024-02-28T10:00:00Z"}, true},
		{"timestamp on lower bound", Filter{From: "2024-02-28"}, ledger.Record{Date: "2024-02-28T00:00:00Z"}, true},
		{"timestamp after upper bound", Filter{To: "2024-02-28"}, ledger.Record{Date: "2024-02-29T00:00:01Z"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Match(tc.record); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilterIdempotentAndEmptyIdentity(t *testing.T) {
	records := append(sampleRecords(),
		ledger.Record{ID: "c", Title: "Taxi", Amount: 12, Category: "Travel", Date: "2024-02-11"},
		ledger.Record{ID: "d", Title: "Undated", Amount: 3},
	)

	f := Filter{From: "2024-02-01", Category: "Food"}
	once := f.Apply(records)
	if !reflect.DeepEqual(once, f.Apply(once)) {
		t.Fatalf("filter is not idempotent")
	}

	all := Filter{}.Apply(records)
	if !reflect.DeepEqual(all, records) {
		t.Fatalf("empty filter must return input unchanged, got %+v", all)
	}
}

func TestBuildExportTableAndSummary(t *testing.T) {
	table := rates.Default()
	s := Summarize(sampleRecords(), Filter{})

	rows := BuildExportTable(s.Records, "USD", table)
	if rows[0].Amount != "1.20" || rows[1].Amount != "0.60" || rows[0].Value.String() != "1.2" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	lines := BuildSummaryBlock(s.ByCategory, s.GrandTotalBase, "INR", table)
	want := []string{"Food: 150.00", "Total: 150.00"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("got %v, want %v", lines, want)
	}
}

func TestRenderFormats(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s := Summarize(sampleRecords(), Filter{})
	doc := NewDocument(s, Filter{}, "usd", rates.Default(), now)
	if doc.Currency != "USD" {
		t.Fatalf("currency not normalized: %q", doc.Currency)
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, FormatJSON, doc); err != nil {
			t.Fatalf("render: %v", err)
		}
		var out struct {
			ExportedAt string          `json:"exportedAt"`
			Expenses   []ledger.Record `json:"expenses"`
		}
		if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.ExportedAt != "2024-03-01T10:00:00Z" || len(out.Expenses) != 2 || out.Expenses[0].Amount != 100 {
			t.Fatalf("unexpected snapshot %+v", out)
		}
		records, err := ledger.ParseImport(buf.Bytes(), "2024-03-01")
		if err != nil || len(records) != 2 || records[0].SourceID != "a" {
			t.Fatalf("snapshot should import back: %+v %v", records, err)
		}
	})

	t.Run("pdf", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, FormatPDF, doc); err != nil {
			t.Fatalf("render: %v", err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
			t.Fatalf("output is not a pdf")
		}
	})

	t.Run("doc", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, FormatDoc, doc); err != nil {
			t.Fatalf("render: %v", err)
		}
		out := buf.String()
		for _, want := range []string{"Groceries", "1.20", "Total: 1.80", "amounts in USD"} {
			if !strings.Contains(out, want) {
				t.Fatalf("doc missing %q", want)
			}
		}
	})

	t.Run("xlsx", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, FormatXLSX, doc); err != nil {
			t.Fatalf("render: %v", err)
		}
		f, err := excelize.OpenReader(&buf)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		defer f.Close()
		title, _ := f.GetCellValue("Sheet1", "B2")
		total, _ := f.GetCellValue("Summary", "A2")
		if title != "Groceries" || total != "Total: 1.80" {
			t.Fatalf("unexpected cells %q %q", title, total)
		}

		amount, _ := f.GetCellValue("Sheet1", "D2", excelize.Options{RawCellValue: true})
		if amount != "1.2" {
			t.Fatalf("amount should be stored as a number, got %q", amount)
		}
		cellType, _ := f.GetCellType("Sheet1", "D3")
		if cellType == excelize.CellTypeSharedString || cellType == excelize.CellTypeInlineString {
			t.Fatalf("amount cell is text")
		}
		formula, _ := f.GetCellFormula("Sheet1", "D4")
		if formula != "SUM(D2:D3)" {
			t.Fatalf("unexpected total formula %q", formula)
		}
	})
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatJSON, "PDF": FormatPDF, "word": FormatDoc, "xlsx": FormatXLSX}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Fatalf("csv should be rejected")
	}
	if FormatDoc.ContentType() != "application/msword" {
		t.Fatalf("unexpected content type %s", FormatDoc.ContentType())
	}
}
