package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

var pdfColumns = []struct {
	header string
	width  float64
	align  string
}{
	{"Date", 30, "L"},
	{"Title", 75, "L"},
	{"Category", 45, "L"},
	{"Amount", 40, "R"},
}

// WritePDF renders the rows as an A4 table followed by the summary block.
func WritePDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.Title(), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.Title()), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Exported %s, amounts in %s", doc.ExportedAt.Format("02 Jan 2006 15:04 MST"), doc.Currency), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range pdfColumns {
		pdf.CellFormat(c.width, 8, c.header, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range doc.Rows {
		values := []string{r.Date, r.Title, r.Category, r.Amount}
		for i, c := range pdfColumns {
			pdf.CellFormat(c.width, 7, tr(values[i]), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range doc.Summary {
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}
