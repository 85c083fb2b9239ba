package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	expenseSheet = "Sheet1"
	summarySheet = "Summary"
)

// WriteXLSX writes the rows to the first sheet and the summary block to a second one.
func WriteXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"Date", "Title", "Category", "Amount (" + doc.Currency + ")"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(expenseSheet, cell, h); err != nil {
			return err
		}
	}
	// Built-in number format 4 is "#,##0.00".
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}
	for i, r := range doc.Rows {
		row := i + 2
		values := []any{r.Date, r.Title, r.Category, r.Value.InexactFloat64()}
		for j, v := range values {
			if err := f.SetCellValue(expenseSheet, fmt.Sprintf("%c%d", 'A'+j, row), v); err != nil {
				return err
			}
		}
	}
	if n := len(doc.Rows); n > 0 {
		totalRow := n + 2
		if err := f.SetCellValue(expenseSheet, fmt.Sprintf("C%d", totalRow), "Total"); err != nil {
			return err
		}
		if err := f.SetCellFormula(expenseSheet, fmt.Sprintf("D%d", totalRow), fmt.Sprintf("SUM(D2:D%d)", totalRow-1)); err != nil {
			return err
		}
		if err := f.SetCellStyle(expenseSheet, "D2", fmt.Sprintf("D%d", totalRow), amountStyle); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	for i, line := range doc.Summary {
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), line); err != nil {
			return err
		}
	}

	return f.Write(w)
}
