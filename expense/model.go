package expense

import (
	"github.com/shopspring/decimal"

	"spendora-backend/ledger"
)

// CreateExpenseRequest carries an amount in the display currency. Currency
// defaults to the user's saved display currency.
type CreateExpenseRequest struct {
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category" binding:"max=40"`
	Date     string          `json:"date" binding:"omitempty,isodate"`
	Currency string          `json:"currency" binding:"omitempty,len=3,alpha"`
}

// UpdateExpenseRequest edits title and amount only.
type UpdateExpenseRequest struct {
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" binding:"omitempty,len=3,alpha"`
}

type ExpenseListResponse struct {
	Expenses []ledger.Record `json:"expenses"`
	Count    int             `json:"count"`
}

type ImportResponse struct {
	Total    int    `json:"total"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Error    string `json:"error,omitempty"`
}

type ViewQuery struct {
	Granularity string `form:"granularity" binding:"omitempty,oneof=day month year DAY MONTH YEAR"`
	Window      int    `form:"window" binding:"omitempty,min=1,max=366"`
	Currency    string `form:"currency" binding:"omitempty,len=3,alpha"`
}

type ExportQuery struct {
	Format   string `form:"format"`
	Currency string `form:"currency" binding:"omitempty,len=3,alpha"`
}
