// Package expense exposes the ledger over HTTP: writes, snapshots, live updates,
// import, export and the dashboard view.
package expense

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"spendora-backend/config"
	"spendora-backend/dashboard"
	"spendora-backend/export"
	"spendora-backend/ledger"
	"spendora-backend/settings"
)

const maxImportSize = 5 << 20

// Preferences resolves a user's display currency and rate table.
type Preferences interface {
	Resolve(ctx context.Context, userID string) (settings.Preferences, error)
}

// SessionChecker reports whether a session token has been revoked since it was
// accepted.
type SessionChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Handler struct {
	store    ledger.Store
	prefs    Preferences
	sessions SessionChecker
	live     *dashboard.Hub
	config   *config.Config
	logger   *logrus.Logger
	now      func() time.Time
}

func NewHandler(store ledger.Store, prefs Preferences, config *config.Config, logger *logrus.Logger) *Handler {
	RegisterValidators()
	return &Handler{
		store:  store,
		prefs:  prefs,
		live:   dashboard.NewHub(),
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// CheckSessions makes open streams re-check their token against sessions on
// every delivery and heartbeat. Revocations made by other instances reach the
// stream this way.
func (h *Handler) CheckSessions(sessions SessionChecker) {
	h.sessions = sessions
}

// EndSession closes the streams opened with the session token jti.
func (h *Handler) EndSession(userID, jti string) {
	if n := h.live.EndSession(jti); n > 0 {
		h.logger.WithFields(logrus.Fields{"module": "expense", "user_id": userID, "streams": n}).Info("closed streams of ended session")
	}
}

// PreferencesChanged redraws the user's open streams with the new display
// currency, rate table and granularity.
func (h *Handler) PreferencesChanged(userID string, p settings.Preferences) {
	h.live.Switch(userID, p.Currency, p.Rates, p.Granularity)
}

func (h *Handler) resolve(c *gin.Context, userID, funcName string) (settings.Preferences, bool) {
	prefs, err := h.prefs.Resolve(c.Request.Context(), userID)
	if err != nil {
		config.LogError(h.logger, "expense", funcName, "resolve settings", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load settings"})
		return settings.Preferences{}, false
	}
	return prefs, true
}

// toBase validates a display-currency entry and converts it for storage.
func toBase(prefs settings.Preferences, title string, amount decimal.Decimal, currency string) (ledger.Amount, error) {
	if err := ledger.ValidateEntry(title, amount); err != nil {
		return 0, err
	}
	if currency == "" {
		currency = prefs.Currency
	}
	base := prefs.Rates.ToBase(amount, currency)
	if !base.IsPositive() {
		return 0, ledger.ErrInvalidAmount
	}
	return ledger.NewAmount(base), nil
}

// Create expense
func (h *Handler) HandleCreateExpense(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found"})
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	prefs, ok := h.resolve(c, userID, "HandleCreateExpense")
	if !ok {
		return
	}

	amount, err := toBase(prefs, req.Title, req.Amount, req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	record := ledger.Record{
		Title:    strings.TrimSpace(req.Title),
		Amount:   amount,
		Category: strings.TrimSpace(req.Category),
		Date:     req.Date,
	}
	if record.Date == "" {
		record.Date = ledger.Today(h.now())
	}

	id, err := h.store.Add(c.Request.Context(), userID, record)
	if err != nil {
		config.LogError(h.logger, "expense", "HandleCreateExpense", "add expense", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create expense"})
		return
	}
	record.ID = id
	c.JSON(http.StatusCreated, record)
}

// Update expense title and amount
func (h *Handler) HandleUpdateExpense(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found"})
		return
	}
	expenseID := c.Param("id")

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	prefs, ok := h.resolve(c, userID, "HandleUpdateExpense")
	if !ok {
		return
	}

	amount, err := toBase(prefs, req.Title, req.Amount, req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.store.Update(c.Request.Context(), userID, expenseID, ledger.Patch{Title: strings.TrimSpace(req.Title), Amount: amount})
	if errors.Is(err, ledger.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	} else if err != nil {
		config.LogError(h.logger, "expense", "HandleUpdateExpense", "update expense", expenseID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update expense"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expense updated successfully"})
}

// Delete expense
func (h *Handler) HandleDeleteExpense(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found"})
		return
	}
	expenseID := c.Param("id")

	err := h.store.Delete(c.Request.Context(), userID, expenseID)
	if errors.Is(err, ledger.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	} else if err != nil {
		config.LogError(h.logger, "expense", "HandleDeleteExpense", "delete expense", expenseID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete expense"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}

// HandleGetExpenses returns the snapshot newest first, optionally filtered by
// from, to and category.
func (h *Handler) HandleGetExpenses(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found"})
		return
	}

	var filter export.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter"})
		return
	}

	records, err := h.store.List(c.Request.Context(), userID)
	if err != nil {
		config.LogError(h.logger, "expense", "HandleGetExpenses", "list expenses", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch expenses"})
		return
	}
	records = filter.Apply(records)
	c.JSON(http.StatusOK, ExpenseListResponse{Expenses: records, Count: len(records)})
}

// HandleImportExpenses writes the records of an exported snapshot one at a time.
// The first failing write stops the import; earlier writes stay committed. Records
// carrying an id already imported for this user are skipped.
func (h *Handler) HandleImportExpenses(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found"})
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read import file"})
		return
	}
	records, err := ledger.ParseImport(data, ledger.Today(h.now()))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": ledger.ErrInvalidImport.Error()})
		return
	}

	ctx := c.Request.Context()
	resp := ImportResponse{Total: len(records)}
	for _, r := range records {
		if r.SourceID != "" {
			exists, err := h.store.HasSource(ctx, userID, r.SourceID)
			if err != nil {
				h.abortImport(c, userID, resp, err)
				return
			}
			if exists {
				resp.Skipped++
				continue
			}
		}
		if _, err := h.store.Add(ctx, userID, r); err != nil {
			h.abortImport(c, userID, resp, err)
			return
		}
		resp.Imported++
	}

	h.logger.WithFields(logrus.Fields{
		"module":   "expense",
		"user_id":  userID,
		"imported": resp.Imported,
		"skipped":  resp.Skipped,
	}).Info("import finished")
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) abortImport(c *gin.Context, userID string, resp ImportResponse, err error) {
	config.LogError(h.logger, "expense", "HandleImportExpenses", "import aborted", gin.H{
		"user_id":  userID,
		"imported": resp.Imported,
		"skipped":  resp.Skipped,
	}, err)
	resp.Error = "Import stopped after a failed write; imported records were kept"
	c.JSON(http.StatusInternalServerError, resp)
}
