// Package category suggests category labels for new expenses. The set is open:
// any label a user typed before is offered back to them.
package category

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"spendora-backend/config"
	"spendora-backend/ledger"
)

type Handler struct {
	store  ledger.Store
	logger *logrus.Logger
}

func NewHandler(store ledger.Store, logger *logrus.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// Suggestions returns the default categories followed by every other category found
// in records, in first-seen order, with usage counts.
func Suggestions(records []ledger.Record) []Category {
	out := make([]Category, 0, len(DefaultCategories))
	index := map[string]int{}
	for _, name := range DefaultCategories {
		index[strings.ToLower(name)] = len(out)
		out = append(out, Category{Name: name, Default: true})
	}
	for _, r := range records {
		name := strings.TrimSpace(r.Category)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, Category{Name: name})
		}
		out[i].Count++
	}
	return out
}

// Get all categories for a user
func (h *Handler) HandleGetCategories(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found"})
		return
	}

	records, err := h.store.List(c.Request.Context(), userID)
	if err != nil {
		config.LogError(h.logger, "category", "HandleGetCategories", "list expenses", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch categories"})
		return
	}

	c.JSON(http.StatusOK, Suggestions(records))
}
