// Package settings persists each user's display currency, rate table and theme.
package settings

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"spendora-backend/aggregate"
	"spendora-backend/config"
	"spendora-backend/rates"
)

type Handler struct {
	store    Store
	config   *config.Config
	logger   *logrus.Logger
	onChange []func(userID string, p Preferences)
}

func NewHandler(store Store, config *config.Config, logger *logrus.Logger) *Handler {
	return &Handler{
		store:  store,
		config: config,
		logger: logger,
	}
}

// OnChange registers fn to run after every saved update.
func (h *Handler) OnChange(fn func(userID string, p Preferences)) {
	h.onChange = append(h.onChange, fn)
}

// Resolve loads a user's preferences. Missing settings yield the defaults and a
// corrupt stored rate table falls back to the built-in one.
func (h *Handler) Resolve(ctx context.Context, userID string) (Preferences, error) {
	s, err := h.store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return h.defaults(), nil
	} else if err != nil {
		return Preferences{}, err
	}
	return h.fromSettings(s), nil
}

func (h *Handler) defaults() Preferences {
	return Preferences{
		Currency:    h.defaultCurrency(),
		Rates:       rates.Default(),
		Theme:       DefaultTheme,
		Granularity: aggregate.Month,
	}
}

func (h *Handler) defaultCurrency() string {
	if h.config != nil && h.config.DefaultCurrency != "" {
		return h.config.DefaultCurrency
	}
	return rates.BaseCurrency
}

func (h *Handler) fromSettings(s Settings) Preferences {
	p := Preferences{
		Currency:    rates.NormalizeCode(s.Currency),
		Rates:       rates.FromFloats(s.Rates),
		Theme:       NormalizeTheme(s.Theme),
		Granularity: NormalizeGranularity(s.Granularity),
	}
	if p.Currency == "" {
		p.Currency = h.defaultCurrency()
	}
	return p
}

func (h *Handler) HandleGetSettings(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found"})
		return
	}

	prefs, err := h.Resolve(c.Request.Context(), userID)
	if err != nil {
		config.LogError(h.logger, "settings", "HandleGetSettings", "resolve settings", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load settings"})
		return
	}
	c.JSON(http.StatusOK, prefs.response())
}

// HandleUpdateSettings overwrites each supplied key; omitted keys keep their value.
// A supplied rate table replaces the stored one entirely.
func (h *Handler) HandleUpdateSettings(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found"})
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	current, err := h.Resolve(ctx, userID)
	if err != nil {
		config.LogError(h.logger, "settings", "HandleUpdateSettings", "resolve settings", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load settings"})
		return
	}

	if req.Currency != nil {
		current.Currency = rates.NormalizeCode(*req.Currency)
	}
	if req.Rates != nil {
		current.Rates = rates.FromFloats(req.Rates)
	}
	if req.Theme != nil {
		current.Theme = NormalizeTheme(*req.Theme)
	}
	if req.Granularity != nil {
		current.Granularity = NormalizeGranularity(*req.Granularity)
	}

	err = h.store.Put(ctx, Settings{
		UserID:      userID,
		Currency:    current.Currency,
		Rates:       current.Rates.Floats(),
		Theme:       current.Theme,
		Granularity: string(current.Granularity),
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		config.LogError(h.logger, "settings", "HandleUpdateSettings", "save settings", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save settings"})
		return
	}

	for _, fn := range h.onChange {
		fn(userID, current)
	}
	c.JSON(http.StatusOK, current.response())
}
