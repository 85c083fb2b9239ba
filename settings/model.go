package settings

import (
	"errors"
	"strings"
	"time"

	"spendora-backend/aggregate"
	"spendora-backend/rates"
)

const (
	ThemeLight = "light"
	ThemeNeon  = "neon"
	ThemeDark  = "dark"

	DefaultTheme = ThemeNeon
)

var Themes = []string{ThemeLight, ThemeNeon, ThemeDark}

var ErrNotFound = errors.New("settings not found")

// Settings are a user's display preferences. Each field is overwritten wholesale on
// change; nothing is versioned.
type Settings struct {
	UserID      string             `bson:"_id" json:"-"`
	Currency    string             `bson:"currency" json:"currency"`
	Rates       map[string]float64 `bson:"rates" json:"rates"`
	Theme       string             `bson:"theme" json:"theme"`
	Granularity string             `bson:"granularity,omitempty" json:"granularity,omitempty"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

type UpdateSettingsRequest struct {
	Currency *string            `json:"currency" binding:"omitempty,len=3,alpha"`
	Rates    map[string]float64 `json:"rates" binding:"omitempty,dive,keys,len=3,alpha,endkeys,gt=0"`
	Theme    *string            `json:"theme" binding:"omitempty,oneof=light neon dark LIGHT NEON DARK"`
	// Granularity is the default trend bucket of the dashboard.
	Granularity *string `json:"granularity" binding:"omitempty,oneof=day month year DAY MONTH YEAR"`
}

type SettingsResponse struct {
	Currency    string                `json:"currency"`
	Symbol      string                `json:"symbol"`
	Base        string                `json:"base"`
	Rates       *rates.Table          `json:"rates"`
	Currencies  []string              `json:"currencies"`
	Theme       string                `json:"theme"`
	Themes      []string              `json:"themes"`
	Granularity aggregate.Granularity `json:"granularity"`
}

// Preferences are the resolved settings the dashboard and exports run with.
type Preferences struct {
	Currency    string
	Rates       *rates.Table
	Theme       string
	Granularity aggregate.Granularity
}

// NormalizeTheme maps unknown or empty themes to the default.
func NormalizeTheme(theme string) string {
	theme = strings.ToLower(strings.TrimSpace(theme))
	for _, t := range Themes {
		if t == theme {
			return t
		}
	}
	return DefaultTheme
}

// NormalizeGranularity maps unknown or empty granularities to monthly buckets.
func NormalizeGranularity(g string) aggregate.Granularity {
	parsed, err := aggregate.ParseGranularity(g)
	if err != nil {
		return aggregate.Month
	}
	return parsed
}

func (p Preferences) response() SettingsResponse {
	return SettingsResponse{
		Currency:    p.Currency,
		Symbol:      rates.Symbol(p.Currency),
		Base:        rates.BaseCurrency,
		Rates:       p.Rates,
		Currencies:  p.Rates.Codes(),
		Theme:       p.Theme,
		Themes:      Themes,
		Granularity: p.Granularity,
	}
}
