package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"spendora-backend/aggregate"
	"spendora-backend/config"
	"spendora-backend/rates"
)

type settingsBody struct {
	Currency    string             `json:"currency"`
	Symbol      string             `json:"symbol"`
	Base        string             `json:"base"`
	Rates       map[string]float64 `json:"rates"`
	Currencies  []string           `json:"currencies"`
	Theme       string             `json:"theme"`
	Granularity string             `json:"granularity"`
}

func newTestRouter(store Store, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, cfg, logrus.New())
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", "u1") })
	r.GET("/api/settings", h.HandleGetSettings)
	r.PUT("/api/settings", h.HandleUpdateSettings)
	return r
}

func do(t *testing.T, r http.Handler, method, body string) (int, settingsBody) {
	t.Helper()
	req := httptest.NewRequest(method, "/api/settings", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out settingsBody
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func TestGetSettingsDefaults(t *testing.T) {
	r := newTestRouter(NewMemoryStore(), &config.Config{DefaultCurrency: "USD"})

	code, got := do(t, r, http.MethodGet, "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if got.Currency != "USD" || got.Symbol != "$" || got.Base != rates.BaseCurrency {
		t.Fatalf("unexpected defaults: %+v", got)
	}
	if got.Theme != DefaultTheme || len(got.Currencies) != 3 {
		t.Fatalf("unexpected defaults: %+v", got)
	}
}

func TestUpdateSettingsOverwritesPerKey(t *testing.T) {
	store := NewMemoryStore()
	r := newTestRouter(store, nil)

	code, got := do(t, r, http.MethodPut, `{"currency":"eur","theme":"DARK"}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if got.Currency != "EUR" || got.Theme != ThemeDark || got.Rates["USD"] != 0.012 {
		t.Fatalf("unexpected settings: %+v", got)
	}

	code, got = do(t, r, http.MethodPut, `{"rates":{"GBP":0.0095}}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if got.Currency != "EUR" || got.Theme != ThemeDark {
		t.Fatalf("omitted keys must be kept: %+v", got)
	}
	if _, ok := got.Rates["USD"]; ok || got.Rates["GBP"] != 0.0095 || got.Rates["INR"] != 1 {
		t.Fatalf("rate table must be replaced: %+v", got.Rates)
	}

	saved, err := store.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if saved.Currency != "EUR" || saved.Rates["GBP"] != 0.0095 {
		t.Fatalf("not persisted: %+v", saved)
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	r := newTestRouter(NewMemoryStore(), nil)
	for _, body := range []string{
		`{"currency":"EURO"}`,
		`{"theme":"solarized"}`,
		`{"granularity":"week"}`,
		`{"rates":{"USD":-1}}`,
		`{"rates":{"US1":0.5}}`,
		`not json`,
	} {
		if code, _ := do(t, r, http.MethodPut, body); code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, code)
		}
	}
}

func TestResolveFallsBackOnCorruptRates(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Put(context.Background(), Settings{UserID: "u1", Currency: "usd", Rates: map[string]float64{"USD": -3}, Theme: "weird"})
	h := NewHandler(store, nil, logrus.New())

	p, err := h.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Currency != "USD" || p.Theme != DefaultTheme {
		t.Fatalf("unexpected preferences: %+v", p)
	}
	if !p.Rates.Get("USD").Equal(rates.Default().Get("USD")) {
		t.Fatalf("expected built-in rates, got %v", p.Rates.Floats())
	}
}

type brokenStore struct{ MemoryStore }

func (*brokenStore) Get(context.Context, string) (Settings, error) {
	return Settings{}, errors.New("connection reset")
}

func TestGetSettingsStoreError(t *testing.T) {
	r := newTestRouter(&brokenStore{}, nil)
	if code, _ := do(t, r, http.MethodGet, ""); code != http.StatusInternalServerError {
		t.Fatalf("status = %d", code)
	}
}

func TestUpdateSettingsNotifiesListeners(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewMemoryStore(), nil, logrus.New())
	var calls []Preferences
	h.OnChange(func(userID string, p Preferences) {
		if userID != "u1" {
			t.Errorf("listener got user %q", userID)
		}
		calls = append(calls, p)
	})

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", "u1") })
	r.PUT("/api/settings", h.HandleUpdateSettings)

	code, got := do(t, r, http.MethodPut, `{"currency":"usd","granularity":"DAY"}`)
	if code != http.StatusOK || got.Granularity != "day" {
		t.Fatalf("status %d, body %+v", code, got)
	}
	if len(calls) != 1 || calls[0].Currency != "USD" || calls[0].Granularity != aggregate.Day || calls[0].Rates == nil {
		t.Fatalf("listener calls = %+v", calls)
	}

	if code, _ := do(t, r, http.MethodPut, `{"currency":"EURO"}`); code != http.StatusBadRequest {
		t.Fatalf("status = %d", code)
	}
	if len(calls) != 1 {
		t.Fatalf("listener ran for a rejected update")
	}

	p, _ := h.Resolve(context.Background(), "u1")
	if p.Granularity != aggregate.Day {
		t.Fatalf("granularity not persisted: %q", p.Granularity)
	}
}
