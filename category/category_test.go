package category

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"spendora-backend/ledger"
)

func TestSuggestions(t *testing.T) {
	got := Suggestions([]ledger.Record{
		{Category: "Gym"},
		{Category: "food"},
		{Category: ""},
		{Category: "Gym"},
		{Category: "Pets"},
	})

	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	want := []string{"Food", "Travel", "Shopping", "Bills", "Other", "Gym", "Pets"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
	if got[0].Count != 1 || !got[0].Default || got[5].Count != 2 || got[5].Default {
		t.Fatalf("unexpected counts %+v", got)
	}
}

func TestHandleGetCategories(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := ledger.NewMemoryStore()
	_, _ = store.Add(context.Background(), "u1", ledger.Record{Title: "Yoga", Amount: 10, Category: "Fitness"})
	_, _ = store.Add(context.Background(), "u2", ledger.Record{Title: "Vet", Amount: 10, Category: "Pets"})

	h := NewHandler(store, logrus.New())
	r := gin.New()
	r.GET("/api/categories", func(c *gin.Context) { c.Set("user_id", "u1") }, h.HandleGetCategories)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	var out []Category
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 6 || out[5].Name != "Fitness" {
		t.Fatalf("unexpected categories %+v", out)
	}
}
