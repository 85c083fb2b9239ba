package category

// DefaultCategories are offered to every user, before any category they have used.
var DefaultCategories = []string{"Food", "Travel", "Shopping", "Bills", "Other"}

type Category struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
	Count   int    `json:"count"`
}
