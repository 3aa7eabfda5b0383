package reconcile

import (
	"context"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/recipeshelf/internal/recipe"
)

// Query selects recipes from a merged view. Text matches a title or any
// ingredient name, case-insensitively. Both predicates must hold.
type Query struct {
	Text           string
	FavouritesOnly bool
}

// Matches reports whether r satisfies q.
func (q Query) Matches(r recipe.Recipe) bool {
	if q.FavouritesOnly && !r.Favourite() {
		return false
	}
	needle := fold(strings.TrimSpace(q.Text))
	if needle == "" {
		return true
	}
	if strings.Contains(fold(r.Title), needle) {
		return true
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(fold(ing.Name), needle) {
			return true
		}
	}
	return false
}

// Filter returns the records of recipes matching q, in order.
func Filter(recipes []recipe.Recipe, q Query) []recipe.Recipe {
	out := make([]recipe.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Search builds the merged view and filters it.
func (e *Engine) Search(ctx context.Context, q Query) (View, error) {
	view, err := e.MergedView(ctx)
	if err != nil {
		return View{}, err
	}
	view.Recipes = Filter(view.Recipes, q)
	return view, nil
}

// fold applies Unicode case folding. A cases.Caser is stateful, so each
// call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
