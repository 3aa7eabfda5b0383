package testutil

import (
	"encoding/json"
	"testing"

	"github.com/roach88/recipeshelf/internal/recipe"
)

// Recipes decodes a JSON array of recipes, failing the test on error.
// Ingredient fields may use any of the legacy shapes.
func Recipes(t testing.TB, raw string) []recipe.Recipe {
	t.Helper()
	var out []recipe.Recipe
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode recipes fixture: %v", err)
	}
	return out
}

// LocalSlice serves a fixed list as a local shelf.
type LocalSlice []recipe.Recipe

// List returns a copy of the slice.
func (l LocalSlice) List() ([]recipe.Recipe, error) {
	out := make([]recipe.Recipe, len(l))
	for i, r := range l {
		out[i] = r.Clone()
	}
	return out, nil
}

// SoupSaladLocal is a shelf holding one unfavourited soup whose
// ingredients were saved as a flat string.
const SoupSaladLocal = `[
	{"id": "1", "title": "Soup", "instructions": "Simmer", "isFavourite": false, "ingredients": "tomato, onion"}
]`

// SoupSaladRemote is the server list matching SoupSaladLocal: the same
// soup with structured ingredients, plus a salad.
const SoupSaladRemote = `[
	{"id": 1, "title": "Soup", "instructions": "Simmer",
	 "ingredients": [{"name": "tomato", "quantity": "2", "unit": "pcs"}]},
	{"id": 2, "title": "Salad", "instructions": "Toss", "ingredients": []}
]`
