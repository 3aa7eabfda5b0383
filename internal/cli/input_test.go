package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/recipeshelf/internal/recipe"
)

func TestParseIngredientFlag(t *testing.T) {
	tests := []struct {
		raw  string
		want recipe.Ingredient
	}{
		{"Flour|200|g", recipe.Ingredient{Name: "Flour", Quantity: "200", Unit: "g"}},
		{" Salt | To taste ", recipe.Ingredient{Name: "Salt", Quantity: "To taste"}},
		{"Eggs", recipe.Ingredient{Name: "Eggs"}},
		{"Stock|1|cup|hot", recipe.Ingredient{Name: "Stock", Quantity: "1", Unit: "cup|hot"}},
		{"|2|cups", recipe.Ingredient{Quantity: "2", Unit: "cups"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, parseIngredientFlag(tt.raw))
		})
	}
}

func TestAdd_BlankIngredientNameSkipped(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run("add", "--title", "Rice", "--instructions", "Boil", "-i", "|2|cups", "-i", "Rice|1|cup")
	assert.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stderr, "skipped 1 invalid ingredient entries")

	var got recipe.Recipe
	env.runJSON(&got, "show", "1")
	assert.Equal(t, recipe.IngredientList{{Name: "Rice", Quantity: "1", Unit: "cup"}}, got.Ingredients)
}
