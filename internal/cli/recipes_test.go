package cli

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recipeshelf/internal/recipe"
	"github.com/roach88/recipeshelf/internal/store"
)

func addTomatoSoup(e *cliEnv) {
	e.t.Helper()
	e.mustRun("add", "--title", "Tomato Soup", "--instructions", "Simmer, then blend.",
		"-i", "Tomato|4|", "-i", "Salt|To taste|")
}

func TestAddListShow(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("add", "--title", "Tomato Soup", "--instructions", "Simmer, then blend.",
		"-i", "Tomato|4|", "-i", "Salt|To taste|")
	assert.Equal(t, "Created recipe 1\n", out)

	env.mustRun("add", "--title", "Apple Pie", "--instructions", "Bake")

	out = env.mustRun("list")
	assert.Equal(t, "[2] Apple Pie (0 ingredients)\n[1] Tomato Soup (2 ingredients)\n", out)

	out = env.mustRun("show", "1")
	assert.Contains(t, out, "Tomato Soup [1]")
	assert.Contains(t, out, "  - 4 Tomato\n  - To taste Salt\n")
}

func TestAdd_ValidationFailure(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run("add", "--title", "   ", "--instructions", "Bake")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Error [E001]")

	res = env.run("add", "--title", "Pie")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "instructions")

	assert.Equal(t, "No recipes found.\n", env.mustRun("list"))
}

func TestAdd_PartialWriteInJSON(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("SHELF_STORE_ATOMIC_CREATE", "false")
	env.mustRun("list")

	db, err := sql.Open(store.DriverSQLite, env.db)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TRIGGER poison_ingredient BEFORE INSERT ON ingredients
		WHEN NEW.name = 'poison'
		BEGIN
			SELECT RAISE(ABORT, 'poisoned ingredient');
		END
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	var got struct {
		ID                 recipe.ID `json:"id"`
		SkippedIngredients int       `json:"skipped_ingredients"`
		PartialFailed      int       `json:"partial_failed"`
		PartialError       string    `json:"partial_error"`
	}
	res := env.runJSON(&got, "add", "--title", "Stew", "--instructions", "Simmer",
		"-i", "Beef|1|kg", "-i", "poison|1|g", "-i", "|2|cups")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, recipe.ID("1"), got.ID)
	assert.Equal(t, 1, got.SkippedIngredients)
	assert.Equal(t, 1, got.PartialFailed)
	assert.Contains(t, got.PartialError, "poisoned ingredient")

	var shown recipe.Recipe
	env.runJSON(&shown, "show", "1")
	assert.Equal(t, recipe.IngredientList{{Name: "Beef", Quantity: "1", Unit: "kg"}}, shown.Ingredients)
}

func TestAdd_JSONBody(t *testing.T) {
	env := newCLIEnv(t)

	body := `{
		"title": "Pancakes",
		"instructions": "Whisk and fry",
		"prep_time": "5 min",
		"ingredients": [
			{"name": "Flour", "quantity": 200, "unit": "g"},
			{"name": "Milk", "quantity": null, "unit": "ml"}
		]
	}`
	res := env.runWithInput(body, "add", "--json", "-")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stderr, "warning: skipped 1 invalid ingredient entries")

	var got recipe.Recipe
	env.runJSON(&got, "show", "1")
	assert.Equal(t, "5 min", got.PrepTime)
	assert.Equal(t, recipe.IngredientList{{Name: "Flour", Quantity: "200", Unit: "g"}}, got.Ingredients)
}

func TestShow_NotFound(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run("show", "999")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Error [E002]")

	res = env.run("--format", "json", "show", "999")
	assert.Equal(t, ExitFailure, res.code)
	assert.JSONEq(t, `{"status":"error","error":{"code":"E002","message":"failed to get recipe: recipe \"999\" not found"}}`, res.stdout)
}

func TestShow_Rows(t *testing.T) {
	env := newCLIEnv(t)
	addTomatoSoup(env)

	var rows []struct {
		ID       int64  `json:"id"`
		RecipeID string `json:"recipeId"`
		Name     string `json:"name"`
	}
	env.runJSON(&rows, "show", "1", "--rows")
	require.Len(t, rows, 2)
	assert.Equal(t, "Tomato", rows[0].Name)
	assert.Equal(t, "1", rows[0].RecipeID)

	res := env.run("show", "abc", "--rows")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Error [E001]")
}

func TestEdit_ReplacesIngredients(t *testing.T) {
	env := newCLIEnv(t)
	addTomatoSoup(env)

	var before []struct {
		ID int64 `json:"id"`
	}
	env.runJSON(&before, "show", "1", "--rows")

	out := env.mustRun("edit", "1", "--title", "Tomato Bisque", "-i", "Cream|1|cup")
	assert.Equal(t, "Updated recipe 1\n", out)

	var got recipe.Recipe
	env.runJSON(&got, "show", "1")
	assert.Equal(t, "Tomato Bisque", got.Title)
	assert.Equal(t, "Simmer, then blend.", got.Instructions, "unset flags keep their value")
	assert.Equal(t, recipe.IngredientList{{Name: "Cream", Quantity: "1", Unit: "cup"}}, got.Ingredients)

	var after []struct {
		ID int64 `json:"id"`
	}
	env.runJSON(&after, "show", "1", "--rows")
	require.Len(t, after, 1)
	for _, row := range before {
		assert.NotEqual(t, row.ID, after[0].ID, "ingredient rows are replaced, not updated")
	}
}

func TestEdit_InvalidKeepsRecipe(t *testing.T) {
	env := newCLIEnv(t)
	addTomatoSoup(env)

	res := env.run("edit", "1", "--instructions", " ")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Error [E001]")

	var got recipe.Recipe
	env.runJSON(&got, "show", "1")
	assert.Equal(t, "Simmer, then blend.", got.Instructions)
	assert.Len(t, got.Ingredients, 2)
}

func TestEdit_RefreshesSavedCopy(t *testing.T) {
	env := newCLIEnv(t)
	addTomatoSoup(env)
	env.mustRun("save", "1")
	env.mustRun("fav", "1")

	env.mustRun("edit", "1", "--title", "Tomato Bisque")

	var view viewPayload
	env.runJSON(&view, "mine")
	require.Len(t, view.Recipes, 1)
	assert.Equal(t, "Tomato Bisque", view.Recipes[0].Title)
	assert.True(t, view.Recipes[0].Favourite(), "edit keeps the shelf's favourite flag")
	assert.False(t, view.Recipes[0].IsUserCreated)
}

func TestEdit_KeepsOwnership(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("add", "--title", "Mine", "--instructions", "Cook", "--save")

	env.mustRun("edit", "1", "--title", "Mine v2")

	var view viewPayload
	env.runJSON(&view, "mine")
	require.Len(t, view.Recipes, 1)
	assert.Equal(t, "Mine v2", view.Recipes[0].Title)
	assert.True(t, view.Recipes[0].IsUserCreated, "server edit keeps the shelf's ownership flag")

	out := env.mustRun("delete", "1", "--remote")
	assert.Equal(t, "Deleted recipe 1\n", out)
}

func TestEdit_Local(t *testing.T) {
	env := newCLIEnv(t)
	addTomatoSoup(env)
	env.mustRun("save", "1")

	out := env.mustRun("edit", "1", "--local", "--title", "My Soup")
	assert.Equal(t, "Updated shelf copy of 1\n", out)

	var server recipe.Recipe
	env.runJSON(&server, "show", "1")
	assert.Equal(t, "Tomato Soup", server.Title, "store is untouched")

	var view viewPayload
	env.runJSON(&view, "mine")
	require.Len(t, view.Recipes, 1)
	assert.Equal(t, "My Soup", view.Recipes[0].Title)
	assert.True(t, view.Recipes[0].IsUserCreated)

	res := env.run("edit", "2", "--local", "--title", "Nope")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Error [E002]")
}

func TestDelete(t *testing.T) {
	env := newCLIEnv(t)
	addTomatoSoup(env)

	t.Run("not on shelf", func(t *testing.T) {
		res := env.run("delete", "1")
		assert.Equal(t, ExitFailure, res.code)
		assert.Contains(t, res.stderr, "Error [E002]")
	})

	t.Run("remote requires ownership", func(t *testing.T) {
		env.mustRun("save", "1")
		res := env.run("delete", "1", "--remote")
		assert.Equal(t, ExitFailure, res.code)
		assert.Contains(t, res.stderr, "Error [E004]")
		env.mustRun("show", "1")
	})

	t.Run("shelf only", func(t *testing.T) {
		out := env.mustRun("delete", "1")
		assert.Equal(t, "Removed recipe 1 from your shelf\n", out)
		env.mustRun("show", "1")
	})

	t.Run("remote", func(t *testing.T) {
		env.mustRun("add", "--title", "Mine", "--instructions", "Cook", "--save")
		out := env.mustRun("delete", "2", "--remote")
		assert.Equal(t, "Deleted recipe 2\n", out)

		res := env.run("show", "2")
		assert.Equal(t, ExitFailure, res.code)
		assert.Contains(t, res.stderr, "Error [E002]")
	})
}

func TestSeed(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("seed")
	assert.Equal(t, "Seeded 5 recipes (0 already present, 0 failed)\n", out)

	out = env.mustRun("seed")
	assert.Equal(t, "Seeded 0 recipes (5 already present, 0 failed)\n", out)

	var recipes []recipe.Recipe
	env.runJSON(&recipes, "list")
	require.Len(t, recipes, 5)
	assert.Equal(t, "Chicken Stir-Fry", recipes[0].Title)
}

func TestStoreUnavailable(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("draft", "--title", "Offline Pie", "--instructions", "Bake")

	bad := filepath.Join(env.dir, "missing", "shelf.db")

	res := env.run("--db", bad, "list")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Contains(t, res.stderr, "failed to open database")

	res = env.run("--db", bad, "mine")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "server recipes unavailable")
	assert.Contains(t, res.stdout, "Offline Pie (mine)")

	var view viewPayload
	res = env.runJSON(&view, "--db", bad, "mine")
	require.Equal(t, ExitSuccess, res.code)
	assert.True(t, view.Degraded)
	assert.NotEmpty(t, view.RemoteError)
	require.Len(t, view.Recipes, 1)
}
