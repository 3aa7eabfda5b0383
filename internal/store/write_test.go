package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/roach88/recipeshelf/internal/recipe"
)

func TestCreateRecipe_ReturnsID(t *testing.T) {
	s := createTestStore(t)

	id, err := s.CreateRecipe(context.Background(), recipe.Input{
		Title:        "  Pancakes ",
		Instructions: "Mix and fry",
		PrepTime:     "5 min",
		Ingredients: []recipe.Ingredient{
			{Name: "flour", Quantity: "200", Unit: "g"},
			{Name: "   ", Quantity: "1", Unit: "pinch"},
			{Name: "salt"},
		},
	})
	if err != nil {
		t.Fatalf("CreateRecipe() failed: %v", err)
	}
	if _, ok := id.Int64(); !ok {
		t.Fatalf("id %q is not numeric", id)
	}

	got, err := s.GetRecipe(context.Background(), id)
	if err != nil {
		t.Fatalf("GetRecipe() failed: %v", err)
	}
	if got.Title != "Pancakes" {
		t.Errorf("Title = %q, want trimmed", got.Title)
	}
	if got.PrepTime != "5 min" {
		t.Errorf("PrepTime = %q", got.PrepTime)
	}
	if len(got.Ingredients) != 2 {
		t.Errorf("blank ingredient should be skipped, got %+v", got.Ingredients)
	}
}

func TestCreateRecipe_EmptyTitleWritesNothing(t *testing.T) {
	s := createTestStore(t)

	_, err := s.CreateRecipe(context.Background(), recipe.Input{Title: "", Instructions: "x"})
	if !errors.Is(err, recipe.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if n := countRows(t, s, "recipes"); n != 0 {
		t.Errorf("recipes rows = %d, want 0", n)
	}
	if n := countRows(t, s, "ingredients"); n != 0 {
		t.Errorf("ingredients rows = %d, want 0", n)
	}
}

func TestCreateRecipe_AtomicRollsBack(t *testing.T) {
	s := createTestStore(t)
	installPoisonTrigger(t, s)

	_, err := s.CreateRecipe(context.Background(), recipe.Input{
		Title:        "Bad",
		Instructions: "x",
		Ingredients:  []recipe.Ingredient{{Name: "salt"}, {Name: "poison"}},
	})
	if err == nil {
		t.Fatal("expected error from poisoned ingredient")
	}
	if errors.Is(err, recipe.ErrPartialWrite) {
		t.Error("atomic create must not report a partial write")
	}
	if n := countRows(t, s, "recipes"); n != 0 {
		t.Errorf("recipes rows = %d, want 0", n)
	}
	if n := countRows(t, s, "ingredients"); n != 0 {
		t.Errorf("ingredients rows = %d, want 0", n)
	}
}

func TestCreateRecipe_LegacyPartialWrite(t *testing.T) {
	s := createTestStore(t, WithAtomicCreate(false))
	installPoisonTrigger(t, s)

	id, err := s.CreateRecipe(context.Background(), recipe.Input{
		Title:        "Half",
		Instructions: "x",
		Ingredients:  []recipe.Ingredient{{Name: "salt"}, {Name: "poison"}, {Name: "pepper"}},
	})
	if !errors.Is(err, recipe.ErrPartialWrite) {
		t.Fatalf("err = %v, want ErrPartialWrite", err)
	}
	if id == "" {
		t.Fatal("id must still be returned on partial write")
	}

	var perr *recipe.PartialWriteError
	if !errors.As(err, &perr) || perr.Failed != 1 || perr.RecipeID != id {
		t.Errorf("PartialWriteError = %+v", perr)
	}

	got, err := s.GetRecipe(context.Background(), id)
	if err != nil {
		t.Fatalf("GetRecipe() failed: %v", err)
	}
	if len(got.Ingredients) != 2 {
		t.Errorf("ingredients = %+v, want salt and pepper", got.Ingredients)
	}
}

func TestUpdateRecipe_ReplacesEverything(t *testing.T) {
	s := createTestStore(t)
	id := createTestRecipe(t, s, "Soup", "tomato", "onion")

	err := s.UpdateRecipe(context.Background(), id, recipe.Input{
		Title:        "Better Soup",
		Instructions: "Simmer longer",
		CookTime:     "1 h",
		Ingredients:  []recipe.Ingredient{{Name: "leek", Quantity: "2", Unit: "pcs"}},
	})
	if err != nil {
		t.Fatalf("UpdateRecipe() failed: %v", err)
	}

	got, err := s.GetRecipe(context.Background(), id)
	if err != nil {
		t.Fatalf("GetRecipe() failed: %v", err)
	}
	if got.Title != "Better Soup" || got.CookTime != "1 h" {
		t.Errorf("scalar fields not updated: %+v", got)
	}
	if len(got.Ingredients) != 1 || got.Ingredients[0].Name != "leek" {
		t.Errorf("ingredients = %+v, want [leek]", got.Ingredients)
	}
}

func TestUpdateRecipe_IngredientRowIDsNotPreserved(t *testing.T) {
	s := createTestStore(t)
	id := createTestRecipe(t, s, "Soup", "tomato")

	before, err := s.ListIngredients(context.Background(), id)
	if err != nil {
		t.Fatalf("ListIngredients() failed: %v", err)
	}

	// Same ingredient set, new rows.
	err = s.UpdateRecipe(context.Background(), id, recipe.Input{
		Title:        "Soup",
		Instructions: "Cook Soup",
		Ingredients:  []recipe.Ingredient{{Name: "tomato", Quantity: "1", Unit: "pc"}},
	})
	if err != nil {
		t.Fatalf("UpdateRecipe() failed: %v", err)
	}

	after, err := s.ListIngredients(context.Background(), id)
	if err != nil {
		t.Fatalf("ListIngredients() failed: %v", err)
	}
	if len(before) != 1 || len(after) != 1 {
		t.Fatalf("before=%d after=%d rows, want 1 each", len(before), len(after))
	}
	if before[0].ID == after[0].ID {
		t.Errorf("ingredient row id %d survived the edit", before[0].ID)
	}
	if before[0].Ingredient != after[0].Ingredient {
		t.Errorf("ingredient content changed: %+v -> %+v", before[0].Ingredient, after[0].Ingredient)
	}
}

func TestUpdateRecipe_FailureLeavesPreviousState(t *testing.T) {
	s := createTestStore(t)
	id := createTestRecipe(t, s, "Soup", "tomato", "onion")
	installPoisonTrigger(t, s)

	err := s.UpdateRecipe(context.Background(), id, recipe.Input{
		Title:        "Ruined Soup",
		Instructions: "Don't",
		Ingredients:  []recipe.Ingredient{{Name: "water"}, {Name: "poison"}},
	})
	if err == nil {
		t.Fatal("expected update to fail")
	}

	recipes, err := s.ListRecipes(context.Background())
	if err != nil {
		t.Fatalf("ListRecipes() failed: %v", err)
	}
	if len(recipes) != 1 {
		t.Fatalf("len = %d, want 1", len(recipes))
	}
	got := recipes[0]
	if got.Title != "Soup" || got.Instructions != "Cook Soup" {
		t.Errorf("scalar fields changed: %+v", got)
	}
	if len(got.Ingredients) != 2 || got.Ingredients[0].Name != "tomato" || got.Ingredients[1].Name != "onion" {
		t.Errorf("ingredients = %+v, want original [tomato onion]", got.Ingredients)
	}
}

func TestUpdateRecipe_ReadersNeverSeeEmptySet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	writer, err := Open(path)
	if err != nil {
		t.Fatalf("Open(writer) failed: %v", err)
	}
	t.Cleanup(func() { writer.Close() })
	reader, err := Open(path)
	if err != nil {
		t.Fatalf("Open(reader) failed: %v", err)
	}
	t.Cleanup(func() { reader.Close() })

	id := createTestRecipe(t, writer, "Soup", "tomato", "onion")

	var midUpdate []recipe.Recipe
	writer.testHookIngredientsCleared = func() {
		recipes, err := reader.ListRecipes(context.Background())
		if err != nil {
			t.Errorf("ListRecipes() during update failed: %v", err)
			return
		}
		midUpdate = recipes
	}

	err = writer.UpdateRecipe(context.Background(), id, recipe.Input{
		Title:        "Soup",
		Instructions: "Cook Soup",
		Ingredients:  []recipe.Ingredient{{Name: "leek"}},
	})
	if err != nil {
		t.Fatalf("UpdateRecipe() failed: %v", err)
	}

	if len(midUpdate) != 1 {
		t.Fatalf("reader saw %d recipes mid-update, want 1", len(midUpdate))
	}
	if got := midUpdate[0].Ingredients; len(got) != 2 || got[0].Name != "tomato" || got[1].Name != "onion" {
		t.Errorf("reader saw ingredients %+v mid-update, want the committed [tomato onion]", got)
	}

	after, err := reader.GetRecipe(context.Background(), id)
	if err != nil {
		t.Fatalf("GetRecipe() failed: %v", err)
	}
	if len(after.Ingredients) != 1 || after.Ingredients[0].Name != "leek" {
		t.Errorf("after commit ingredients = %+v, want [leek]", after.Ingredients)
	}
}

func TestUpdateRecipe_Validation(t *testing.T) {
	s := createTestStore(t)
	id := createTestRecipe(t, s, "Soup", "tomato")

	err := s.UpdateRecipe(context.Background(), id, recipe.Input{Title: "Soup", Instructions: "  "})
	if !errors.Is(err, recipe.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	got, _ := s.GetRecipe(context.Background(), id)
	if len(got.Ingredients) != 1 {
		t.Errorf("ingredients touched by rejected update: %+v", got.Ingredients)
	}
}

func TestUpdateRecipe_NotFound(t *testing.T) {
	s := createTestStore(t)

	for _, id := range []recipe.ID{"999", "draft-1"} {
		err := s.UpdateRecipe(context.Background(), id, recipe.Input{Title: "T", Instructions: "I"})
		if !errors.Is(err, recipe.ErrNotFound) {
			t.Errorf("UpdateRecipe(%q) err = %v, want ErrNotFound", id, err)
		}
	}
	if n := countRows(t, s, "recipes"); n != 0 {
		t.Errorf("recipes rows = %d, want 0", n)
	}
}

func TestDeleteRecipe(t *testing.T) {
	s := createTestStore(t)
	keep := createTestRecipe(t, s, "Keep", "a")
	drop := createTestRecipe(t, s, "Drop", "b", "c")

	if err := s.DeleteRecipe(context.Background(), drop); err != nil {
		t.Fatalf("DeleteRecipe() failed: %v", err)
	}

	if n := countRows(t, s, "recipes"); n != 1 {
		t.Errorf("recipes rows = %d, want 1", n)
	}
	if n := countRows(t, s, "ingredients"); n != 1 {
		t.Errorf("ingredients rows = %d, want 1", n)
	}
	if _, err := s.GetRecipe(context.Background(), keep); err != nil {
		t.Errorf("kept recipe missing: %v", err)
	}
}

func TestDeleteRecipe_NotFound(t *testing.T) {
	s := createTestStore(t)
	createTestRecipe(t, s, "Soup", "tomato")

	err := s.DeleteRecipe(context.Background(), "999")
	if !errors.Is(err, recipe.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if n := countRows(t, s, "recipes"); n != 1 {
		t.Errorf("recipes rows = %d, want 1", n)
	}
	if n := countRows(t, s, "ingredients"); n != 1 {
		t.Errorf("ingredients rows = %d, want 1", n)
	}
}

func TestDeleteRecipe_Repeated(t *testing.T) {
	s := createTestStore(t)
	id := createTestRecipe(t, s, "Soup", "tomato")

	if err := s.DeleteRecipe(context.Background(), id); err != nil {
		t.Fatalf("first DeleteRecipe() failed: %v", err)
	}
	err := s.DeleteRecipe(context.Background(), id)
	if !errors.Is(err, recipe.ErrNotFound) {
		t.Errorf("second DeleteRecipe() err = %v, want ErrNotFound", err)
	}
}
