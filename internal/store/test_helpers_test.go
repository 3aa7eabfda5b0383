package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/recipeshelf/internal/recipe"
)

// createTestStore opens a fresh SQLite store in a temp directory.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecipe writes a recipe with the given title and ingredient
// names and returns its id.
func createTestRecipe(t *testing.T, s *Store, title string, names ...string) recipe.ID {
	t.Helper()
	in := recipe.Input{Title: title, Instructions: "Cook " + title}
	for _, n := range names {
		in.Ingredients = append(in.Ingredients, recipe.Ingredient{Name: n, Quantity: "1", Unit: "pc"})
	}
	id, err := s.CreateRecipe(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateRecipe(%q) failed: %v", title, err)
	}
	return id
}

// installPoisonTrigger makes any ingredient insert named "poison" fail.
func installPoisonTrigger(t *testing.T, s *Store) {
	t.Helper()
	_, err := s.db.Exec(`
		CREATE TRIGGER poison_ingredient BEFORE INSERT ON ingredients
		WHEN NEW.name = 'poison'
		BEGIN
			SELECT RAISE(ABORT, 'poisoned ingredient');
		END
	`)
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
