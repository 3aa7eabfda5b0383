package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/recipeshelf/internal/recipe"
)

// CreateRecipe validates in and writes the recipe row followed by one row
// per ingredient. Ingredients with a blank name are skipped. It returns the
// new recipe id.
//
// By default the writes share one transaction. When the store was opened
// WithAtomicCreate(false), ingredient failures do not roll back the recipe
// row; the id is returned together with a *recipe.PartialWriteError.
func (s *Store) CreateRecipe(ctx context.Context, in recipe.Input) (recipe.ID, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	in = in.Normalized()

	if !s.atomicCreate {
		return s.createRecipePartial(ctx, in)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("create recipe: begin: %w", err)
	}
	defer tx.Rollback()

	id, err := insertRecipe(ctx, tx, in)
	if err != nil {
		return "", fmt.Errorf("create recipe: %w", err)
	}
	for _, ing := range in.Ingredients {
		if err := insertIngredient(ctx, tx, id, ing); err != nil {
			return "", fmt.Errorf("create recipe: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("create recipe: commit: %w", err)
	}

	s.logger.Debug("recipe created", "id", id, "ingredients", len(in.Ingredients))
	return recipe.IDFromInt(id), nil
}

// createRecipePartial writes each row in its own statement. The recipe
// row always lands first so ingredient rows can reference it.
func (s *Store) createRecipePartial(ctx context.Context, in recipe.Input) (recipe.ID, error) {
	id, err := insertRecipe(ctx, s.db, in)
	if err != nil {
		return "", fmt.Errorf("create recipe: %w", err)
	}
	rid := recipe.IDFromInt(id)

	var (
		failed int
		errs   []error
	)
	for _, ing := range in.Ingredients {
		if err := insertIngredient(ctx, s.db, id, ing); err != nil {
			failed++
			errs = append(errs, err)
		}
	}
	if failed > 0 {
		perr := &recipe.PartialWriteError{RecipeID: rid, Failed: failed, Err: errors.Join(errs...)}
		s.logger.Warn("recipe created with missing ingredients",
			"id", rid,
			"failed", failed,
			"error", perr.Err)
		return rid, perr
	}

	s.logger.Debug("recipe created", "id", id, "ingredients", len(in.Ingredients))
	return rid, nil
}

// UpdateRecipe replaces the recipe's scalar fields and its entire
// ingredient set in one transaction: update the row, delete every
// ingredient row, insert the new set. On any failure nothing changes.
// Ingredient row ids are not preserved.
func (s *Store) UpdateRecipe(ctx context.Context, id recipe.ID, in recipe.Input) error {
	if err := in.Validate(); err != nil {
		return err
	}
	n, ok := id.Int64()
	if !ok {
		return &recipe.NotFoundError{ID: id}
	}
	in = in.Normalized()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update recipe %s: begin: %w", id, err)
	}
	defer tx.Rollback()

	// MySQL reports zero affected rows for an update that changes nothing,
	// so existence is checked separately.
	if err := requireRecipe(ctx, tx, n, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE recipes
		SET title = ?, instructions = ?, image_url = ?, prep_time = ?, cook_time = ?
		WHERE id = ?
	`, in.Title, in.Instructions, in.ImageURL, in.PrepTime, in.CookTime, n); err != nil {
		return fmt.Errorf("update recipe %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ingredients WHERE recipe_id = ?`, n); err != nil {
		return fmt.Errorf("update recipe %s: clear ingredients: %w", id, err)
	}
	if s.testHookIngredientsCleared != nil {
		s.testHookIngredientsCleared()
	}

	for _, ing := range in.Ingredients {
		if err := insertIngredient(ctx, tx, n, ing); err != nil {
			return fmt.Errorf("update recipe %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update recipe %s: commit: %w", id, err)
	}

	s.logger.Debug("recipe updated", "id", id, "ingredients", len(in.Ingredients))
	return nil
}

// DeleteRecipe removes the recipe and its ingredients in one transaction.
// An unknown id reports *recipe.NotFoundError and changes nothing, so
// repeated deletes are safe.
func (s *Store) DeleteRecipe(ctx context.Context, id recipe.ID) error {
	n, ok := id.Int64()
	if !ok {
		return &recipe.NotFoundError{ID: id}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete recipe %s: begin: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ingredients WHERE recipe_id = ?`, n); err != nil {
		return fmt.Errorf("delete recipe %s: ingredients: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, n)
	if err != nil {
		return fmt.Errorf("delete recipe %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recipe %s: rows affected: %w", id, err)
	}
	if affected == 0 {
		return &recipe.NotFoundError{ID: id}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete recipe %s: commit: %w", id, err)
	}

	s.logger.Debug("recipe deleted", "id", id)
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRecipe(ctx context.Context, db execer, in recipe.Input) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO recipes (title, instructions, image_url, prep_time, cook_time)
		VALUES (?, ?, ?, ?, ?)
	`, in.Title, in.Instructions, in.ImageURL, in.PrepTime, in.CookTime)
	if err != nil {
		return 0, fmt.Errorf("insert recipe: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert recipe: last insert id: %w", err)
	}
	return id, nil
}

func insertIngredient(ctx context.Context, db execer, recipeID int64, ing recipe.Ingredient) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO ingredients (recipe_id, name, quantity, unit)
		VALUES (?, ?, ?, ?)
	`, recipeID, ing.Name, string(ing.Quantity), ing.Unit)
	if err != nil {
		return fmt.Errorf("insert ingredient %q: %w", ing.Name, err)
	}
	return nil
}

func requireRecipe(ctx context.Context, tx *sql.Tx, n int64, id recipe.ID) error {
	var found int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM recipes WHERE id = ?`, n).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return &recipe.NotFoundError{ID: id}
	}
	if err != nil {
		return fmt.Errorf("update recipe %s: lookup: %w", id, err)
	}
	return nil
}
