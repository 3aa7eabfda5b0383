package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/recipeshelf/internal/recipe"
)

// IngredientRow is a stored ingredient with its row identity. Row ids are
// not stable: UpdateRecipe replaces the whole set and new rows get new ids.
type IngredientRow struct {
	ID       int64     `json:"id"`
	RecipeID recipe.ID `json:"recipeId"`
	recipe.Ingredient
}

// ListRecipes returns every recipe with its ingredients attached, ordered
// by title byte-wise. A recipe without ingredient rows has an empty, non-nil
// Ingredients list. Any failure is a *recipe.RetrievalError.
func (s *Store) ListRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	recipes, err := s.readRecipeRows(ctx, `
		SELECT id, title, instructions, image_url, prep_time, cook_time
		FROM recipes
		ORDER BY `+s.dialect.orderByTitle)
	if err != nil {
		return nil, &recipe.RetrievalError{Op: "list recipes", Err: err}
	}

	// The recipe rows are closed before the per-recipe lookups start; the
	// MySQL driver cannot interleave result sets on one connection.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchLimit)
	for i := range recipes {
		g.Go(func() error {
			ings, err := s.readIngredients(gctx, recipes[i].ID)
			if err != nil {
				return err
			}
			recipes[i].Ingredients = ings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &recipe.RetrievalError{Op: "list ingredients", Err: err}
	}

	return recipes, nil
}

// GetRecipe returns one recipe with its ingredients. Unknown and
// non-numeric ids report *recipe.NotFoundError.
func (s *Store) GetRecipe(ctx context.Context, id recipe.ID) (recipe.Recipe, error) {
	n, ok := id.Int64()
	if !ok {
		return recipe.Recipe{}, &recipe.NotFoundError{ID: id}
	}

	recipes, err := s.readRecipeRows(ctx, `
		SELECT id, title, instructions, image_url, prep_time, cook_time
		FROM recipes
		WHERE id = ?`, n)
	if err != nil {
		return recipe.Recipe{}, &recipe.RetrievalError{Op: "get recipe", Err: err}
	}
	if len(recipes) == 0 {
		return recipe.Recipe{}, &recipe.NotFoundError{ID: id}
	}

	r := recipes[0]
	r.Ingredients, err = s.readIngredients(ctx, r.ID)
	if err != nil {
		return recipe.Recipe{}, &recipe.RetrievalError{Op: "get recipe ingredients", Err: err}
	}
	return r, nil
}

// ListIngredients returns the ingredient rows for one recipe in insertion
// order. It is empty, not an error, when the recipe has none or does not
// exist. A non-numeric id is a *recipe.ValidationError.
func (s *Store) ListIngredients(ctx context.Context, id recipe.ID) ([]IngredientRow, error) {
	n, ok := id.Int64()
	if !ok || n <= 0 {
		return nil, &recipe.ValidationError{Field: "recipeId", Message: fmt.Sprintf("%q is not a recipe id", string(id))}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipe_id, name, quantity, unit
		FROM ingredients
		WHERE recipe_id = ?
		ORDER BY id ASC
	`, n)
	if err != nil {
		return nil, &recipe.RetrievalError{Op: "list ingredients", Err: err}
	}
	defer rows.Close()

	result := []IngredientRow{}
	for rows.Next() {
		var (
			row      IngredientRow
			recipeID int64
			quantity string
		)
		if err := rows.Scan(&row.ID, &recipeID, &row.Name, &quantity, &row.Unit); err != nil {
			return nil, &recipe.RetrievalError{Op: "scan ingredient", Err: err}
		}
		row.RecipeID = recipe.IDFromInt(recipeID)
		row.Quantity = recipe.Quantity(quantity)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &recipe.RetrievalError{Op: "iterate ingredients", Err: err}
	}

	return result, nil
}

// readRecipeRows scans recipe rows without ingredients. The rows are fully
// consumed and closed before it returns.
func (s *Store) readRecipeRows(ctx context.Context, query string, args ...any) ([]recipe.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	recipes := []recipe.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}

	return recipes, nil
}

func (s *Store) readIngredients(ctx context.Context, id recipe.ID) (recipe.IngredientList, error) {
	n, ok := id.Int64()
	if !ok {
		return recipe.IngredientList{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, quantity, unit
		FROM ingredients
		WHERE recipe_id = ?
		ORDER BY id ASC
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query ingredients for recipe %s: %w", id, err)
	}
	defer rows.Close()

	ings := recipe.IngredientList{}
	for rows.Next() {
		var (
			ing      recipe.Ingredient
			quantity string
		)
		if err := rows.Scan(&ing.Name, &quantity, &ing.Unit); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		ing.Quantity = recipe.Quantity(quantity)
		ings = append(ings, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingredients: %w", err)
	}

	return ings, nil
}

// rowScanner is implemented by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (recipe.Recipe, error) {
	var (
		r  recipe.Recipe
		id int64
	)
	err := row.Scan(&id, &r.Title, &r.Instructions, &r.ImageURL, &r.PrepTime, &r.CookTime)
	if errors.Is(err, sql.ErrNoRows) {
		return recipe.Recipe{}, err
	}
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("scan recipe: %w", err)
	}
	r.ID = recipe.IDFromInt(id)
	r.Ingredients = recipe.IngredientList{}
	return r, nil
}
