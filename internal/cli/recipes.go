package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/recipeshelf/internal/recipe"
	"github.com/roach88/recipeshelf/internal/seed"
	"github.com/roach88/recipeshelf/internal/store"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List server recipes alphabetically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.requireStore()
	if err != nil {
		return err
	}
	recipes, err := st.ListRecipes(cmd.Context())
	if err != nil {
		return recipeError("failed to list recipes", err)
	}
	if recipes == nil {
		recipes = []recipe.Recipe{}
	}
	return a.out.Render(recipes, func(w io.Writer) error {
		return renderList(w, recipes)
	})
}

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Rows bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recipe with its ingredients",
		Long: `Show one recipe with its ingredients.

Server recipes are read from the store. Local drafts, and saved recipes
while the store is unreachable, are read from your shelf.

With --rows, the stored ingredient rows are listed with their row ids.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, recipe.ID(args[0]), cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Rows, "rows", false, "list stored ingredient rows with their ids")

	return cmd
}

func runShow(opts *ShowOptions, id recipe.ID, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.Rows {
		st, err := a.requireStore()
		if err != nil {
			return err
		}
		rows, err := st.ListIngredients(cmd.Context(), id)
		if err != nil {
			return recipeError("failed to list ingredients", err)
		}
		return a.out.Render(rows, func(w io.Writer) error {
			return renderRows(w, id, rows)
		})
	}

	r, err := lookupRecipe(cmd, a, id)
	if err != nil {
		return err
	}
	return a.out.Render(r, func(w io.Writer) error {
		return renderDetail(w, r)
	})
}

// lookupRecipe reads id from the store, falling back to the shelf copy
// when the store does not have it or cannot be reached.
func lookupRecipe(cmd *cobra.Command, a *app, id recipe.ID) (recipe.Recipe, error) {
	var storeErr error
	if a.store != nil {
		r, err := a.store.GetRecipe(cmd.Context(), id)
		if err == nil {
			return r, nil
		}
		storeErr = err
	} else {
		storeErr = &recipe.RetrievalError{Op: "open recipe store", Err: a.storeErr}
	}

	cached, ok, err := a.cache.Get(id)
	if err != nil {
		return recipe.Recipe{}, recipeError("failed to read shelf", err)
	}
	if ok {
		a.logger.Debug("showing shelf copy", "id", id, "store_error", storeErr)
		return cached, nil
	}
	return recipe.Recipe{}, recipeError("failed to get recipe", storeErr)
}

func renderRows(w io.Writer, id recipe.ID, rows []store.IngredientRow) error {
	fmt.Fprintf(w, "Ingredient rows for recipe %s (%d)\n", id, len(rows))
	for _, row := range rows {
		fmt.Fprintf(w, "  #%d %s\n", row.ID, formatIngredient(row.Ingredient))
	}
	return nil
}

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Input InputOptions
	Save  bool
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a recipe in the store",
		Long: `Create a recipe in the store.

Example:
  shelf add --title "Tomato Soup" --instructions "Simmer, then blend." \
    -i "Tomato|4|" -i "Salt|To taste|"
  shelf add --json recipe.json --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, cmd)
		},
	}

	addInputFlags(cmd, &opts.Input)
	cmd.Flags().BoolVar(&opts.Save, "save", false, "also save the new recipe to your shelf as your own")

	return cmd
}

func runAdd(opts *AddOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	in, err := readInput(cmd, &opts.Input, nil)
	if err != nil {
		return recipeError("invalid recipe", err)
	}
	warnSkipped(a.out, in)

	st, err := a.requireStore()
	if err != nil {
		return err
	}
	id, err := st.CreateRecipe(cmd.Context(), in)
	result := newWriteResult(id, in)
	var partial *recipe.PartialWriteError
	switch {
	case errors.As(err, &partial):
		a.out.Warn("recipe %s created but %d ingredients were not stored", id, partial.Failed)
		result.PartialFailed = partial.Failed
		result.PartialError = partial.Err.Error()
	case err != nil:
		return recipeError("failed to create recipe", err)
	}

	if opts.Save {
		created, err := st.GetRecipe(cmd.Context(), id)
		if err != nil {
			return recipeError("failed to read created recipe", err)
		}
		created.IsUserCreated = true
		created.IsFavourite = recipe.Bool(false)
		if err := a.cache.Upsert(created); err != nil {
			return recipeError("failed to save recipe", err)
		}
	}

	result.Saved = opts.Save
	return a.out.Render(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Created recipe %s\n", id)
		return nil
	})
}

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Input InputOptions
	Local bool
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace a recipe's fields and ingredients",
		Long: `Replace a recipe's fields and ingredients.

Flags that are not given keep their current value; --ingredient replaces
the whole ingredient list. Server recipes are updated in the store and the
shelf copy, if saved, is refreshed. With --local, or for a local draft,
only the shelf copy changes and it becomes your own.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(opts, recipe.ID(args[0]), cmd)
		},
	}

	addInputFlags(cmd, &opts.Input)
	cmd.Flags().BoolVar(&opts.Local, "local", false, "edit only the shelf copy")

	return cmd
}

func runEdit(opts *EditOptions, id recipe.ID, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	_, numeric := id.Int64()
	if opts.Local || !numeric {
		return editLocal(opts, id, cmd, a)
	}

	st, err := a.requireStore()
	if err != nil {
		return err
	}
	current, err := st.GetRecipe(cmd.Context(), id)
	if err != nil {
		return recipeError("failed to get recipe", err)
	}
	in, err := readInput(cmd, &opts.Input, &current)
	if err != nil {
		return recipeError("invalid recipe", err)
	}
	warnSkipped(a.out, in)

	if err := st.UpdateRecipe(cmd.Context(), id, in); err != nil {
		return recipeError("failed to update recipe", err)
	}

	updated, err := st.GetRecipe(cmd.Context(), id)
	if err != nil {
		return recipeError("failed to read updated recipe", err)
	}
	saved, err := a.cache.IsSaved(id)
	if err != nil {
		return recipeError("failed to read shelf", err)
	}
	if saved {
		// Upsert keeps the shelf's favourite and ownership flags.
		if err := a.cache.Upsert(updated); err != nil {
			return recipeError("failed to refresh shelf copy", err)
		}
	}

	result := newWriteResult(id, in)
	result.Recipe = &updated
	return a.out.Render(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Updated recipe %s\n", id)
		return nil
	})
}

func editLocal(opts *EditOptions, id recipe.ID, cmd *cobra.Command, a *app) error {
	current, ok, err := a.cache.Get(id)
	if err != nil {
		return recipeError("failed to read shelf", err)
	}
	if !ok {
		return recipeError("failed to edit recipe", &recipe.NotFoundError{ID: id})
	}
	in, err := readInput(cmd, &opts.Input, &current)
	if err != nil {
		return recipeError("invalid recipe", err)
	}
	warnSkipped(a.out, in)

	updated, err := a.cache.Edit(id, in)
	if err != nil {
		return recipeError("failed to edit recipe", err)
	}
	result := newWriteResult(id, in)
	result.Recipe = &updated
	return a.out.Render(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Updated shelf copy of %s\n", id)
		return nil
	})
}

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	Remote bool
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a recipe from your shelf",
		Long: `Remove a recipe from your shelf.

With --remote, the recipe is also deleted from the store. Only recipes
marked as your own on the shelf may be deleted from the store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts, recipe.ID(args[0]), cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Remote, "remote", false, "also delete the recipe from the store")

	return cmd
}

func runDelete(opts *DeleteOptions, id recipe.ID, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	cached, ok, err := a.cache.Get(id)
	if err != nil {
		return recipeError("failed to read shelf", err)
	}

	if opts.Remote {
		if !ok || !cached.IsUserCreated {
			return WrapExitError(ExitFailure, "cannot delete from store",
				fmt.Errorf("recipe %s: %w", id, errNotOwned))
		}
		st, err := a.requireStore()
		if err != nil {
			return err
		}
		if err := st.DeleteRecipe(cmd.Context(), id); err != nil {
			return recipeError("failed to delete recipe", err)
		}
	}

	removed, err := a.cache.Remove(id)
	if err != nil {
		return recipeError("failed to remove recipe from shelf", err)
	}
	if !removed && !opts.Remote {
		return recipeError("failed to remove recipe", &recipe.NotFoundError{ID: id})
	}

	return a.out.Render(map[string]any{"id": id, "remote": opts.Remote}, func(w io.Writer) error {
		if opts.Remote {
			fmt.Fprintf(w, "Deleted recipe %s\n", id)
		} else {
			fmt.Fprintf(w, "Removed recipe %s from your shelf\n", id)
		}
		return nil
	})
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample recipe catalogue into the store",
		Long: `Load the sample recipe catalogue into the store.

Recipes whose title already exists are skipped, so seeding twice is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, cmd)
		},
	}
}

func runSeed(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.requireStore()
	if err != nil {
		return err
	}
	entries, err := seed.Catalogue()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load catalogue", err)
	}
	report, err := seed.Load(cmd.Context(), st, entries, a.logger)
	if err != nil && report.Inserted+report.Skipped == 0 {
		return recipeError("failed to seed recipes", err)
	}
	if err != nil {
		a.out.Warn("%v", err)
	}

	return a.out.Render(report, func(w io.Writer) error {
		fmt.Fprintf(w, "Seeded %d recipes (%d already present, %d failed)\n",
			report.Inserted, report.Skipped, report.Failed)
		return nil
	})
}
