package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/roach88/recipeshelf/internal/cache"
	"github.com/roach88/recipeshelf/internal/recipe"
	"github.com/roach88/recipeshelf/internal/reconcile"
)

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save <id>",
		Short: "Save a server recipe to your shelf, or unsave it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(rootOpts, recipe.ID(args[0]), cmd)
		},
	}
}

func runSave(opts *RootOptions, id recipe.ID, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	target, ok, err := a.cache.Get(id)
	if err != nil {
		return recipeError("failed to read shelf", err)
	}
	if !ok {
		st, err := a.requireStore()
		if err != nil {
			return err
		}
		target, err = st.GetRecipe(cmd.Context(), id)
		if err != nil {
			return recipeError("failed to get recipe", err)
		}
	}

	saved, err := a.cache.ToggleSave(target)
	if err != nil {
		return recipeError("failed to update shelf", err)
	}

	return a.out.Render(map[string]any{"id": id, "saved": saved}, func(w io.Writer) error {
		if saved {
			fmt.Fprintf(w, "Saved %q to your shelf\n", target.Title)
		} else {
			fmt.Fprintf(w, "Removed %q from your shelf\n", target.Title)
		}
		return nil
	})
}

// NewFavCommand creates the fav command.
func NewFavCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fav <id>",
		Short: "Toggle the favourite flag of a saved recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFav(rootOpts, recipe.ID(args[0]), cmd)
		},
	}
}

func runFav(opts *RootOptions, id recipe.ID, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	favourite, changed, err := a.cache.ToggleFavourite(id)
	if err != nil {
		return recipeError("failed to update shelf", err)
	}

	data := map[string]any{"id": id, "favourite": favourite, "changed": changed}
	return a.out.Render(data, func(w io.Writer) error {
		switch {
		case !changed:
			fmt.Fprintf(w, "Recipe %s is not on your shelf; save it first\n", id)
		case favourite:
			fmt.Fprintf(w, "Recipe %s marked as favourite\n", id)
		default:
			fmt.Fprintf(w, "Recipe %s is no longer a favourite\n", id)
		}
		return nil
	})
}

// DraftOptions holds flags for the draft command.
type DraftOptions struct {
	*RootOptions
	Input InputOptions
}

// NewDraftCommand creates the draft command.
func NewDraftCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DraftOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Create a recipe that lives only on your shelf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraft(opts, cmd)
		},
	}

	addInputFlags(cmd, &opts.Input)

	return cmd
}

func runDraft(opts *DraftOptions, cmd *cobra.Command) error {
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

	draft, err := a.cache.NewDraft(in)
	if err != nil {
		return recipeError("failed to create draft", err)
	}
	result := newWriteResult(draft.ID, in)
	result.Recipe = &draft
	return a.out.Render(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Created draft %s\n", draft.ID)
		return nil
	})
}

// MineOptions holds flags for the mine command.
type MineOptions struct {
	*RootOptions
	Watch bool
}

// NewMineCommand creates the mine command.
func NewMineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Show your shelf merged with the server recipes",
		Long: `Show your shelf merged with the server recipes.

Saved recipes come first, then server recipes you have not saved.
Favourites are listed before everything else. When the store cannot be
reached, your shelf is shown on its own.

With --watch, the view is shown again whenever the shelf file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMine(opts, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "re-render when the shelf changes")

	return cmd
}

func runMine(opts *MineOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.Watch && a.cfg.Cache.Backend != "file" {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("--watch needs the file cache backend, not %q", a.cfg.Cache.Backend))
	}

	if err := showMine(cmd.Context(), a); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	var mu sync.Mutex
	a.out.VerboseLog("watching %s", a.cfg.Cache.Path)
	return cache.Watch(ctx, a.cfg.Cache.Path, a.cfg.Search.Debounce, func() {
		mu.Lock()
		defer mu.Unlock()
		if err := showMine(ctx, a); err != nil {
			a.logger.Error("failed to refresh view", "error", err)
		}
	})
}

func showMine(ctx context.Context, a *app) error {
	view, err := a.engine.MergedView(ctx)
	if err != nil {
		return recipeError("failed to build view", err)
	}
	return a.out.Render(newViewPayload(view), func(w io.Writer) error {
		return renderView(w, "My recipes", view)
	})
}

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Favourites  bool
	Interactive bool
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the merged view by title or ingredient",
		Long: `Search the merged view by title or ingredient.

Matching ignores case. --favourites keeps only favourites.

With --interactive, each line read from stdin replaces the query. A search
runs once input pauses, and results for superseded queries are dropped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return runSearch(opts, query, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Favourites, "favourites", "f", false, "only show favourites")
	cmd.Flags().BoolVar(&opts.Interactive, "interactive", false, "read queries from stdin")

	return cmd
}

func runSearch(opts *SearchOptions, text string, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.Interactive {
		return searchInteractive(opts, cmd, a)
	}

	q := reconcile.Query{Text: text, FavouritesOnly: opts.Favourites}
	view, err := a.engine.Search(cmd.Context(), q)
	if err != nil {
		return recipeError("search failed", err)
	}
	return renderSearch(a.out, q, view)
}

func searchInteractive(opts *SearchOptions, cmd *cobra.Command, a *app) error {
	searcher := reconcile.NewSearcher(a.engine.Search, a.cfg.Search.Debounce, a.logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for res := range searcher.Results() {
			if res.Err != nil {
				a.logger.Error("search failed", "query", res.Query.Text, "error", res.Err)
				continue
			}
			if err := renderSearch(a.out, res.Query, res.View); err != nil {
				a.logger.Error("failed to render results", "error", err)
			}
		}
	}()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		searcher.Input(reconcile.Query{
			Text:           strings.TrimSpace(scanner.Text()),
			FavouritesOnly: opts.Favourites,
		})
	}
	searcher.Flush()
	searcher.Close()
	wg.Wait()

	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to read queries", err)
	}
	return nil
}

func renderSearch(out *OutputFormatter, q reconcile.Query, view reconcile.View) error {
	payload := struct {
		Query string `json:"query"`
		viewPayload
	}{Query: q.Text, viewPayload: newViewPayload(view)}

	return out.Render(payload, func(w io.Writer) error {
		title := fmt.Sprintf("Results for %q", q.Text)
		if q.FavouritesOnly {
			title += " in favourites"
		}
		return renderView(w, title, view)
	})
}
