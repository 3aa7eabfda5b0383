package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/recipeshelf/internal/recipe"
)

// RemoteSource is the authoritative recipe list, e.g. *store.Store.
type RemoteSource interface {
	ListRecipes(ctx context.Context) ([]recipe.Recipe, error)
}

// LocalSource is the user's shelf, e.g. *cache.Cache.
type LocalSource interface {
	List() ([]recipe.Recipe, error)
}

// View is a merged, normalized and ordered recipe sequence. RemoteErr is
// set when the remote segment could not be fetched and the view holds
// local records only.
type View struct {
	Recipes   []recipe.Recipe
	RemoteErr error
}

// Degraded reports whether the remote segment is missing.
func (v View) Degraded() bool {
	return v.RemoteErr != nil
}

// Engine builds the merged view over a local and a remote source.
type Engine struct {
	local  LocalSource
	remote RemoteSource
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an engine. remote may be nil, in which case every view is
// local-only without being marked degraded.
func New(local LocalSource, remote RemoteSource, opts ...Option) *Engine {
	e := &Engine{local: local, remote: remote, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MergedView reads both sources concurrently and merges them. A remote
// failure is absorbed into View.RemoteErr; a local failure is returned.
func (e *Engine) MergedView(ctx context.Context) (View, error) {
	var (
		local     []recipe.Recipe
		remote    []recipe.Recipe
		remoteErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		local, err = e.local.List()
		if err != nil {
			return fmt.Errorf("read local recipes: %w", err)
		}
		return nil
	})
	if e.remote != nil {
		g.Go(func() error {
			remote, remoteErr = e.remote.ListRecipes(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return View{}, err
	}

	view := View{}
	if remoteErr != nil {
		if !errors.Is(remoteErr, recipe.ErrRetrieval) {
			remoteErr = &recipe.RetrievalError{Op: "list remote recipes", Err: remoteErr}
		}
		view.RemoteErr = remoteErr
		remote = nil
		e.logger.Warn("remote recipes unavailable, showing local shelf only", "error", remoteErr)
	}

	view.Recipes = Merge(local, remote)
	e.logger.Debug("merged view built",
		"local", len(local),
		"remote", len(remote),
		"merged", len(view.Recipes))
	return view, nil
}

// Merge combines local and remote records. Local records come first and
// keep their flags. Remote records whose id is not already present follow
// with both flags cleared. Within either source, later duplicates of an id
// are dropped. Ingredients are canonicalized, then favourites are moved
// ahead of the rest with relative order preserved.
func Merge(local, remote []recipe.Recipe) []recipe.Recipe {
	merged := make([]recipe.Recipe, 0, len(local)+len(remote))
	seen := make(map[recipe.ID]struct{}, len(local)+len(remote))

	for _, r := range local {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		merged = append(merged, normalized(r))
	}
	for _, r := range remote {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		c := normalized(r)
		c.IsFavourite = recipe.Bool(false)
		c.IsUserCreated = false
		merged = append(merged, c)
	}

	slices.SortStableFunc(merged, func(a, b recipe.Recipe) int {
		switch af, bf := a.Favourite(), b.Favourite(); {
		case af && !bf:
			return -1
		case !af && bf:
			return 1
		default:
			return 0
		}
	})
	return merged
}

func normalized(r recipe.Recipe) recipe.Recipe {
	c := r.Clone()
	c.Ingredients = recipe.Canonicalize(r.Ingredients)
	return c
}
