package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/recipeshelf/internal/cache"
	"github.com/roach88/recipeshelf/internal/config"
	"github.com/roach88/recipeshelf/internal/recipe"
	"github.com/roach88/recipeshelf/internal/reconcile"
	"github.com/roach88/recipeshelf/internal/store"
)

// app is everything a command needs, built from the resolved config.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	out    *OutputFormatter

	cache  *cache.Cache
	engine *reconcile.Engine

	// store is nil when it could not be opened; storeErr says why.
	store    *store.Store
	storeErr error

	closers []func() error
}

// openApp loads config, configures logging and opens the cache and store.
// A store that fails to open is not fatal here: commands that need it
// report storeErr, and the merged view degrades to the local shelf.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath, cmd.Flags())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logger := setupLogging(cmd.ErrOrStderr(), cfg.Log.Level, opts.Verbose)
	logger.Debug("config loaded", "file", cfg.File, "driver", cfg.Store.Driver, "cache", cfg.Cache.Backend)

	a := &app{
		cfg:    cfg,
		logger: logger,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}

	slot, err := openSlot(cfg.Cache)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open cache", err)
	}
	if c, ok := slot.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}
	a.cache = cache.New(slot, cache.WithLogger(logger))

	st, err := store.OpenDriver(cfg.Store.Driver, cfg.Store.DSN,
		store.WithLogger(logger),
		store.WithAtomicCreate(cfg.Store.AtomicCreate))
	if err != nil {
		a.storeErr = err
		logger.Warn("recipe store unavailable", "driver", cfg.Store.Driver, "error", err)
	} else {
		a.store = st
		a.closers = append(a.closers, st.Close)
		logger.Debug("recipe store opened", "driver", st.Driver())
	}

	var remote reconcile.RemoteSource = unavailableRemote{err: a.storeErr}
	if a.store != nil {
		remote = a.store
	}
	a.engine = reconcile.New(a.cache, remote, reconcile.WithLogger(logger))

	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("error closing resource", "error", err)
		}
	}
}

// requireStore returns the store or an ExitError explaining why it is
// missing.
func (a *app) requireStore() (*store.Store, error) {
	if a.store == nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", a.storeErr)
	}
	return a.store, nil
}

func openSlot(cfg config.CacheConfig) (cache.Slot, error) {
	switch cfg.Backend {
	case "memory":
		return cache.NewMemorySlot(), nil
	case "sqlite":
		return cache.OpenSQLiteSlot(cfg.Path, cfg.Slot)
	case "file", "":
		return cache.NewFileSlot(cfg.Path, cfg.Slot), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}

// setupLogging installs a text handler on w as the default logger.
func setupLogging(w io.Writer, level string, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// unavailableRemote stands in for a store that could not be opened.
type unavailableRemote struct {
	err error
}

func (u unavailableRemote) ListRecipes(context.Context) ([]recipe.Recipe, error) {
	err := u.err
	if err == nil {
		err = errors.New("recipe store not configured")
	}
	return nil, &recipe.RetrievalError{Op: "open recipe store", Err: err}
}
