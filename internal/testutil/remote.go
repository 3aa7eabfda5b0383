package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/roach88/recipeshelf/internal/recipe"
)

// FakeRemote is a scripted stand-in for the recipe store.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeRemote struct {
	mu      sync.Mutex
	recipes []recipe.Recipe
	err     error
	delay   time.Duration
	calls   int
}

// NewFakeRemote returns a remote serving recipes.
func NewFakeRemote(recipes ...recipe.Recipe) *FakeRemote {
	return &FakeRemote{recipes: recipes}
}

// ListRecipes returns deep copies of the configured recipes, or the
// configured error. With a delay set it waits first and honours ctx.
func (f *FakeRemote) ListRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	f.mu.Lock()
	f.calls++
	delay, err := f.delay, f.err
	out := make([]recipe.Recipe, len(f.recipes))
	for i, r := range f.recipes {
		out[i] = r.Clone()
	}
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &recipe.RetrievalError{Op: "list recipes", Err: ctx.Err()}
		}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FailWith makes every following call return err. nil clears it.
func (f *FakeRemote) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// SetDelay makes every following call wait d before answering.
func (f *FakeRemote) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// Calls returns how many times ListRecipes ran.
func (f *FakeRemote) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
