package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recipeshelf/internal/recipe"
)

func TestFakeRemote_ServesCopies(t *testing.T) {
	remote := NewFakeRemote(Recipes(t, SoupSaladRemote)...)

	first, err := remote.ListRecipes(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)
	first[0].Title = "mutated"

	second, err := remote.ListRecipes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Soup", second[0].Title)
	assert.Equal(t, 2, remote.Calls())
}

func TestFakeRemote_FailWith(t *testing.T) {
	remote := NewFakeRemote()
	boom := &recipe.RetrievalError{Op: "list recipes", Err: errors.New("connection refused")}

	remote.FailWith(boom)
	_, err := remote.ListRecipes(context.Background())
	assert.ErrorIs(t, err, recipe.ErrRetrieval)

	remote.FailWith(nil)
	_, err = remote.ListRecipes(context.Background())
	assert.NoError(t, err)
}

func TestFakeRemote_DelayHonoursContext(t *testing.T) {
	remote := NewFakeRemote()
	remote.SetDelay(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := remote.ListRecipes(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, recipe.ErrRetrieval)
}

func TestRecipesFixture(t *testing.T) {
	local := Recipes(t, SoupSaladLocal)
	require.Len(t, local, 1)
	assert.Equal(t, recipe.IngredientList{{Name: "tomato"}, {Name: "onion"}}, local[0].Ingredients)

	listed, err := LocalSlice(local).List()
	require.NoError(t, err)
	assert.Equal(t, local, listed)
}
