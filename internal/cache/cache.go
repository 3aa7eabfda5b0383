package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/recipeshelf/internal/recipe"
)

// Cache is the user's recipe shelf: an ordered sequence of recipes kept in
// one Slot. Order is insertion order; sorting happens at view time.
//
// Every operation loads the slot, applies the change and writes the whole
// sequence back.
type Cache struct {
	mu     sync.Mutex
	slot   Slot
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger for slot writes.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a cache over slot.
func New(slot Slot, opts ...Option) *Cache {
	c := &Cache{slot: slot, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns the stored sequence. A slot that was never written is an
// empty list.
func (c *Cache) List() ([]recipe.Recipe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Get returns the stored record for id.
func (c *Cache) Get(id recipe.ID) (recipe.Recipe, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	recipes, err := c.load()
	if err != nil {
		return recipe.Recipe{}, false, err
	}
	if i := indexOf(recipes, id); i >= 0 {
		return recipes[i], true, nil
	}
	return recipe.Recipe{}, false, nil
}

// IsSaved reports whether id is on the shelf.
func (c *Cache) IsSaved(id recipe.ID) (bool, error) {
	_, ok, err := c.Get(id)
	return ok, err
}

// ToggleSave removes r if it is saved, otherwise appends it with the
// favourite flag cleared. It returns whether r is saved afterwards.
func (c *Cache) ToggleSave(r recipe.Recipe) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	recipes, err := c.load()
	if err != nil {
		return false, err
	}

	if i := indexOf(recipes, r.ID); i >= 0 {
		recipes = append(recipes[:i], recipes[i+1:]...)
		return false, c.store(recipes, "unsave", r.ID)
	}

	saved := r.Clone()
	saved.IsFavourite = recipe.Bool(false)
	recipes = append(recipes, saved)
	return true, c.store(recipes, "save", r.ID)
}

// ToggleFavourite flips the favourite flag of a saved recipe in place.
// When id is not saved nothing is written and changed is false.
func (c *Cache) ToggleFavourite(id recipe.ID) (favourite, changed bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	recipes, err := c.load()
	if err != nil {
		return false, false, err
	}
	i := indexOf(recipes, id)
	if i < 0 {
		return false, false, nil
	}

	favourite = !recipes[i].Favourite()
	recipes[i].IsFavourite = recipe.Bool(favourite)
	if err := c.store(recipes, "favourite", id); err != nil {
		return false, false, err
	}
	return favourite, true, nil
}

// Upsert replaces the record with r's id, keeping the stored favourite
// flag when r does not carry one. A stored record that is user-owned
// stays user-owned. A record that is not stored yet is appended.
func (c *Cache) Upsert(r recipe.Recipe) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	recipes, err := c.load()
	if err != nil {
		return err
	}

	next := r.Clone()
	if i := indexOf(recipes, r.ID); i >= 0 {
		if next.IsFavourite == nil {
			next.IsFavourite = recipe.Bool(recipes[i].Favourite())
		}
		next.IsUserCreated = next.IsUserCreated || recipes[i].IsUserCreated
		recipes[i] = next
	} else {
		if next.IsFavourite == nil {
			next.IsFavourite = recipe.Bool(false)
		}
		recipes = append(recipes, next)
	}
	return c.store(recipes, "upsert", r.ID)
}

// Edit rewrites a saved recipe from an edit form. Fields are replaced
// wholesale, the favourite flag is kept and the record becomes user-owned.
// An id that is not saved reports *recipe.NotFoundError.
func (c *Cache) Edit(id recipe.ID, in recipe.Input) (recipe.Recipe, error) {
	if err := in.Validate(); err != nil {
		return recipe.Recipe{}, err
	}
	in = in.Normalized()

	c.mu.Lock()
	defer c.mu.Unlock()

	recipes, err := c.load()
	if err != nil {
		return recipe.Recipe{}, err
	}
	i := indexOf(recipes, id)
	if i < 0 {
		return recipe.Recipe{}, &recipe.NotFoundError{ID: id}
	}

	edited := recipes[i]
	edited.Title = in.Title
	edited.Instructions = in.Instructions
	edited.ImageURL = in.ImageURL
	edited.PrepTime = in.PrepTime
	edited.CookTime = in.CookTime
	edited.Ingredients = recipe.IngredientList(in.Ingredients)
	edited.IsUserCreated = true
	edited.IsFavourite = recipe.Bool(recipes[i].Favourite())
	recipes[i] = edited

	if err := c.store(recipes, "edit", id); err != nil {
		return recipe.Recipe{}, err
	}
	return edited.Clone(), nil
}

// Remove deletes id from the shelf and reports whether it was present.
func (c *Cache) Remove(id recipe.ID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	recipes, err := c.load()
	if err != nil {
		return false, err
	}
	i := indexOf(recipes, id)
	if i < 0 {
		return false, nil
	}
	recipes = append(recipes[:i], recipes[i+1:]...)
	return true, c.store(recipes, "remove", id)
}

// NewDraft stores a recipe that exists only on the shelf. It gets a UUIDv7
// id, is user-owned and starts unfavourited.
func (c *Cache) NewDraft(in recipe.Input) (recipe.Recipe, error) {
	if err := in.Validate(); err != nil {
		return recipe.Recipe{}, err
	}
	in = in.Normalized()

	draft := recipe.Recipe{
		ID:            recipe.ID(uuid.Must(uuid.NewV7()).String()),
		Title:         in.Title,
		Instructions:  in.Instructions,
		ImageURL:      in.ImageURL,
		PrepTime:      in.PrepTime,
		CookTime:      in.CookTime,
		Ingredients:   recipe.IngredientList(in.Ingredients),
		IsFavourite:   recipe.Bool(false),
		IsUserCreated: true,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	recipes, err := c.load()
	if err != nil {
		return recipe.Recipe{}, err
	}
	recipes = append(recipes, draft)
	if err := c.store(recipes, "draft", draft.ID); err != nil {
		return recipe.Recipe{}, err
	}
	return draft.Clone(), nil
}

func (c *Cache) load() ([]recipe.Recipe, error) {
	data, err := c.slot.Load()
	if err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}
	recipes := []recipe.Recipe{}
	if len(data) == 0 || string(data) == "null" {
		return recipes, nil
	}
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	if recipes == nil {
		recipes = []recipe.Recipe{}
	}
	return recipes, nil
}

func (c *Cache) store(recipes []recipe.Recipe, op string, id recipe.ID) error {
	if recipes == nil {
		recipes = []recipe.Recipe{}
	}
	data, err := json.Marshal(recipes)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := c.slot.Save(data); err != nil {
		return fmt.Errorf("save cache: %w", err)
	}
	c.logger.Debug("cache slot written", "op", op, "id", id, "recipes", len(recipes))
	return nil
}

func indexOf(recipes []recipe.Recipe, id recipe.ID) int {
	for i, r := range recipes {
		if r.ID == id {
			return i
		}
	}
	return -1
}
