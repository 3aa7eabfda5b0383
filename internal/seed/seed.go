// Package seed loads the sample recipe catalogue into a recipe store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recipeshelf/internal/recipe"
)

//go:embed catalogue.yaml
var catalogueYAML []byte

// Entry is one catalogue recipe.
type Entry struct {
	Title        string            `yaml:"title"`
	Instructions string            `yaml:"instructions"`
	ImageURL     string            `yaml:"image_url,omitempty"`
	PrepTime     string            `yaml:"prep_time,omitempty"`
	CookTime     string            `yaml:"cook_time,omitempty"`
	Ingredients  []EntryIngredient `yaml:"ingredients"`
}

// EntryIngredient is one catalogue ingredient.
type EntryIngredient struct {
	Name     string `yaml:"name"`
	Quantity string `yaml:"quantity"`
	Unit     string `yaml:"unit"`
}

type catalogue struct {
	Recipes []Entry `yaml:"recipes"`
}

// Catalogue returns the embedded sample recipes.
func Catalogue() ([]Entry, error) {
	return Parse(catalogueYAML)
}

// Parse decodes a catalogue document. Unknown fields are rejected.
// Entries without an image get a placeholder derived from their title.
func Parse(data []byte) ([]Entry, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var c catalogue
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	for i := range c.Recipes {
		if c.Recipes[i].ImageURL == "" {
			c.Recipes[i].ImageURL = PlaceholderImage(c.Recipes[i].Title)
		}
	}
	return c.Recipes, nil
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// PlaceholderImage returns a stable picsum.photos URL seeded by the
// alphanumeric characters of title.
func PlaceholderImage(title string) string {
	return "https://picsum.photos/seed/" + nonAlnum.ReplaceAllString(title, "") + "/600/400"
}

// Input converts the entry into a create request.
func (e Entry) Input() recipe.Input {
	in := recipe.Input{
		Title:        e.Title,
		Instructions: e.Instructions,
		ImageURL:     e.ImageURL,
		PrepTime:     e.PrepTime,
		CookTime:     e.CookTime,
		Ingredients:  make([]recipe.Ingredient, 0, len(e.Ingredients)),
	}
	for _, ing := range e.Ingredients {
		in.Ingredients = append(in.Ingredients, recipe.Ingredient{
			Name:     ing.Name,
			Quantity: recipe.Quantity(ing.Quantity),
			Unit:     ing.Unit,
		})
	}
	return in
}

// Target is the store the catalogue is written to.
type Target interface {
	ListRecipes(ctx context.Context) ([]recipe.Recipe, error)
	CreateRecipe(ctx context.Context, in recipe.Input) (recipe.ID, error)
}

// Report counts what Load did.
type Report struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Load creates every entry whose title is not already in target. A failed
// entry is logged and counted, and the rest are still attempted; the
// joined errors are returned. A partial write counts as inserted.
func Load(ctx context.Context, target Target, entries []Entry, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.Default()
	}

	existing, err := target.ListRecipes(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("seed: %w", err)
	}
	titles := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		titles[r.Title] = struct{}{}
	}

	var (
		report Report
		errs   []error
	)
	for _, e := range entries {
		if _, dup := titles[e.Title]; dup {
			logger.Info("seed recipe already present", "title", e.Title)
			report.Skipped++
			continue
		}

		id, err := target.CreateRecipe(ctx, e.Input())
		if err != nil && !errors.Is(err, recipe.ErrPartialWrite) {
			logger.Warn("seed recipe failed", "title", e.Title, "error", err)
			report.Failed++
			errs = append(errs, fmt.Errorf("seed %q: %w", e.Title, err))
			continue
		}
		titles[e.Title] = struct{}{}
		report.Inserted++
		logger.Info("seed recipe inserted", "title", e.Title, "id", id)
	}

	return report, errors.Join(errs...)
}
