package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recipeshelf/internal/recipe"
)

// InputOptions holds the flags that describe a recipe body.
type InputOptions struct {
	Title        string
	Instructions string
	ImageURL     string
	PrepTime     string
	CookTime     string
	Ingredients  []string
	JSON         string
}

func addInputFlags(cmd *cobra.Command, opts *InputOptions) {
	flags := cmd.Flags()
	flags.StringVar(&opts.Title, "title", "", "recipe title")
	flags.StringVar(&opts.Instructions, "instructions", "", "recipe instructions")
	flags.StringVar(&opts.ImageURL, "image", "", "image URL")
	flags.StringVar(&opts.PrepTime, "prep", "", "preparation time")
	flags.StringVar(&opts.CookTime, "cook", "", "cooking time")
	flags.StringArrayVarP(&opts.Ingredients, "ingredient", "i", nil, `ingredient as "name|quantity|unit" (repeatable)`)
	flags.StringVar(&opts.JSON, "json", "", "read the recipe body as JSON from a file, or - for stdin")
	cmd.MarkFlagsMutuallyExclusive("json", "title")
	cmd.MarkFlagsMutuallyExclusive("json", "ingredient")
}

// requestBody is the JSON request the flags are turned into, so flag and
// --json input go through the same validation.
type requestBody struct {
	Title        string              `json:"title"`
	Instructions string              `json:"instructions"`
	ImageURL     string              `json:"imageUrl,omitempty"`
	PrepTime     string              `json:"prepTime,omitempty"`
	CookTime     string              `json:"cookTime,omitempty"`
	Ingredients  []recipe.Ingredient `json:"ingredients"`
}

// readInput builds a request from --json or from the field flags. When
// base is non-nil the flags overlay it: only flags that were set change
// the corresponding field, and --ingredient replaces the whole list.
func readInput(cmd *cobra.Command, opts *InputOptions, base *recipe.Recipe) (recipe.Input, error) {
	if opts.JSON != "" {
		data, err := readBody(cmd.InOrStdin(), opts.JSON)
		if err != nil {
			return recipe.Input{}, WrapExitError(ExitCommandError, "failed to read --json body", err)
		}
		return recipe.ParseInput(data)
	}

	body := requestBody{Ingredients: []recipe.Ingredient{}}
	if base != nil {
		body = requestBody{
			Title:        base.Title,
			Instructions: base.Instructions,
			ImageURL:     base.ImageURL,
			PrepTime:     base.PrepTime,
			CookTime:     base.CookTime,
			Ingredients:  append([]recipe.Ingredient{}, base.Ingredients...),
		}
	}

	flags := cmd.Flags()
	if flags.Changed("title") {
		body.Title = opts.Title
	}
	if flags.Changed("instructions") {
		body.Instructions = opts.Instructions
	}
	if flags.Changed("image") {
		body.ImageURL = opts.ImageURL
	}
	if flags.Changed("prep") {
		body.PrepTime = opts.PrepTime
	}
	if flags.Changed("cook") {
		body.CookTime = opts.CookTime
	}
	if flags.Changed("ingredient") {
		body.Ingredients = make([]recipe.Ingredient, 0, len(opts.Ingredients))
		for _, raw := range opts.Ingredients {
			body.Ingredients = append(body.Ingredients, parseIngredientFlag(raw))
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return recipe.Input{}, fmt.Errorf("encode request: %w", err)
	}
	return recipe.ParseInput(data)
}

// parseIngredientFlag splits "name|quantity|unit". Missing trailing parts
// are empty.
func parseIngredientFlag(raw string) recipe.Ingredient {
	parts := strings.SplitN(raw, "|", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return recipe.Ingredient{
		Name:     strings.TrimSpace(parts[0]),
		Quantity: recipe.Quantity(strings.TrimSpace(parts[1])),
		Unit:     strings.TrimSpace(parts[2]),
	}
}

func readBody(stdin io.Reader, source string) ([]byte, error) {
	if source == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(source)
}

// writeResult is the JSON payload of add, edit and draft. It carries what
// text output reports as warnings.
type writeResult struct {
	ID                 recipe.ID      `json:"id"`
	Recipe             *recipe.Recipe `json:"recipe,omitempty"`
	Saved              bool           `json:"saved,omitempty"`
	SkippedIngredients int            `json:"skipped_ingredients"`
	PartialFailed      int            `json:"partial_failed,omitempty"`
	PartialError       string         `json:"partial_error,omitempty"`
}

func newWriteResult(id recipe.ID, in recipe.Input) writeResult {
	return writeResult{ID: id, SkippedIngredients: in.SkippedIngredients}
}

// warnSkipped notes ingredient entries the request dropped.
func warnSkipped(out *OutputFormatter, in recipe.Input) {
	if in.SkippedIngredients > 0 {
		out.Warn("skipped %d invalid ingredient entries", in.SkippedIngredients)
	}
}
