package recipe

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed input.cue
var inputSchemaCUE string

// inputSchema holds the compiled #RecipeInput definition. A cue.Context is
// not safe for concurrent use, so every use goes through mu.
var inputSchema struct {
	once sync.Once
	mu   sync.Mutex
	ctx  *cue.Context
	def  cue.Value
	err  error
}

func loadInputSchema() error {
	inputSchema.once.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(inputSchemaCUE, cue.Filename("input.cue"))
		def := v.LookupPath(cue.ParsePath("#RecipeInput"))
		if err := def.Err(); err != nil {
			inputSchema.err = fmt.Errorf("compile input schema: %w", err)
			return
		}
		inputSchema.ctx = ctx
		inputSchema.def = def
	})
	return inputSchema.err
}

// ValidateInput checks a raw JSON request body against the input schema:
// title and instructions must be non-blank strings and ingredients must be
// a list. Any violation is a *ValidationError.
func ValidateInput(data []byte) error {
	if err := loadInputSchema(); err != nil {
		return err
	}
	inputSchema.mu.Lock()
	defer inputSchema.mu.Unlock()

	v := inputSchema.ctx.CompileBytes(data, cue.Filename("request.json"))
	if err := v.Err(); err != nil {
		return &ValidationError{Field: "body", Message: firstCUEMessage(err)}
	}
	if err := inputSchema.def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return cueValidationError(err)
	}
	// The schema fills in an absent list, so presence is checked on the
	// request itself.
	if !v.LookupPath(cue.ParsePath("ingredients")).Exists() {
		return &ValidationError{Field: "ingredients", Message: "must be a list"}
	}
	return nil
}

// ParseInput validates and decodes a request body. Ingredient entries that
// lack a name, quantity or unit are skipped rather than rejected.
func ParseInput(data []byte) (Input, error) {
	if err := ValidateInput(data); err != nil {
		return Input{}, err
	}

	var wire struct {
		Title          string            `json:"title"`
		Instructions   string            `json:"instructions"`
		ImageURL       *string           `json:"imageUrl"`
		PrepTime       *string           `json:"prepTime"`
		CookTime       *string           `json:"cookTime"`
		LegacyImageURL *string           `json:"image_url"`
		LegacyPrepTime *string           `json:"prep_time"`
		LegacyCookTime *string           `json:"cook_time"`
		Ingredients    []json.RawMessage `json:"ingredients"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Input{}, &ValidationError{Field: "body", Message: err.Error()}
	}

	in := Input{
		Title:        wire.Title,
		Instructions: wire.Instructions,
		ImageURL:     firstSet(wire.ImageURL, wire.LegacyImageURL),
		PrepTime:     firstSet(wire.PrepTime, wire.LegacyPrepTime),
		CookTime:     firstSet(wire.CookTime, wire.LegacyCookTime),
		Ingredients:  make([]Ingredient, 0, len(wire.Ingredients)),
	}
	for _, raw := range wire.Ingredients {
		ing, ok := decodeRequestIngredient(raw)
		if !ok {
			in.SkippedIngredients++
			continue
		}
		in.Ingredients = append(in.Ingredients, ing)
	}
	return in, nil
}

// decodeRequestIngredient accepts {name, quantity, unit} with all three
// keys present and non-null and a non-blank name.
func decodeRequestIngredient(raw json.RawMessage) (Ingredient, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return Ingredient{}, false
	}
	for _, key := range []string{"name", "quantity", "unit"} {
		if fields[key] == nil {
			return Ingredient{}, false
		}
	}
	name, ok := fields["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return Ingredient{}, false
	}
	return Ingredient{
		Name:     name,
		Quantity: Quantity(scalarText(fields["quantity"])),
		Unit:     scalarText(fields["unit"]),
	}, true
}

func firstSet(vals ...*string) string {
	for _, v := range vals {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

func cueValidationError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	first := errs[0]
	field := strings.Join(first.Path(), ".")
	msg, args := first.Msg()
	return &ValidationError{Field: field, Message: fmt.Sprintf(msg, args...)}
}

func firstCUEMessage(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	msg, args := errs[0].Msg()
	return fmt.Sprintf(msg, args...)
}
