package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID identifies a recipe across the server store and the local cache.
// JSON numbers decode to their decimal text so 7 and "7" are the same key.
type ID string

// IDFromInt converts a store row id into an ID.
func IDFromInt(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// Int64 returns the numeric form of the id, if it has one.
func (id ID) Int64() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (id ID) String() string {
	return string(id)
}

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("recipe id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Quantity is an ingredient amount. It is text ("2", "0.5", "To taste");
// JSON numbers decode to their literal text.
type Quantity string

// UnmarshalJSON accepts a JSON string, number, bool or null.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*q = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = Quantity(s)
	default:
		// numbers and booleans keep their literal spelling
		*q = Quantity(data)
	}
	return nil
}

// Ingredient is the canonical ingredient record.
type Ingredient struct {
	Name     string   `json:"name"`
	Quantity Quantity `json:"quantity"`
	Unit     string   `json:"unit"`
}

// IngredientList is an ingredient sequence that normalizes whatever
// historical shape it is decoded from.
type IngredientList []Ingredient

// UnmarshalJSON never fails on shape: unknown shapes degrade to the
// placeholder record.
func (l *IngredientList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*l = NormalizeIngredients(v)
	return nil
}

// MarshalJSON encodes a nil list as [] rather than null.
func (l IngredientList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Ingredient(l))
}

// Recipe is a recipe as seen by the merged view. IsFavourite is a pointer
// so the cache can tell an omitted flag from an explicit false.
type Recipe struct {
	ID            ID             `json:"id"`
	Title         string         `json:"title"`
	Instructions  string         `json:"instructions"`
	ImageURL      string         `json:"imageUrl,omitempty"`
	PrepTime      string         `json:"prepTime,omitempty"`
	CookTime      string         `json:"cookTime,omitempty"`
	Ingredients   IngredientList `json:"ingredients"`
	IsFavourite   *bool          `json:"isFavourite,omitempty"`
	IsUserCreated bool           `json:"isUserCreated,omitempty"`
}

// UnmarshalJSON also reads the snake_case field names older cache
// entries were written with.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	type plain Recipe
	aux := struct {
		*plain
		LegacyImageURL string `json:"image_url"`
		LegacyPrepTime string `json:"prep_time"`
		LegacyCookTime string `json:"cook_time"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.ImageURL == "" {
		r.ImageURL = aux.LegacyImageURL
	}
	if r.PrepTime == "" {
		r.PrepTime = aux.LegacyPrepTime
	}
	if r.CookTime == "" {
		r.CookTime = aux.LegacyCookTime
	}
	return nil
}

// Favourite reports the favourite flag, treating an omitted flag as false.
func (r Recipe) Favourite() bool {
	return r.IsFavourite != nil && *r.IsFavourite
}

// Clone returns a deep copy.
func (r Recipe) Clone() Recipe {
	c := r
	if r.Ingredients != nil {
		c.Ingredients = append(IngredientList(nil), r.Ingredients...)
	}
	if r.IsFavourite != nil {
		c.IsFavourite = Bool(*r.IsFavourite)
	}
	return c
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// Input carries the fields of a create or update request.
type Input struct {
	Title        string       `json:"title"`
	Instructions string       `json:"instructions"`
	ImageURL     string       `json:"imageUrl,omitempty"`
	PrepTime     string       `json:"prepTime,omitempty"`
	CookTime     string       `json:"cookTime,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`

	// SkippedIngredients counts request entries ParseInput dropped as invalid.
	SkippedIngredients int `json:"-"`
}

// InputFromRecipe builds an update request carrying the recipe's fields.
func InputFromRecipe(r Recipe) Input {
	return Input{
		Title:        r.Title,
		Instructions: r.Instructions,
		ImageURL:     r.ImageURL,
		PrepTime:     r.PrepTime,
		CookTime:     r.CookTime,
		Ingredients:  append([]Ingredient(nil), r.Ingredients...),
	}
}

// Validate checks the required fields. It is the check every write path
// runs before touching storage.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if strings.TrimSpace(in.Instructions) == "" {
		return &ValidationError{Field: "instructions", Message: "must not be empty"}
	}
	return nil
}

// Normalized returns a copy with text fields trimmed and ingredients in
// canonical form. Ingredients with an empty name are dropped.
func (in Input) Normalized() Input {
	out := in
	out.Title = cleanText(in.Title)
	out.Instructions = strings.TrimSpace(in.Instructions)
	out.ImageURL = strings.TrimSpace(in.ImageURL)
	out.PrepTime = strings.TrimSpace(in.PrepTime)
	out.CookTime = strings.TrimSpace(in.CookTime)
	out.Ingredients = []Ingredient(Canonicalize(in.Ingredients))
	return out
}
