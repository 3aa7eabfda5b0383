package recipe

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PlaceholderName is the name of the single record emitted for an
// ingredient value whose shape is not recognized.
const PlaceholderName = "ingredient details unavailable"

// Shape classifies a raw ingredient field value.
type Shape int

const (
	// ShapeAbsent is nil or an empty sequence.
	ShapeAbsent Shape = iota
	// ShapeText is a single string, possibly comma separated.
	ShapeText
	// ShapeSequence is a non-empty list of strings and/or records.
	ShapeSequence
	// ShapeAnomalous is anything else: a lone object, a number, a bool.
	ShapeAnomalous
)

// String returns a human-readable shape name.
func (s Shape) String() string {
	switch s {
	case ShapeAbsent:
		return "absent"
	case ShapeText:
		return "text"
	case ShapeSequence:
		return "sequence"
	case ShapeAnomalous:
		return "anomalous"
	default:
		return "unknown"
	}
}

// ShapeOf classifies v. Typed slices ([]string, []Ingredient, ...) are
// sequences just like []any.
func ShapeOf(v any) Shape {
	if v == nil {
		return ShapeAbsent
	}
	switch t := v.(type) {
	case string:
		return ShapeText
	case IngredientList:
		if len(t) == 0 {
			return ShapeAbsent
		}
		return ShapeSequence
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() || rv.Len() == 0 {
			return ShapeAbsent
		}
		return ShapeSequence
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ShapeAbsent
		}
		return ShapeOf(rv.Elem().Interface())
	default:
		return ShapeAnomalous
	}
}

// NormalizeIngredients converts any ingredient field value into canonical
// records. It never fails and never returns nil.
func NormalizeIngredients(v any) IngredientList {
	switch ShapeOf(v) {
	case ShapeText:
		return normalizeText(v.(string))
	case ShapeSequence:
		return normalizeSequence(v)
	case ShapeAnomalous:
		return IngredientList{{Name: PlaceholderName}}
	default:
		return IngredientList{}
	}
}

// Canonicalize re-normalizes records that are already structured. It is
// idempotent: canonical input comes back field-for-field unchanged.
func Canonicalize(ings []Ingredient) IngredientList {
	out := make(IngredientList, 0, len(ings))
	for _, ing := range ings {
		if c, ok := canonicalRecord(ing); ok {
			out = append(out, c)
		}
	}
	return out
}

func normalizeText(s string) IngredientList {
	out := IngredientList{}
	if !strings.Contains(s, ",") {
		if name := cleanText(s); name != "" {
			out = append(out, Ingredient{Name: name})
		}
		return out
	}
	for _, segment := range strings.Split(s, ",") {
		if name := cleanText(segment); name != "" {
			out = append(out, Ingredient{Name: name})
		}
	}
	return out
}

func normalizeSequence(v any) IngredientList {
	if list, ok := v.(IngredientList); ok {
		return Canonicalize(list)
	}
	if list, ok := v.([]Ingredient); ok {
		return Canonicalize(list)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	out := make(IngredientList, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		if ing, ok := normalizeElement(rv.Index(i).Interface()); ok {
			out = append(out, ing)
		}
	}
	return out
}

// normalizeElement handles one sequence element. Strings become names,
// records keep their fields discretely; anything else is dropped.
func normalizeElement(e any) (Ingredient, bool) {
	switch t := e.(type) {
	case nil:
		return Ingredient{}, false
	case string:
		name := cleanText(t)
		return Ingredient{Name: name}, name != ""
	case Ingredient:
		return canonicalRecord(t)
	case *Ingredient:
		if t == nil {
			return Ingredient{}, false
		}
		return canonicalRecord(*t)
	case map[string]any:
		return canonicalRecord(Ingredient{
			Name:     scalarText(t["name"]),
			Quantity: Quantity(scalarText(t["quantity"])),
			Unit:     scalarText(t["unit"]),
		})
	case map[string]string:
		return canonicalRecord(Ingredient{
			Name:     t["name"],
			Quantity: Quantity(t["quantity"]),
			Unit:     t["unit"],
		})
	default:
		return Ingredient{}, false
	}
}

func canonicalRecord(ing Ingredient) (Ingredient, bool) {
	c := Ingredient{
		Name:     cleanText(ing.Name),
		Quantity: Quantity(cleanText(string(ing.Quantity))),
		Unit:     cleanText(ing.Unit),
	}
	return c, c.Name != ""
}

// scalarText renders a record field. Missing and null fields are empty.
func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case Quantity:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// cleanText trims surrounding whitespace and applies NFC so visually equal
// names compare equal.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
