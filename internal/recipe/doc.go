// Package recipe defines the recipe and ingredient types shared by the
// authoritative store, the local cache and the reconciliation engine.
//
// Ingredient data has been written in three historical shapes:
//   - a flat, comma separated string ("tomato, onion")
//   - a list of strings (["tomato", "onion"])
//   - a list of {name, quantity, unit} records
//
// NormalizeIngredients is the only place that knows about these shapes.
// Everything it returns is a []Ingredient in canonical form, and
// IngredientList applies it on every JSON decode, so no legacy shape
// survives past a decode boundary.
//
// Identity is carried by ID, a string-coerced key: the server's integer
// ids and client-generated UUIDs compare with plain ==.
package recipe
