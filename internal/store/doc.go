// Package store is the authoritative recipe store backed by SQLite
// (mattn/go-sqlite3) or a MySQL-compatible server (go-sql-driver/mysql).
//
// # Tables
//
//   - recipes: one row per recipe, id assigned by the database
//   - ingredients: one row per ingredient, keyed by recipe_id
//
// # Write semantics
//
// UpdateRecipe is a replace-all update. The recipe row, the delete of every
// existing ingredient row and the insert of the new set run in a single
// transaction, so a reader sees either the old recipe with its old
// ingredients or the new one with its new ingredients. Ingredient row ids
// are discarded on every edit.
//
// DeleteRecipe removes ingredient rows before the recipe row in one
// transaction and reports recipe.ErrNotFound when nothing was deleted.
//
// CreateRecipe is transactional unless the store is opened with
// WithAtomicCreate(false), which keeps the older behaviour of leaving the
// recipe row in place when an ingredient insert fails.
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
