package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema_sqlite.sql
var sqliteSchemaSQL string

//go:embed schema_mysql.sql
var mysqlSchemaSQL string

// Schema version tracking (SQLite only):
// 0 - Initial schema
// 1 - Added index on ingredients.recipe_id
const currentSchemaVersion = 1

// Driver names accepted by OpenDriver.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// dialect holds the SQL that differs between backends.
type dialect struct {
	driver string
	// orderByTitle sorts byte-wise so listing is case-sensitive as stored.
	orderByTitle string
}

var (
	sqliteDialect = dialect{driver: DriverSQLite, orderByTitle: "title COLLATE BINARY ASC, id ASC"}
	mysqlDialect  = dialect{driver: DriverMySQL, orderByTitle: "CAST(title AS BINARY) ASC, id ASC"}
)

// Store is the authoritative recipe store.
type Store struct {
	db           *sql.DB
	dialect      dialect
	logger       *slog.Logger
	atomicCreate bool
	fetchLimit   int

	// testHookIngredientsCleared runs inside UpdateRecipe's transaction
	// between clearing the old ingredient set and inserting the new one.
	testHookIngredientsCleared func()
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for write diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAtomicCreate controls whether CreateRecipe writes the recipe and its
// ingredients in one transaction. It defaults to true. With false, a failed
// ingredient insert leaves the recipe row in place and CreateRecipe returns
// a *recipe.PartialWriteError alongside the new id.
func WithAtomicCreate(atomic bool) Option {
	return func(s *Store) { s.atomicCreate = atomic }
}

// WithFetchConcurrency bounds how many ingredient lookups ListRecipes runs
// at once.
func WithFetchConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.fetchLimit = n
		}
	}
}

func newStore(db *sql.DB, d dialect, opts []Option) *Store {
	s := &Store{
		db:           db,
		dialect:      d,
		logger:       slog.Default(),
		atomicCreate: true,
		fetchLimit:   4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenDriver opens a store for the named driver.
func OpenDriver(driver, dsn string, opts ...Option) (*Store, error) {
	switch driver {
	case DriverSQLite, "sqlite", "":
		return Open(dsn, opts...)
	case DriverMySQL:
		return OpenMySQL(dsn, opts...)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return newStore(db, sqliteDialect, opts), nil
}

// OpenMySQL connects to a MySQL-compatible server. The DSN uses the
// go-sql-driver format, e.g. "user:pass@tcp(127.0.0.1:3306)/recipes".
func OpenMySQL(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open(DriverMySQL, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyMySQLSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return newStore(db, mysqlDialect, opts), nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver reports the backend in use.
func (s *Store) Driver() string {
	return s.dialect.driver
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func applySQLiteSchema(db *sql.DB) error {
	if _, err := db.Exec(sqliteSchemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// applyMySQLSchema runs the schema one statement at a time; the driver
// rejects multi-statement Exec unless multiStatements=true is in the DSN.
func applyMySQLSchema(db *sql.DB) error {
	for _, stmt := range strings.Split(mysqlSchemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 indexes the per-recipe ingredient lookup.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ingredients_recipe
		ON ingredients(recipe_id)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
