package tm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Adapter provides the driver-specific parts of SQLStore.
type Adapter interface {
	// DriverName is the database/sql driver to open.
	DriverName() string
	PostCreate(db *sqlx.DB) error
	VersionTableQuery() string
	// Up returns the schema migrations in order.
	Up() []string
}

// SQLStore is a Store backed by a SQL database.
type SQLStore struct {
	adapter Adapter
	db      *sqlx.DB
}

func newAdapter(driver string) (Adapter, error) {
	switch driver {
	case DriverSQLite3:
		return Sqlite3Adapter{}, nil
	case DriverPostgres:
		return PostgresAdapter{}, nil
	}
	return nil, fmt.Errorf("no adapter available for database driver '%v'", driver)
}

// OpenSQL connects to the database and brings its schema up to date.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	adp, err := newAdapter(driver)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.ConnectContext(ctx, adp.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	s, err := New(ctx, db, adp)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database.
func New(ctx context.Context, db *sqlx.DB, adp Adapter) (*SQLStore, error) {
	s := &SQLStore{adapter: adp, db: db}
	if err := adp.PostCreate(db); err != nil {
		return nil, fmt.Errorf("configuring database: %w", err)
	}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.adapter.VersionTableQuery()); err != nil {
		return err
	}

	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM schema_migrations`); err != nil {
		return err
	}
	switch {
	case count == 0:
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (0)`); err != nil {
			return err
		}
	case count > 1:
		return errors.New("too many rows in schema_migrations table")
	}

	var version int
	if err := s.db.GetContext(ctx, &version, `SELECT version FROM schema_migrations`); err != nil {
		return err
	}
	up := s.adapter.Up()
	for ; version < len(up); version++ {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, up[version]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", version+1, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE schema_migrations SET version = ?`), version+1); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Exists implements handler.Lookup.
func (s *SQLStore) Exists(ctx context.Context, resource, key string) (bool, error) {
	var one int
	err := s.db.GetContext(ctx, &one,
		s.db.Rebind(`SELECT 1 FROM source_entity WHERE resource = ? AND string = ?`), resource, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("querying source entity: %w", err)
	}
	return true, nil
}

// Register implements Store. Keys already present are left alone.
func (s *SQLStore) Register(ctx context.Context, resource string, keys []string) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx,
		tx.Rebind(`INSERT INTO source_entity (resource, string) VALUES (?, ?) ON CONFLICT (resource, string) DO NOTHING`))
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, k := range keys {
		r, err := stmt.ExecContext(ctx, resource, k)
		if err != nil {
			return added, fmt.Errorf("inserting %q: %w", k, err)
		}
		if n, err := r.RowsAffected(); err == nil {
			added += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// Keys implements Store.
func (s *SQLStore) Keys(ctx context.Context, resource string) ([]string, error) {
	var keys []string
	err := s.db.SelectContext(ctx, &keys,
		s.db.Rebind(`SELECT string FROM source_entity WHERE resource = ? ORDER BY string`), resource)
	if err != nil {
		return nil, fmt.Errorf("listing source entities: %w", err)
	}
	return keys, nil
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Adapters
// ---------------------------------------------------------------------------

// Sqlite3Adapter provides support for SQLite3 databases.
type Sqlite3Adapter struct{}

func (Sqlite3Adapter) DriverName() string { return "sqlite3" }

func (Sqlite3Adapter) PostCreate(db *sqlx.DB) error {
	// Faster than using default journal file
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return err
	}
	_, err := db.Exec("PRAGMA synchronous = NORMAL")
	return err
}

func (Sqlite3Adapter) VersionTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS "schema_migrations" ("version" INTEGER PRIMARY KEY NOT NULL)`
}

func (Sqlite3Adapter) Up() []string {
	return []string{
		// 1
		`
CREATE TABLE "source_entity" (
    "id" INTEGER PRIMARY KEY AUTOINCREMENT,
    "resource" TEXT NOT NULL,
    "string" TEXT NOT NULL,
    UNIQUE ("resource", "string")
);
`,
	}
}

// PostgresAdapter provides support for PostgreSQL through pgx.
type PostgresAdapter struct{}

func (PostgresAdapter) DriverName() string { return "pgx" }

func (PostgresAdapter) PostCreate(*sqlx.DB) error { return nil }

func (PostgresAdapter) VersionTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS schema_migrations (version integer PRIMARY KEY NOT NULL)`
}

func (PostgresAdapter) Up() []string {
	return []string{
		// 1
		`
CREATE TABLE source_entity (
    id bigserial PRIMARY KEY,
    resource text NOT NULL,
    string text NOT NULL,
    UNIQUE (resource, string)
);
`,
	}
}
