package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/acterstore/internal/ref"
)

//go:embed schema.sql
var schemaSQL string

// pragmas are applied on every open, in order.
var pragmas = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
}

type migration struct {
	version int
	name    string
	stmt    string
}

// migrations run in order for databases whose user_version is below the
// migration's version. The last entry's version is the current schema version.
var migrations = []migration{
	{1, "ordered index listing", `
		CREATE INDEX IF NOT EXISTS idx_index_members_order
		ON index_members(index_key, origin_server_ts, event_id)`},
	{2, "redacted records", `
		CREATE INDEX IF NOT EXISTS idx_models_redacted
		ON models(redacted_by) WHERE redacted_by IS NOT NULL`},
}

// Store persists model records and their index memberships in SQLite.
// WAL mode lets readers proceed while the single writer commits.
type Store struct {
	db     *sql.DB
	userID string
}

// Open creates or opens the database at path for the acting user userID.
// Pragmas and migrations are applied on every open; reopening an existing
// database is safe.
func Open(path, userID string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if err := checkIndexEncoding(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, userID: userID}, nil
}

// UserID implements model.Store.
func (s *Store) UserID() string {
	return s.userID
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	for _, p := range pragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations applies each pending migration in its own transaction,
// bumping user_version as it goes.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.stmt); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return err
	}
	return tx.Commit()
}

// checkIndexEncoding records ref.EncodingVersion in a new database and
// rejects one written with another version.
func checkIndexEncoding(db *sql.DB) error {
	if _, err := db.Exec(
		`INSERT INTO meta (key, value) VALUES ('index_encoding', ?) ON CONFLICT(key) DO NOTHING`,
		ref.EncodingVersion,
	); err != nil {
		return fmt.Errorf("record index encoding: %w", err)
	}
	var stored string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'index_encoding'`).Scan(&stored); err != nil {
		return fmt.Errorf("read index encoding: %w", err)
	}
	return ref.CheckEncoding(stored)
}

func schemaVersion() int {
	return migrations[len(migrations)-1].version
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

// verifyMeta checks a meta row. Used for testing.
func (s *Store) verifyMeta(key, expected string) error {
	var value string
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value); err != nil {
		return fmt.Errorf("failed to query meta %s: %w", key, err)
	}
	if value != expected {
		return fmt.Errorf("meta %s = %q, expected %q", key, value, expected)
	}
	return nil
}
