package sqlstore

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Postgres SQLSTATE codes for constraint violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Dialect hides the differences between the supported SQL backends.
type Dialect interface {
	Name() string
	PlaceholderFormat() sq.PlaceholderFormat
	// Schema returns idempotent DDL statements creating the service tables.
	Schema() []string
	IsUniqueViolation(err error) bool
	IsForeignKeyViolation(err error) bool
}

var (
	Postgres = PostgresDialect{}
	SQLite   = SQLiteDialect{}
)

// DialectFor resolves the dialect for a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return Postgres, nil
	case "sqlite3":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

type PostgresDialect struct{}

func (PostgresDialect) Name() string { return "postgresql" }

func (PostgresDialect) PlaceholderFormat() sq.PlaceholderFormat { return sq.Dollar }

func (PostgresDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			owner_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS items_title_idx ON items (title)`,
		`CREATE INDEX IF NOT EXISTS items_owner_id_idx ON items (owner_id)`,
	}
}

func (PostgresDialect) IsUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

func (PostgresDialect) IsForeignKeyViolation(err error) bool {
	return pgCode(err) == pgForeignKeyViolation
}

// pgCode extracts the SQLSTATE from either pgx or lib/pq errors.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

type SQLiteDialect struct{}

func (SQLiteDialect) Name() string { return "sqlite" }

func (SQLiteDialect) PlaceholderFormat() sq.PlaceholderFormat { return sq.Question }

func (SQLiteDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT,
			owner_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS items_title_idx ON items (title)`,
		`CREATE INDEX IF NOT EXISTS items_owner_id_idx ON items (owner_id)`,
	}
}

func (SQLiteDialect) IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func (SQLiteDialect) IsForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
