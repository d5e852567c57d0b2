package sqlstore

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

// executor is satisfied by both *sqlx.DB and *sqlx.Conn.
type executor interface {
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type connKey struct{}

// Store owns the connection pool shared by the user and item storages.
type Store struct {
	DB       *sqlx.DB
	dialect  Dialect
	tracer   trace.Tracer
	metrics  *metrics
	hashCost int
}

func New(db *sqlx.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{
		DB:       db,
		dialect:  dialect,
		tracer:   defaultTracer(),
		metrics:  defaultMetrics(),
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to the database behind driver and verifies it with a ping.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	slog.Debug("Creating DB pool connection", "driver", driver)

	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", driver, err)
	}

	slog.Debug("Try to ping DB")
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	slog.Debug("Ping is successful")

	return New(db, dialect, opts...), nil
}

func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *Store) Close() error {
	slog.Debug("Closing DB pool")
	return s.DB.Close()
}

// Bootstrap creates the tables if they do not exist yet.
func (s *Store) Bootstrap(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema() {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	slog.Debug("Schema is ready", "dialect", s.dialect.Name())
	return nil
}

// Conn reserves a single connection from the pool. The caller must Close it.
func (s *Store) Conn(ctx context.Context) (*sqlx.Conn, error) {
	conn, err := s.DB.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, nil
}

// ContextWithConn binds conn to ctx so storage calls made with the returned
// context run on that connection instead of the pool.
func ContextWithConn(ctx context.Context, conn *sqlx.Conn) context.Context {
	return context.WithValue(ctx, connKey{}, conn)
}

func (s *Store) executor(ctx context.Context) executor {
	if conn, ok := ctx.Value(connKey{}).(*sqlx.Conn); ok && conn != nil {
		return conn
	}
	return s.DB
}

func (s *Store) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(s.dialect.PlaceholderFormat())
}

func (s *Store) get(ctx context.Context, dest any, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return s.executor(ctx).GetContext(ctx, dest, query, args...)
}

func (s *Store) selectAll(ctx context.Context, dest any, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return s.executor(ctx).SelectContext(ctx, dest, query, args...)
}

// insertReturningID runs an INSERT ... RETURNING id and yields the new id.
func (s *Store) insertReturningID(ctx context.Context, q sq.InsertBuilder) (int64, error) {
	query, args, err := q.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var id int64
	if err := s.executor(ctx).QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
