package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Rows is the subset of pgx.Rows and *sql.Rows used by the read-only repositories.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Querier runs read queries written with postgres-style ($1, $2...) placeholders against either backend.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Ping(ctx context.Context) error
}

type PgxQuerier struct {
	pool *pgxpool.Pool
}

func NewPgxQuerier(pool *pgxpool.Pool) *PgxQuerier {
	return &PgxQuerier{pool: pool}
}

func (q *PgxQuerier) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return q.pool.Query(ctx, query, args...)
}

func (q *PgxQuerier) Ping(ctx context.Context) error {
	return q.pool.Ping(ctx)
}

type SQLQuerier struct {
	db *sql.DB
}

func NewSQLQuerier(db *sql.DB) *SQLQuerier {
	return &SQLQuerier{db: db}
}

func (q *SQLQuerier) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := q.db.QueryContext(ctx, Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (q *SQLQuerier) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() {
	_ = r.Rows.Close()
}

var placeholder = regexp.MustCompile(`\$\d+`)

// Rebind turns $N placeholders into sqlite's positional "?". Queries must reference each argument once,
// in ascending order.
func Rebind(query string) string {
	return placeholder.ReplaceAllString(query, "?")
}

// IsMissingTable reports whether err says a queried table does not exist.
func IsMissingTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01" // undefined_table
	}
	return err != nil && strings.Contains(err.Error(), "no such table")
}

// EscapeLike escapes LIKE wildcards so value matches literally. Use with ESCAPE '\'.
func EscapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}
