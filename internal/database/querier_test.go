package database

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	query := "SELECT a FROM t WHERE year = $1 AND unit_code = $2 AND code LIKE $3 ESCAPE '\\'"

	assert.Equal(t, "SELECT a FROM t WHERE year = ? AND unit_code = ? AND code LIKE ? ESCAPE '\\'", Rebind(query))
}

func TestIsMissingTable(t *testing.T) {
	assert.True(t, IsMissingTable(&pgconn.PgError{Code: "42P01"}))
	assert.False(t, IsMissingTable(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsMissingTable(errors.New("SQL logic error: no such table: classifier (1)")))
	assert.False(t, IsMissingTable(errors.New("connection refused")))
	assert.False(t, IsMissingTable(nil))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "2.1", EscapeLike("2.1"))
	assert.Equal(t, `10\%\_a\\b`, EscapeLike(`10%_a\b`))
}
