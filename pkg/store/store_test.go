package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestRebindSQLite(t *testing.T) {
	s := &Store{dialect: DialectSQLite}

	cases := []struct{ in, want string }{
		{"SELECT 1", "SELECT 1"},
		{"SELECT * FROM tasks WHERE id = $1", "SELECT * FROM tasks WHERE id = ?"},
		{"UPDATE t SET a = $1, b = $2 WHERE id = $3", "UPDATE t SET a = ?, b = ? WHERE id = ?"},
		{"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)", "VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"},
		{"SELECT price_usd FROM items", "SELECT price_usd FROM items"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, s.q(c.in), "rebinding %q", c.in)
	}
}

func TestRebindPostgresUntouched(t *testing.T) {
	s := &Store{dialect: DialectPostgres}
	q := "SELECT * FROM tasks WHERE id = $1 AND project_id = $2"
	assert.Equal(t, q, s.q(q))
}

func TestTranslateErr(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, translateErr("op", nil))
	})

	t.Run("no rows maps to ErrNotFound", func(t *testing.T) {
		err := translateErr("op", sql.ErrNoRows)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("pq unique violation", func(t *testing.T) {
		err := translateErr("op", &pq.Error{Code: "23505"})
		var cerr *ConstraintError
		if assert.ErrorAs(t, err, &cerr) {
			assert.Equal(t, ConstraintDuplicate, cerr.Kind)
		}
	})

	t.Run("pq foreign key violation", func(t *testing.T) {
		err := translateErr("op", &pq.Error{Code: "23503"})
		var cerr *ConstraintError
		if assert.ErrorAs(t, err, &cerr) {
			assert.Equal(t, ConstraintForeignKey, cerr.Kind)
		}
	})

	t.Run("pq not null violation", func(t *testing.T) {
		err := translateErr("op", &pq.Error{Code: "23502"})
		var cerr *ConstraintError
		if assert.ErrorAs(t, err, &cerr) {
			assert.Equal(t, ConstraintNotNull, cerr.Kind)
		}
	})

	t.Run("other errors wrapped with op", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := translateErr("listing tasks", cause)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "listing tasks")
	})
}
