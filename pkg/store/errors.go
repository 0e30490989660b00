package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	sqlite "modernc.org/sqlite"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// ConstraintKind classifies a storage constraint violation so the API layer
// can map it onto the error taxonomy without knowing driver details.
type ConstraintKind int

const (
	ConstraintDuplicate ConstraintKind = iota
	ConstraintForeignKey
	ConstraintNotNull
)

// ConstraintError wraps a driver error that violated a schema constraint.
type ConstraintError struct {
	Kind ConstraintKind
	err  error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violation: %v", e.err)
}

func (e *ConstraintError) Unwrap() error { return e.err }

// SQLite extended result codes for constraint violations.
const (
	sqliteConstraintForeignKey = 787
	sqliteConstraintNotNull    = 1299
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// translateErr maps driver-specific constraint failures onto ConstraintError
// and sql.ErrNoRows onto ErrNotFound. Anything else passes through wrapped.
func translateErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return &ConstraintError{Kind: ConstraintDuplicate, err: err}
		case "23503":
			return &ConstraintError{Kind: ConstraintForeignKey, err: err}
		case "23502":
			return &ConstraintError{Kind: ConstraintNotNull, err: err}
		}
	}

	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return &ConstraintError{Kind: ConstraintDuplicate, err: err}
		case sqliteConstraintForeignKey:
			return &ConstraintError{Kind: ConstraintForeignKey, err: err}
		case sqliteConstraintNotNull:
			return &ConstraintError{Kind: ConstraintNotNull, err: err}
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
