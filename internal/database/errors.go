package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes for the integrity violations the schema can raise, and for
// a value too wide for its column.
const (
	CodeStringTooLong       = "22001"
	CodeNotNullViolation    = "23502"
	CodeForeignKeyViolation = "23503"
	CodeUniqueViolation     = "23505"
	CodeCheckViolation      = "23514"
)

var (
	ErrNoRows              = pgx.ErrNoRows
	ErrNotNullViolation    = errors.New("not-null violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrUniqueViolation     = errors.New("unique violation")
	ErrCheckViolation      = errors.New("check violation")
	ErrValueTooLong        = errors.New("value too long")
)

// ConstraintError keeps the engine's error and names the constraint involved.
type ConstraintError struct {
	Kind       error
	Constraint string
	Table      string
	Err        *pgconn.PgError
}

func (e *ConstraintError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Message)
	}
	if e.Constraint != "" {
		return fmt.Sprintf("%s on %s (%s): %s", e.Kind, e.Table, e.Constraint, e.Err.Message)
	}
	return fmt.Sprintf("%s on %s: %s", e.Kind, e.Table, e.Err.Message)
}

func (e *ConstraintError) Is(target error) bool { return target == e.Kind }

func (e *ConstraintError) Unwrap() error { return e.Err }

// Classify turns integrity violations into a *ConstraintError so callers can
// use errors.Is with the sentinels above. Other errors pass through untouched.
func Classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	var kind error
	switch pgErr.Code {
	case CodeNotNullViolation:
		kind = ErrNotNullViolation
	case CodeForeignKeyViolation:
		kind = ErrForeignKeyViolation
	case CodeUniqueViolation:
		kind = ErrUniqueViolation
	case CodeCheckViolation:
		kind = ErrCheckViolation
	case CodeStringTooLong:
		kind = ErrValueTooLong
	default:
		return err
	}
	return &ConstraintError{
		Kind:       kind,
		Constraint: pgErr.ConstraintName,
		Table:      pgErr.TableName,
		Err:        pgErr,
	}
}
