// Package store implements the practice API's operations directly on the
// schema, leaning on its constraints and the stock trigger.
package store

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"interview-practice/internal/database"
	"interview-practice/internal/shop"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrEmailTaken        = errors.New("email already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotCancellable    = errors.New("order cannot be cancelled")
	ErrInvalidInput      = errors.New("invalid input")
)

type Store struct {
	db     database.DatabaseDriver
	logger *zap.Logger
}

func New(db database.DatabaseDriver, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// invalid wraps the listed problems so that both errors.Is(err,
// ErrInvalidInput) and errors.As(err, **shop.ValidationError) hold.
func invalid(entity string, problems ...string) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, &shop.ValidationError{Entity: entity, Problems: problems})
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// stockViolation reports whether err is the products stock CHECK firing,
// which is how the trigger rejects an oversell.
func stockViolation(err error) bool {
	var ce *database.ConstraintError
	return errors.As(database.Classify(err), &ce) &&
		errors.Is(ce, database.ErrCheckViolation) &&
		ce.Constraint == "products_stock_quantity_check"
}
