// Package errs holds the error values shared by the domain packages and mapped to HTTP statuses by the api layer.
package errs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidFormula      = errors.New("invalid formula")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConcurrencyConflict = errors.New("stock was changed concurrently")
	ErrForbidden           = errors.New("forbidden")
	ErrInUse               = errors.New("still referenced")
)

type Shortage struct {
	MaterialID int64           `json:"material_id"`
	Name       string          `json:"name,omitempty"`
	Available  decimal.Decimal `json:"available"`
	Shortfall  decimal.Decimal `json:"shortfall"`
}

// InsufficientStockError lists every material the operation would drive below zero.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		label := s.Name
		if label == "" {
			label = fmt.Sprintf("material %d", s.MaterialID)
		}
		parts = append(parts, fmt.Sprintf("%s: short by %s", label, s.Shortfall.String()))
	}
	return "insufficient stock (" + strings.Join(parts, "; ") + ")"
}

// Invalid wraps ErrInvalidInput with a message for the caller.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// InvalidFormula wraps ErrInvalidFormula with the reason.
func InvalidFormula(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFormula, fmt.Sprintf(format, args...))
}

// IsForeignKeyViolation reports a Postgres 23503 error.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
