package materials

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/factory-mix/internal/domain/errs"
)

type Unit string

// QuantityScale is the number of fractional digits every stored quantity keeps (NUMERIC(14,3)).
const QuantityScale = 3

// FitsScale reports whether q is stored without rounding.
func FitsScale(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(QuantityScale))
}

const (
	UnitKg  Unit = "kg"
	UnitG   Unit = "g"
	UnitL   Unit = "l"
	UnitMl  Unit = "ml"
	UnitPcs Unit = "pcs"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitKg, UnitG, UnitL, UnitMl, UnitPcs:
		return true
	}
	return false
}

type Material struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        Unit            `json:"unit"`
	Threshold   decimal.Decimal `json:"threshold"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// LowStock is true once the quantity on hand reaches the threshold.
func (m Material) LowStock() bool {
	return m.Quantity.LessThanOrEqual(m.Threshold)
}

// Input carries the editable attributes. Quantity is only used on create;
// later stock changes go through the inventory ledger.
type Input struct {
	Name        string
	Quantity    decimal.Decimal
	Unit        Unit
	Threshold   decimal.Decimal
	Description string
}

func (in *Input) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Unit = Unit(strings.ToLower(strings.TrimSpace(string(in.Unit))))

	if in.Name == "" {
		return errs.Invalid("name is required")
	}
	if !in.Unit.Valid() {
		return errs.Invalid("unit %q is not one of kg, g, l, ml, pcs", in.Unit)
	}
	if in.Quantity.IsNegative() {
		return errs.Invalid("quantity must not be negative")
	}
	if in.Threshold.IsNegative() {
		return errs.Invalid("threshold must not be negative")
	}
	if !FitsScale(in.Quantity) || !FitsScale(in.Threshold) {
		return errs.Invalid("quantity and threshold allow at most %d decimal places", QuantityScale)
	}
	return nil
}
