package formulas

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/factory-mix/internal/domain/errs"
	"github.com/Spok95/factory-mix/internal/domain/materials"
)

// Ratio is the relative weight of one material in a formula.
type Ratio struct {
	MaterialID int64           `json:"material_id"`
	Weight     decimal.Decimal `json:"weight"`
}

// Record is a formula row as stored; Ratios is still the serialized mapping.
type Record struct {
	ID          int64
	Name        string
	Description string
	Ratios      string
	ColorWeight decimal.Decimal
	CreatedBy   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Formula is a resolved recipe: ratios sorted by material id plus the reference dye weight in grams.
type Formula struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Ratios      []Ratio         `json:"ratios"`
	ColorWeight decimal.Decimal `json:"color_weight"`
	CreatedBy   *int64          `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Total is the sum of all ratio weights.
func (f *Formula) Total() decimal.Decimal {
	total := decimal.Zero
	for _, r := range f.Ratios {
		total = total.Add(r.Weight)
	}
	return total
}

type Input struct {
	Name        string          `validate:"required,max=100"`
	Description string          `validate:"max=2000"`
	Ratios      []Ratio         `validate:"required,min=1,dive"`
	ColorWeight decimal.Decimal
}

func (in *Input) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validate.Struct(in); err != nil {
		return errs.Invalid("%s", err.Error())
	}
	if !in.ColorWeight.IsPositive() {
		return errs.Invalid("color weight must be positive")
	}
	if !materials.FitsScale(in.ColorWeight) {
		return errs.Invalid("color weight allows at most %d decimal places", materials.QuantityScale)
	}
	sorted, err := normalizeRatios(in.Ratios)
	if err != nil {
		return errs.Invalid("%s", err.Error())
	}
	in.Ratios = sorted
	return nil
}
