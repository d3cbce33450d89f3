package colormix

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Spok95/factory-mix/internal/domain/errs"
	"github.com/Spok95/factory-mix/internal/domain/materials"
)

var validate = validator.New()

// Item is one (material, quantity used) pair of a mix entry. A material may appear more than once.
type Item struct {
	MaterialID int64           `json:"material_id" validate:"required,gt=0"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// Entry is one executed batch of a formula.
type Entry struct {
	ID               int64               `json:"id"`
	FormulaID        int64               `json:"formula_id"`
	FormulaName      string              `json:"formula_name"`
	Materials        []Item              `json:"materials"`
	ColorRequirement decimal.Decimal     `json:"color_requirement"`
	SuggestedColor   decimal.NullDecimal `json:"suggested_color"`
	CreatedBy        int64               `json:"created_by"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

type Input struct {
	FormulaID        int64  `validate:"required,gt=0"`
	Materials        []Item `validate:"required,min=1,dive"`
	ColorRequirement decimal.Decimal
}

func (in *Input) Validate() error {
	if err := validate.Struct(in); err != nil {
		return errs.Invalid("%s", err.Error())
	}
	for _, it := range in.Materials {
		if it.Quantity.IsNegative() {
			return errs.Invalid("quantity of material %d must not be negative", it.MaterialID)
		}
		if !materials.FitsScale(it.Quantity) {
			return errs.Invalid("quantity of material %d allows at most %d decimal places", it.MaterialID, materials.QuantityScale)
		}
	}
	if !in.ColorRequirement.IsPositive() {
		return errs.Invalid("color requirement must be positive")
	}
	if !materials.FitsScale(in.ColorRequirement) {
		return errs.Invalid("color requirement allows at most %d decimal places", materials.QuantityScale)
	}
	return nil
}
