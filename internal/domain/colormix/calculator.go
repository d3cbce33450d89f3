package colormix

import (
	"github.com/shopspring/decimal"

	"github.com/Spok95/factory-mix/internal/domain/formulas"
)

// Entered is a material row as typed by the user; either field may still be empty.
type Entered struct {
	MaterialID int64
	Quantity   decimal.NullDecimal
}

// EnteredFromItems adapts stored items to calculator input.
func EnteredFromItems(items []Item) []Entered {
	out := make([]Entered, 0, len(items))
	for _, it := range items {
		out = append(out, Entered{MaterialID: it.MaterialID, Quantity: decimal.NewNullDecimal(it.Quantity)})
	}
	return out
}

// SuggestColor scales the formula's reference dye weight by enteredTotal / formulaTotal.
// ok is false when there is nothing to suggest: no formula, no rows, an incomplete or negative row,
// rows that are all zero, or a formula whose ratios do not add up to a positive total.
func SuggestColor(f *formulas.Formula, entered []Entered) (suggested decimal.Decimal, ok bool) {
	if f == nil || len(entered) == 0 {
		return decimal.Zero, false
	}
	enteredTotal := decimal.Zero
	for _, e := range entered {
		if e.MaterialID <= 0 || !e.Quantity.Valid || e.Quantity.Decimal.IsNegative() {
			return decimal.Zero, false
		}
		enteredTotal = enteredTotal.Add(e.Quantity.Decimal)
	}
	if enteredTotal.IsZero() {
		return decimal.Zero, false
	}
	formulaTotal := f.Total()
	if !formulaTotal.IsPositive() {
		return decimal.Zero, false
	}
	return enteredTotal.Mul(f.ColorWeight).Div(formulaTotal), true
}

func suggestNullable(f *formulas.Formula, items []Item) decimal.NullDecimal {
	if v, ok := SuggestColor(f, EnteredFromItems(items)); ok {
		return decimal.NewNullDecimal(v)
	}
	return decimal.NullDecimal{}
}
