package colormix

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Spok95/factory-mix/internal/domain/formulas"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func q(s string) decimal.NullDecimal { return decimal.NewNullDecimal(d(s)) }

func redA() *formulas.Formula {
	return &formulas.Formula{
		ID:          1,
		Name:        "Red-A",
		Ratios:      []formulas.Ratio{{MaterialID: 1, Weight: d("3")}, {MaterialID: 2, Weight: d("7")}},
		ColorWeight: d("50"),
	}
}

func TestSuggestColor(t *testing.T) {
	got, ok := SuggestColor(redA(), []Entered{{MaterialID: 1, Quantity: q("6")}, {MaterialID: 2, Quantity: q("14")}})
	assert.True(t, ok)
	assert.True(t, d("100").Equal(got), got.String())

	// only the entered total matters, not how it is split
	got, ok = SuggestColor(redA(), []Entered{{MaterialID: 2, Quantity: q("5")}})
	assert.True(t, ok)
	assert.True(t, d("25").Equal(got), got.String())

	// a zero row next to a filled one still counts
	got, ok = SuggestColor(redA(), []Entered{{MaterialID: 1, Quantity: q("0")}, {MaterialID: 2, Quantity: q("2")}})
	assert.True(t, ok)
	assert.True(t, d("10").Equal(got), got.String())
}

func TestSuggestColor_Proportional(t *testing.T) {
	base, _ := SuggestColor(redA(), []Entered{{MaterialID: 1, Quantity: q("1.5")}, {MaterialID: 2, Quantity: q("2.5")}})
	doubled, _ := SuggestColor(redA(), []Entered{{MaterialID: 1, Quantity: q("3")}, {MaterialID: 2, Quantity: q("5")}})
	assert.True(t, base.Mul(decimal.NewFromInt(2)).Equal(doubled))
}

func TestSuggestColor_Nothing(t *testing.T) {
	zeroTotal := redA()
	zeroTotal.Ratios = []formulas.Ratio{{MaterialID: 1, Weight: decimal.Zero}}

	cases := map[string]struct {
		f       *formulas.Formula
		entered []Entered
	}{
		"no formula":        {nil, []Entered{{MaterialID: 1, Quantity: q("1")}}},
		"no rows":           {redA(), nil},
		"missing quantity":  {redA(), []Entered{{MaterialID: 1, Quantity: q("1")}, {MaterialID: 2}}},
		"missing material":  {redA(), []Entered{{Quantity: q("1")}}},
		"negative quantity": {redA(), []Entered{{MaterialID: 1, Quantity: q("-1")}}},
		"zero total":        {zeroTotal, []Entered{{MaterialID: 1, Quantity: q("1")}}},
		"all rows zero":     {redA(), []Entered{{MaterialID: 1, Quantity: q("0")}, {MaterialID: 2, Quantity: q("0.000")}}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := SuggestColor(tc.f, tc.entered)
			assert.False(t, ok)
		})
	}
}
