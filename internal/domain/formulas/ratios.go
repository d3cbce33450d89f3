package formulas

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Spok95/factory-mix/internal/domain/errs"
)

var validate = validator.New()

// ParseRatios decodes the stored mapping {"<materialId>": weight}. Weights may be JSON numbers
// or numeric strings. Any malformed content is ErrInvalidFormula, never an empty mapping.
func ParseRatios(raw string) ([]Ratio, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errs.InvalidFormula("ratio mapping is empty")
	}
	var m map[string]decimal.Decimal
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, errs.InvalidFormula("ratio mapping: %v", err)
	}

	ratios := make([]Ratio, 0, len(m))
	for key, w := range m {
		id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil || id <= 0 {
			return nil, errs.InvalidFormula("material id %q is not a positive integer", key)
		}
		ratios = append(ratios, Ratio{MaterialID: id, Weight: w})
	}
	sorted, err := normalizeRatios(ratios)
	if err != nil {
		return nil, errs.InvalidFormula("%s", err.Error())
	}
	return sorted, nil
}

// EncodeRatios is the inverse of ParseRatios.
func EncodeRatios(ratios []Ratio) (string, error) {
	sorted, err := normalizeRatios(ratios)
	if err != nil {
		return "", errs.Invalid("%s", err.Error())
	}
	m := make(map[string]decimal.Decimal, len(sorted))
	for _, r := range sorted {
		m[strconv.FormatInt(r.MaterialID, 10)] = r.Weight
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func normalizeRatios(in []Ratio) ([]Ratio, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("formula needs at least one material")
	}
	out := make([]Ratio, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i].MaterialID < out[j].MaterialID })

	for i, r := range out {
		if r.MaterialID <= 0 {
			return nil, fmt.Errorf("material id must be positive")
		}
		if i > 0 && out[i-1].MaterialID == r.MaterialID {
			return nil, fmt.Errorf("material %d is listed twice", r.MaterialID)
		}
		if !r.Weight.IsPositive() {
			return nil, fmt.Errorf("weight of material %d must be positive", r.MaterialID)
		}
	}
	return out, nil
}
