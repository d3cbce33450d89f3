package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Spok95/factory-mix/internal/domain/colormix"
	"github.com/Spok95/factory-mix/internal/domain/formulas"
)

// formulaRequest carries ratios in their stored shape: {"<material id>": weight}.
type formulaRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Ratios      json.RawMessage `json:"ratios"`
	ColorWeight decimal.Decimal `json:"color_weight"`
}

func (r formulaRequest) input() (formulas.Input, error) {
	ratios, err := formulas.ParseRatios(string(r.Ratios))
	if err != nil {
		return formulas.Input{}, err
	}
	return formulas.Input{Name: r.Name, Description: r.Description, Ratios: ratios, ColorWeight: r.ColorWeight}, nil
}

type enteredRow struct {
	MaterialID int64               `json:"material_id"`
	Quantity   decimal.NullDecimal `json:"quantity"`
}

type suggestRequest struct {
	Materials []enteredRow `json:"materials"`
}

func (h *Handler) listFormulas(c *gin.Context) {
	list, err := h.formulas.List(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getFormula(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	f, err := h.formulas.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) createFormula(c *gin.Context) {
	var req formulaRequest
	if !h.bind(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(c, err)
		return
	}
	f, err := h.formulas.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *Handler) updateFormula(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req formulaRequest
	if !h.bind(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(c, err)
		return
	}
	f, err := h.formulas.Update(c.Request.Context(), actor(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) deleteFormula(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.formulas.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// suggest answers with {"suggested_color": null} when the rows are incomplete.
func (h *Handler) suggest(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req suggestRequest
	if !h.bind(c, &req) {
		return
	}
	entered := make([]colormix.Entered, 0, len(req.Materials))
	for _, row := range req.Materials {
		entered = append(entered, colormix.Entered{MaterialID: row.MaterialID, Quantity: row.Quantity})
	}
	v, err := h.mixes.Suggest(c.Request.Context(), actor(c), id, entered)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggested_color": v})
}
