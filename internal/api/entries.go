package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Spok95/factory-mix/internal/domain/colormix"
	"github.com/Spok95/factory-mix/internal/domain/errs"
)

// entryRow keeps a missing quantity apart from an explicit 0.
type entryRow struct {
	MaterialID int64               `json:"material_id"`
	Quantity   decimal.NullDecimal `json:"quantity"`
}

type entryRequest struct {
	FormulaID        int64           `json:"formula_id"`
	Materials        []entryRow      `json:"materials"`
	ColorRequirement decimal.Decimal `json:"color_requirement"`
}

func (r entryRequest) input() (colormix.Input, error) {
	items := make([]colormix.Item, 0, len(r.Materials))
	for i, row := range r.Materials {
		if !row.Quantity.Valid {
			return colormix.Input{}, errs.Invalid("materials[%d]: quantity is required", i)
		}
		items = append(items, colormix.Item{MaterialID: row.MaterialID, Quantity: row.Quantity.Decimal})
	}
	return colormix.Input{FormulaID: r.FormulaID, Materials: items, ColorRequirement: r.ColorRequirement}, nil
}

func (h *Handler) listEntries(c *gin.Context) {
	list, err := h.mixes.List(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getEntry(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	e, err := h.mixes.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) createEntry(c *gin.Context) {
	var req entryRequest
	if !h.bind(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(c, err)
		return
	}
	e, err := h.mixes.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *Handler) updateEntry(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req entryRequest
	if !h.bind(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(c, err)
		return
	}
	e, err := h.mixes.Update(c.Request.Context(), actor(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) deleteEntry(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.mixes.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
