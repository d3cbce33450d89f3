package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Spok95/factory-mix/internal/domain/errs"
	"github.com/Spok95/factory-mix/internal/domain/materials"
	"github.com/Spok95/factory-mix/internal/infra/xlsx"
)

const (
	maxSheetSize         = 5 << 20
	defaultMovementLimit = 100
	xlsxContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type materialRequest struct {
	Name        string          `json:"name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	Threshold   decimal.Decimal `json:"threshold"`
	Description string          `json:"description"`
}

func (r materialRequest) input() materials.Input {
	return materials.Input{
		Name:        r.Name,
		Quantity:    r.Quantity,
		Unit:        materials.Unit(r.Unit),
		Threshold:   r.Threshold,
		Description: r.Description,
	}
}

type receiveRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Note     string          `json:"note"`
}

func (h *Handler) listMaterials(c *gin.Context) {
	list, err := h.materials.List(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) lowStock(c *gin.Context) {
	list, err := h.materials.LowStock(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getMaterial(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	m, err := h.materials.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) createMaterial(c *gin.Context) {
	var req materialRequest
	if !h.bind(c, &req) {
		return
	}
	m, err := h.materials.Create(c.Request.Context(), actor(c), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) updateMaterial(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req materialRequest
	if !h.bind(c, &req) {
		return
	}
	m, err := h.materials.Update(c.Request.Context(), actor(c), id, req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) deleteMaterial(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.materials.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) receive(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req receiveRequest
	if !h.bind(c, &req) {
		return
	}
	m, err := h.stock.Receive(c.Request.Context(), actor(c), id, req.Quantity, req.Note)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) movements(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	limit := defaultMovementLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 1000 {
			h.fail(c, errs.Invalid("limit must be between 1 and 1000"))
			return
		}
		limit = n
	}
	list, err := h.stock.Movements(c.Request.Context(), actor(c), id, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) exportMaterials(c *gin.Context) {
	list, err := h.materials.List(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := xlsx.WriteMaterials(&buf, list); err != nil {
		h.fail(c, fmt.Errorf("export materials: %w", err))
		return
	}
	name := fmt.Sprintf("materials_%s.xlsx", h.now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// importCounts takes the exported sheet as a multipart "file" field or as the raw body.
func (h *Handler) importCounts(c *gin.Context) {
	var src io.Reader = c.Request.Body
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			h.fail(c, errs.Invalid("open upload: %v", err))
			return
		}
		defer func() { _ = f.Close() }()
		src = f
	}
	data, err := io.ReadAll(io.LimitReader(src, maxSheetSize+1))
	if err != nil {
		h.fail(c, errs.Invalid("read upload: %v", err))
		return
	}
	if len(data) > maxSheetSize {
		h.fail(c, errs.Invalid("sheet is larger than %d bytes", maxSheetSize))
		return
	}
	counts, err := xlsx.ReadCounts(data)
	if err != nil {
		h.fail(c, err)
		return
	}
	changed, err := h.stock.ApplyCounts(c.Request.Context(), actor(c), counts, "stock count import")
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": len(counts), "changed": changed})
}
