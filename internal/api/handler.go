// Package api exposes the domain services over HTTP with gin.
package api

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Spok95/factory-mix/internal/auth"
	"github.com/Spok95/factory-mix/internal/domain/colormix"
	"github.com/Spok95/factory-mix/internal/domain/errs"
	"github.com/Spok95/factory-mix/internal/domain/formulas"
	"github.com/Spok95/factory-mix/internal/domain/inventory"
	"github.com/Spok95/factory-mix/internal/domain/materials"
	"github.com/Spok95/factory-mix/internal/domain/users"
)

type MaterialService interface {
	Get(ctx context.Context, actor users.Actor, id int64) (*materials.Material, error)
	List(ctx context.Context, actor users.Actor) ([]materials.Material, error)
	LowStock(ctx context.Context, actor users.Actor) ([]materials.Material, error)
	Create(ctx context.Context, actor users.Actor, in materials.Input) (*materials.Material, error)
	Update(ctx context.Context, actor users.Actor, id int64, in materials.Input) (*materials.Material, error)
	Delete(ctx context.Context, actor users.Actor, id int64) error
}

type StockService interface {
	Receive(ctx context.Context, actor users.Actor, materialID int64, qty decimal.Decimal, note string) (*materials.Material, error)
	ApplyCounts(ctx context.Context, actor users.Actor, counts []inventory.Count, note string) (int, error)
	Movements(ctx context.Context, actor users.Actor, materialID int64, limit int) ([]inventory.Movement, error)
}

type FormulaService interface {
	Get(ctx context.Context, actor users.Actor, id int64) (*formulas.Formula, error)
	List(ctx context.Context, actor users.Actor) ([]formulas.Formula, error)
	Create(ctx context.Context, actor users.Actor, in formulas.Input) (*formulas.Formula, error)
	Update(ctx context.Context, actor users.Actor, id int64, in formulas.Input) (*formulas.Formula, error)
	Delete(ctx context.Context, actor users.Actor, id int64) error
}

type MixService interface {
	Get(ctx context.Context, actor users.Actor, id int64) (*colormix.Entry, error)
	List(ctx context.Context, actor users.Actor) ([]colormix.Entry, error)
	Create(ctx context.Context, actor users.Actor, in colormix.Input) (*colormix.Entry, error)
	Update(ctx context.Context, actor users.Actor, id int64, in colormix.Input) (*colormix.Entry, error)
	Delete(ctx context.Context, actor users.Actor, id int64) error
	Suggest(ctx context.Context, actor users.Actor, formulaID int64, entered []colormix.Entered) (decimal.NullDecimal, error)
}

type Handler struct {
	issuer    *auth.Issuer
	users     auth.UserLookup
	materials MaterialService
	stock     StockService
	formulas  FormulaService
	mixes     MixService
	loc       *time.Location
	log       *slog.Logger
}

type Deps struct {
	Issuer    *auth.Issuer
	Users     auth.UserLookup
	Materials MaterialService
	Stock     StockService
	Formulas  FormulaService
	Mixes     MixService
	Location  *time.Location // nil means UTC
	Log       *slog.Logger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		issuer:    d.Issuer,
		users:     d.Users,
		materials: d.Materials,
		stock:     d.Stock,
		formulas:  d.Formulas,
		mixes:     d.Mixes,
		loc:       d.Location,
		log:       d.Log,
	}
}

func (h *Handler) now() time.Time {
	if h.loc == nil {
		return time.Now().UTC()
	}
	return time.Now().In(h.loc)
}

// Register mounts every route under /api. loginLimit may be nil.
func (h *Handler) Register(r gin.IRouter, loginLimit gin.HandlerFunc) {
	api := r.Group("/api")
	api.Use(RequestID(), AccessLog(h.log))

	login := []gin.HandlerFunc{h.login}
	if loginLimit != nil {
		login = append([]gin.HandlerFunc{loginLimit}, login...)
	}
	api.POST("/auth/login", login...)

	authed := api.Group("", Authenticate(h.issuer))
	authed.GET("/auth/verify", h.verify)

	m := authed.Group("/materials")
	m.GET("", h.listMaterials)
	m.GET("/low-stock", h.lowStock)
	m.GET("/export", h.exportMaterials)
	m.POST("/import", h.importCounts)
	m.POST("", h.createMaterial)
	m.GET("/:id", h.getMaterial)
	m.PUT("/:id", h.updateMaterial)
	m.DELETE("/:id", h.deleteMaterial)
	m.POST("/:id/receive", h.receive)
	m.GET("/:id/movements", h.movements)

	f := authed.Group("/color-mix-formulas")
	f.GET("", h.listFormulas)
	f.POST("", h.createFormula)
	f.GET("/:id", h.getFormula)
	f.PUT("/:id", h.updateFormula)
	f.DELETE("/:id", h.deleteFormula)
	f.POST("/:id/suggest", h.suggest)

	e := authed.Group("/color-mix-entries")
	e.GET("", h.listEntries)
	e.POST("", h.createEntry)
	e.GET("/:id", h.getEntry)
	e.PUT("/:id", h.updateEntry)
	e.DELETE("/:id", h.deleteEntry)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Invalid("bad id %q", c.Param("id"))
	}
	return id, nil
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.fail(c, errs.Invalid("bad request body: %v", err))
		return false
	}
	return true
}
