package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

type MoveType string

const (
	MoveIn        MoveType = "in"
	MoveAdjust    MoveType = "adjust"
	MoveMixOut    MoveType = "mix_out"
	MoveMixRefund MoveType = "mix_refund"
)

// Movement is one signed change of a material's stock. Qty > 0 adds stock.
type Movement struct {
	ID         int64           `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	ActorID    int64           `json:"actor_id"`
	MaterialID int64           `json:"material_id"`
	Qty        decimal.Decimal `json:"qty"`
	Type       MoveType        `json:"type"`
	EntryID    *int64          `json:"entry_id,omitempty"`
	Note       string          `json:"note"`
}

// Count is a physical stock count for one material, e.g. from an imported sheet.
type Count struct {
	MaterialID int64
	Counted    decimal.Decimal
}
