// Package notify sends low stock alerts to the admin Telegram chat.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/factory-mix/internal/domain/materials"
	"github.com/Spok95/factory-mix/internal/infra/metrics"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	api    sender
	chatID int64
	log    *slog.Logger
}

func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

func (t *Telegram) LowStock(_ context.Context, mats []materials.Material) {
	if len(mats) == 0 || t.chatID == 0 {
		return
	}
	if _, err := t.api.Send(tgbotapi.NewMessage(t.chatID, LowStockText(mats))); err != nil {
		t.log.Error("low stock alert failed", "err", err)
		return
	}
	metrics.LowStockAlerts.Inc()
}

// LowStockText renders one line per material, with empty stock called out separately.
func LowStockText(mats []materials.Material) string {
	var b strings.Builder
	b.WriteString("⚠️ Materials:")
	for _, m := range mats {
		if m.Quantity.IsZero() {
			fmt.Fprintf(&b, "\n- %s: out of stock", m.Name)
			continue
		}
		fmt.Fprintf(&b, "\n- %s: %s %s left (threshold %s)", m.Name, m.Quantity.String(), m.Unit, m.Threshold.String())
	}
	return b.String()
}

// Noop is used when no bot token is configured.
type Noop struct{ Log *slog.Logger }

func (n Noop) LowStock(_ context.Context, mats []materials.Material) {
	if n.Log != nil && len(mats) > 0 {
		n.Log.Info("low stock", "materials", len(mats), "first", mats[0].Name)
	}
}
