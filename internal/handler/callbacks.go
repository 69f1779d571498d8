package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/cardtask/internal/domain"
	"github.com/set-night/cardtask/internal/engine"
)

// HandleCallback acknowledges the callback query and feeds the parsed
// intent to the engine. Unknown tokens (stale buttons from old bot
// versions) are acknowledged and dropped.
func (h *Handler) HandleCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
	})

	intent, err := domain.ParseIntent(cq.Data)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownIntent) {
			slog.Debug("unknown callback token", "data", cq.Data, "user_id", cq.From.ID)
			return
		}
		slog.Error("parse callback token", "data", cq.Data, "error", err)
		return
	}

	err = h.engine.Transition(ctx, eventUser(&cq.From), engine.ButtonPress{Intent: intent})
	if err != nil {
		slog.Error("handle callback", "data", cq.Data, "user_id", cq.From.ID, "error", err)
		h.reportError(err, "callback "+cq.Data)
	}
}
