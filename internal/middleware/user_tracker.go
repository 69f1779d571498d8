package middleware

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// UserRegistry records every user the bot has seen. The broadcast
// recipient list is built from it.
type UserRegistry interface {
	UpsertBotUser(ctx context.Context, userID int64, username, firstName string) error
}

// TrackUsers returns middleware that registers the sender of every
// update. Registration failures never block the update.
func TrackUsers(registry UserRegistry) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var from *models.User
			if update.Message != nil {
				from = update.Message.From
			} else if update.CallbackQuery != nil {
				from = &update.CallbackQuery.From
			}

			if from != nil && !from.IsBot {
				if err := registry.UpsertBotUser(ctx, from.ID, from.Username, from.FirstName); err != nil {
					slog.Error("register bot user", "user_id", from.ID, "error", err)
				}
			}

			next(ctx, b, update)
		}
	}
}
