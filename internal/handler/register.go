package handler

import (
	"github.com/go-telegram/bot"
)

// Register registers all command and callback handlers on the bot instance.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.command("start"))
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, h.command("help"))
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/submit", bot.MatchTypePrefix, h.command("submit"))
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/my", bot.MatchTypePrefix, h.command("my"))
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/actions", bot.MatchTypePrefix, h.command("actions"))

	// Every inline button routes through one callback handler; the data
	// token is parsed into an intent there.
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, h.HandleCallback)
}
