// Package handler translates Telegram updates into engine events.
package handler

import (
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/cardtask/internal/config"
	"github.com/set-night/cardtask/internal/engine"
	"github.com/set-night/cardtask/internal/telegram"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot      *bot.Bot
	cfg      *config.Config
	engine   *engine.Engine
	notifier *telegram.Notifier
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot      *bot.Bot
	Cfg      *config.Config
	Engine   *engine.Engine
	Notifier *telegram.Notifier
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:      deps.Bot,
		cfg:      deps.Cfg,
		engine:   deps.Engine,
		notifier: deps.Notifier,
	}
}

func (h *Handler) reportError(err error, context string) {
	if h.notifier != nil {
		h.notifier.NotifyError(err, context)
	}
}

func eventUser(from *models.User) engine.User {
	if from == nil {
		return engine.User{}
	}
	return engine.User{
		ID:        from.ID,
		Username:  from.Username,
		FirstName: from.FirstName,
	}
}
