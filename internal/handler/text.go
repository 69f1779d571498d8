package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/cardtask/internal/engine"
)

// HandleMessage is the default handler for private messages that are
// not commands: reply-keyboard presses, free text and attachments.
func (h *Handler) HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		h.HandleCallback(ctx, b, update)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat.Type != "private" {
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	u := eventUser(msg.From)
	ev := messageEvent(msg)
	if ev == nil {
		return
	}

	if err := h.engine.Transition(ctx, u, ev); err != nil {
		slog.Error("handle message", "user_id", msg.From.ID, "error", err)
		h.reportError(err, "message")
	}
}

// messageEvent classifies a message: attachments keep their file id,
// reply-keyboard labels become intents, everything else is plain text.
func messageEvent(msg *models.Message) engine.Event {
	if fileID := attachmentFileID(msg); fileID != "" {
		return engine.Attachment{FileID: fileID, Caption: msg.Caption}
	}

	if intent, ok := engine.LabelIntent(msg.Text); ok {
		return engine.ButtonPress{Intent: intent}
	}

	if msg.Text == "" {
		return nil
	}
	return engine.TextMessage{Body: msg.Text}
}

func attachmentFileID(msg *models.Message) string {
	if len(msg.Photo) > 0 {
		// Largest photo size comes last.
		return msg.Photo[len(msg.Photo)-1].FileID
	}
	if msg.Document != nil {
		return msg.Document.FileID
	}
	if msg.Video != nil {
		return msg.Video.FileID
	}
	return ""
}
