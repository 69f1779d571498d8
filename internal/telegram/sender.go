// Package telegram wraps the bot API into the narrow outbound channel
// the rest of the application talks to.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/cardtask/internal/domain"
)

const MaxMessageLen = 4096

// Outbound is the message-delivery channel. Sends are best-effort and
// synchronous; a failed send is reported, never retried.
type Outbound interface {
	// SendText delivers a text message and returns its message id.
	SendText(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) (int, error)
	// SendPhoto delivers a photo by file id with a caption.
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string, markup models.ReplyMarkup) (int, error)
	// DeleteMessage removes a previously sent message. Callers tolerate
	// failure: the message may already be gone.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Sender is the bot-backed Outbound implementation.
type Sender struct {
	bot *bot.Bot
}

func NewSender(b *bot.Bot) *Sender {
	return &Sender{bot: b}
}

func (s *Sender) SendText(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) (int, error) {
	if len([]rune(text)) > MaxMessageLen {
		text = string([]rune(text)[:MaxMessageLen-3]) + "..."
	}
	msg, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		// HTML parse errors are content bugs; retry once as plain text
		// so the user still gets the message.
		slog.Warn("html send failed, falling back to plain text", "chat_id", chatID, "error", err)
		msg, err = s.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        text,
			ReplyMarkup: markup,
		})
		if err != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
		}
	}
	return msg.ID, nil
}

func (s *Sender) SendPhoto(ctx context.Context, chatID int64, fileID, caption string, markup models.ReplyMarkup) (int, error) {
	msg, err := s.bot.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:      chatID,
		Photo:       &models.InputFileString{Data: fileID},
		Caption:     caption,
		ReplyMarkup: markup,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	return msg.ID, nil
}

func (s *Sender) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := s.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
