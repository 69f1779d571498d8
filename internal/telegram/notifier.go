package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/set-night/cardtask/internal/config"
)

// Notifier mirrors notable events into an operator Telegram chat,
// one forum topic per event kind. Disabled when no chat id is set.
type Notifier struct {
	bot *bot.Bot
	cfg *config.Config
}

func NewNotifier(b *bot.Bot, cfg *config.Config) *Notifier {
	return &Notifier{bot: b, cfg: cfg}
}

type NotifyKind string

const (
	NotifyError      NotifyKind = "error"
	NotifySubmission NotifyKind = "submission"
	NotifyQuestion   NotifyKind = "question"
	NotifyReport     NotifyKind = "report"
)

func (n *Notifier) Notify(kind NotifyKind, message string) {
	if n.cfg.NotifyChatID == 0 {
		return
	}

	topicID := n.topicID(kind)
	if topicID == 0 {
		return
	}

	if len([]rune(message)) > MaxMessageLen {
		message = string([]rune(message)[:MaxMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DeliveryTimeout)
	defer cancel()

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          n.cfg.NotifyChatID,
		Text:            message,
		MessageThreadID: topicID,
	})
	if err != nil {
		slog.Error("failed to send operator notification", "kind", kind, "error", err)
	}
}

func (n *Notifier) NotifyError(err error, context string) {
	n.Notify(NotifyError, fmt.Sprintf("❌ Error\n\nContext: %s\nError: %s\nTime: %s",
		context, err.Error(), time.Now().Format("2006-01-02 15:04:05")))
}

func (n *Notifier) NotifySubmission(userID int64, username, bank string) {
	n.Notify(NotifySubmission, fmt.Sprintf("📬 New submission\n\nUser: %d (@%s)\nBank: %s",
		userID, username, bank))
}

func (n *Notifier) NotifyQuestion(userID int64, username, text string) {
	n.Notify(NotifyQuestion, fmt.Sprintf("❓ New question\n\nUser: %d (@%s)\n\n%s",
		userID, username, text))
}

func (n *Notifier) NotifyReport(userID int64, username, text string) {
	n.Notify(NotifyReport, fmt.Sprintf("✔️ Card received report\n\nUser: %d (@%s)\n\n%s",
		userID, username, text))
}

func (n *Notifier) topicID(kind NotifyKind) int {
	switch kind {
	case NotifyError:
		return n.cfg.NotifyTopicError
	case NotifySubmission:
		return n.cfg.NotifyTopicSubmitted
	case NotifyQuestion:
		return n.cfg.NotifyTopicQuestion
	case NotifyReport:
		return n.cfg.NotifyTopicReport
	default:
		return 0
	}
}
