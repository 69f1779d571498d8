package service

import (
	"context"
	"log/slog"

	"github.com/set-night/cardtask/internal/domain"
	"github.com/set-night/cardtask/internal/telegram"
)

// Recipients enumerates every user the bot has seen and records the
// broadcast in the action log.
type Recipients interface {
	ListBotUserIDs(ctx context.Context) ([]int64, error)
	AddAction(ctx context.Context, a domain.Action) error
}

// BroadcastResult is the per-run delivery accounting.
type BroadcastResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// Broadcaster fans a message out to every known user. Users who blocked
// the bot just count as failed.
type Broadcaster struct {
	recipients Recipients
	out        telegram.Outbound
}

func NewBroadcaster(recipients Recipients, out telegram.Outbound) *Broadcaster {
	return &Broadcaster{recipients: recipients, out: out}
}

func (b *Broadcaster) Broadcast(ctx context.Context, text string) (BroadcastResult, error) {
	ids, err := b.recipients.ListBotUserIDs(ctx)
	if err != nil {
		return BroadcastResult{}, err
	}
	if len(ids) == 0 {
		return BroadcastResult{}, domain.ErrNoRecipient
	}

	res := BroadcastResult{Total: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if _, err := b.out.SendText(ctx, id, text, nil); err != nil {
			res.Failed++
			slog.Debug("broadcast delivery", "user_id", id, "error", err)
			continue
		}
		res.Sent++
	}

	err = b.recipients.AddAction(ctx, domain.Action{
		Action: "broadcast",
		Details: map[string]any{
			"sent":   res.Sent,
			"failed": res.Failed,
			"total":  res.Total,
		},
	})
	if err != nil {
		slog.Error("log broadcast action", "error", err)
	}
	return res, nil
}
