package middleware

import (
	"context"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverReportsPanicToSink(t *testing.T) {
	var reported []error
	mw := Recover(func(err error, context string) {
		reported = append(reported, err)
	})

	handler := mw(func(ctx context.Context, b *bot.Bot, update *models.Update) {
		panic("boom")
	})

	require.NotPanics(t, func() {
		handler(context.Background(), nil, &models.Update{})
	})
	require.Len(t, reported, 1)
	assert.Contains(t, reported[0].Error(), "boom")
}

func TestRecoverWithoutSink(t *testing.T) {
	handler := Recover(nil)(func(ctx context.Context, b *bot.Bot, update *models.Update) {
		panic("boom")
	})

	require.NotPanics(t, func() {
		handler(context.Background(), nil, &models.Update{})
	})
}
