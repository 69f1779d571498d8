package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/cardtask/internal/session"
)

type photoFailOutbound struct {
	fakeOutbound
}

func (f *photoFailOutbound) SendPhoto(ctx context.Context, chatID int64, fileID, caption string, markup models.ReplyMarkup) (int, error) {
	return 0, errors.New("wrong file identifier")
}

func TestRenderPhotoFallsBackToText(t *testing.T) {
	out := &photoFailOutbound{}
	sessions := session.New()
	r := NewRenderer(out, sessions)

	err := r.Render(context.Background(), 1, startSurface("stale-photo-id"))
	require.NoError(t, err)

	require.Len(t, out.sent, 1)
	assert.Empty(t, out.sent[0].photo, "degraded to a text message")
	assert.Contains(t, out.sent[0].text, "Заработай")
}

func TestRenderUntrackedLeavesMenuAlone(t *testing.T) {
	out := &fakeOutbound{}
	sessions := session.New()
	r := NewRenderer(out, sessions)

	require.NoError(t, r.Render(context.Background(), 1, mainMenuSurface()))
	menuID := sessions.Get(1).ActiveMenuID
	require.NotZero(t, menuID)

	require.NoError(t, r.Render(context.Background(), 1, Surface{Text: "Заявка отправлена!"}))

	assert.Empty(t, out.deleted, "untracked surfaces never delete the menu")
	assert.Equal(t, menuID, sessions.Get(1).ActiveMenuID)
}

func TestRenderTrackedReplacesMenu(t *testing.T) {
	out := &fakeOutbound{}
	sessions := session.New()
	r := NewRenderer(out, sessions)
	ctx := context.Background()

	require.NoError(t, r.Render(ctx, 1, ageSurface()))
	first := sessions.Get(1).ActiveMenuID

	require.NoError(t, r.Render(ctx, 1, offersSurface("18+")))

	assert.Equal(t, []int{first}, out.deleted)
	assert.NotEqual(t, first, sessions.Get(1).ActiveMenuID)
}
