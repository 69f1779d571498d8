package engine

import (
	"context"
	"log/slog"

	"github.com/set-night/cardtask/internal/session"
	"github.com/set-night/cardtask/internal/telegram"
)

// Renderer shows surfaces to users and maintains the single-visible-menu
// invariant: before a tracked surface goes out, the previously tracked
// menu message is deleted, so at most one menu is on screen per user.
type Renderer struct {
	out      telegram.Outbound
	sessions *session.Store
}

func NewRenderer(out telegram.Outbound, sessions *session.Store) *Renderer {
	return &Renderer{out: out, sessions: sessions}
}

// Render sends the surface to the user. For tracked surfaces the old
// menu message is deleted first (best effort: it may already be gone)
// and the new message id is remembered on the session. Untracked
// surfaces leave the tracked menu alone.
func (r *Renderer) Render(ctx context.Context, userID int64, s Surface) error {
	sess := r.sessions.Get(userID)

	if s.Tracked && sess.ActiveMenuID != 0 {
		if err := r.out.DeleteMessage(ctx, userID, sess.ActiveMenuID); err != nil {
			slog.Debug("delete previous menu", "user_id", userID, "error", err)
		}
	}

	var (
		msgID int
		err   error
	)
	if s.PhotoFileID != "" {
		msgID, err = r.out.SendPhoto(ctx, userID, s.PhotoFileID, s.Text, s.Markup)
		if err != nil {
			// Missing or stale photo reference: degrade to text only.
			slog.Warn("photo surface failed, falling back to text", "user_id", userID, "error", err)
			msgID, err = r.out.SendText(ctx, userID, s.Text, s.Markup)
		}
	} else {
		msgID, err = r.out.SendText(ctx, userID, s.Text, s.Markup)
	}
	if err != nil {
		return err
	}

	if s.Tracked {
		sess = r.sessions.Get(userID)
		sess.ActiveMenuID = msgID
		r.sessions.Save(sess)
	}
	return nil
}
