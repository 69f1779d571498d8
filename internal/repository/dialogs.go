package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/set-night/cardtask/internal/domain"
)

// GetOrCreateOpenDialog atomically finds the user's open dialog or
// inserts a new one. The partial unique index on (user_id) WHERE
// status='open' makes the upsert safe under concurrent promotions; the
// xmax trick reports whether the row was inserted.
func (q *Queries) GetOrCreateOpenDialog(ctx context.Context, userID int64, displayName string) (*domain.Dialog, bool, error) {
	var (
		d       domain.Dialog
		idStr   string
		created bool
	)
	err := q.db.QueryRow(ctx, `
		INSERT INTO dialogs (id, user_id, display_name, status)
		VALUES ($1, $2, $3, 'open')
		ON CONFLICT (user_id) WHERE status = 'open'
		DO UPDATE SET updated_at = now()
		RETURNING id::text, user_id, display_name, status, created_at, updated_at, (xmax = 0)`,
		uuid.New().String(), userID, displayName,
	).Scan(&idStr, &d.UserID, &d.DisplayName, &d.Status, &d.CreatedAt, &d.UpdatedAt, &created)
	if err != nil {
		return nil, false, fmt.Errorf("get or create open dialog: %w", err)
	}
	d.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, false, fmt.Errorf("parse dialog id: %w", err)
	}
	return &d, created, nil
}

// FindOpenDialog returns the user's open dialog, or nil without error if
// there is none.
func (q *Queries) FindOpenDialog(ctx context.Context, userID int64) (*domain.Dialog, error) {
	d, err := q.scanDialog(q.db.QueryRow(ctx, `
		SELECT id::text, user_id, display_name, status, created_at, updated_at
		FROM dialogs
		WHERE user_id = $1 AND status = 'open'`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (q *Queries) GetDialog(ctx context.Context, id uuid.UUID) (*domain.Dialog, error) {
	d, err := q.scanDialog(q.db.QueryRow(ctx, `
		SELECT id::text, user_id, display_name, status, created_at, updated_at
		FROM dialogs WHERE id = $1`, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDialogNotFound
	}
	return d, err
}

func (q *Queries) ListDialogs(ctx context.Context, limit int) ([]domain.Dialog, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id::text, user_id, display_name, status, created_at, updated_at
		FROM dialogs
		ORDER BY updated_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list dialogs: %w", err)
	}
	defer rows.Close()

	var out []domain.Dialog
	for rows.Next() {
		d, err := q.scanDialog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (q *Queries) AppendDialogMessage(ctx context.Context, m domain.DialogMessage) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		WITH touched AS (
			UPDATE dialogs SET updated_at = now() WHERE id = $1
		)
		INSERT INTO dialog_messages (dialog_id, direction, text, file_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		m.DialogID.String(), m.Direction, m.Text, m.FileID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append dialog message: %w", err)
	}
	return id, nil
}

func (q *Queries) ListDialogMessages(ctx context.Context, dialogID uuid.UUID) ([]domain.DialogMessage, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, dialog_id::text, direction, text, file_id, created_at
		FROM dialog_messages
		WHERE dialog_id = $1
		ORDER BY created_at, id`, dialogID.String())
	if err != nil {
		return nil, fmt.Errorf("list dialog messages: %w", err)
	}
	defer rows.Close()

	var out []domain.DialogMessage
	for rows.Next() {
		var (
			m     domain.DialogMessage
			idStr string
		)
		if err := rows.Scan(&m.ID, &idStr, &m.Direction, &m.Text, &m.FileID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dialog message: %w", err)
		}
		if m.DialogID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("parse dialog id: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (q *Queries) CloseDialog(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE dialogs SET status = 'closed', updated_at = now() WHERE id = $1`,
		id.String())
	if err != nil {
		return fmt.Errorf("close dialog: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDialogNotFound
	}
	return nil
}

// DeleteDialog removes a closed dialog and its messages. Deleting an
// open dialog is a precondition failure, not a no-op.
func (q *Queries) DeleteDialog(ctx context.Context, id uuid.UUID) error {
	var status domain.DialogStatus
	err := q.db.QueryRow(ctx, `SELECT status FROM dialogs WHERE id = $1`, id.String()).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrDialogNotFound
	}
	if err != nil {
		return fmt.Errorf("get dialog status: %w", err)
	}
	if status == domain.DialogOpen {
		return domain.ErrDialogOpen
	}
	// Guard status again in the DELETE so a concurrent reopen loses.
	tag, err := q.db.Exec(ctx, `DELETE FROM dialogs WHERE id = $1 AND status = 'closed'`, id.String())
	if err != nil {
		return fmt.Errorf("delete dialog: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDialogOpen
	}
	return nil
}

func (q *Queries) scanDialog(row pgx.Row) (*domain.Dialog, error) {
	var (
		d     domain.Dialog
		idStr string
	)
	err := row.Scan(&idStr, &d.UserID, &d.DisplayName, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan dialog: %w", err)
	}
	if d.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parse dialog id: %w", err)
	}
	return &d, nil
}
