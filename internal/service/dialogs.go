// Package service holds the operator-side use cases: answering
// questions and reports, running dialogs and broadcasting.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/set-night/cardtask/internal/config"
	"github.com/set-night/cardtask/internal/domain"
	"github.com/set-night/cardtask/internal/telegram"
)

// DialogStore is the registry of dialogs. At most one open dialog exists
// per user; the store enforces that.
type DialogStore interface {
	GetOrCreateOpenDialog(ctx context.Context, userID int64, displayName string) (*domain.Dialog, bool, error)
	GetDialog(ctx context.Context, id uuid.UUID) (*domain.Dialog, error)
	ListDialogs(ctx context.Context, limit int) ([]domain.Dialog, error)
	AppendDialogMessage(ctx context.Context, m domain.DialogMessage) (int64, error)
	ListDialogMessages(ctx context.Context, dialogID uuid.UUID) ([]domain.DialogMessage, error)
	CloseDialog(ctx context.Context, id uuid.UUID) error
	DeleteDialog(ctx context.Context, id uuid.UUID) error
}

// InboxStore holds the records an operator reply consumes.
type InboxStore interface {
	GetQuestion(ctx context.Context, id int64) (*domain.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
	GetReport(ctx context.Context, id int64) (*domain.Report, error)
	DeleteReport(ctx context.Context, id int64) error
	AddAction(ctx context.Context, a domain.Action) error
}

// DialogService promotes questions and reports into dialogs and relays
// operator replies to users.
type DialogService struct {
	dialogs DialogStore
	inbox   InboxStore
	out     telegram.Outbound
}

func NewDialogService(dialogs DialogStore, inbox InboxStore, out telegram.Outbound) *DialogService {
	return &DialogService{dialogs: dialogs, inbox: inbox, out: out}
}

// ReplyToQuestion answers a pending question. The question is promoted
// into the user's open dialog (created if needed), with the original
// question seeded as the first user message, then deleted from the
// inbox. The reply is persisted before delivery is attempted, so a
// delivery failure leaves the dialog consistent.
func (s *DialogService) ReplyToQuestion(ctx context.Context, questionID int64, reply string) (*domain.Dialog, error) {
	q, err := s.inbox.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	d, err := s.promote(ctx, q.UserID, displayName(q.Username, q.UserID), q.Message, q.FileID, reply)
	if err != nil {
		return nil, err
	}
	if err := s.inbox.DeleteQuestion(ctx, questionID); err != nil {
		return nil, fmt.Errorf("delete question: %w", err)
	}
	s.logAction(ctx, q.UserID, "question_answered", map[string]any{
		"question_id": questionID,
		"dialog_id":   d.ID.String(),
	})

	return d, s.deliver(ctx, q.UserID, reply)
}

// ReplyToReport answers a pending report the same way ReplyToQuestion
// answers a question.
func (s *DialogService) ReplyToReport(ctx context.Context, reportID int64, reply string) (*domain.Dialog, error) {
	r, err := s.inbox.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	d, err := s.promote(ctx, r.UserID, displayName(r.Username, r.UserID), r.Message, r.FileID, reply)
	if err != nil {
		return nil, err
	}
	if err := s.inbox.DeleteReport(ctx, reportID); err != nil {
		return nil, fmt.Errorf("delete report: %w", err)
	}
	s.logAction(ctx, r.UserID, "report_answered", map[string]any{
		"report_id": reportID,
		"dialog_id": d.ID.String(),
	})

	return d, s.deliver(ctx, r.UserID, reply)
}

// RejectQuestion drops a question without a reply and without opening a
// dialog.
func (s *DialogService) RejectQuestion(ctx context.Context, questionID int64) error {
	q, err := s.inbox.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if err := s.inbox.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}
	s.logAction(ctx, q.UserID, "question_rejected", map[string]any{"question_id": questionID})
	return nil
}

// RejectReport drops a report without a reply.
func (s *DialogService) RejectReport(ctx context.Context, reportID int64) error {
	r, err := s.inbox.GetReport(ctx, reportID)
	if err != nil {
		return err
	}
	if err := s.inbox.DeleteReport(ctx, reportID); err != nil {
		return err
	}
	s.logAction(ctx, r.UserID, "report_rejected", map[string]any{"report_id": reportID})
	return nil
}

// Reply appends an operator message to an existing open dialog and
// delivers it to the user.
func (s *DialogService) Reply(ctx context.Context, dialogID uuid.UUID, reply string) error {
	d, err := s.dialogs.GetDialog(ctx, dialogID)
	if err != nil {
		return err
	}
	if d.Status != domain.DialogOpen {
		return fmt.Errorf("%w: dialog is closed", domain.ErrValidationRejected)
	}

	_, err = s.dialogs.AppendDialogMessage(ctx, domain.DialogMessage{
		DialogID:  d.ID,
		Direction: domain.DirectionOperator,
		Text:      reply,
	})
	if err != nil {
		return fmt.Errorf("append operator message: %w", err)
	}
	return s.deliver(ctx, d.UserID, reply)
}

// Close marks a dialog closed. Closing an already closed dialog is a
// no-op.
func (s *DialogService) Close(ctx context.Context, dialogID uuid.UUID) error {
	return s.dialogs.CloseDialog(ctx, dialogID)
}

// Delete removes a dialog and its history. Only closed dialogs can be
// deleted.
func (s *DialogService) Delete(ctx context.Context, dialogID uuid.UUID) error {
	return s.dialogs.DeleteDialog(ctx, dialogID)
}

func (s *DialogService) List(ctx context.Context, limit int) ([]domain.Dialog, error) {
	return s.dialogs.ListDialogs(ctx, limit)
}

func (s *DialogService) Get(ctx context.Context, dialogID uuid.UUID) (*domain.Dialog, error) {
	return s.dialogs.GetDialog(ctx, dialogID)
}

func (s *DialogService) Messages(ctx context.Context, dialogID uuid.UUID) ([]domain.DialogMessage, error) {
	if _, err := s.dialogs.GetDialog(ctx, dialogID); err != nil {
		return nil, err
	}
	return s.dialogs.ListDialogMessages(ctx, dialogID)
}

// promote finds or creates the open dialog for a user and appends the
// operator reply. For a freshly created dialog the original inbox
// message is seeded first, so the thread reads in order.
func (s *DialogService) promote(ctx context.Context, userID int64, name, original string, originalFile *string, reply string) (*domain.Dialog, error) {
	d, created, err := s.dialogs.GetOrCreateOpenDialog(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("open dialog: %w", err)
	}

	if created {
		_, err = s.dialogs.AppendDialogMessage(ctx, domain.DialogMessage{
			DialogID:  d.ID,
			Direction: domain.DirectionUser,
			Text:      original,
			FileID:    originalFile,
		})
		if err != nil {
			return nil, fmt.Errorf("seed dialog: %w", err)
		}
	}

	_, err = s.dialogs.AppendDialogMessage(ctx, domain.DialogMessage{
		DialogID:  d.ID,
		Direction: domain.DirectionOperator,
		Text:      reply,
	})
	if err != nil {
		return nil, fmt.Errorf("append operator message: %w", err)
	}
	return d, nil
}

func (s *DialogService) deliver(ctx context.Context, userID int64, text string) error {
	ctx, cancel := context.WithTimeout(ctx, config.DeliveryTimeout)
	defer cancel()
	_, err := s.out.SendText(ctx, userID, "💬 Ответ оператора:\n\n"+text, nil)
	return err
}

func (s *DialogService) logAction(ctx context.Context, userID int64, action string, details map[string]any) {
	err := s.inbox.AddAction(ctx, domain.Action{
		UserID:  &userID,
		Action:  action,
		Details: details,
	})
	if err != nil {
		slog.Error("log action", "action", action, "error", err)
	}
}

func displayName(username string, userID int64) string {
	if username != "" {
		return "@" + username
	}
	return fmt.Sprintf("id%d", userID)
}
