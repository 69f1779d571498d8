// Package engine implements the conversation state machine: which input
// is expected from each user and which surface answers it.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/set-night/cardtask/internal/config"
	"github.com/set-night/cardtask/internal/domain"
	"github.com/set-night/cardtask/internal/session"
)

// Records is the append-only store for the records the flow produces.
type Records interface {
	AddSubmission(ctx context.Context, s domain.Submission) (int64, error)
	AddQuestion(ctx context.Context, q domain.Question) (int64, error)
	AddReport(ctx context.Context, r domain.Report) (int64, error)
	AddAction(ctx context.Context, a domain.Action) error
	ListUserSubmissions(ctx context.Context, userID int64, limit int) ([]domain.Submission, error)
	ListActions(ctx context.Context, limit int) ([]domain.Action, error)
}

// Dialogs is the engine's view of the dialog registry: it only ever
// appends user messages into an already open dialog.
type Dialogs interface {
	FindOpenDialog(ctx context.Context, userID int64) (*domain.Dialog, error)
	AppendDialogMessage(ctx context.Context, m domain.DialogMessage) (int64, error)
}

// Notifier mirrors new records into the operator chat. May be nil.
type Notifier interface {
	NotifySubmission(userID int64, username, bank string)
	NotifyQuestion(userID int64, username, text string)
	NotifyReport(userID int64, username, text string)
}

type Engine struct {
	sessions *session.Store
	menu     *Renderer
	records  Records
	dialogs  Dialogs
	notifier Notifier
	cfg      *config.Config
}

func New(sessions *session.Store, menu *Renderer, records Records, dialogs Dialogs, notifier Notifier, cfg *config.Config) *Engine {
	return &Engine{
		sessions: sessions,
		menu:     menu,
		records:  records,
		dialogs:  dialogs,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Transition consumes one inbound event for one user. Events for the
// same user are serialized here; different users proceed in parallel.
// State changes commit before any send, so a failed delivery never rolls
// a transition back.
func (e *Engine) Transition(ctx context.Context, u User, ev Event) error {
	unlock := e.sessions.LockUser(u.ID)
	defer unlock()

	switch ev := ev.(type) {
	case Command:
		return e.handleCommand(ctx, u, ev)
	case ButtonPress:
		return e.handleIntent(ctx, u, ev.Intent)
	case TextMessage:
		return e.handleText(ctx, u, ev.Body)
	case Attachment:
		return e.handleAttachment(ctx, u, ev)
	}
	return nil
}

func (e *Engine) handleCommand(ctx context.Context, u User, cmd Command) error {
	switch cmd.Name {
	case "start":
		e.logAction(ctx, u, "start", nil)
		e.render(ctx, u.ID, startSurface(e.cfg.StartPhotoFileID))

	case "help":
		e.send(ctx, u.ID, "Доступные команды:\n"+
			"/submit — отправить новую заявку\n"+
			"/my — посмотреть последние отправленные заявки\n"+
			"/actions — последние события (для админов)", nil)

	case "submit":
		sess := e.sessions.Get(u.ID)
		sess.State = domain.StateAwaitingBank
		e.sessions.Save(sess)
		e.send(ctx, u.ID, "Укажи название банка, по которому хочешь оставить реферальную заявку:", nil)

	case "my":
		subs, err := e.records.ListUserSubmissions(ctx, u.ID, config.MySubmissionsLimit)
		if err != nil {
			return fmt.Errorf("list user submissions: %w", err)
		}
		if len(subs) == 0 {
			e.send(ctx, u.ID, "У тебя пока нет заявок. Попробуй команду /submit.", nil)
			return nil
		}
		lines := make([]string, len(subs))
		for i, s := range subs {
			lines[i] = fmt.Sprintf("#%d • %s • статус: %s • отправлено %s",
				s.ID, s.Bank, s.Status, s.CreatedAt.Format("2006-01-02 15:04"))
		}
		e.send(ctx, u.ID, strings.Join(lines, "\n"), nil)

	case "actions":
		if !e.cfg.IsAdmin(u.ID) {
			e.send(ctx, u.ID, "Недостаточно прав.", nil)
			return nil
		}
		actions, err := e.records.ListActions(ctx, config.ActionsLimit)
		if err != nil {
			return fmt.Errorf("list actions: %w", err)
		}
		if len(actions) == 0 {
			e.send(ctx, u.ID, "Событий пока нет.", nil)
			return nil
		}
		lines := make([]string, len(actions))
		for i, a := range actions {
			uid := int64(0)
			if a.UserID != nil {
				uid = *a.UserID
			}
			lines[i] = fmt.Sprintf("%s • %s • user:%d • details:%v",
				a.CreatedAt.Format("2006-01-02 15:04"), a.Action, uid, a.Details)
		}
		e.send(ctx, u.ID, strings.Join(lines, "\n"), nil)
	}
	return nil
}

func (e *Engine) handleIntent(ctx context.Context, u User, intent domain.Intent) error {
	switch intent.Kind {
	case domain.IntentProceed:
		sess := e.sessions.SoftClear(u.ID)
		e.logAction(ctx, u, "start_earn", nil)
		if sess.PreferredAge != "" {
			e.render(ctx, u.ID, offersSurface(sess.PreferredAge))
		} else {
			e.render(ctx, u.ID, ageSurface())
		}

	case domain.IntentExplain:
		e.sessions.SoftClear(u.ID)
		e.send(ctx, u.ID, stepText, nil)
		e.send(ctx, u.ID, whyText, nil)
		e.send(ctx, u.ID, "👉Сделай шаг — и заработай.", actionsKeyboard())

	case domain.IntentSelectAge, domain.IntentSwitchAge:
		sess := e.sessions.Get(u.ID)
		sess.State = domain.StateIdle
		sess.PreferredAge = intent.Age
		e.sessions.Save(sess)
		e.logAction(ctx, u, "age_selected", map[string]any{"age": string(intent.Age)})
		e.render(ctx, u.ID, offersSurface(intent.Age))

	case domain.IntentSelectOffer:
		return e.selectOffer(ctx, u, intent.Offer)

	case domain.IntentStartTask:
		offer, ok := domain.OfferByLabel(intent.Offer)
		if !ok || offer.Kind != domain.OfferSpecial {
			return nil
		}
		e.render(ctx, u.ID, instructionSurface(offer))

	case domain.IntentCardOrdered:
		e.render(ctx, u.ID, Surface{
			Text:    "✅После получения карты, нажмите кнопку \"Получил карту\" в главном меню, и мы с вами свяжемся!",
			Markup:  mainMenuKeyboard(),
			Tracked: true,
		})

	case domain.IntentRefuseTask, domain.IntentBackToOffers:
		e.showOffersOrAge(ctx, u.ID)

	case domain.IntentAsk, domain.IntentStartSupport:
		sess := e.sessions.Get(u.ID)
		sess.State = domain.StateAwaitingQuestion
		e.sessions.Save(sess)
		e.logAction(ctx, u, "ask_question_start", nil)
		e.render(ctx, u.ID, questionPromptSurface())

	case domain.IntentCancelAsk, domain.IntentCancelReport:
		sess := e.sessions.SoftClear(u.ID)
		if sess.PreferredAge != "" {
			e.render(ctx, u.ID, offersSurface(sess.PreferredAge))
		} else {
			e.render(ctx, u.ID, mainMenuSurface())
		}

	case domain.IntentMenuSupport:
		e.sessions.SoftClear(u.ID)
		e.logAction(ctx, u, "support_open", nil)
		e.send(ctx, u.ID, "Техподдержка. Нажми «✉️ Написать сообщение», затем отправь текст или файл. Можно отменить.", startSupportKeyboard())

	case domain.IntentMenuReport:
		e.sessions.SoftClear(u.ID)
		e.logAction(ctx, u, "report_card", nil)
		e.send(ctx, u.ID, reportIntroText, startReportKeyboard())

	case domain.IntentStartReport:
		sess := e.sessions.Get(u.ID)
		sess.State = domain.StateAwaitingReport
		e.sessions.Save(sess)
		e.render(ctx, u.ID, reportPromptSurface())

	case domain.IntentGoMain:
		e.sessions.SoftClear(u.ID)
		e.render(ctx, u.ID, mainMenuSurface())

	case domain.IntentMenuTasks:
		sess := e.sessions.Get(u.ID)
		sess.State = domain.StateIdle
		e.sessions.Save(sess)
		e.logAction(ctx, u, "start_earn", nil)
		e.showOffersOrAge(ctx, u.ID)

	case domain.IntentMenuProfile:
		lines := []string{"Профиль", fmt.Sprintf("ID: %d", u.ID)}
		if u.Username != "" {
			lines = append(lines, "Username: @"+u.Username)
		}
		e.send(ctx, u.ID, strings.Join(lines, "\n"), backToMainKeyboard())

	case domain.IntentMenuReferral:
		e.logAction(ctx, u, "referral_open", nil)
		e.send(ctx, u.ID, "Реферальная программа: приглашай друзей, они оформляют задания — получаешь % от их вознаграждения. "+
			"Скоро добавим персональные ссылки и учет начислений.", backToMainKeyboard())

	case domain.IntentMenuReviews:
		e.send(ctx, u.ID, "⭐ Отзывы: скоро добавим витрину отзывов. Пока можешь написать вопрос в поддержку.", backToMainKeyboard())

	case domain.IntentEmoji:
		e.logAction(ctx, u, "emoji_clicked", nil)
		e.send(ctx, u.ID, "Выбери возраст и задание.", ageKeyboard())

	case domain.IntentOtherTasks:
		e.send(ctx, u.ID, "Скоро добавим новые задания. Пока выбери из доступных или задай вопрос.", nil)
	}
	return nil
}

func (e *Engine) selectOffer(ctx context.Context, u User, label string) error {
	offer, ok := domain.OfferByLabel(label)
	if !ok {
		// Stale button from an old catalog: show the list again.
		e.showOffersOrAge(ctx, u.ID)
		return nil
	}

	if offer.Kind == domain.OfferSpecial {
		e.render(ctx, u.ID, specialOfferSurface(offer))
		return nil
	}

	sess := e.sessions.Get(u.ID)
	sess.State = domain.StateAwaitingComment
	sess.Bank = offer.Label
	e.sessions.Save(sess)
	e.logAction(ctx, u, "bank_selected", map[string]any{"bank": offer.Label})
	e.render(ctx, u.ID, commentPromptSurface())
	return nil
}

func (e *Engine) handleText(ctx context.Context, u User, body string) error {
	sess := e.sessions.Get(u.ID)
	text := strings.TrimSpace(body)

	switch sess.State {
	case domain.StateAwaitingBank:
		if text == "" {
			e.send(ctx, u.ID, "Напиши название банка текстом.", nil)
			return nil
		}
		sess.State = domain.StateAwaitingComment
		sess.Bank = text
		e.sessions.Save(sess)
		e.render(ctx, u.ID, commentPromptSurface())

	case domain.StateAwaitingComment:
		if text == "" {
			e.send(ctx, u.ID, "Добавь комментарий или отправь '-' чтобы пропустить.", nil)
			return nil
		}
		if text == config.CommentSkipSentinel {
			sess.Comment = nil
		} else {
			sess.Comment = &text
		}
		sess.State = domain.StateAwaitingEvidence
		e.sessions.Save(sess)
		e.render(ctx, u.ID, evidencePromptSurface())

	case domain.StateAwaitingEvidence:
		if !isEvidenceSkip(text) {
			// Rejected: no state change, no record, just a reprompt.
			e.send(ctx, u.ID, "Нужно отправить фото/файл или написать 'нет'. Попробуй снова.", nil)
			return nil
		}
		return e.persistSubmission(ctx, u, sess, nil)

	case domain.StateAwaitingQuestion:
		if text == "" {
			e.send(ctx, u.ID, "Отправь текст или прикрепи файл/фото.", nil)
			return nil
		}
		return e.persistQuestion(ctx, u, text, nil)

	case domain.StateAwaitingReport:
		if text == "" {
			e.send(ctx, u.ID, "Отправь текст или прикрепи файл/фото.", nil)
			return nil
		}
		return e.persistReport(ctx, u, text, nil)

	default:
		return e.relayToDialog(ctx, u, text, nil)
	}
	return nil
}

func (e *Engine) handleAttachment(ctx context.Context, u User, att Attachment) error {
	sess := e.sessions.Get(u.ID)
	fileID := att.FileID
	caption := strings.TrimSpace(att.Caption)

	switch sess.State {
	case domain.StateAwaitingBank, domain.StateAwaitingComment:
		e.send(ctx, u.ID, "Отправь текстом, пожалуйста.", nil)
		return nil
	case domain.StateAwaitingEvidence:
		return e.persistSubmission(ctx, u, sess, &fileID)
	case domain.StateAwaitingQuestion:
		return e.persistQuestion(ctx, u, caption, &fileID)
	case domain.StateAwaitingReport:
		return e.persistReport(ctx, u, caption, &fileID)
	default:
		return e.relayToDialog(ctx, u, caption, &fileID)
	}
}

func (e *Engine) persistSubmission(ctx context.Context, u User, sess domain.Session, fileID *string) error {
	sub := domain.Submission{
		UserID:   u.ID,
		Username: u.Username,
		Bank:     sess.Bank,
		Comment:  sess.Comment,
		FileID:   fileID,
	}
	id, err := e.records.AddSubmission(ctx, sub)
	if err != nil {
		return fmt.Errorf("add submission: %w", err)
	}
	e.logAction(ctx, u, "submission_created", map[string]any{"submission_id": id, "bank": sub.Bank})
	if e.notifier != nil {
		e.notifier.NotifySubmission(u.ID, u.Username, sub.Bank)
	}

	e.sessions.SoftClear(u.ID)
	e.send(ctx, u.ID, "Заявка отправлена! Мы свяжемся с тобой после проверки.\nПосмотреть последние заявки: /my", nil)
	return nil
}

func (e *Engine) persistQuestion(ctx context.Context, u User, text string, fileID *string) error {
	if text == "" && fileID == nil {
		e.send(ctx, u.ID, "Отправь текст или прикрепи файл/фото.", nil)
		return nil
	}
	_, err := e.records.AddQuestion(ctx, domain.Question{
		UserID:   u.ID,
		Username: u.Username,
		Message:  text,
		FileID:   fileID,
	})
	if err != nil {
		return fmt.Errorf("add question: %w", err)
	}
	e.logAction(ctx, u, "question_submitted", map[string]any{"has_file": fileID != nil})
	if e.notifier != nil {
		e.notifier.NotifyQuestion(u.ID, u.Username, text)
	}

	e.sessions.SoftClear(u.ID)
	e.send(ctx, u.ID, "Вопрос сохранен, админ скоро ответит.", afterSendKeyboard())
	return nil
}

func (e *Engine) persistReport(ctx context.Context, u User, text string, fileID *string) error {
	if text == "" && fileID == nil {
		e.send(ctx, u.ID, "Отправь текст или прикрепи файл/фото.", nil)
		return nil
	}
	_, err := e.records.AddReport(ctx, domain.Report{
		UserID:   u.ID,
		Username: u.Username,
		Message:  text,
		FileID:   fileID,
	})
	if err != nil {
		return fmt.Errorf("add report: %w", err)
	}
	e.logAction(ctx, u, "report_submitted", map[string]any{"has_file": fileID != nil})
	if e.notifier != nil {
		e.notifier.NotifyReport(u.ID, u.Username, text)
	}

	e.sessions.SoftClear(u.ID)
	e.send(ctx, u.ID, "Отчет принят, спасибо! Админ проверит и свяжется.", afterSendKeyboard())
	return nil
}

// relayToDialog appends free-form input from an Idle user into their
// open dialog, if one exists. Input from users without an open dialog is
// dropped.
func (e *Engine) relayToDialog(ctx context.Context, u User, text string, fileID *string) error {
	if text == "" && fileID == nil {
		return nil
	}
	d, err := e.dialogs.FindOpenDialog(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("find open dialog: %w", err)
	}
	if d == nil {
		return nil
	}

	_, err = e.dialogs.AppendDialogMessage(ctx, domain.DialogMessage{
		DialogID:  d.ID,
		Direction: domain.DirectionUser,
		Text:      text,
		FileID:    fileID,
	})
	if err != nil {
		return fmt.Errorf("append dialog message: %w", err)
	}
	e.logAction(ctx, u, "dialog_user_message", map[string]any{"dialog_id": d.ID.String()})
	e.send(ctx, u.ID, "💬 Сообщение передано оператору.", nil)
	return nil
}

func (e *Engine) showOffersOrAge(ctx context.Context, userID int64) {
	sess := e.sessions.Get(userID)
	if sess.PreferredAge != "" {
		e.render(ctx, userID, offersSurface(sess.PreferredAge))
	} else {
		e.render(ctx, userID, ageSurface())
	}
}

// render shows a surface, treating delivery failure as non-fatal: the
// transition has already committed.
func (e *Engine) render(ctx context.Context, userID int64, s Surface) {
	if err := e.menu.Render(ctx, userID, s); err != nil {
		slog.Warn("render surface", "user_id", userID, "error", err)
	}
}

// send delivers an untracked confirmation.
func (e *Engine) send(ctx context.Context, userID int64, text string, markup models.ReplyMarkup) {
	e.render(ctx, userID, Surface{Text: text, Markup: markup})
}

func (e *Engine) logAction(ctx context.Context, u User, action string, details map[string]any) {
	uid := u.ID
	err := e.records.AddAction(ctx, domain.Action{
		UserID:   &uid,
		Username: u.Username,
		Action:   action,
		Details:  details,
	})
	if err != nil {
		slog.Error("log action", "action", action, "user_id", u.ID, "error", err)
	}
}

func isEvidenceSkip(text string) bool {
	lowered := strings.ToLower(text)
	for _, s := range config.EvidenceSkipSentinels {
		if lowered == s {
			return true
		}
	}
	return false
}
