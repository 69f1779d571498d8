package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/cardtask/internal/config"
	"github.com/set-night/cardtask/internal/domain"
	"github.com/set-night/cardtask/internal/session"
)

type sentMessage struct {
	chatID int64
	text   string
	photo  string
	markup models.ReplyMarkup
}

type fakeOutbound struct {
	sent    []sentMessage
	deleted []int
	nextID  int
	failAll bool
}

func (f *fakeOutbound) send(chatID int64, text, photo string, markup models.ReplyMarkup) (int, error) {
	if f.failAll {
		return 0, fmt.Errorf("%w: chat blocked", domain.ErrDeliveryFailed)
	}
	f.nextID++
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, photo: photo, markup: markup})
	return f.nextID, nil
}

func (f *fakeOutbound) SendText(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) (int, error) {
	return f.send(chatID, text, "", markup)
}

func (f *fakeOutbound) SendPhoto(ctx context.Context, chatID int64, fileID, caption string, markup models.ReplyMarkup) (int, error) {
	return f.send(chatID, caption, fileID, markup)
}

func (f *fakeOutbound) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeOutbound) lastText() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].text
}

type fakeRecords struct {
	submissions []domain.Submission
	questions   []domain.Question
	reports     []domain.Report
	actions     []domain.Action
}

func (f *fakeRecords) AddSubmission(ctx context.Context, s domain.Submission) (int64, error) {
	s.ID = int64(len(f.submissions) + 1)
	f.submissions = append(f.submissions, s)
	return s.ID, nil
}

func (f *fakeRecords) AddQuestion(ctx context.Context, q domain.Question) (int64, error) {
	q.ID = int64(len(f.questions) + 1)
	f.questions = append(f.questions, q)
	return q.ID, nil
}

func (f *fakeRecords) AddReport(ctx context.Context, r domain.Report) (int64, error) {
	r.ID = int64(len(f.reports) + 1)
	f.reports = append(f.reports, r)
	return r.ID, nil
}

func (f *fakeRecords) AddAction(ctx context.Context, a domain.Action) error {
	f.actions = append(f.actions, a)
	return nil
}

func (f *fakeRecords) ListUserSubmissions(ctx context.Context, userID int64, limit int) ([]domain.Submission, error) {
	var out []domain.Submission
	for _, s := range f.submissions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRecords) ListActions(ctx context.Context, limit int) ([]domain.Action, error) {
	return f.actions, nil
}

func (f *fakeRecords) actionNames() []string {
	names := make([]string, len(f.actions))
	for i, a := range f.actions {
		names[i] = a.Action
	}
	return names
}

type fakeDialogs struct {
	open     map[int64]*domain.Dialog
	messages []domain.DialogMessage
}

func (f *fakeDialogs) FindOpenDialog(ctx context.Context, userID int64) (*domain.Dialog, error) {
	if f.open == nil {
		return nil, nil
	}
	return f.open[userID], nil
}

func (f *fakeDialogs) AppendDialogMessage(ctx context.Context, m domain.DialogMessage) (int64, error) {
	f.messages = append(f.messages, m)
	return int64(len(f.messages)), nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeOutbound, *fakeRecords, *fakeDialogs, *session.Store) {
	t.Helper()
	out := &fakeOutbound{}
	records := &fakeRecords{}
	dialogs := &fakeDialogs{}
	sessions := session.New()
	cfg := &config.Config{AdminIDs: []int64{900}}
	eng := New(sessions, NewRenderer(out, sessions), records, dialogs, nil, cfg)
	return eng, out, records, dialogs, sessions
}

var alice = User{ID: 1, Username: "alice", FirstName: "Alice"}

func press(kind domain.IntentKind) ButtonPress {
	return ButtonPress{Intent: domain.Intent{Kind: kind}}
}

func TestFullSubmissionFlow(t *testing.T) {
	eng, out, records, _, sessions := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Transition(ctx, alice, Command{Name: "start"}))
	require.NoError(t, eng.Transition(ctx, alice, press(domain.IntentProceed)))
	require.NoError(t, eng.Transition(ctx, alice, ButtonPress{
		Intent: domain.Intent{Kind: domain.IntentSelectAge, Age: domain.Age18Plus},
	}))
	require.NoError(t, eng.Transition(ctx, alice, ButtonPress{
		Intent: domain.Intent{Kind: domain.IntentSelectOffer, Offer: domain.OfferLabelMTS},
	}))

	sess := sessions.Get(alice.ID)
	assert.Equal(t, domain.StateAwaitingComment, sess.State)
	assert.Equal(t, domain.OfferLabelMTS, sess.Bank)

	require.NoError(t, eng.Transition(ctx, alice, TextMessage{Body: "готов в будни"}))
	assert.Equal(t, domain.StateAwaitingEvidence, sessions.Get(alice.ID).State)

	require.NoError(t, eng.Transition(ctx, alice, TextMessage{Body: "нет"}))

	require.Len(t, records.submissions, 1)
	sub := records.submissions[0]
	assert.Equal(t, alice.ID, sub.UserID)
	assert.Equal(t, domain.OfferLabelMTS, sub.Bank)
	require.NotNil(t, sub.Comment)
	assert.Equal(t, "готов в будни", *sub.Comment)
	assert.Nil(t, sub.FileID)

	sess = sessions.Get(alice.ID)
	assert.Equal(t, domain.StateIdle, sess.State)
	assert.Equal(t, domain.Age18Plus, sess.PreferredAge, "age survives completion")
	assert.Contains(t, out.lastText(), "Заявка отправлена")
	assert.Contains(t, records.actionNames(), "submission_created")
}

func TestCommentSkipSentinel(t *testing.T) {
	eng, _, records, _, sessions := newTestEngine(t)
	ctx := context.Background()

	sess := sessions.Get(alice.ID)
	sess.State = domain.StateAwaitingComment
	sess.Bank = domain.OfferLabelMTS
	sessions.Save(sess)

	require.NoError(t, eng.Transition(ctx, alice, TextMessage{Body: "-"}))
	require.NoError(t, eng.Transition(ctx, alice, TextMessage{Body: "no"}))

	require.Len(t, records.submissions, 1)
	assert.Nil(t, records.submissions[0].Comment)
}

func TestEvidenceAttachment(t *testing.T) {
	eng, _, records, _, sessions := newTestEngine(t)
	ctx := context.Background()

	sess := sessions.Get(alice.ID)
	sess.State = domain.StateAwaitingEvidence
	sess.Bank = domain.OfferLabelMTS
	sessions.Save(sess)

	require.NoError(t, eng.Transition(ctx, alice, Attachment{FileID: "file-123"}))

	require.Len(t, records.submissions, 1)
	require.NotNil(t, records.submissions[0].FileID)
	assert.Equal(t, "file-123", *records.submissions[0].FileID)
}

func TestEvidenceRejectsPlainText(t *testing.T) {
	eng, out, records, _, sessions := newTestEngine(t)
	ctx := context.Background()

	sess := sessions.Get(alice.ID)
	sess.State = domain.StateAwaitingEvidence
	sess.Bank = domain.OfferLabelMTS
	sessions.Save(sess)

	require.NoError(t, eng.Transition(ctx, alice, TextMessage{Body: "вот подтверждение"}))

	assert.Empty(t, records.submissions, "no record on rejected input")
	assert.Equal(t, domain.StateAwaitingEvidence, sessions.Get(alice.ID).State, "state unchanged")
	assert.Contains(t, out.lastText(), "Попробуй снова")
}

func TestQuestionRoundTrip(t *testing.T) {
	eng, out, records, _, sessions := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Transition(ctx, alice, press(domain.IntentAsk)))
	assert.Equal(t, domain.StateAwaitingQuestion, sessions.Get(alice.ID).State)

	require.NoError(t, eng.Transition(ctx, alice, TextMessage{Body: "Когда выплата?"}))

	require.Len(t, records.questions, 1)
	assert.Equal(t, "Когда выплата?", records.questions[0].Message)
	assert.Equal(t, domain.StateIdle, sessions.Get(alice.ID).State)
	assert.Contains(t, out.lastText(), "Вопрос сохранен")
}

func TestQuestionRejectsEmptyText(t *testing.T) {
	eng, _, records, _, sessions := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Transition(ctx, alice, press(domain.IntentAsk)))
	require.NoError(t, eng.Transition(ctx, alice, TextMessage{Body: "   "}))

	assert.Empty(t, records.questions)
	assert.Equal(t, domain.StateAwaitingQuestion, sessions.Get(alice.ID).State)
}

func TestCancelQuestionReturnsToOffers(t *testing.T) {
	eng, _, records, _, sessions := newTestEngine(t)
	ctx := context.Background()

	sess := sessions.Get(alice.ID)
	sess.PreferredAge = domain.Age14Plus
	sessions.Save(sess)

	require.NoError(t, eng.Transition(ctx, alice, press(domain.IntentAsk)))
	require.NoError(t, eng.Transition(ctx, alice, press(domain.IntentCancelAsk)))

	assert.Empty(t, records.questions)
	sess = sessions.Get(alice.ID)
	assert.Equal(t, domain.StateIdle, sess.State)
	assert.Equal(t, domain.Age14Plus, sess.PreferredAge)
}

func TestReportFlow(t *testing.T) {
	eng, _, records, _, sessions := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Transition(ctx, alice, press(domain.IntentMenuReport)))
	require.NoError(t, eng.Transition(ctx, alice, press(domain.IntentStartReport)))
	assert.Equal(t, domain.StateAwaitingReport, sessions.Get(alice.ID).State)

	require.NoError(t, eng.Transition(ctx, alice, Attachment{FileID: "shot-1", Caption: "Т-Банк, +7900"}))

	require.Len(t, records.reports, 1)
	assert.Equal(t, "Т-Банк, +7900", records.reports[0].Message)
	require.NotNil(t, records.reports[0].FileID)
	assert.Equal(t, "shot-1", *records.reports[0].FileID)
}

func TestSpecialOfferShowsInstruction(t *testing.T) {
	eng, out, records, _, sessions := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Transition(ctx, alice, ButtonPress{
		Intent: domain.Intent{Kind: domain.IntentSelectOffer, Offer: domain.OfferLabelTBank},
	}))
	assert.Equal(t, domain.StateIdle, sessions.Get(alice.ID).State, "special offers bypass the wizard")
	assert.Empty(t, records.submissions)

	require.NoError(t, eng.Transition(ctx, alice, ButtonPress{
		Intent: domain.Intent{Kind: domain.IntentStartTask, Offer: domain.OfferLabelTBank},
	}))
	assert.Contains(t, out.lastText(), "Шаг 1")
}

func TestOffersListPayoutAmounts(t *testing.T) {
	eng, out, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Transition(ctx, alice, ButtonPress{
		Intent: domain.Intent{Kind: domain.IntentSelectAge, Age: domain.Age18Plus},
	}))

	text := out.lastText()
	for _, offer := range domain.OffersForAge(domain.Age18Plus) {
		assert.Contains(t, text, offer.Payout.StringFixed(0)+" ₽")
	}
}

func TestSpecialOfferShowsPayout(t *testing.T) {
	eng, out, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Transition(ctx, alice, ButtonPress{
		Intent: domain.Intent{Kind: domain.IntentSelectOffer, Offer: domain.OfferLabelTBank},
	}))

	assert.Contains(t, out.lastText(), "Выплата: 3000 ₽")
}

func TestProceedLogsStartEarn(t *testing.T) {
	eng, _, records, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Transition(ctx, alice, press(domain.IntentProceed)))

	assert.Contains(t, records.actionNames(), "start_earn")
}

func TestSingleVisibleMenu(t *testing.T) {
	eng, out, _, _, sessions := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Transition(ctx, alice, Command{Name: "start"}))
	firstMenu := sessions.Get(alice.ID).ActiveMenuID
	require.NotZero(t, firstMenu)

	require.NoError(t, eng.Transition(ctx, alice, press(domain.IntentProceed)))

	assert.Contains(t, out.deleted, firstMenu, "previous menu is deleted")
	assert.NotEqual(t, firstMenu, sessions.Get(alice.ID).ActiveMenuID)
}

func TestDeliveryFailureCommitsState(t *testing.T) {
	eng, out, _, _, sessions := newTestEngine(t)
	ctx := context.Background()
	out.failAll = true

	require.NoError(t, eng.Transition(ctx, alice, ButtonPress{
		Intent: domain.Intent{Kind: domain.IntentSelectOffer, Offer: domain.OfferLabelMTS},
	}))

	sess := sessions.Get(alice.ID)
	assert.Equal(t, domain.StateAwaitingComment, sess.State, "state commits even when the prompt is undeliverable")
	assert.Equal(t, domain.OfferLabelMTS, sess.Bank)
}

func TestIdleTextRelaysToOpenDialog(t *testing.T) {
	eng, out, _, dialogs, _ := newTestEngine(t)
	ctx := context.Background()

	dialogs.open = map[int64]*domain.Dialog{
		alice.ID: {ID: uuid.New(), UserID: alice.ID, Status: domain.DialogOpen},
	}

	require.NoError(t, eng.Transition(ctx, alice, TextMessage{Body: "спасибо, получил"}))

	require.Len(t, dialogs.messages, 1)
	assert.Equal(t, domain.DirectionUser, dialogs.messages[0].Direction)
	assert.Equal(t, "спасибо, получил", dialogs.messages[0].Text)
	assert.Contains(t, out.lastText(), "передано оператору")
}

func TestIdleTextWithoutDialogIsDropped(t *testing.T) {
	eng, out, _, dialogs, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Transition(ctx, alice, TextMessage{Body: "привет"}))

	assert.Empty(t, dialogs.messages)
	assert.Empty(t, out.sent)
}

func TestSwitchAgeRebuildsOffers(t *testing.T) {
	eng, out, _, _, sessions := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Transition(ctx, alice, ButtonPress{
		Intent: domain.Intent{Kind: domain.IntentSelectAge, Age: domain.Age14Plus},
	}))
	require.NoError(t, eng.Transition(ctx, alice, ButtonPress{
		Intent: domain.Intent{Kind: domain.IntentSwitchAge, Age: domain.Age18Plus},
	}))

	assert.Equal(t, domain.Age18Plus, sessions.Get(alice.ID).PreferredAge)
	assert.Contains(t, out.lastText(), "18+")
}

func TestActionsCommandRequiresAdmin(t *testing.T) {
	eng, out, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Transition(ctx, alice, Command{Name: "actions"}))
	assert.Contains(t, out.lastText(), "Недостаточно прав")

	admin := User{ID: 900, Username: "op"}
	require.NoError(t, eng.Transition(ctx, admin, Command{Name: "actions"}))
	assert.Contains(t, out.lastText(), "Событий пока нет")
}

func TestMyCommand(t *testing.T) {
	eng, out, records, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Transition(ctx, alice, Command{Name: "my"}))
	assert.Contains(t, out.lastText(), "нет заявок")

	_, err := records.AddSubmission(ctx, domain.Submission{
		UserID: alice.ID,
		Bank:   domain.OfferLabelMTS,
		Status: domain.SubmissionPending,
	})
	require.NoError(t, err)

	require.NoError(t, eng.Transition(ctx, alice, Command{Name: "my"}))
	assert.Contains(t, out.lastText(), domain.OfferLabelMTS)
}

func TestSubmitCommandEntersBankState(t *testing.T) {
	eng, _, records, _, sessions := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Transition(ctx, alice, Command{Name: "submit"}))
	assert.Equal(t, domain.StateAwaitingBank, sessions.Get(alice.ID).State)

	require.NoError(t, eng.Transition(ctx, alice, TextMessage{Body: "Сбер"}))
	require.NoError(t, eng.Transition(ctx, alice, TextMessage{Body: "-"}))
	require.NoError(t, eng.Transition(ctx, alice, TextMessage{Body: "нет"}))

	require.Len(t, records.submissions, 1)
	assert.Equal(t, "Сбер", records.submissions[0].Bank)
}
