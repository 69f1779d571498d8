package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/cardtask/internal/config"
	"github.com/set-night/cardtask/internal/domain"
	"github.com/set-night/cardtask/internal/service"
)

type stubRecords struct {
	submissions []domain.Submission
	resolved    []int64
	resolveErr  error
}

func (s *stubRecords) ListSubmissions(ctx context.Context, limit int) ([]domain.Submission, error) {
	if limit < len(s.submissions) {
		return s.submissions[:limit], nil
	}
	return s.submissions, nil
}

func (s *stubRecords) ResolveSubmission(ctx context.Context, id int64) error {
	if s.resolveErr != nil {
		return s.resolveErr
	}
	s.resolved = append(s.resolved, id)
	return nil
}

func (s *stubRecords) ListQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	return nil, nil
}

func (s *stubRecords) ListReports(ctx context.Context, limit int) ([]domain.Report, error) {
	return nil, nil
}

func (s *stubRecords) ListActions(ctx context.Context, limit int) ([]domain.Action, error) {
	return nil, nil
}

func (s *stubRecords) CountBotUsers(ctx context.Context) (int64, error) { return 12, nil }

func (s *stubRecords) CountBotUsersSince(ctx context.Context, since time.Time) (int64, error) {
	return 3, nil
}

type stubDialogs struct {
	replyQuestionErr error
	replyDialogErr   error
	deleteErr        error
	dialog           *domain.Dialog
	closed           []uuid.UUID
}

func (s *stubDialogs) ReplyToQuestion(ctx context.Context, questionID int64, reply string) (*domain.Dialog, error) {
	if s.replyQuestionErr != nil && s.dialog == nil {
		return nil, s.replyQuestionErr
	}
	return s.dialog, s.replyQuestionErr
}

func (s *stubDialogs) ReplyToReport(ctx context.Context, reportID int64, reply string) (*domain.Dialog, error) {
	return s.dialog, nil
}

func (s *stubDialogs) RejectQuestion(ctx context.Context, questionID int64) error { return nil }
func (s *stubDialogs) RejectReport(ctx context.Context, reportID int64) error     { return nil }

func (s *stubDialogs) Reply(ctx context.Context, dialogID uuid.UUID, reply string) error {
	return s.replyDialogErr
}

func (s *stubDialogs) Close(ctx context.Context, dialogID uuid.UUID) error {
	s.closed = append(s.closed, dialogID)
	return nil
}

func (s *stubDialogs) Delete(ctx context.Context, dialogID uuid.UUID) error { return s.deleteErr }

func (s *stubDialogs) List(ctx context.Context, limit int) ([]domain.Dialog, error) {
	if s.dialog == nil {
		return nil, nil
	}
	return []domain.Dialog{*s.dialog}, nil
}

func (s *stubDialogs) Get(ctx context.Context, dialogID uuid.UUID) (*domain.Dialog, error) {
	if s.dialog == nil || s.dialog.ID != dialogID {
		return nil, domain.ErrDialogNotFound
	}
	return s.dialog, nil
}

func (s *stubDialogs) Messages(ctx context.Context, dialogID uuid.UUID) ([]domain.DialogMessage, error) {
	return nil, nil
}

type stubBroadcast struct{ err error }

func (s stubBroadcast) Broadcast(ctx context.Context, text string) (service.BroadcastResult, error) {
	if s.err != nil {
		return service.BroadcastResult{}, s.err
	}
	return service.BroadcastResult{Sent: 2, Failed: 1, Total: 3}, nil
}

type stubFiles struct{}

func (stubFiles) Fetch(ctx context.Context, fileID string) ([]byte, string, error) {
	return []byte("data"), "image/png", nil
}

func newTestServer(records *stubRecords, dialogs *stubDialogs) *httptest.Server {
	cfg := &config.Config{
		APIKey:        "secret-key",
		AdminPassword: "hunter2",
		AdminSecret:   "signing-secret",
	}
	srv := NewServer(cfg, records, dialogs, stubBroadcast{}, stubFiles{}, nil)
	return httptest.NewServer(srv.Router())
}

func apiRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAPIRequiresAuth(t *testing.T) {
	ts := newTestServer(&stubRecords{}, &stubDialogs{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/submissions")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPIKeyHeaderAdmits(t *testing.T) {
	records := &stubRecords{submissions: []domain.Submission{{ID: 1, UserID: 10, Bank: "МТС"}}}
	ts := newTestServer(records, &stubDialogs{})
	defer ts.Close()

	req := apiRequest(t, http.MethodGet, ts.URL+"/api/submissions", nil)
	req.Header.Set("X-API-Key", "secret-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Submissions []domain.Submission `json:"submissions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Submissions, 1)
	assert.Equal(t, "МТС", body.Submissions[0].Bank)
}

func TestWrongAPIKeyRejected(t *testing.T) {
	ts := newTestServer(&stubRecords{}, &stubDialogs{})
	defer ts.Close()

	req := apiRequest(t, http.MethodGet, ts.URL+"/api/submissions", nil)
	req.Header.Set("X-API-Key", "wrong")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginIssuesSessionCookie(t *testing.T) {
	ts := newTestServer(&stubRecords{}, &stubDialogs{})
	defer ts.Close()

	resp, err := http.DefaultClient.Do(apiRequest(t, http.MethodPost, ts.URL+"/api/login", map[string]string{"password": "hunter2"}))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			session = c
		}
	}
	require.NotNil(t, session, "login sets the session cookie")

	req := apiRequest(t, http.MethodGet, ts.URL+"/api/stats/users", nil)
	req.AddCookie(session)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(&stubRecords{}, &stubDialogs{})
	defer ts.Close()

	resp, err := http.DefaultClient.Do(apiRequest(t, http.MethodPost, ts.URL+"/api/login", map[string]string{"password": "nope"}))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestResolveSubmission(t *testing.T) {
	records := &stubRecords{}
	ts := newTestServer(records, &stubDialogs{})
	defer ts.Close()

	req := apiRequest(t, http.MethodPost, ts.URL+"/api/submissions/7/resolve", nil)
	req.Header.Set("X-API-Key", "secret-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []int64{7}, records.resolved)
}

func TestResolveSubmissionNotFound(t *testing.T) {
	records := &stubRecords{resolveErr: domain.ErrSubmissionNotFound}
	ts := newTestServer(records, &stubDialogs{})
	defer ts.Close()

	req := apiRequest(t, http.MethodPost, ts.URL+"/api/submissions/7/resolve", nil)
	req.Header.Set("X-API-Key", "secret-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReplyQuestionRequiresText(t *testing.T) {
	ts := newTestServer(&stubRecords{}, &stubDialogs{})
	defer ts.Close()

	req := apiRequest(t, http.MethodPost, ts.URL+"/api/questions/1/reply", map[string]string{"text": "  "})
	req.Header.Set("X-API-Key", "secret-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReplyQuestionNotFound(t *testing.T) {
	dialogs := &stubDialogs{replyQuestionErr: domain.ErrQuestionNotFound}
	ts := newTestServer(&stubRecords{}, dialogs)
	defer ts.Close()

	req := apiRequest(t, http.MethodPost, ts.URL+"/api/questions/1/reply", map[string]string{"text": "ответ"})
	req.Header.Set("X-API-Key", "secret-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReplyQuestionDeliveryFailureReportsDialog(t *testing.T) {
	d := &domain.Dialog{ID: uuid.New(), UserID: 10, Status: domain.DialogOpen}
	dialogs := &stubDialogs{
		dialog:           d,
		replyQuestionErr: fmt.Errorf("%w: blocked", domain.ErrDeliveryFailed),
	}
	ts := newTestServer(&stubRecords{}, dialogs)
	defer ts.Close()

	req := apiRequest(t, http.MethodPost, ts.URL+"/api/questions/1/reply", map[string]string{"text": "ответ"})
	req.Header.Set("X-API-Key", "secret-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, d.ID.String(), body["dialog_id"])
	assert.Contains(t, body["delivery_error"], "blocked")
}

func TestDeleteOpenDialogConflicts(t *testing.T) {
	dialogs := &stubDialogs{deleteErr: domain.ErrDialogOpen}
	ts := newTestServer(&stubRecords{}, dialogs)
	defer ts.Close()

	req := apiRequest(t, http.MethodDelete, ts.URL+"/api/dialogs/"+uuid.NewString(), nil)
	req.Header.Set("X-API-Key", "secret-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestBroadcastReturnsAccounting(t *testing.T) {
	ts := newTestServer(&stubRecords{}, &stubDialogs{})
	defer ts.Close()

	req := apiRequest(t, http.MethodPost, ts.URL+"/api/broadcast", map[string]string{"text": "Новое задание"})
	req.Header.Set("X-API-Key", "secret-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res service.BroadcastResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, service.BroadcastResult{Sent: 2, Failed: 1, Total: 3}, res)
}

func TestBroadcastWithoutRecipientsRejected(t *testing.T) {
	cfg := &config.Config{
		APIKey:        "secret-key",
		AdminPassword: "hunter2",
		AdminSecret:   "signing-secret",
	}
	srv := NewServer(cfg, &stubRecords{}, &stubDialogs{}, stubBroadcast{err: domain.ErrNoRecipient}, stubFiles{}, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	req := apiRequest(t, http.MethodPost, ts.URL+"/api/broadcast", map[string]string{"text": "Новое задание"})
	req.Header.Set("X-API-Key", "secret-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUserStats(t *testing.T) {
	ts := newTestServer(&stubRecords{}, &stubDialogs{})
	defer ts.Close()

	req := apiRequest(t, http.MethodGet, ts.URL+"/api/stats/users", nil)
	req.Header.Set("X-API-Key", "secret-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]int64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, int64(12), stats["total"])
}

func TestFileProxy(t *testing.T) {
	ts := newTestServer(&stubRecords{}, &stubDialogs{})
	defer ts.Close()

	req := apiRequest(t, http.MethodGet, ts.URL+"/api/files/abc123", nil)
	req.Header.Set("X-API-Key", "secret-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}
