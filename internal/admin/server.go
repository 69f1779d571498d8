// Package admin serves the operator console: a small JSON API plus a
// static page, protected by an API key or a password session.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/set-night/cardtask/internal/config"
	"github.com/set-night/cardtask/internal/domain"
	"github.com/set-night/cardtask/internal/service"
)

// Records is the read/update surface the console needs over stored
// records.
type Records interface {
	ListSubmissions(ctx context.Context, limit int) ([]domain.Submission, error)
	ResolveSubmission(ctx context.Context, id int64) error
	ListQuestions(ctx context.Context, limit int) ([]domain.Question, error)
	ListReports(ctx context.Context, limit int) ([]domain.Report, error)
	ListActions(ctx context.Context, limit int) ([]domain.Action, error)
	CountBotUsers(ctx context.Context) (int64, error)
	CountBotUsersSince(ctx context.Context, since time.Time) (int64, error)
}

// Dialogs is the console's view of the dialog service.
type Dialogs interface {
	ReplyToQuestion(ctx context.Context, questionID int64, reply string) (*domain.Dialog, error)
	ReplyToReport(ctx context.Context, reportID int64, reply string) (*domain.Dialog, error)
	RejectQuestion(ctx context.Context, questionID int64) error
	RejectReport(ctx context.Context, reportID int64) error
	Reply(ctx context.Context, dialogID uuid.UUID, reply string) error
	Close(ctx context.Context, dialogID uuid.UUID) error
	Delete(ctx context.Context, dialogID uuid.UUID) error
	List(ctx context.Context, limit int) ([]domain.Dialog, error)
	Get(ctx context.Context, dialogID uuid.UUID) (*domain.Dialog, error)
	Messages(ctx context.Context, dialogID uuid.UUID) ([]domain.DialogMessage, error)
}

// Broadcast fans a message out to all known users.
type Broadcast interface {
	Broadcast(ctx context.Context, text string) (service.BroadcastResult, error)
}

// Files resolves a Telegram file id into its content.
type Files interface {
	Fetch(ctx context.Context, fileID string) (data []byte, contentType string, err error)
}

type Server struct {
	cfg       *config.Config
	records   Records
	dialogs   Dialogs
	broadcast Broadcast
	files     Files
	sessions  *sessions
	static    fs.FS
}

func NewServer(cfg *config.Config, records Records, dialogs Dialogs, broadcast Broadcast, files Files, static fs.FS) *Server {
	return &Server{
		cfg:       cfg,
		records:   records,
		dialogs:   dialogs,
		broadcast: broadcast,
		files:     files,
		sessions:  newSessions(cfg.SessionSecret(), config.SessionTTL),
		static:    static,
	}
}

// Router builds the console's HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)

	r.Post("/api/login", s.handleLogin)
	r.Post("/api/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/api/submissions", s.handleListSubmissions)
		r.Post("/api/submissions/{id}/resolve", s.handleResolveSubmission)

		r.Get("/api/questions", s.handleListQuestions)
		r.Post("/api/questions/{id}/reply", s.handleReplyQuestion)
		r.Post("/api/questions/{id}/reject", s.handleRejectQuestion)

		r.Get("/api/reports", s.handleListReports)
		r.Post("/api/reports/{id}/reply", s.handleReplyReport)
		r.Post("/api/reports/{id}/reject", s.handleRejectReport)

		r.Get("/api/dialogs", s.handleListDialogs)
		r.Get("/api/dialogs/{id}", s.handleGetDialog)
		r.Post("/api/dialogs/{id}/reply", s.handleReplyDialog)
		r.Post("/api/dialogs/{id}/close", s.handleCloseDialog)
		r.Delete("/api/dialogs/{id}", s.handleDeleteDialog)

		r.Get("/api/actions", s.handleListActions)
		r.Get("/api/stats/users", s.handleUserStats)
		r.Post("/api/broadcast", s.handleBroadcast)
		r.Get("/api/files/{fileID}", s.handleFile)
	})

	if s.static != nil {
		r.Handle("/*", http.FileServer(http.FS(s.static)))
	}
	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSubmissionNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrReportNotFound),
		errors.Is(err, domain.ErrDialogNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrValidationRejected),
		errors.Is(err, domain.ErrNoRecipient):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDialogOpen):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrDeliveryFailed):
		Error(w, http.StatusBadGateway, err.Error())
	default:
		Error(w, http.StatusInternalServerError, err.Error())
	}
}
