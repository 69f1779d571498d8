package admin

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/set-night/cardtask/internal/config"
)

func listLimit(r *http.Request) int {
	limit := config.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > config.MaxListLimit {
		limit = config.MaxListLimit
	}
	return limit
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func pathUUID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

type replyRequest struct {
	Text string `json:"text"`
}

func readReply(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req replyRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		Error(w, http.StatusBadRequest, "text is required")
		return "", false
	}
	return text, true
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.records.ListSubmissions(r.Context(), listLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func (s *Server) handleResolveSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.records.ResolveSubmission(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.records.ListQuestions(r.Context(), listLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (s *Server) handleReplyQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	text, ok := readReply(w, r)
	if !ok {
		return
	}

	d, err := s.dialogs.ReplyToQuestion(r.Context(), id, text)
	if err != nil && d == nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{"dialog_id": d.ID}
	if err != nil {
		// Reply persisted but the user was unreachable.
		resp["delivery_error"] = err.Error()
		JSON(w, http.StatusBadGateway, resp)
		return
	}
	JSON(w, http.StatusOK, resp)
}

func (s *Server) handleRejectQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.dialogs.RejectQuestion(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.records.ListReports(r.Context(), listLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (s *Server) handleReplyReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	text, ok := readReply(w, r)
	if !ok {
		return
	}

	d, err := s.dialogs.ReplyToReport(r.Context(), id, text)
	if err != nil && d == nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{"dialog_id": d.ID}
	if err != nil {
		resp["delivery_error"] = err.Error()
		JSON(w, http.StatusBadGateway, resp)
		return
	}
	JSON(w, http.StatusOK, resp)
}

func (s *Server) handleRejectReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.dialogs.RejectReport(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (s *Server) handleListDialogs(w http.ResponseWriter, r *http.Request) {
	dialogs, err := s.dialogs.List(r.Context(), listLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"dialogs": dialogs})
}

func (s *Server) handleGetDialog(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid dialog id")
		return
	}

	d, err := s.dialogs.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	messages, err := s.dialogs.Messages(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"dialog": d, "messages": messages})
}

func (s *Server) handleReplyDialog(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid dialog id")
		return
	}
	text, ok := readReply(w, r)
	if !ok {
		return
	}
	if err := s.dialogs.Reply(r.Context(), id, text); err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleCloseDialog(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid dialog id")
		return
	}
	if err := s.dialogs.Close(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (s *Server) handleDeleteDialog(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid dialog id")
		return
	}
	if err := s.dialogs.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	actions, err := s.records.ListActions(r.Context(), listLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"actions": actions})
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := s.records.CountBotUsers(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	now := time.Now()
	day, err := s.records.CountBotUsersSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		writeError(w, err)
		return
	}
	week, err := s.records.CountBotUsersSince(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]int64{
		"total":     total,
		"last_24h":  day,
		"last_week": week,
	})
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	text, ok := readReply(w, r)
	if !ok {
		return
	}
	res, err := s.broadcast.Broadcast(r.Context(), text)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	if fileID == "" {
		Error(w, http.StatusBadRequest, "file id is required")
		return
	}

	data, contentType, err := s.files.Fetch(r.Context(), fileID)
	if err != nil {
		Error(w, http.StatusBadGateway, fmt.Sprintf("fetch file: %v", err))
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
