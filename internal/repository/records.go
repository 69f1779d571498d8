package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/set-night/cardtask/internal/domain"
)

func (q *Queries) AddSubmission(ctx context.Context, s domain.Submission) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO submissions (user_id, username, bank, comment, file_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		s.UserID, s.Username, s.Bank, s.Comment, s.FileID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert submission: %w", err)
	}
	return id, nil
}

func (q *Queries) ListSubmissions(ctx context.Context, limit int) ([]domain.Submission, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, username, bank, comment, file_id, status, created_at
		FROM submissions
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		var s domain.Submission
		if err := rows.Scan(&s.ID, &s.UserID, &s.Username, &s.Bank, &s.Comment, &s.FileID, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *Queries) ListUserSubmissions(ctx context.Context, userID int64, limit int) ([]domain.Submission, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, username, bank, comment, file_id, status, created_at
		FROM submissions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list user submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		var s domain.Submission
		if err := rows.Scan(&s.ID, &s.UserID, &s.Username, &s.Bank, &s.Comment, &s.FileID, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *Queries) ResolveSubmission(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE submissions SET status = $2 WHERE id = $1`,
		id, domain.SubmissionResolved)
	if err != nil {
		return fmt.Errorf("resolve submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

func (q *Queries) AddQuestion(ctx context.Context, qn domain.Question) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO questions (user_id, username, message, file_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		qn.UserID, qn.Username, qn.Message, qn.FileID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	return id, nil
}

func (q *Queries) GetQuestion(ctx context.Context, id int64) (*domain.Question, error) {
	var qn domain.Question
	err := q.db.QueryRow(ctx, `
		SELECT id, user_id, username, message, file_id, created_at
		FROM questions WHERE id = $1`, id,
	).Scan(&qn.ID, &qn.UserID, &qn.Username, &qn.Message, &qn.FileID, &qn.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return &qn, nil
}

func (q *Queries) ListQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, username, message, file_id, created_at
		FROM questions
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var qn domain.Question
		if err := rows.Scan(&qn.ID, &qn.UserID, &qn.Username, &qn.Message, &qn.FileID, &qn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, qn)
	}
	return out, rows.Err()
}

func (q *Queries) DeleteQuestion(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (q *Queries) AddReport(ctx context.Context, r domain.Report) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO reports (user_id, username, message, file_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		r.UserID, r.Username, r.Message, r.FileID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

func (q *Queries) GetReport(ctx context.Context, id int64) (*domain.Report, error) {
	var r domain.Report
	err := q.db.QueryRow(ctx, `
		SELECT id, user_id, username, message, file_id, created_at
		FROM reports WHERE id = $1`, id,
	).Scan(&r.ID, &r.UserID, &r.Username, &r.Message, &r.FileID, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &r, nil
}

func (q *Queries) ListReports(ctx context.Context, limit int) ([]domain.Report, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, username, message, file_id, created_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []domain.Report
	for rows.Next() {
		var r domain.Report
		if err := rows.Scan(&r.ID, &r.UserID, &r.Username, &r.Message, &r.FileID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) DeleteReport(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}

func (q *Queries) AddAction(ctx context.Context, a domain.Action) error {
	details := a.Details
	if details == nil {
		details = map[string]any{}
	}
	_, err := q.db.Exec(ctx, `
		INSERT INTO actions (user_id, username, action, details)
		VALUES ($1, $2, $3, $4)`,
		a.UserID, a.Username, a.Action, details)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

func (q *Queries) ListActions(ctx context.Context, limit int) ([]domain.Action, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, username, action, details, created_at
		FROM actions
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var out []domain.Action
	for rows.Next() {
		var a domain.Action
		if err := rows.Scan(&a.ID, &a.UserID, &a.Username, &a.Action, &a.Details, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (q *Queries) UpsertBotUser(ctx context.Context, userID int64, username, firstName string) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO bot_users (user_id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_seen = now()`,
		userID, username, firstName)
	if err != nil {
		return fmt.Errorf("upsert bot user: %w", err)
	}
	return nil
}

func (q *Queries) ListBotUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.Query(ctx, `SELECT user_id FROM bot_users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list bot users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan bot user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q *Queries) CountBotUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRow(ctx, `SELECT count(*) FROM bot_users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bot users: %w", err)
	}
	return n, nil
}

func (q *Queries) CountBotUsersSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM bot_users WHERE first_seen >= $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count recent bot users: %w", err)
	}
	return n, nil
}
