package domain

import "time"

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionResolved SubmissionStatus = "resolved"
)

// Submission is a completed referral task: which bank, an optional
// comment and an optional evidence attachment.
type Submission struct {
	ID        int64
	UserID    int64
	Username  string
	Bank      string
	Comment   *string
	FileID    *string
	Status    SubmissionStatus
	CreatedAt time.Time
}

// Question is a one-off support question. It is deleted once an operator
// replies to it or rejects it.
type Question struct {
	ID        int64
	UserID    int64
	Username  string
	Message   string
	FileID    *string
	CreatedAt time.Time
}

// Report is a "card received" notice from a user. Same lifecycle as
// Question.
type Report struct {
	ID        int64
	UserID    int64
	Username  string
	Message   string
	FileID    *string
	CreatedAt time.Time
}

// Action is an append-only audit log entry.
type Action struct {
	ID        int64
	UserID    *int64
	Username  string
	Action    string
	Details   map[string]any
	CreatedAt time.Time
}

// BotUser is a user the bot has seen at least once. The broadcast
// recipient list and user stats are built from this table.
type BotUser struct {
	UserID    int64
	Username  string
	FirstName string
	FirstSeen time.Time
	LastSeen  time.Time
}
