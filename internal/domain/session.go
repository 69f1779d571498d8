package domain

// State is the conversation state of a single user. The engine only ever
// moves a session between these tags.
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingBank     State = "awaiting_bank"
	StateAwaitingComment  State = "awaiting_comment"
	StateAwaitingEvidence State = "awaiting_evidence"
	StateAwaitingQuestion State = "awaiting_question"
	StateAwaitingReport   State = "awaiting_report"
)

// AgeBracket is the user's self-selected age group. It survives a soft
// clear, unlike the rest of the scratch data.
type AgeBracket string

const (
	Age14Plus AgeBracket = "14+"
	Age18Plus AgeBracket = "18+"
)

// Session holds the per-user FSM state and in-flight wizard data.
// Sessions are ephemeral: they live in memory and are rebuilt as Idle on
// first sight of a user.
type Session struct {
	UserID int64
	State  State

	// Wizard scratch, dropped on soft clear.
	Bank    string
	Comment *string

	// Preserved across soft clears.
	PreferredAge AgeBracket

	// Message id of the currently visible menu message, zero if none.
	ActiveMenuID int
}

// SoftClear resets the session to Idle, dropping all scratch except the
// age preference.
func (s *Session) SoftClear() {
	s.State = StateIdle
	s.Bank = ""
	s.Comment = nil
	s.ActiveMenuID = 0
}
