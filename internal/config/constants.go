package config

import "time"

const (
	// Default list sizes for operator endpoints
	DefaultListLimit = 50
	MaxListLimit     = 500

	// Latest own submissions shown by /my
	MySubmissionsLimit = 10

	// Latest actions shown by /actions
	ActionsLimit = 15

	// Operator session cookie lifetime
	SessionTTL = 7 * 24 * time.Hour

	// Outbound send timeout for operator-initiated deliveries
	DeliveryTimeout = 10 * time.Second

	// CommentSkipSentinel skips the wizard comment step.
	CommentSkipSentinel = "-"
)

// EvidenceSkipSentinels skip the evidence step of the submission wizard.
var EvidenceSkipSentinels = []string{"нет", "no"}
