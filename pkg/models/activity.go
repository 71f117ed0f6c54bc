package models

import "time"

// GitActivity is the ground-truth view of one project's repository.
// Error is set per project; an unset Error does not imply zero pending changes,
// which is why PendingChangeCount is a pointer.
type GitActivity struct {
	Project            string `json:"project"`
	LastChangeID       string `json:"last_change_id,omitempty"`
	LastAuthor         string `json:"last_author,omitempty"`
	LastRelativeTime   string `json:"last_relative_time,omitempty"`
	PendingChangeCount *int   `json:"pending_change_count,omitempty"`
	UnpushedCount      *int   `json:"unpushed_count,omitempty"`
	Branch             string `json:"branch,omitempty"`
	Error              string `json:"error,omitempty"`
}

// RecoveryOutcome is the terminal state of a recovery loop.
type RecoveryOutcome string

const (
	OutcomeRecovered  RecoveryOutcome = "recovered"
	OutcomeStillStuck RecoveryOutcome = "still-stuck"
)

// RecoveryAttempt records one inject-settle-resample cycle.
type RecoveryAttempt struct {
	SessionID     string       `json:"session_id"`
	AttemptIndex  int          `json:"attempt_index"`
	InjectedInput string       `json:"injected_input"`
	ResultState   SessionState `json:"result_state"`
	Error         string       `json:"error,omitempty"`
}

// RecoveryResult summarises the loop for a single stalled session.
type RecoveryResult struct {
	SessionID  string               `json:"session_id"`
	Project    string               `json:"project"`
	Outcome    RecoveryOutcome      `json:"outcome"`
	Attempts   []RecoveryAttempt    `json:"attempts"`
	Final      ClassificationResult `json:"final"`
	// Escalated is set when the run's escalation alert naming this session
	// was delivered.
	Escalated  bool                 `json:"escalated,omitempty"`
	SkipReason string               `json:"skip_reason,omitempty"`
}

// EscalationEvent is the single batched alert of a run.
type EscalationEvent struct {
	Reason     string    `json:"reason"`
	SessionIDs []string  `json:"session_ids"`
	Timestamp  time.Time `json:"timestamp"`
	Delivered  bool      `json:"delivered"`
	Error      string    `json:"error,omitempty"`
}

// OracleResult records the external status check, when one ran.
type OracleResult struct {
	Checked bool   `json:"checked"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}
