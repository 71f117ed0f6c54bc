package models

import "time"

// Health is the run-level verdict.
type Health string

const (
	HealthExcellent      Health = "excellent"
	HealthNeedsAttention Health = "needs-attention"
)

// RunMode selects which phases a run executes.
type RunMode string

const (
	ModeFull         RunMode = "full"
	ModeQuick        RunMode = "quick"
	ModeVerifyOnly   RunMode = "verify-only"
	ModeRecoveryOnly RunMode = "recovery-only"
)

// PhaseStatus values used in ProjectStatus.
const (
	CheckOK      = "ok"
	CheckError   = "error"
	CheckSkipped = "skipped"

	RecoveryNotNeeded = "not-needed"
	RecoveryUnknown   = "unknown"
)

// ProjectStatus states, per project, how each phase went. Nothing is silently
// omitted: phases a mode did not run are reported as skipped.
type ProjectStatus struct {
	Session        string `json:"session"`
	GitCheck       string `json:"git_check"`
	Classification string `json:"classification"`
	Recovery       string `json:"recovery"`
}

// Summary holds the headline numbers of a report.
type Summary struct {
	ProjectsChecked int    `json:"projects_checked"`
	StalledCount    int    `json:"stalled_count"`
	RecoveredCount  int    `json:"recovered_count"`
	StillStuckCount int    `json:"still_stuck_count"`
	UnknownCount    int    `json:"unknown_count"`
	GitErrorCount   int    `json:"git_error_count"`
	OverallHealth   Health `json:"overall_health"`
}

// MonitoringReport is the immutable result of one run.
type MonitoringReport struct {
	RunID            string                   `json:"run_id"`
	Mode             RunMode                  `json:"mode"`
	Timestamp        time.Time                `json:"timestamp"`
	DurationMs       int64                    `json:"duration_ms"`
	GitActivity      map[string]GitActivity   `json:"git_activity"`
	Classifications  []ClassificationResult   `json:"classifications"`
	RecoveryAttempts []RecoveryAttempt        `json:"recovery_attempts"`
	Recoveries       []RecoveryResult         `json:"recoveries,omitempty"`
	Escalation       *EscalationEvent         `json:"escalation,omitempty"`
	Oracle           *OracleResult            `json:"oracle,omitempty"`
	Projects         map[string]ProjectStatus `json:"projects"`

	// Verified is true when ground truth was inspected in this run. Pane
	// content alone never makes a run excellent.
	Verified bool    `json:"verified"`
	Summary  Summary `json:"summary"`
}
