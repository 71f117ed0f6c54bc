package monitor

import (
	"context"

	"github.com/grovetools/vigil/notify"
	"github.com/grovetools/vigil/pkg/models"
)

// Registry lists the projects a run checks. It is called once per run and
// any error it returns aborts the run.
type Registry interface {
	ListTargets(ctx context.Context) ([]models.TrackedProject, error)
}

// SessionIO reads from and writes to agent sessions. Capture returns a
// SESSION_NOT_FOUND error (errors.SessionNotFound) for a missing session.
type SessionIO interface {
	Capture(ctx context.Context, sessionID string) ([]string, error)
	SendKeys(ctx context.Context, sessionID string, input string) error
}

// VersionControl inspects a project's repository. Failures are reported in
// GitActivity.Error, never returned.
type VersionControl interface {
	Inspect(ctx context.Context, path string) models.GitActivity
}

// Notifier delivers the escalation message.
type Notifier interface {
	Send(ctx context.Context, msg notify.Message) error
}

// StatusOracle is an independent health source folded into the verdict.
type StatusOracle interface {
	Check(ctx context.Context) error
}

// ReportStore persists finished reports and returns where they went.
type ReportStore interface {
	Save(ctx context.Context, report *models.MonitoringReport) (string, error)
}
