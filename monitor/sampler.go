package monitor

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/pkg/models"
)

// Sampler captures bounded, read-only snapshots of session output.
type Sampler struct {
	io      SessionIO
	lines   int
	timeout time.Duration
	now     func() time.Time
}

// NewSampler keeps the last lines of each capture and gives up after timeout.
func NewSampler(io SessionIO, lines int, timeout time.Duration) *Sampler {
	return &Sampler{io: io, lines: lines, timeout: timeout, now: time.Now}
}

// Sample captures sessionID. A missing session is returned as a
// SESSION_NOT_FOUND error and a slow one as TIMEOUT; callers record both as
// unknown and carry on.
func (s *Sampler) Sample(ctx context.Context, sessionID string) (*models.PaneSnapshot, error) {
	lines, err := callWithTimeout(ctx, "capture "+sessionID, s.timeout, func(ctx context.Context) ([]string, error) {
		return s.io.Capture(ctx, sessionID)
	})
	if err != nil {
		if _, ok := errors.As(err); ok || ctx.Err() != nil {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeCommandFailed, "capture failed").
			WithDetail("session", sessionID)
	}

	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > s.lines {
		lines = lines[len(lines)-s.lines:]
	}

	return &models.PaneSnapshot{
		SessionID:  sessionID,
		CapturedAt: s.now().UTC(),
		Lines:      append([]string(nil), lines...),
	}, nil
}

// sampleAndClassify is one sampling unit. It never fails: problems become an
// unknown classification.
func sampleAndClassify(ctx context.Context, sampler *Sampler, signatures []models.StallSignature, project models.TrackedProject) models.ClassificationResult {
	sessionID := project.SessionID()

	snapshot, err := sampler.Sample(ctx, sessionID)
	var result models.ClassificationResult
	if err != nil {
		result = unknownResult(sessionID, describeErr(err))
	} else {
		result = Classify(snapshot, signatures)
	}
	result.Project = project.Name
	return result
}

// describeErr renders a unit failure for the report.
func describeErr(err error) string {
	switch {
	case errors.Is(err, errors.ErrCodeSessionNotFound):
		return "session not found"
	case errors.Is(err, errors.ErrCodeTimeout):
		if vErr, ok := errors.As(err); ok && vErr.Details["timeout"] != nil {
			return fmt.Sprintf("timed out after %v", vErr.Details["timeout"])
		}
		return "timed out"
	case stderrors.Is(err, context.Canceled):
		return "run cancelled"
	}
	return err.Error()
}
