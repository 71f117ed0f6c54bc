package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grovetools/vigil/notify"
	"github.com/grovetools/vigil/pkg/models"
	"github.com/sirupsen/logrus"
)

// Escalator batches every session that exhausted recovery into one alert.
type Escalator struct {
	notifier Notifier
	timeout  time.Duration
	now      func() time.Time
	logger   *logrus.Entry
}

// Escalate sends one message for all of stuck. It returns nil for an empty
// set. Delivery failure is recorded on the event and never returned.
func (e *Escalator) Escalate(ctx context.Context, runID string, stuck []models.RecoveryResult) *models.EscalationEvent {
	if len(stuck) == 0 {
		return nil
	}

	event := &models.EscalationEvent{
		Reason:     fmt.Sprintf("%d session(s) still stuck after automated recovery", len(stuck)),
		SessionIDs: make([]string, 0, len(stuck)),
		Timestamp:  e.now().UTC(),
	}
	for _, r := range stuck {
		event.SessionIDs = append(event.SessionIDs, r.SessionID)
	}

	if e.notifier == nil {
		event.Error = "no notifier configured"
		e.logger.WithField("sessions", event.SessionIDs).Warn("Escalation not delivered")
		return event
	}

	msg := notify.Message{
		RunID:      runID,
		Title:      "vigil: " + event.Reason,
		Body:       escalationBody(stuck),
		SessionIDs: event.SessionIDs,
		Timestamp:  event.Timestamp,
	}

	_, err := callWithTimeout(ctx, "escalation", e.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.notifier.Send(ctx, msg)
	})
	if err != nil {
		event.Error = err.Error()
		e.logger.WithError(err).WithField("sessions", event.SessionIDs).Error("Escalation delivery failed")
		return event
	}

	event.Delivered = true
	e.logger.WithField("sessions", event.SessionIDs).Info("Escalation delivered")
	return event
}

func escalationBody(stuck []models.RecoveryResult) string {
	var b strings.Builder
	for _, r := range stuck {
		reason := "unknown stall"
		if sig := r.Final.MatchedSignature; sig != nil {
			reason = sig.Label
		}
		fmt.Fprintf(&b, "- %s (session %s): %s, %d attempt(s)", r.Project, r.SessionID, reason, len(r.Attempts))
		if r.SkipReason != "" {
			fmt.Fprintf(&b, ", %s", r.SkipReason)
		}
		b.WriteString("\n")
		for _, line := range r.Final.Evidence {
			fmt.Fprintf(&b, "    > %s\n", line)
		}
	}
	return b.String()
}
