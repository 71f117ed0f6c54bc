package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/grovetools/vigil/pkg/models"
	"github.com/sirupsen/logrus"
)

// Recoverer runs the bounded inject-settle-resample loop for stalled sessions.
type Recoverer struct {
	io             SessionIO
	sampler        *Sampler
	locks          *sessionLocks
	signatures     []models.StallSignature
	fallbacks      []string
	maxAttempts    int
	settleDelay    time.Duration
	attemptTimeout time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
	logger         *logrus.Entry
}

// Recover drives one stalled session to Recovered or StillStuck.
//
// Cancellation of ctx is honoured only between attempts; an attempt that
// has started runs its injection, settle delay and re-sample to completion
// so the session is never left half-answered.
func (r *Recoverer) Recover(ctx context.Context, initial models.ClassificationResult) models.RecoveryResult {
	result := models.RecoveryResult{
		SessionID: initial.SessionID,
		Project:   initial.Project,
		Outcome:   models.OutcomeStillStuck,
		Attempts:  []models.RecoveryAttempt{},
		Final:     initial,
	}
	log := r.logger.WithFields(logrus.Fields{
		"session": initial.SessionID,
		"project": initial.Project,
	})

	inputs := r.fallbacks
	if sig := initial.MatchedSignature; sig != nil {
		log = log.WithField("signature", sig.Label)
		if sig.Escalate {
			result.SkipReason = fmt.Sprintf("signature %s is never answered automatically", sig.Label)
			log.Info("Skipping recovery, escalating")
			return result
		}
		if len(sig.Fallbacks) > 0 {
			inputs = sig.Fallbacks
		}
	}

	attempts := min(r.maxAttempts, len(inputs))
	if attempts == 0 {
		result.SkipReason = "no fallback inputs configured"
		return result
	}

	for k := 0; k < attempts; k++ {
		if ctx.Err() != nil {
			result.SkipReason = "run cancelled"
			log.WithField("attempts", k).Warn("Recovery stopped by cancellation")
			break
		}

		attempt, classification := r.attempt(context.WithoutCancel(ctx), result.Final, k, inputs[k])
		result.Attempts = append(result.Attempts, attempt)
		if classification != nil {
			result.Final = *classification
		}

		entry := log.WithFields(logrus.Fields{
			"attempt": k,
			"input":   fmt.Sprintf("%q", inputs[k]),
			"result":  attempt.ResultState,
		})

		switch {
		case attempt.Error != "":
			entry.WithField("error", attempt.Error).Warn("Recovery attempt failed")
			return result
		case attempt.ResultState == models.StateActive:
			entry.Info("Session recovered")
			result.Outcome = models.OutcomeRecovered
			return result
		case attempt.ResultState == models.StateUnknown:
			entry.Warn("Session state unknown after injection, giving up")
			return result
		default:
			entry.Debug("Session still stalled")
		}
	}

	return result
}

// attempt performs one cycle under the session lock. The returned
// classification is nil when injection failed and the session was not
// re-sampled; the attempt then carries the last known state.
func (r *Recoverer) attempt(ctx context.Context, last models.ClassificationResult, index int, input string) (models.RecoveryAttempt, *models.ClassificationResult) {
	attempt := models.RecoveryAttempt{
		SessionID:     last.SessionID,
		AttemptIndex:  index,
		InjectedInput: input,
		ResultState:   last.State,
	}

	release, ok := r.locks.acquire(ctx, last.SessionID, r.attemptTimeout)
	if !ok {
		attempt.Error = "another injection into this session is still running"
		return attempt, nil
	}
	defer release()

	_, err := callWithTimeout(ctx, "send-keys "+last.SessionID, r.attemptTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.io.SendKeys(ctx, last.SessionID, input)
	})
	if err != nil {
		attempt.Error = describeErr(err)
		return attempt, nil
	}

	if err := r.sleep(ctx, r.settleDelay); err != nil {
		attempt.Error = describeErr(err)
		return attempt, nil
	}

	classification := sampleAndClassify(ctx, r.sampler, r.signatures, models.TrackedProject{
		Name:    last.Project,
		Session: last.SessionID,
	})
	attempt.ResultState = classification.State
	return attempt, &classification
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
