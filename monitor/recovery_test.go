package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/vigil/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stalledOn(t *testing.T, m *Monitor, session string) models.ClassificationResult {
	t.Helper()
	c := sampleAndClassify(context.Background(), m.sampler, m.opts.Signatures, models.TrackedProject{Name: session, Session: session})
	require.Equal(t, models.StateStalled, c.State)
	return c
}

func TestRecoverShortCircuitsOnActive(t *testing.T) {
	h := newHarness("api")
	h.sessions.script("api", approvalScreen, activeScreen)
	m := h.monitor(Options{MaxAttempts: 3})

	rec := m.recoverer.Recover(context.Background(), stalledOn(t, m, "api"))

	assert.Equal(t, models.OutcomeRecovered, rec.Outcome)
	require.Len(t, rec.Attempts, 1)
	assert.Equal(t, models.StateActive, rec.Final.State)
	assert.Equal(t, []string{"y"}, h.sessions.inputs("api"), "no input after recovery")
}

func TestRecoverOutcomeMatchesLastAttempt(t *testing.T) {
	for attempts := 1; attempts <= 3; attempts++ {
		h := newHarness("api")
		h.sessions.script("api", approvalScreen)
		m := h.monitor(Options{MaxAttempts: attempts})

		rec := m.recoverer.Recover(context.Background(), stalledOn(t, m, "api"))

		assert.Equal(t, models.OutcomeStillStuck, rec.Outcome)
		require.Len(t, rec.Attempts, attempts)
		last := rec.Attempts[len(rec.Attempts)-1]
		assert.Equal(t, rec.Final.State, last.ResultState)
		for k, a := range rec.Attempts {
			assert.Equal(t, k, a.AttemptIndex)
			assert.Equal(t, "api", a.SessionID)
		}
	}
}

func TestRecoverWithoutFallbacks(t *testing.T) {
	h := newHarness("api")
	h.sessions.script("api", approvalScreen)
	m := h.monitor(Options{Fallbacks: []string{}})

	rec := m.recoverer.Recover(context.Background(), stalledOn(t, m, "api"))

	assert.Equal(t, models.OutcomeStillStuck, rec.Outcome)
	assert.Empty(t, rec.Attempts)
	assert.Equal(t, "no fallback inputs configured", rec.SkipReason)
	assert.Empty(t, h.sessions.inputs("api"))
}

func TestRecoverUsesSignatureFallbacks(t *testing.T) {
	h := newHarness("api")
	h.sessions.script("api", []string{"Press Enter to continue"}, activeScreen)
	m := h.monitor(Options{})

	rec := m.recoverer.Recover(context.Background(), stalledOn(t, m, "api"))

	assert.Equal(t, models.OutcomeRecovered, rec.Outcome)
	assert.Equal(t, []string{""}, h.sessions.inputs("api"))
}

func TestInjectionIsSerializedPerSession(t *testing.T) {
	h := newHarness("shared")
	h.sessions.script("shared", approvalScreen)
	m := h.monitor(Options{MaxAttempts: 3, Sleep: func(ctx context.Context, d time.Duration) error {
		time.Sleep(2 * time.Millisecond)
		return nil
	}})
	initial := stalledOn(t, m, "shared")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.recoverer.Recover(context.Background(), initial)
		}()
	}
	wg.Wait()

	h.sessions.mu.Lock()
	defer h.sessions.mu.Unlock()
	assert.Equal(t, 1, h.sessions.maxInFlight["shared"])
	assert.Len(t, h.sessions.sent["shared"], 12)
	assert.Equal(t, 0, m.recoverer.locks.size())
}

func TestSessionLocks(t *testing.T) {
	locks := newSessionLocks()

	release, ok := locks.acquire(context.Background(), "api", time.Second)
	require.True(t, ok)

	_, ok = locks.acquire(context.Background(), "api", 10*time.Millisecond)
	assert.False(t, ok, "held lock times out")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok = locks.acquire(ctx, "api", time.Second)
	assert.False(t, ok, "cancelled wait gives up")

	other, ok := locks.acquire(context.Background(), "web", 10*time.Millisecond)
	require.True(t, ok, "locks are per session")
	assert.Equal(t, 2, locks.size())
	other()
	assert.Equal(t, 1, locks.size())

	release()
	release()
	assert.Equal(t, 0, locks.size(), "released entries are dropped")

	again, ok := locks.acquire(context.Background(), "api", 10*time.Millisecond)
	require.True(t, ok)
	again()
	assert.Equal(t, 0, locks.size())
}

func TestMonitorsDoNotShareSessionLocks(t *testing.T) {
	a := newHarness("api").monitor(Options{})
	b := newHarness("api").monitor(Options{})

	release, ok := a.recoverer.locks.acquire(context.Background(), "api", time.Second)
	require.True(t, ok)
	defer release()

	other, ok := b.recoverer.locks.acquire(context.Background(), "api", 10*time.Millisecond)
	require.True(t, ok)
	other()
}

func TestEscalatorWithoutNotifier(t *testing.T) {
	h := newHarness("api")
	m := h.monitor(Options{})
	m.escalator.notifier = nil

	event := m.escalator.Escalate(context.Background(), "run-1", []models.RecoveryResult{
		{SessionID: "api", Project: "api", Outcome: models.OutcomeStillStuck},
	})
	require.NotNil(t, event)
	assert.False(t, event.Delivered)
	assert.Equal(t, "no notifier configured", event.Error)
	assert.Nil(t, m.escalator.Escalate(context.Background(), "run-1", nil))
}

func TestEscalationBody(t *testing.T) {
	sig := models.StallSignature{Label: "approval-prompt"}
	body := escalationBody([]models.RecoveryResult{
		{
			SessionID: "api-main",
			Project:   "api",
			Attempts:  make([]models.RecoveryAttempt, 3),
			Final:     models.ClassificationResult{MatchedSignature: &sig, Evidence: []string{"Do you want to proceed?"}},
		},
		{SessionID: "web", Project: "web", SkipReason: "run cancelled"},
	})

	assert.Contains(t, body, "- api (session api-main): approval-prompt, 3 attempt(s)")
	assert.Contains(t, body, "    > Do you want to proceed?")
	assert.Contains(t, body, "- web (session web): unknown stall, 0 attempt(s), run cancelled")
}
