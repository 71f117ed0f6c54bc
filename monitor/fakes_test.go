package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/notify"
	"github.com/grovetools/vigil/pkg/models"
)

var (
	approvalScreen = []string{"Edit file src/main.go", "", "Do you want to proceed?", "❯ Yes", "  No"}
	activeScreen   = []string{"Running tests...", "ok  github.com/acme/api  0.412s", "Writing summary"}
)

type fakeRegistry struct {
	projects []models.TrackedProject
	err      error
}

func (r *fakeRegistry) ListTargets(ctx context.Context) ([]models.TrackedProject, error) {
	return r.projects, r.err
}

// fakeSessions scripts what each session shows. Every SendKeys advances the
// session to its next screen; the last screen sticks.
type fakeSessions struct {
	mu           sync.Mutex
	screens      map[string][][]string
	position     map[string]int
	sent         map[string][]string
	failSend     map[string]bool
	captureDelay time.Duration
	onSend       func(sessionID string)

	inFlight    map[string]int
	maxInFlight map[string]int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		screens:     make(map[string][][]string),
		position:    make(map[string]int),
		sent:        make(map[string][]string),
		failSend:    make(map[string]bool),
		inFlight:    make(map[string]int),
		maxInFlight: make(map[string]int),
	}
}

func (f *fakeSessions) script(sessionID string, screens ...[]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screens[sessionID] = screens
}

func (f *fakeSessions) Capture(ctx context.Context, sessionID string) ([]string, error) {
	if f.captureDelay > 0 {
		select {
		case <-time.After(f.captureDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	screens, ok := f.screens[sessionID]
	if !ok {
		return nil, errors.SessionNotFound(sessionID)
	}
	pos := min(f.position[sessionID], len(screens)-1)
	return append([]string(nil), screens[pos]...), nil
}

func (f *fakeSessions) SendKeys(ctx context.Context, sessionID string, input string) error {
	f.mu.Lock()
	f.inFlight[sessionID]++
	if f.inFlight[sessionID] > f.maxInFlight[sessionID] {
		f.maxInFlight[sessionID] = f.inFlight[sessionID]
	}
	hook := f.onSend
	f.mu.Unlock()

	if hook != nil {
		hook(sessionID)
	}
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight[sessionID]--
	if f.failSend[sessionID] {
		return errors.CommandFailed("tmux send-keys", fmt.Errorf("can't find pane: %s", sessionID))
	}
	if _, ok := f.screens[sessionID]; !ok {
		return errors.SessionNotFound(sessionID)
	}
	f.sent[sessionID] = append(f.sent[sessionID], input)
	f.position[sessionID]++
	return nil
}

func (f *fakeSessions) inputs(sessionID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent[sessionID]...)
}

// fakeVCS returns a clean repository on main unless told otherwise.
type fakeVCS struct {
	mu       sync.Mutex
	errors   map[string]string
	delay    time.Duration
	inspects int
}

func (f *fakeVCS) Inspect(ctx context.Context, path string) models.GitActivity {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inspects++
	if msg, ok := f.errors[path]; ok {
		return models.GitActivity{Error: msg}
	}
	pending := 0
	return models.GitActivity{
		LastChangeID:       "4b825dc",
		LastAuthor:         "Agent",
		LastRelativeTime:   "5 minutes ago",
		PendingChangeCount: &pending,
		Branch:             "main",
	}
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
	err      error
}

func (f *fakeNotifier) Send(ctx context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return f.err
}

type fakeOracle struct{ err error }

func (f *fakeOracle) Check(ctx context.Context) error { return f.err }

type fakeStore struct {
	reports []*models.MonitoringReport
	err     error
}

func (f *fakeStore) Save(ctx context.Context, report *models.MonitoringReport) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.reports = append(f.reports, report)
	return fmt.Sprintf("/reports/health-%s.json", report.RunID[:8]), nil
}

func noSleep(context.Context, time.Duration) error { return nil }

type harness struct {
	sessions *fakeSessions
	vcs      *fakeVCS
	notifier *fakeNotifier
	oracle   *fakeOracle
	store    *fakeStore
	projects []models.TrackedProject
}

func newHarness(projects ...string) *harness {
	h := &harness{
		sessions: newFakeSessions(),
		vcs:      &fakeVCS{errors: make(map[string]string)},
		notifier: &fakeNotifier{},
		store:    &fakeStore{},
	}
	for _, name := range projects {
		h.projects = append(h.projects, models.TrackedProject{Name: name, Path: "/src/" + name, Session: name})
	}
	return h
}

func (h *harness) monitor(opts Options) *Monitor {
	if opts.Sleep == nil {
		opts.Sleep = noSleep
	}
	deps := Deps{
		Registry: &fakeRegistry{projects: h.projects},
		Sessions: h.sessions,
		VCS:      h.vcs,
		Notifier: h.notifier,
		Store:    h.store,
	}
	if h.oracle != nil {
		deps.Oracle = h.oracle
	}
	m, err := New(deps, opts)
	if err != nil {
		panic(err)
	}
	return m
}
