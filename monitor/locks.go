package monitor

import (
	"context"
	"sync"
	"time"
)

// sessionLocks serializes injection per session. Each entry is a channel
// semaphore so waiters can give up after a timeout; an entry is dropped once
// nobody holds or waits on it.
type sessionLocks struct {
	mu      sync.Mutex
	entries map[string]*sessionLock
}

type sessionLock struct {
	sem  chan struct{}
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{entries: make(map[string]*sessionLock)}
}

// acquire waits up to timeout for the session's lock. The returned release
// func must be called exactly once when ok is true.
func (l *sessionLocks) acquire(ctx context.Context, sessionID string, timeout time.Duration) (release func(), ok bool) {
	l.mu.Lock()
	entry := l.entries[sessionID]
	if entry == nil {
		entry = &sessionLock{sem: make(chan struct{}, 1)}
		l.entries[sessionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case entry.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-entry.sem
				l.put(sessionID, entry)
			})
		}, true
	case <-timer.C:
	case <-ctx.Done():
	}
	l.put(sessionID, entry)
	return nil, false
}

func (l *sessionLocks) put(sessionID string, entry *sessionLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, sessionID)
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
