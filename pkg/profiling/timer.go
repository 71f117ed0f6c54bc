package profiling

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Stopper ends a timed span.
type Stopper interface {
	Stop()
}

// span accumulates every timing recorded under one name. Per-project work
// runs concurrently, so a name may be open several times at once.
type span struct {
	name  string
	total time.Duration
	max   time.Duration
	count int
}

type timing struct {
	profiler *Profiler
	name     string
	start    time.Time
}

func (t *timing) Stop() {
	t.profiler.record(t.name, time.Since(t.start))
}

// Profiler collects named spans for one process.
type Profiler struct {
	mu      sync.Mutex
	enabled bool
	started time.Time
	order   []string
	spans   map[string]*span
}

var defaultProfiler = &Profiler{}

// Enable turns on the global profiler. Spans started before Enable are not
// recorded.
func Enable() {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()

	if defaultProfiler.enabled {
		return
	}
	defaultProfiler.enabled = true
	defaultProfiler.started = time.Now()
	defaultProfiler.spans = make(map[string]*span)
}

// Start begins a span. It is safe to call from any goroutine.
func Start(name string) Stopper {
	return defaultProfiler.Start(name)
}

// Summarize writes the global profile to w.
func Summarize(w io.Writer) {
	defaultProfiler.Summarize(w)
}

// Start begins a span on p.
func (p *Profiler) Start(name string) Stopper {
	p.mu.Lock()
	enabled := p.enabled
	p.mu.Unlock()
	if !enabled {
		return noopStopper{}
	}
	return &timing{profiler: p, name: name, start: time.Now()}
}

func (p *Profiler) record(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.spans[name]
	if !ok {
		s = &span{name: name}
		p.spans[name] = s
		p.order = append(p.order, name)
	}
	s.total += d
	s.count++
	if d > s.max {
		s.max = d
	}
}

// Summarize prints one line per span name in first-seen order. Spans that
// ran more than once show their count and slowest instance.
func (p *Profiler) Summarize(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return
	}

	wall := time.Since(p.started)
	fmt.Fprintln(w, "\n--- Timing Profile ---")
	for _, name := range p.order {
		s := p.spans[name]
		if s.count == 1 {
			fmt.Fprintf(w, "- %s (%v, %.1f%% of wall)\n", s.name, s.total.Round(100*time.Microsecond), percent(s.total, wall))
			continue
		}
		fmt.Fprintf(w, "- %s x%d (total %v, max %v)\n", s.name, s.count,
			s.total.Round(100*time.Microsecond), s.max.Round(100*time.Microsecond))
	}
	fmt.Fprintf(w, "wall: %v\n", wall.Round(100*time.Microsecond))
	fmt.Fprintln(w, "--------------------")
}

func percent(d, of time.Duration) float64 {
	if of <= 0 {
		return 0
	}
	return float64(d) / float64(of) * 100
}

type noopStopper struct{}

func (noopStopper) Stop() {}
