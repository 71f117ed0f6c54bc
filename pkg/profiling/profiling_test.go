package profiling

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledProfilerRecordsNothing(t *testing.T) {
	p := &Profiler{}
	p.Start("sample").Stop()

	var buf bytes.Buffer
	p.Summarize(&buf)
	assert.Empty(t, buf.String())
}

func TestConcurrentSpansAccumulate(t *testing.T) {
	p := &Profiler{}
	p.enabled = true
	p.spans = make(map[string]*span)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Start("sample").Stop()
		}()
	}
	wg.Wait()
	p.Start("persist").Stop()

	assert.Equal(t, 8, p.spans["sample"].count)
	assert.Equal(t, []string{"sample", "persist"}, p.order)

	var buf bytes.Buffer
	p.Summarize(&buf)
	assert.Contains(t, buf.String(), "- sample x8")
	assert.Contains(t, buf.String(), "- persist (")
	assert.Contains(t, buf.String(), "wall:")
}
