package watcher

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gateInspector blocks its first call until release is closed.
type gateInspector struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGateInspector() *gateInspector {
	return &gateInspector{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gateInspector) Title() (string, bool) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return "", false
}

func collectResults() (func(Result), func() []Result) {
	var mu sync.Mutex
	var results []Result
	return func(r Result) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, r)
		}, func() []Result {
			mu.Lock()
			defer mu.Unlock()
			return append([]Result(nil), results...)
		}
}

func TestSupervisorSupersedesStaleSession(t *testing.T) {
	gate := newGateInspector()
	w, paster, _ := newTestWatcher(gate)
	sup := NewSupervisor(w, true)
	onFinish, results := collectResults()
	sup.OnFinish = onFinish

	first := sup.Spawn("https://claude.ai")
	<-gate.entered
	second := sup.Spawn("https://claude.ai")
	close(gate.release)
	sup.Wait()

	require.NotEqual(t, first.ID, second.ID)
	assert.True(t, first.Superseded())
	assert.False(t, second.Superseded())
	assert.Equal(t, int32(1), paster.n.Load())
	assert.Zero(t, sup.Active())

	outcomes := map[string]Outcome{}
	for _, r := range results() {
		outcomes[r.SessionID] = r.Outcome
	}
	assert.Equal(t, OutcomeSuperseded, outcomes[first.ID])
	assert.Equal(t, OutcomeTimeout, outcomes[second.ID])
}

func TestSupervisorWithoutSupersedeLetsBothPaste(t *testing.T) {
	gate := newGateInspector()
	w, paster, _ := newTestWatcher(gate)
	sup := NewSupervisor(w, false)

	first := sup.Spawn("https://claude.ai")
	<-gate.entered
	sup.Spawn("https://claude.ai")
	close(gate.release)
	sup.Wait()

	assert.False(t, first.Superseded())
	assert.Equal(t, int32(2), paster.n.Load())
}
