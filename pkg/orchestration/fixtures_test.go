package orchestration

import (
	"sync"
	"time"
)

// recorder captures execution and rollback order across a run.
type recorder struct {
	mu        sync.Mutex
	started   []string
	finished  []string
	rollbacks []string
	startAt   map[string]time.Time
	finishAt  map[string]time.Time
}

func newRecorder() *recorder {
	return &recorder{
		startAt:  make(map[string]time.Time),
		finishAt: make(map[string]time.Time),
	}
}

func (r *recorder) recordStart(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, id)
	r.startAt[id] = time.Now()
}

func (r *recorder) recordFinish(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, id)
	r.finishAt[id] = time.Now()
}

func (r *recorder) recordRollback(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollbacks = append(r.rollbacks, id)
}

// fakeModule is a configurable Module for orchestrator tests.
type fakeModule struct {
	Base
	rec *recorder

	skip          bool
	validateOK    bool
	validateMsgs  []string
	sleep         time.Duration
	fail          bool
	panicMsg      string
	data          map[string]any
	rollbackOK    bool
	rollbackPanic bool
}

func newFakeModule(id string, phase Phase, deps ...string) *fakeModule {
	return &fakeModule{
		Base: Base{Meta: ModuleMetadata{
			ID:           id,
			Name:         id,
			Phase:        phase,
			Dependencies: deps,
		}},
		validateOK: true,
		rollbackOK: true,
	}
}

func (m *fakeModule) withRecorder(rec *recorder) *fakeModule {
	m.rec = rec
	return m
}

func (m *fakeModule) optional() *fakeModule {
	m.Meta.Optional = true
	return m
}

func (m *fakeModule) priority(p int) *fakeModule {
	m.Meta.Priority = p
	return m
}

func (m *fakeModule) ShouldRun(ctx Context) bool {
	return !m.skip
}

func (m *fakeModule) ValidatePrerequisites(ctx Context) (bool, []string) {
	return m.validateOK, m.validateMsgs
}

func (m *fakeModule) Execute(ctx Context) *ModuleResult {
	if m.rec != nil {
		m.rec.recordStart(m.Meta.ID)
		defer m.rec.recordFinish(m.Meta.ID)
	}
	if m.sleep > 0 {
		time.Sleep(m.sleep)
	}
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.fail {
		return NewFailureResult("forced failure", "module "+m.Meta.ID+" failed")
	}
	return NewSuccessResult("ok", m.data)
}

func (m *fakeModule) Rollback(ctx Context) bool {
	if m.rec != nil {
		m.rec.recordRollback(m.Meta.ID)
	}
	if m.rollbackPanic {
		panic("rollback panic in " + m.Meta.ID)
	}
	return m.rollbackOK
}

// ids extracts metadata ids from a module slice.
func ids(mods []Module) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = m.Metadata().ID
	}
	return out
}

// indexOf returns the position of id in list, or -1.
func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

// discardLogger silences test output.
type discardLogger struct{}

func (discardLogger) Info(string, ...interface{})  {}
func (discardLogger) Warn(string, ...interface{})  {}
func (discardLogger) Error(string, ...interface{}) {}
func (discardLogger) Debug(string, ...interface{}) {}

// captureLogger records warning messages for assertions.
type captureLogger struct {
	discardLogger
	mu    sync.Mutex
	warns []string
}

func (l *captureLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *captureLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.warns...)
}
