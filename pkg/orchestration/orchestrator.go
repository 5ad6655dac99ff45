package orchestration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State tracks the orchestrator lifecycle.
type State int

const (
	StateReady State = iota
	StateRunning
	StateRollingBack
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateRollingBack:
		return "rolling_back"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Operation bundles the inputs of one orchestrated run.
type Operation struct {
	ID      string
	Name    string
	Modules []Module
	// InitialContext seeds the shared context before the caller's context
	// is merged in.
	InitialContext Context
	// MaxParallelWorkers caps group concurrency; <= 0 uses the default.
	MaxParallelWorkers int
}

// OrchestratorConfig holds orchestrator settings.
type OrchestratorConfig struct {
	MaxParallelWorkers int
	Logger             Logger
}

// Orchestrator drives the full algorithm: phase scheduling, group
// partitioning, parallel dispatch, context merging, and rollback on
// required-module failure. It is the sole owner of the shared context.
type Orchestrator struct {
	operation   *Operation
	scheduler   *PhaseScheduler
	partitioner *ParallelGroupPartitioner
	engine      *ParallelExecutionEngine
	logger      Logger

	mu       sync.Mutex
	state    State
	shared   Context
	executed []Module // modules whose Execute returned, in execution order
}

// NewOrchestrator validates the operation's module list and builds an
// orchestrator. A nil module, a missing id, or a duplicate id is rejected
// here, before anything executes. Unknown dependency ids are tolerated and
// treated as already satisfied.
func NewOrchestrator(op *Operation, cfg *OrchestratorConfig) (*Orchestrator, error) {
	if op == nil {
		return nil, fmt.Errorf("operation is required")
	}
	if cfg == nil {
		cfg = &OrchestratorConfig{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}

	seen := make(map[string]bool, len(op.Modules))
	for _, m := range op.Modules {
		if m == nil {
			return nil, ErrNilModule
		}
		id := m.Metadata().ID
		if id == "" {
			return nil, ErrEmptyModuleID
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateModuleID, id)
		}
		seen[id] = true
	}

	workers := cfg.MaxParallelWorkers
	if workers <= 0 {
		workers = op.MaxParallelWorkers
	}

	resolver := NewDependencyResolver(logger)
	return &Orchestrator{
		operation:   op,
		scheduler:   NewPhaseScheduler(resolver),
		partitioner: NewParallelGroupPartitioner(),
		engine:      NewParallelExecutionEngine(workers, logger),
		logger:      logger,
		state:       StateReady,
		shared:      Context{},
	}, nil
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// SharedContext returns a snapshot of the shared context. Intended for
// inspection after a run.
func (o *Orchestrator) SharedContext() Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.shared.Clone()
}

// ExecuteOperation runs the operation to completion and returns the report.
// Module failures never surface as errors: they are captured in the report.
// The report's duration and timestamp are finalized even when a group
// aborts the run or a module panics.
func (o *Orchestrator) ExecuteOperation(ctx context.Context, caller Context, mode ExecutionMode) *ExecutionReport {
	runID := "run-" + uuid.New().String()[:8]
	report := newExecutionReport(o.operation.ID, o.operation.Name, runID, mode)

	start := time.Now()
	defer func() {
		report.TotalDurationSeconds = time.Since(start).Seconds()
		report.Timestamp = time.Now().UTC()
	}()

	o.setState(StateRunning)
	o.prepareContext(caller, runID, mode)

	o.logger.Info("starting operation",
		"run_id", runID,
		"operation", o.operation.ID,
		"modules", len(o.operation.Modules),
		"mode", mode)

	plans := o.scheduler.Schedule(o.operation.Modules)
	groups := o.partitioner.Partition(plans)

	for _, group := range groups {
		select {
		case <-ctx.Done():
			report.recordError(fmt.Sprintf("run aborted: %v", ctx.Err()))
			o.failAndRollback(report)
			return report
		default:
		}

		aborted := o.executeGroup(group, report)
		if aborted {
			o.failAndRollback(report)
			return report
		}
	}

	// Required failures abort through the rollback path above, so a run
	// that reaches this point succeeded even when optional modules failed.
	report.Success = true
	o.setState(StateCompleted)

	o.logger.Info("operation finished",
		"run_id", runID,
		"success", report.Success,
		"succeeded", len(report.ModulesSucceeded),
		"failed", len(report.ModulesFailed),
		"skipped", len(report.ModulesSkipped))

	return report
}

// prepareContext merges the operation defaults and the caller context into
// the shared context and stamps the mode on every mode-aware module.
func (o *Orchestrator) prepareContext(caller Context, runID string, mode ExecutionMode) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.shared.Merge(o.operation.InitialContext)
	o.shared.Merge(caller)
	o.shared[ContextKeyMode] = string(mode)
	o.shared[ContextKeyRunID] = runID
	o.shared[ContextKeyOperationID] = o.operation.ID

	for _, m := range o.operation.Modules {
		if ma, ok := m.(ModeAware); ok {
			ma.SetMode(mode)
		}
	}
}

// executeGroup runs the skip/validate/dispatch/merge lifecycle for one
// group. It returns true when a required failure aborts the run.
func (o *Orchestrator) executeGroup(group Group, report *ExecutionReport) (abort bool) {
	snapshot := o.SharedContext()

	dispatch := make([]Module, 0, len(group.Modules))
	byID := make(map[string]Module, len(group.Modules))
	prereqFailed := false

	for _, m := range group.Modules {
		meta := m.Metadata()

		if !m.ShouldRun(snapshot) {
			o.logger.Debug("module skipped", "module", meta.ID, "reason", "should_run")
			report.recordSkip(meta.ID, NewSkippedResult("should_run returned false"))
			continue
		}

		ok, issues := m.ValidatePrerequisites(snapshot)
		if !ok {
			if meta.Optional {
				o.logger.Info("optional module skipped on failed prerequisites",
					"module", meta.ID, "issues", issues)
				report.recordSkip(meta.ID, NewSkippedResult("prerequisites not met", issues...))
				continue
			}
			o.logger.Error("required module failed prerequisites",
				"module", meta.ID, "issues", issues)
			report.ModulesFailed = append(report.ModulesFailed, meta.ID)
			report.ModuleResults[meta.ID] = NewFailureResult("prerequisites not met", issues...)
			report.recordError(prefixIssues(meta.ID, issues)...)
			prereqFailed = true
			continue
		}

		dispatch = append(dispatch, m)
		byID[meta.ID] = m
	}

	// The whole group gets its skip/validate pass before the abort decision,
	// so every sibling's skip is recorded even when prerequisites fail.
	if prereqFailed {
		return true
	}

	if len(dispatch) == 0 {
		return false
	}

	report.ParallelGroupsCount++

	result := o.engine.ExecuteGroup(Group{Phase: group.Phase, Modules: dispatch}, snapshot)
	if result.Parallel {
		report.ParallelExecutionCount += len(dispatch)
	}
	report.TimeSavedSeconds += result.TimeSaved.Seconds()

	// Merge after the barrier, in the fixed id-lexicographic order.
	for _, id := range result.MergeOrder {
		m := byID[id]
		res := result.Results[id]
		report.ModulesExecuted = append(report.ModulesExecuted, id)
		report.ModuleResults[id] = res

		o.mu.Lock()
		o.executed = append(o.executed, m)
		o.mu.Unlock()

		if res.Success {
			o.mergeData(res.Data)
			report.ModulesSucceeded = append(report.ModulesSucceeded, id)
			continue
		}

		report.ModulesFailed = append(report.ModulesFailed, id)
		if len(res.Errors) > 0 {
			report.recordError(prefixIssues(id, res.Errors)...)
		} else {
			report.recordError(fmt.Sprintf("%s: %s", id, res.Message))
		}
		if m.Metadata().Optional {
			o.logger.Info("optional module failed, continuing", "module", id)
		}
	}

	// The engine already decided whether a required module failed.
	return result.RequiredFailure
}

func (o *Orchestrator) mergeData(data map[string]any) {
	if len(data) == 0 {
		return
	}
	o.mu.Lock()
	o.shared.Merge(data)
	o.mu.Unlock()
}

// failAndRollback enters ROLLING_BACK, sweeps executed modules in strict
// reverse order, and marks the run failed. Rollback failures are recorded
// but never abort the sweep.
func (o *Orchestrator) failAndRollback(report *ExecutionReport) {
	o.setState(StateRollingBack)

	o.mu.Lock()
	executed := make([]Module, len(o.executed))
	copy(executed, o.executed)
	o.mu.Unlock()

	snapshot := o.SharedContext()
	for i := len(executed) - 1; i >= 0; i-- {
		m := executed[i]
		id := m.Metadata().ID
		o.logger.Info("rolling back module", "module", id)
		if ok := o.rollbackModule(m, snapshot); !ok {
			report.recordError(fmt.Sprintf("rollback failed for %s", id))
		}
	}

	report.Success = false
	o.setState(StateFailed)
}

// rollbackModule calls Rollback with panic containment; a panic counts as a
// rollback failure.
func (o *Orchestrator) rollbackModule(m Module, snapshot Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("rollback panicked", "module", m.Metadata().ID, "panic", r)
			ok = false
		}
	}()
	return m.Rollback(snapshot)
}

func prefixIssues(id string, issues []string) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = fmt.Sprintf("%s: %s", id, issue)
	}
	return out
}
