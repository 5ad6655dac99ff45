package orchestration

import (
	"context"
	"testing"
	"time"
)

func newTestOrchestrator(t *testing.T, modules []Module, workers int) *Orchestrator {
	t.Helper()
	orch, err := NewOrchestrator(&Operation{
		ID:      "test-op",
		Name:    "Test Operation",
		Modules: modules,
	}, &OrchestratorConfig{
		MaxParallelWorkers: workers,
		Logger:             discardLogger{},
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return orch
}

func TestNewOrchestrator_InputValidation(t *testing.T) {
	tests := []struct {
		name    string
		modules []Module
	}{
		{"nil module", []Module{newFakeModule("a", PhaseProcessing), nil}},
		{"empty id", []Module{newFakeModule("", PhaseProcessing)}},
		{"duplicate id", []Module{
			newFakeModule("dup", PhaseProcessing),
			newFakeModule("dup", PhaseCleanup),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrchestrator(&Operation{ID: "op", Modules: tt.modules}, nil)
			if err == nil {
				t.Errorf("expected construction error")
			}
		})
	}
}

func TestExecuteOperation_EmptyModuleList(t *testing.T) {
	orch := newTestOrchestrator(t, nil, 4)
	report := orch.ExecuteOperation(context.Background(), nil, ModeLive)

	if !report.Success {
		t.Errorf("empty operation must succeed")
	}
	if len(report.ModulesExecuted) != 0 || len(report.ModulesFailed) != 0 || len(report.ModulesSkipped) != 0 {
		t.Errorf("expected empty module lists, got %+v", report)
	}
	if report.ParallelGroupsCount != 0 {
		t.Errorf("expected 0 groups, got %d", report.ParallelGroupsCount)
	}
	if orch.State() != StateCompleted {
		t.Errorf("expected completed state, got %s", orch.State())
	}
}

func TestExecuteOperation_ChainExecutesInOrder(t *testing.T) {
	rec := newRecorder()
	modules := []Module{
		newFakeModule("a", PhaseProcessing).withRecorder(rec),
		newFakeModule("b", PhaseProcessing, "a").withRecorder(rec),
		newFakeModule("c", PhaseProcessing, "b").withRecorder(rec),
		newFakeModule("d", PhaseProcessing, "c").withRecorder(rec),
	}

	orch := newTestOrchestrator(t, modules, 4)
	report := orch.ExecuteOperation(context.Background(), nil, ModeLive)

	if !report.Success {
		t.Fatalf("expected success, errors: %v", report.Errors)
	}
	if report.ParallelGroupsCount != 4 {
		t.Errorf("expected 4 groups for a chain, got %d", report.ParallelGroupsCount)
	}
	if report.ParallelExecutionCount != 0 {
		t.Errorf("chain has no concurrent siblings, got %d", report.ParallelExecutionCount)
	}
	if report.TimeSavedSeconds != 0 {
		t.Errorf("sequential run cannot save time, got %f", report.TimeSavedSeconds)
	}

	// Completion timestamps are non-decreasing along the chain.
	chain := []string{"a", "b", "c", "d"}
	for i := 1; i < len(chain); i++ {
		prev, cur := rec.finishAt[chain[i-1]], rec.finishAt[chain[i]]
		if cur.Before(prev) {
			t.Errorf("%s finished before %s", chain[i], chain[i-1])
		}
	}
}

func TestExecuteOperation_DiamondCounts(t *testing.T) {
	sleep := 30 * time.Millisecond
	a := newFakeModule("a", PhaseProcessing)
	a.sleep = sleep
	b := newFakeModule("b", PhaseProcessing)
	b.sleep = sleep
	c := newFakeModule("c", PhaseProcessing, "a", "b")
	c.sleep = sleep

	orch := newTestOrchestrator(t, []Module{a, b, c}, 4)
	start := time.Now()
	report := orch.ExecuteOperation(context.Background(), nil, ModeLive)
	elapsed := time.Since(start)

	if !report.Success {
		t.Fatalf("expected success, errors: %v", report.Errors)
	}
	if report.ParallelGroupsCount != 2 {
		t.Errorf("expected 2 groups, got %d", report.ParallelGroupsCount)
	}
	if report.ParallelExecutionCount != 2 {
		t.Errorf("expected a and b counted as parallel executions, got %d", report.ParallelExecutionCount)
	}
	// Total should be near 2 sleeps (a||b, then c), not 3.
	if elapsed >= 3*sleep {
		t.Errorf("expected parallel speedup, elapsed %v", elapsed)
	}
	if report.TimeSavedSeconds <= 0 {
		t.Errorf("expected positive time saved, got %f", report.TimeSavedSeconds)
	}
}

func TestExecuteOperation_RequiredFailureAbortsAndRollsBack(t *testing.T) {
	rec := newRecorder()
	ok := newFakeModule("a-ok", PhaseValidation).withRecorder(rec)
	bad := newFakeModule("b-bad", PhaseProcessing, "a-ok").withRecorder(rec)
	bad.fail = true
	never := newFakeModule("c-never", PhaseProcessing, "b-bad").withRecorder(rec)

	orch := newTestOrchestrator(t, []Module{ok, bad, never}, 4)
	report := orch.ExecuteOperation(context.Background(), nil, ModeLive)

	if report.Success {
		t.Fatalf("expected failed report")
	}
	if indexOf(report.ModulesFailed, "b-bad") < 0 {
		t.Errorf("expected b-bad in failed list, got %v", report.ModulesFailed)
	}
	if indexOf(report.ModulesExecuted, "c-never") >= 0 {
		t.Errorf("modules after a required failure must not execute")
	}
	if len(report.Errors) == 0 {
		t.Errorf("expected errors recorded")
	}
	// Rollback covers executed modules in strict reverse order.
	want := []string{"b-bad", "a-ok"}
	if len(rec.rollbacks) != len(want) {
		t.Fatalf("expected rollbacks %v, got %v", want, rec.rollbacks)
	}
	for i, id := range want {
		if rec.rollbacks[i] != id {
			t.Errorf("rollback %d: expected %s, got %s", i, id, rec.rollbacks[i])
		}
	}
	if orch.State() != StateFailed {
		t.Errorf("expected failed state, got %s", orch.State())
	}
}

func TestExecuteOperation_SingleRequiredFailure(t *testing.T) {
	bad := newFakeModule("only", PhaseProcessing)
	bad.fail = true

	orch := newTestOrchestrator(t, []Module{bad}, 4)
	report := orch.ExecuteOperation(context.Background(), nil, ModeLive)

	if report.Success {
		t.Errorf("expected failure")
	}
	if len(report.ModulesSucceeded) != 0 {
		t.Errorf("expected empty succeeded list, got %v", report.ModulesSucceeded)
	}
	if len(report.ModulesFailed) != 1 || report.ModulesFailed[0] != "only" {
		t.Errorf("expected failed=[only], got %v", report.ModulesFailed)
	}
}

func TestExecuteOperation_OptionalFailureContinues(t *testing.T) {
	soft := newFakeModule("soft", PhaseProcessing).optional()
	soft.fail = true
	after := newFakeModule("after", PhaseCleanup)

	orch := newTestOrchestrator(t, []Module{soft, after}, 4)
	report := orch.ExecuteOperation(context.Background(), nil, ModeLive)

	if !report.Success {
		t.Errorf("optional failure must not fail the run, errors: %v", report.Errors)
	}
	if indexOf(report.ModulesFailed, "soft") < 0 {
		t.Errorf("optional failure must be recorded in failed list")
	}
	if indexOf(report.ModulesSucceeded, "soft") >= 0 {
		t.Errorf("failed module must not appear in succeeded list")
	}
	if indexOf(report.ModulesSucceeded, "after") < 0 {
		t.Errorf("later modules must still run after optional failure")
	}
}

func TestExecuteOperation_OptionalFailureInParallelGroup(t *testing.T) {
	soft := newFakeModule("soft", PhaseProcessing).optional()
	soft.fail = true
	solid := newFakeModule("solid", PhaseProcessing)

	orch := newTestOrchestrator(t, []Module{soft, solid}, 4)
	report := orch.ExecuteOperation(context.Background(), nil, ModeLive)

	if !report.Success {
		t.Errorf("run with only optional failures must succeed, errors: %v", report.Errors)
	}
	if indexOf(report.ModulesFailed, "soft") < 0 {
		t.Errorf("optional failure must still appear in failed list, got %v", report.ModulesFailed)
	}
	if indexOf(report.ModulesSucceeded, "solid") < 0 {
		t.Errorf("sibling must succeed, got %v", report.ModulesSucceeded)
	}
	if orch.State() != StateCompleted {
		t.Errorf("expected completed state, got %s", orch.State())
	}
}

func TestExecuteOperation_PanicTreatedAsFailure(t *testing.T) {
	rec := newRecorder()
	boom := newFakeModule("boom", PhaseProcessing).withRecorder(rec)
	boom.panicMsg = "unexpected"

	orch := newTestOrchestrator(t, []Module{boom}, 4)
	report := orch.ExecuteOperation(context.Background(), nil, ModeLive)

	if report.Success {
		t.Errorf("panic must fail the run")
	}
	if res := report.ModuleResults["boom"]; res == nil || res.Status != StatusFailed {
		t.Errorf("expected failed result for panicking module, got %+v", res)
	}
}

func TestExecuteOperation_SkippedByShouldRun(t *testing.T) {
	skipped := newFakeModule("skipped", PhaseProcessing)
	skipped.skip = true
	ran := newFakeModule("ran", PhaseProcessing)

	orch := newTestOrchestrator(t, []Module{skipped, ran}, 4)
	report := orch.ExecuteOperation(context.Background(), nil, ModeLive)

	if !report.Success {
		t.Fatalf("expected success")
	}
	if indexOf(report.ModulesSkipped, "skipped") < 0 {
		t.Errorf("expected skipped module recorded")
	}
	if indexOf(report.ModulesExecuted, "skipped") >= 0 {
		t.Errorf("skipped module must not execute")
	}
	if res := report.ModuleResults["skipped"]; res == nil || res.Status != StatusSkipped {
		t.Errorf("expected skipped result, got %+v", res)
	}
}

func TestExecuteOperation_PrerequisiteFailures(t *testing.T) {
	t.Run("optional becomes skip with warnings", func(t *testing.T) {
		m := newFakeModule("opt", PhaseProcessing).optional()
		m.validateOK = false
		m.validateMsgs = []string{"missing input"}

		orch := newTestOrchestrator(t, []Module{m}, 4)
		report := orch.ExecuteOperation(context.Background(), nil, ModeLive)

		if !report.Success {
			t.Errorf("optional prerequisite failure must not fail the run")
		}
		res := report.ModuleResults["opt"]
		if res == nil || res.Status != StatusSkipped {
			t.Fatalf("expected skipped result, got %+v", res)
		}
		if len(res.Warnings) != 1 || res.Warnings[0] != "missing input" {
			t.Errorf("expected issues as warnings, got %v", res.Warnings)
		}
	})

	t.Run("required aborts and rolls back", func(t *testing.T) {
		rec := newRecorder()
		first := newFakeModule("first", PhaseValidation).withRecorder(rec)
		gate := newFakeModule("gate", PhaseProcessing).withRecorder(rec)
		gate.validateOK = false
		gate.validateMsgs = []string{"workspace locked"}
		last := newFakeModule("last", PhaseCleanup).withRecorder(rec)

		orch := newTestOrchestrator(t, []Module{first, gate, last}, 4)
		report := orch.ExecuteOperation(context.Background(), nil, ModeLive)

		if report.Success {
			t.Errorf("required prerequisite failure must fail the run")
		}
		if indexOf(report.ModulesExecuted, "last") >= 0 {
			t.Errorf("remaining groups must not run")
		}
		if len(rec.rollbacks) != 1 || rec.rollbacks[0] != "first" {
			t.Errorf("expected rollback of executed modules only, got %v", rec.rollbacks)
		}
	})
}

func TestExecuteOperation_SiblingSkipsRecordedOnPrerequisiteFailure(t *testing.T) {
	gate := newFakeModule("gate", PhaseProcessing)
	gate.validateOK = false
	gate.validateMsgs = []string{"workspace locked"}
	bystander := newFakeModule("bystander", PhaseProcessing)
	bystander.skip = true

	orch := newTestOrchestrator(t, []Module{gate, bystander}, 4)
	report := orch.ExecuteOperation(context.Background(), nil, ModeLive)

	if report.Success {
		t.Fatalf("required prerequisite failure must fail the run")
	}
	if indexOf(report.ModulesFailed, "gate") < 0 {
		t.Errorf("expected gate in failed list, got %v", report.ModulesFailed)
	}
	// The sibling's skip pass runs before the group aborts.
	if indexOf(report.ModulesSkipped, "bystander") < 0 {
		t.Errorf("expected bystander skip recorded, got %v", report.ModulesSkipped)
	}
	if indexOf(report.ModulesExecuted, "bystander") >= 0 {
		t.Errorf("bystander must not execute")
	}
}

func TestExecuteOperation_RollbackFailureRecordedNotRetried(t *testing.T) {
	rec := newRecorder()
	stubborn := newFakeModule("stubborn", PhaseValidation).withRecorder(rec)
	stubborn.rollbackOK = false
	bad := newFakeModule("zz-bad", PhaseProcessing).withRecorder(rec)
	bad.fail = true

	orch := newTestOrchestrator(t, []Module{stubborn, bad}, 4)
	report := orch.ExecuteOperation(context.Background(), nil, ModeLive)

	if report.Success {
		t.Fatalf("expected failure")
	}
	found := false
	for _, e := range report.Errors {
		if e == "rollback failed for stubborn" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected rollback failure recorded, errors: %v", report.Errors)
	}
	// Sweep continues despite the failure: both modules were attempted.
	if len(rec.rollbacks) != 2 {
		t.Errorf("expected full rollback sweep, got %v", rec.rollbacks)
	}
}

func TestExecuteOperation_RollbackPanicContained(t *testing.T) {
	rec := newRecorder()
	explosive := newFakeModule("aa-explosive", PhaseValidation).withRecorder(rec)
	explosive.rollbackPanic = true
	bad := newFakeModule("zz-bad", PhaseProcessing).withRecorder(rec)
	bad.fail = true

	orch := newTestOrchestrator(t, []Module{explosive, bad}, 4)
	report := orch.ExecuteOperation(context.Background(), nil, ModeLive)

	if report.Success {
		t.Fatalf("expected failure")
	}
	found := false
	for _, e := range report.Errors {
		if e == "rollback failed for aa-explosive" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected panicking rollback recorded as failure, errors: %v", report.Errors)
	}
}

func TestExecuteOperation_ContextMergeAfterBarrier(t *testing.T) {
	producer := newFakeModule("producer", PhasePreparation)
	producer.data = map[string]any{"artifact": "built"}
	consumer := &contextCheckModule{
		Base:    Base{Meta: ModuleMetadata{ID: "consumer", Phase: PhaseProcessing, Dependencies: []string{"producer"}}},
		wantKey: "artifact",
	}

	orch := newTestOrchestrator(t, []Module{producer, consumer}, 4)
	report := orch.ExecuteOperation(context.Background(), nil, ModeLive)

	if !report.Success {
		t.Fatalf("expected success, errors: %v", report.Errors)
	}
	if got := orch.SharedContext().GetString("artifact"); got != "built" {
		t.Errorf("expected merged context value, got %q", got)
	}
}

func TestExecuteOperation_ModeStamping(t *testing.T) {
	m := newFakeModule("aware", PhaseProcessing)

	orch := newTestOrchestrator(t, []Module{m}, 4)
	orch.ExecuteOperation(context.Background(), nil, ModeDryRun)

	if m.Mode != ModeDryRun {
		t.Errorf("expected DRY_RUN stamped on module, got %q", m.Mode)
	}
	if mode := ModeFromContext(orch.SharedContext()); mode != ModeDryRun {
		t.Errorf("expected mode in shared context, got %q", mode)
	}
}

func TestExecuteOperation_CancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := newFakeModule("pending", PhaseProcessing)
	orch := newTestOrchestrator(t, []Module{m}, 4)
	report := orch.ExecuteOperation(ctx, nil, ModeLive)

	if report.Success {
		t.Errorf("cancelled run must not succeed")
	}
	if len(report.ModulesExecuted) != 0 {
		t.Errorf("no module may execute after cancellation, got %v", report.ModulesExecuted)
	}
}

func TestExecuteOperation_ReportAlwaysFinalized(t *testing.T) {
	bad := newFakeModule("bad", PhaseProcessing)
	bad.fail = true

	orch := newTestOrchestrator(t, []Module{bad}, 4)
	report := orch.ExecuteOperation(context.Background(), nil, ModeLive)

	if report.Timestamp.IsZero() {
		t.Errorf("timestamp must be set on failure paths")
	}
	if report.TotalDurationSeconds < 0 {
		t.Errorf("duration must be non-negative")
	}
	if report.TimeSavedSeconds < 0 {
		t.Errorf("time saved must never be negative")
	}
}

// contextCheckModule fails unless the expected key is visible in its
// snapshot, proving merges land before the next group starts.
type contextCheckModule struct {
	Base
	wantKey string
}

func (m *contextCheckModule) Execute(ctx Context) *ModuleResult {
	if _, ok := ctx[m.wantKey]; !ok {
		return NewFailureResult("missing context key " + m.wantKey)
	}
	return NewSuccessResult("saw "+m.wantKey, nil)
}
