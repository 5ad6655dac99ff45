package orchestration

import "testing"

func newScheduler() *PhaseScheduler {
	return NewPhaseScheduler(NewDependencyResolver(discardLogger{}))
}

func TestPhaseScheduler_PhaseOrderIsStrict(t *testing.T) {
	modules := []Module{
		newFakeModule("finalize", PhaseFinalization),
		newFakeModule("process", PhaseProcessing),
		newFakeModule("validate", PhaseValidation),
		newFakeModule("clean", PhaseCleanup),
		newFakeModule("prepare", PhasePreparation),
	}

	plans := newScheduler().Schedule(modules)

	wantPhases := []Phase{PhaseValidation, PhasePreparation, PhaseProcessing, PhaseFinalization, PhaseCleanup}
	if len(plans) != len(wantPhases) {
		t.Fatalf("expected %d phase plans, got %d", len(wantPhases), len(plans))
	}
	for i, want := range wantPhases {
		if plans[i].Phase != want {
			t.Errorf("plan %d: expected phase %s, got %s", i, want, plans[i].Phase)
		}
	}
}

func TestPhaseScheduler_EmptyPhasesOmitted(t *testing.T) {
	modules := []Module{
		newFakeModule("a", PhaseProcessing),
		newFakeModule("b", PhaseCleanup),
	}

	plans := newScheduler().Schedule(modules)

	if len(plans) != 2 {
		t.Fatalf("expected 2 phase plans, got %d", len(plans))
	}
	if plans[0].Phase != PhaseProcessing || plans[1].Phase != PhaseCleanup {
		t.Errorf("unexpected phases: %s, %s", plans[0].Phase, plans[1].Phase)
	}
}

func TestPhaseScheduler_PriorityBreaksTies(t *testing.T) {
	modules := []Module{
		newFakeModule("late", PhaseProcessing).priority(20),
		newFakeModule("early", PhaseProcessing).priority(1),
		newFakeModule("mid", PhaseProcessing).priority(10),
	}

	plans := newScheduler().Schedule(modules)

	order := ids(plans[0].Modules)
	want := []string{"early", "mid", "late"}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("expected priority order %v, got %v", want, order)
		}
	}
}

func TestPhaseScheduler_DependenciesBeatPriority(t *testing.T) {
	// "first" has the worst priority but everything depends on it.
	modules := []Module{
		newFakeModule("second", PhaseProcessing, "first").priority(1),
		newFakeModule("first", PhaseProcessing).priority(99),
	}

	plans := newScheduler().Schedule(modules)

	order := ids(plans[0].Modules)
	if order[0] != "first" || order[1] != "second" {
		t.Errorf("expected dependency order to win over priority, got %v", order)
	}
}

func TestPhaseScheduler_CrossPhaseDependencyDoesNotReorderPhases(t *testing.T) {
	// A processing module depending on a cleanup module cannot pull the
	// cleanup module forward; phases stay strict.
	modules := []Module{
		newFakeModule("proc", PhaseProcessing, "clean"),
		newFakeModule("clean", PhaseCleanup),
	}

	plans := newScheduler().Schedule(modules)

	if plans[0].Phase != PhaseProcessing {
		t.Fatalf("expected processing phase first, got %s", plans[0].Phase)
	}
	if plans[0].Modules[0].Metadata().ID != "proc" {
		t.Errorf("expected proc scheduled in processing phase")
	}
}
