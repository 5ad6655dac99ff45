package orchestration

// Group is a set of modules from one phase that may execute concurrently:
// by construction no module in a group depends on another module in the
// same group.
type Group struct {
	Phase   Phase
	Modules []Module
}

// ParallelGroupPartitioner re-derives topological levels within each phase:
// level 0 holds modules with no unresolved same-phase dependency, level k
// holds modules whose same-phase dependencies are all satisfied by levels
// below k. Each level becomes one parallel-eligible group.
type ParallelGroupPartitioner struct{}

// NewParallelGroupPartitioner creates a partitioner.
func NewParallelGroupPartitioner() *ParallelGroupPartitioner {
	return &ParallelGroupPartitioner{}
}

// Partition splits the scheduled plan into groups, preserving phase order
// and level order within each phase.
func (p *ParallelGroupPartitioner) Partition(plans []PhasePlan) []Group {
	var groups []Group
	for _, plan := range plans {
		groups = append(groups, p.partitionPhase(plan)...)
	}
	return groups
}

func (p *ParallelGroupPartitioner) partitionPhase(plan PhasePlan) []Group {
	present := make(map[string]bool, len(plan.Modules))
	for _, m := range plan.Modules {
		present[m.Metadata().ID] = true
	}

	satisfied := make(map[string]bool, len(plan.Modules))
	remaining := plan.Modules

	var groups []Group
	for len(remaining) > 0 {
		var level []Module
		var deferred []Module

		for _, m := range remaining {
			if p.depsSatisfied(m, present, satisfied) {
				level = append(level, m)
			} else {
				deferred = append(deferred, m)
			}
		}

		if len(level) == 0 {
			// The resolver fell back on a cycle; no level can form. Emit the
			// remaining modules as singleton groups in their current order so
			// the run proceeds sequentially instead of stalling.
			for _, m := range deferred {
				groups = append(groups, Group{Phase: plan.Phase, Modules: []Module{m}})
			}
			break
		}

		groups = append(groups, Group{Phase: plan.Phase, Modules: level})
		for _, m := range level {
			satisfied[m.Metadata().ID] = true
		}
		remaining = deferred
	}

	return groups
}

// depsSatisfied reports whether every same-phase dependency of m is in a
// completed level. Dependencies outside the phase set are treated as
// already satisfied.
func (p *ParallelGroupPartitioner) depsSatisfied(m Module, present, satisfied map[string]bool) bool {
	for _, dep := range m.Metadata().Dependencies {
		if present[dep] && !satisfied[dep] {
			return false
		}
	}
	return true
}
