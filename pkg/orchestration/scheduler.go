package orchestration

import "sort"

// PhasePlan holds the resolved module order for one phase.
type PhasePlan struct {
	Phase   Phase
	Modules []Module
}

// PhaseScheduler groups modules by phase and applies the dependency
// resolver per phase. Phase ordinals are the primary sort key; within a
// phase the order is dependency-resolved first, with priority breaking ties
// among modules that have no relative dependency ordering.
type PhaseScheduler struct {
	resolver *DependencyResolver
}

// NewPhaseScheduler creates a scheduler on top of the given resolver.
func NewPhaseScheduler(resolver *DependencyResolver) *PhaseScheduler {
	return &PhaseScheduler{resolver: resolver}
}

// Schedule partitions modules by phase and returns the per-phase plans in
// phase order. Phases with no modules are omitted.
func (s *PhaseScheduler) Schedule(modules []Module) []PhasePlan {
	byPhase := make(map[Phase][]Module)
	for _, m := range modules {
		phase := m.Metadata().Phase
		byPhase[phase] = append(byPhase[phase], m)
	}

	var plans []PhasePlan
	for _, phase := range phases {
		group, ok := byPhase[phase]
		if !ok {
			continue
		}
		// Priority feeds the resolver as the tie-break: the resolver keeps
		// input order among modules with no relative dependency ordering.
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Metadata().Priority < group[j].Metadata().Priority
		})
		plans = append(plans, PhasePlan{
			Phase:   phase,
			Modules: s.resolver.Resolve(group),
		})
	}

	return plans
}
