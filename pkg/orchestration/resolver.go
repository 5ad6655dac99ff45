package orchestration

// DependencyResolver orders the modules of a single phase so that every
// dependency precedes its dependents.
//
// The resolver is deliberately fail-open: a cycle within the phase logs a
// warning and falls back to the original input order instead of failing the
// run. Dependency IDs that do not belong to the supplied set are treated as
// already satisfied.
type DependencyResolver struct {
	logger Logger
}

// NewDependencyResolver creates a resolver that reports cycles to the given
// logger.
func NewDependencyResolver(logger Logger) *DependencyResolver {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &DependencyResolver{logger: logger}
}

// Resolve returns the modules in dependency order using Kahn's algorithm.
// The ordering is stable: among modules with no relative dependency
// ordering, input order is preserved. O(V+E).
func (r *DependencyResolver) Resolve(modules []Module) []Module {
	if len(modules) <= 1 {
		return modules
	}

	byID := make(map[string]Module, len(modules))
	position := make(map[string]int, len(modules))
	for i, m := range modules {
		id := m.Metadata().ID
		byID[id] = m
		position[id] = i
	}

	// In-degree counts only edges whose target is present in this set.
	inDegree := make(map[string]int, len(modules))
	dependents := make(map[string][]string, len(modules))
	for _, m := range modules {
		meta := m.Metadata()
		for _, dep := range meta.Dependencies {
			if _, present := byID[dep]; !present {
				continue
			}
			inDegree[meta.ID]++
			dependents[dep] = append(dependents[dep], meta.ID)
		}
	}

	// Seed the queue in input order so ties keep their relative position.
	var queue []string
	for _, m := range modules {
		if inDegree[m.Metadata().ID] == 0 {
			queue = append(queue, m.Metadata().ID)
		}
	}

	ordered := make([]Module, 0, len(modules))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		ordered = append(ordered, byID[id])

		freed := dependents[id]
		// Release dependents in input order for determinism.
		sortByPosition(freed, position)
		for _, next := range freed {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(ordered) < len(modules) {
		r.logger.Warn("dependency cycle detected, falling back to input order",
			"phase_modules", len(modules),
			"resolved", len(ordered))
		return modules
	}

	return ordered
}

// sortByPosition sorts ids by their original input position (insertion sort,
// dependent lists are short).
func sortByPosition(ids []string, position map[string]int) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && position[ids[j]] < position[ids[j-1]]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}
