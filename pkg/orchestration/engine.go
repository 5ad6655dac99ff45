package orchestration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxParallelWorkers bounds group concurrency when the caller does
// not configure a cap.
const DefaultMaxParallelWorkers = 4

// GroupResult holds the outcome of executing one parallel group.
type GroupResult struct {
	// Results maps module id to its execution result. Every dispatched
	// module has an entry, whether it succeeded, failed, or panicked.
	Results map[string]*ModuleResult
	// MergeOrder lists module ids in the fixed merge order
	// (id-lexicographic, not completion order).
	MergeOrder []string
	// WallClock is the elapsed time for the whole group.
	WallClock time.Duration
	// TimeSaved is max(0, sum of individual durations - WallClock).
	TimeSaved time.Duration
	// Parallel reports whether the group was dispatched to the worker pool
	// (size > 1) rather than executed inline.
	Parallel bool
	// RequiredFailure is set when any non-optional module in the group
	// failed.
	RequiredFailure bool
}

// ParallelExecutionEngine executes one group of modules against a context
// snapshot taken at group start. Single-module groups run inline on the
// calling goroutine; larger groups are dispatched to a worker pool bounded
// by min(maxWorkers, group size) with a join barrier. Siblings are never
// cancelled when one fails, which keeps reporting deterministic.
type ParallelExecutionEngine struct {
	maxWorkers int
	logger     Logger
}

// NewParallelExecutionEngine creates an engine with the given worker cap.
// Values <= 0 fall back to DefaultMaxParallelWorkers.
func NewParallelExecutionEngine(maxWorkers int, logger Logger) *ParallelExecutionEngine {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxParallelWorkers
	}
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &ParallelExecutionEngine{maxWorkers: maxWorkers, logger: logger}
}

// ExecuteGroup runs every module in the group and blocks until all of them
// return. The snapshot is read-only for the duration of the group: all
// siblings see an identical view.
func (e *ParallelExecutionEngine) ExecuteGroup(group Group, snapshot Context) *GroupResult {
	start := time.Now()
	result := &GroupResult{
		Results: make(map[string]*ModuleResult, len(group.Modules)),
	}

	switch len(group.Modules) {
	case 0:
		return result
	case 1:
		// Inline execution: no pool dispatch overhead, deterministic.
		m := group.Modules[0]
		result.Results[m.Metadata().ID] = e.runModule(m, snapshot)
	default:
		result.Parallel = true
		e.dispatch(group.Modules, snapshot, result)
	}

	result.WallClock = time.Since(start)

	var total time.Duration
	for id, res := range result.Results {
		total += res.Duration
		result.MergeOrder = append(result.MergeOrder, id)
	}
	// Merge order is id-lexicographic, never completion order, so reports
	// stay reproducible.
	sort.Strings(result.MergeOrder)

	if saved := total - result.WallClock; saved > 0 && result.Parallel {
		result.TimeSaved = saved
	}

	for _, m := range group.Modules {
		res := result.Results[m.Metadata().ID]
		if !res.Success && !m.Metadata().Optional {
			result.RequiredFailure = true
			break
		}
	}

	return result
}

// dispatch fans the group out to a bounded worker pool and waits for every
// module to return. Failures do not cancel siblings.
func (e *ParallelExecutionEngine) dispatch(mods []Module, snapshot Context, result *GroupResult) {
	workers := e.maxWorkers
	if len(mods) < workers {
		workers = len(mods)
	}
	sem := semaphore.NewWeighted(int64(workers))

	results := make([]*ModuleResult, len(mods))
	var wg sync.WaitGroup
	for i, m := range mods {
		wg.Add(1)
		go func(idx int, mod Module) {
			defer wg.Done()
			// The pool is never closed mid-group, so Acquire cannot fail.
			_ = sem.Acquire(context.Background(), 1)
			defer sem.Release(1)
			results[idx] = e.runModule(mod, snapshot)
		}(i, m)
	}
	wg.Wait()

	for i, m := range mods {
		result.Results[m.Metadata().ID] = results[i]
	}
}

// runModule executes a single module, stamping the measured duration and
// converting panics into failed results so they never escape the engine.
func (e *ParallelExecutionEngine) runModule(m Module, snapshot Context) (res *ModuleResult) {
	id := m.Metadata().ID
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("module panicked", "module", id, "panic", r)
			res = &ModuleResult{
				Success:  false,
				Status:   StatusFailed,
				Message:  fmt.Sprintf("module %s panicked", id),
				Errors:   []string{fmt.Sprintf("panic: %v", r)},
				Duration: time.Since(start),
			}
		}
	}()

	e.logger.Debug("executing module", "module", id)
	res = m.Execute(snapshot)
	if res == nil {
		res = NewFailureResult(fmt.Sprintf("module %s returned no result", id))
	}
	res.Duration = time.Since(start)
	return res
}
