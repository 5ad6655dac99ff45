package orchestration

import "time"

// ExecutionReport is the structured summary of one run. It is the sole
// failure-visibility channel for callers: no module error escapes the
// orchestrator any other way.
type ExecutionReport struct {
	OperationID   string `json:"operation_id"`
	OperationName string `json:"operation_name"`
	RunID         string `json:"run_id"`
	Mode          ExecutionMode `json:"mode"`
	Success       bool   `json:"success"`

	// Ordered module id lists. ModulesExecuted preserves execution order
	// and drives rollback (strict reverse).
	ModulesExecuted  []string `json:"modules_executed"`
	ModulesSucceeded []string `json:"modules_succeeded"`
	ModulesFailed    []string `json:"modules_failed"`
	ModulesSkipped   []string `json:"modules_skipped"`

	ModuleResults map[string]*ModuleResult `json:"module_results"`

	TotalDurationSeconds float64 `json:"total_duration_seconds"`
	ParallelGroupsCount  int     `json:"parallel_groups_count"`
	// ParallelExecutionCount counts modules that ran with at least one
	// concurrent sibling.
	ParallelExecutionCount int     `json:"parallel_execution_count"`
	TimeSavedSeconds       float64 `json:"time_saved_seconds"`

	Errors    []string  `json:"errors,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// newExecutionReport creates the report at run start; duration and
// timestamp are finalized in a guaranteed-run path.
func newExecutionReport(operationID, operationName, runID string, mode ExecutionMode) *ExecutionReport {
	return &ExecutionReport{
		OperationID:      operationID,
		OperationName:    operationName,
		RunID:            runID,
		Mode:             mode,
		ModulesExecuted:  []string{},
		ModulesSucceeded: []string{},
		ModulesFailed:    []string{},
		ModulesSkipped:   []string{},
		ModuleResults:    make(map[string]*ModuleResult),
	}
}

// recordSkip registers a skipped module with its result.
func (r *ExecutionReport) recordSkip(id string, res *ModuleResult) {
	r.ModulesSkipped = append(r.ModulesSkipped, id)
	r.ModuleResults[id] = res
}

// recordError appends to the flat error list.
func (r *ExecutionReport) recordError(errs ...string) {
	r.Errors = append(r.Errors, errs...)
}
