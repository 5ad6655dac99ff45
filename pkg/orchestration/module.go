package orchestration

import (
	"encoding/json"
	"fmt"
	"time"
)

// Phase represents a named execution stage. Phases are totally ordered by
// their ordinal: every module of a phase finishes before the next phase starts.
type Phase int

const (
	PhaseValidation Phase = iota
	PhasePreparation
	PhaseProcessing
	PhaseFinalization
	PhaseCleanup
)

// phases lists all phases in execution order.
var phases = []Phase{
	PhaseValidation,
	PhasePreparation,
	PhaseProcessing,
	PhaseFinalization,
	PhaseCleanup,
}

func (p Phase) String() string {
	switch p {
	case PhaseValidation:
		return "validation"
	case PhasePreparation:
		return "preparation"
	case PhaseProcessing:
		return "processing"
	case PhaseFinalization:
		return "finalization"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// ParsePhase converts a phase name to its Phase value.
func ParsePhase(s string) (Phase, error) {
	for _, p := range phases {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase: %q", s)
}

// ExecutionMode controls whether modules perform destructive actions.
type ExecutionMode string

const (
	// ModeLive executes modules with full side effects.
	ModeLive ExecutionMode = "live"
	// ModeDryRun asks modules to report intended effects without performing
	// destructive actions.
	ModeDryRun ExecutionMode = "dry_run"
)

// ResultStatus represents the outcome category of a module execution.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusFailed  ResultStatus = "failed"
	StatusSkipped ResultStatus = "skipped"
	StatusPartial ResultStatus = "partial"
)

// ModuleMetadata describes a module's identity and scheduling constraints.
type ModuleMetadata struct {
	// ID uniquely identifies the module within an operation.
	ID          string
	Name        string
	Description string
	// Phase places the module in the fixed phase order.
	Phase Phase
	// Priority breaks ties among modules with no relative dependency
	// ordering. Lower values run first.
	Priority int
	// Dependencies lists module IDs that must complete before this module
	// starts. IDs not present among the supplied modules are treated as
	// already satisfied.
	Dependencies []string
	// Optional modules may fail without aborting the operation.
	Optional bool
}

// ModuleResult captures the outcome of a single Execute call. A result is
// created once per execution and never mutated afterwards.
type ModuleResult struct {
	Success  bool           `json:"success"`
	Status   ResultStatus   `json:"status"`
	Message  string         `json:"message,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Duration time.Duration  `json:"-"`
}

// MarshalJSON emits the duration in seconds to keep reports portable.
func (r *ModuleResult) MarshalJSON() ([]byte, error) {
	type alias ModuleResult
	return json.Marshal(struct {
		*alias
		DurationSeconds float64 `json:"duration_seconds"`
	}{
		alias:           (*alias)(r),
		DurationSeconds: r.Duration.Seconds(),
	})
}

// NewSuccessResult builds a successful result with an optional data payload.
func NewSuccessResult(message string, data map[string]any) *ModuleResult {
	return &ModuleResult{
		Success: true,
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	}
}

// NewFailureResult builds a failed result carrying the given errors.
func NewFailureResult(message string, errs ...string) *ModuleResult {
	return &ModuleResult{
		Success: false,
		Status:  StatusFailed,
		Message: message,
		Errors:  errs,
	}
}

// NewSkippedResult builds a skipped result.
func NewSkippedResult(message string, warnings ...string) *ModuleResult {
	return &ModuleResult{
		Success:  true,
		Status:   StatusSkipped,
		Message:  message,
		Warnings: warnings,
	}
}

// Module is the contract implemented by every orchestrated work unit.
// Implementations are constructed once per run by a Factory and must not
// mutate the context they receive; all writes to shared state go through
// the orchestrator by returning Data in the ModuleResult.
type Module interface {
	// Metadata is pure and callable before any execution.
	Metadata() ModuleMetadata

	// ShouldRun reports whether the module applies to this run at all.
	ShouldRun(ctx Context) bool

	// ValidatePrerequisites checks that the module can execute. The returned
	// issues explain a false verdict.
	ValidatePrerequisites(ctx Context) (bool, []string)

	// Execute performs the module's work against a context snapshot.
	Execute(ctx Context) *ModuleResult

	// Rollback undoes the module's effects, best effort. It is only invoked
	// on modules that completed execution, in reverse execution order.
	Rollback(ctx Context) bool
}

// ModeAware is implemented by modules that change behavior under DRY_RUN.
// The orchestrator stamps the mode on every such module before execution.
type ModeAware interface {
	SetMode(mode ExecutionMode)
}

// Base provides common Module plumbing for concrete implementations.
// Embedders override the lifecycle methods they care about.
type Base struct {
	Meta ModuleMetadata
	Mode ExecutionMode
}

func (b *Base) Metadata() ModuleMetadata { return b.Meta }

func (b *Base) SetMode(mode ExecutionMode) { b.Mode = mode }

func (b *Base) ShouldRun(ctx Context) bool { return true }

func (b *Base) ValidatePrerequisites(ctx Context) (bool, []string) { return true, nil }

func (b *Base) Rollback(ctx Context) bool { return true }

// DryRun reports whether the module was stamped with DRY_RUN mode.
func (b *Base) DryRun() bool { return b.Mode == ModeDryRun }
