package orchestration

import "errors"

// Sentinel errors for orchestrator input validation and the registry.
var (
	ErrNilModule         = errors.New("nil module in module list")
	ErrEmptyModuleID     = errors.New("module id is required")
	ErrDuplicateModuleID = errors.New("duplicate module id")
	ErrUnknownModule     = errors.New("unknown module id")
	ErrAlreadyRegistered = errors.New("module already registered")
	ErrNilFactory        = errors.New("module factory is required")
)

// ErrNotAnOperation is returned when a file is not an operation definition.
type ErrNotAnOperation struct {
	Reason string
}

func (e ErrNotAnOperation) Error() string {
	return e.Reason
}
