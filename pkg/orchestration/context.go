package orchestration

// Context is the shared key-value state threaded through one run.
// The orchestrator is the sole owner of the canonical instance: modules
// receive snapshots taken at group start and must not mutate them. All
// writes happen on the orchestrator goroutine, after a group barrier.
type Context map[string]any

// Reserved context keys written by the orchestrator.
const (
	// ContextKeyMode holds the run's ExecutionMode as a string.
	ContextKeyMode = "orchestrator.mode"
	// ContextKeyRunID holds the unique id stamped on the run.
	ContextKeyRunID = "orchestrator.run_id"
	// ContextKeyOperationID holds the operation id.
	ContextKeyOperationID = "orchestrator.operation_id"
)

// Clone returns a shallow copy of the context. Values are shared; modules
// treat them as read-only.
func (c Context) Clone() Context {
	snapshot := make(Context, len(c))
	for k, v := range c {
		snapshot[k] = v
	}
	return snapshot
}

// Merge copies the given key-value pairs into the context, overwriting
// existing keys.
func (c Context) Merge(data map[string]any) {
	for k, v := range data {
		c[k] = v
	}
}

// GetString returns the string value for key, or "" when absent or not a
// string.
func (c Context) GetString(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// GetBool returns the bool value for key, or false when absent or not a bool.
func (c Context) GetBool(key string) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return false
}

// ModeFromContext reads the execution mode stamped on a run context.
// Defaults to ModeLive when the key is absent.
func ModeFromContext(ctx Context) ExecutionMode {
	if s := ctx.GetString(ContextKeyMode); s != "" {
		return ExecutionMode(s)
	}
	return ModeLive
}
