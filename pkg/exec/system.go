package exec

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RunError carries the command output alongside the underlying error so
// callers can surface it in reports.
type RunError struct {
	Command string
	Output  string
	Err     error
}

func (e *RunError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, out)
}

func (e *RunError) Unwrap() error { return e.Err }

// SystemRunner executes real commands through os/exec.
type SystemRunner struct {
	// Dir is the working directory for every command; empty means the
	// process working directory.
	Dir string
}

func (r *SystemRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (r *SystemRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), &RunError{
			Command: name,
			Output:  string(output),
			Err:     err,
		}
	}
	return string(output), nil
}
