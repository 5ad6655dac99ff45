package exec

import (
	"context"
	"strings"
)

// MockRunner records commands instead of executing them. The zero value
// reports every binary as present and every command as succeeding.
type MockRunner struct {
	// Calls records each command line passed to Run.
	Calls []string

	// LookPathFunc overrides LookPath behavior when set.
	LookPathFunc func(file string) (string, error)

	// RunFunc overrides Run behavior when set; recording still happens.
	RunFunc func(ctx context.Context, name string, args ...string) (string, error)
}

func (m *MockRunner) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	return "/usr/bin/" + file, nil
}

func (m *MockRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	line := name
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	m.Calls = append(m.Calls, line)

	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, args...)
	}
	return "", nil
}
