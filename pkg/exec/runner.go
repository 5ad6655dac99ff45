// Package exec abstracts external command execution so modules can probe
// for required binaries and run maintenance commands without being tied to
// the host system in tests.
package exec

import "context"

// Runner runs external commands on behalf of modules.
type Runner interface {
	// LookPath reports the full path of an executable found on PATH.
	LookPath(file string) (string, error)

	// Run executes the command and returns its combined output. The command
	// is killed when the context is cancelled.
	Run(ctx context.Context, name string, args ...string) (string, error)
}
