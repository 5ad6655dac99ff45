package modules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/opsforge/orchestra/pkg/exec"
	"github.com/opsforge/orchestra/pkg/orchestration"
)

// CommandID is the registry id of the shell-out module.
const CommandID = "command"

type commandConfig struct {
	// Command is the binary to run. Required.
	Command string `yaml:"command"`
	Args    []string `yaml:"args"`
	// TimeoutSeconds bounds the command; zero means no limit.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// Rollback optionally names a command to run when the operation is
	// rolled back.
	Rollback     string   `yaml:"rollback"`
	RollbackArgs []string `yaml:"rollback_args"`
}

// Command shells out to an external program during the processing phase and
// publishes its output. Under DRY_RUN the command is reported, not run.
type Command struct {
	orchestration.Base
	cfg    commandConfig
	runner exec.Runner
}

// NewCommand builds the shell-out module.
func NewCommand(cfg orchestration.ModuleConfig, runner exec.Runner) (*Command, error) {
	m := &Command{
		Base: orchestration.Base{Meta: orchestration.ModuleMetadata{
			ID:          CommandID,
			Name:        "Command",
			Description: "Runs an external command and publishes its output.",
			Phase:       orchestration.PhaseProcessing,
		}},
		runner: runner,
	}
	if err := decodeConfig(cfg, &m.cfg); err != nil {
		return nil, err
	}
	if m.cfg.Command == "" {
		return nil, fmt.Errorf("command module requires a 'command' setting")
	}
	if m.runner == nil {
		m.runner = &exec.SystemRunner{}
	}
	return m, nil
}

func (m *Command) commandLine() string {
	if len(m.cfg.Args) == 0 {
		return m.cfg.Command
	}
	return m.cfg.Command + " " + strings.Join(m.cfg.Args, " ")
}

func (m *Command) ValidatePrerequisites(ctx orchestration.Context) (bool, []string) {
	if _, err := m.runner.LookPath(m.cfg.Command); err != nil {
		return false, []string{fmt.Sprintf("command %s not found on PATH", m.cfg.Command)}
	}
	return true, nil
}

func (m *Command) runContext() (context.Context, context.CancelFunc) {
	if m.cfg.TimeoutSeconds > 0 {
		return context.WithTimeout(context.Background(), time.Duration(m.cfg.TimeoutSeconds)*time.Second)
	}
	return context.Background(), func() {}
}

func (m *Command) Execute(ctx orchestration.Context) *orchestration.ModuleResult {
	if m.DryRun() {
		return orchestration.NewSuccessResult(
			fmt.Sprintf("would run: %s", m.commandLine()), nil)
	}

	runCtx, cancel := m.runContext()
	defer cancel()

	output, err := m.runner.Run(runCtx, m.cfg.Command, m.cfg.Args...)
	if err != nil {
		return orchestration.NewFailureResult("command failed", err.Error())
	}
	return orchestration.NewSuccessResult(
		fmt.Sprintf("ran: %s", m.commandLine()),
		map[string]any{"command.output": strings.TrimSpace(output)})
}

func (m *Command) Rollback(ctx orchestration.Context) bool {
	if m.cfg.Rollback == "" || m.DryRun() {
		return true
	}
	runCtx, cancel := m.runContext()
	defer cancel()
	_, err := m.runner.Run(runCtx, m.cfg.Rollback, m.cfg.RollbackArgs...)
	return err == nil
}
