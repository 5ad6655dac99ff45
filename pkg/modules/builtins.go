package modules

import (
	"github.com/opsforge/orchestra/pkg/exec"
	"github.com/opsforge/orchestra/pkg/orchestration"
)

// RegisterBuiltins installs every builtin module factory into the registry.
// The runner is shared by all modules that shell out; pass nil to use the
// real system runner.
func RegisterBuiltins(reg *orchestration.Registry, runner exec.Runner) error {
	factories := map[string]orchestration.Factory{
		EnvSetupID: func(cfg orchestration.ModuleConfig) (orchestration.Module, error) {
			return NewEnvSetup(cfg, runner)
		},
		WorkspaceCleanupID: func(cfg orchestration.ModuleConfig) (orchestration.Module, error) {
			return NewWorkspaceCleanup(cfg)
		},
		ReportWriterID: func(cfg orchestration.ModuleConfig) (orchestration.Module, error) {
			return NewReportWriter(cfg)
		},
		CommandID: func(cfg orchestration.ModuleConfig) (orchestration.Module, error) {
			return NewCommand(cfg, runner)
		},
	}

	for id, factory := range factories {
		if err := reg.Register(id, factory); err != nil {
			return err
		}
	}
	return nil
}
