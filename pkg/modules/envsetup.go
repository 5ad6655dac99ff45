package modules

import (
	"fmt"
	"os"

	"github.com/opsforge/orchestra/pkg/exec"
	"github.com/opsforge/orchestra/pkg/orchestration"
)

// EnvSetupID is the registry id of the environment setup module.
const EnvSetupID = "env-setup"

// envSetupConfig declares what the surrounding environment must provide.
type envSetupConfig struct {
	// RequireEnv lists environment variables that must be set and non-empty.
	RequireEnv []string `yaml:"require_env"`
	// RequireDirs lists directories that must exist.
	RequireDirs []string `yaml:"require_dirs"`
	// RequireCommands lists binaries that must be on PATH.
	RequireCommands []string `yaml:"require_commands"`
	// CreateDirs lists directories Execute creates if missing.
	CreateDirs []string `yaml:"create_dirs"`
}

// EnvSetup verifies the host environment and prepares required directories.
// It runs in the validation phase so later modules can rely on its checks.
type EnvSetup struct {
	orchestration.Base
	cfg    envSetupConfig
	runner exec.Runner
}

// NewEnvSetup builds the environment setup module.
func NewEnvSetup(cfg orchestration.ModuleConfig, runner exec.Runner) (*EnvSetup, error) {
	m := &EnvSetup{
		Base: orchestration.Base{Meta: orchestration.ModuleMetadata{
			ID:          EnvSetupID,
			Name:        "Environment Setup",
			Description: "Verifies required environment variables, directories, and commands.",
			Phase:       orchestration.PhaseValidation,
		}},
		runner: runner,
	}
	if err := decodeConfig(cfg, &m.cfg); err != nil {
		return nil, err
	}
	if m.runner == nil {
		m.runner = &exec.SystemRunner{}
	}
	return m, nil
}

func (m *EnvSetup) ValidatePrerequisites(ctx orchestration.Context) (bool, []string) {
	var issues []string

	for _, name := range m.cfg.RequireEnv {
		if os.Getenv(name) == "" {
			issues = append(issues, fmt.Sprintf("environment variable %s is not set", name))
		}
	}
	for _, dir := range m.cfg.RequireDirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			issues = append(issues, fmt.Sprintf("required directory %s does not exist", dir))
		}
	}
	for _, cmd := range m.cfg.RequireCommands {
		if _, err := m.runner.LookPath(cmd); err != nil {
			issues = append(issues, fmt.Sprintf("required command %s not found on PATH", cmd))
		}
	}

	return len(issues) == 0, issues
}

func (m *EnvSetup) Execute(ctx orchestration.Context) *orchestration.ModuleResult {
	created := make([]string, 0, len(m.cfg.CreateDirs))

	for _, dir := range m.cfg.CreateDirs {
		if _, err := os.Stat(dir); err == nil {
			continue
		}
		if m.DryRun() {
			created = append(created, dir)
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return orchestration.NewFailureResult("environment setup failed",
				fmt.Sprintf("creating directory %s: %v", dir, err))
		}
		created = append(created, dir)
	}

	msg := "environment verified"
	if m.DryRun() && len(created) > 0 {
		msg = fmt.Sprintf("environment verified, would create %d directories", len(created))
	}
	return orchestration.NewSuccessResult(msg, map[string]any{
		"env_setup.created_dirs": created,
	})
}

func (m *EnvSetup) Rollback(ctx orchestration.Context) bool {
	// Created directories are left in place: later modules may already have
	// written into them and removal would destroy their contents.
	return true
}
