package modules

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/opsforge/orchestra/pkg/orchestration"
)

// WorkspaceCleanupID is the registry id of the workspace cleanup module.
const WorkspaceCleanupID = "workspace-cleanup"

type workspaceCleanupConfig struct {
	// Workspace is the directory to clean. Falls back to the "workspace"
	// context key when empty.
	Workspace string `yaml:"workspace"`
	// Patterns are glob patterns, relative to the workspace, selecting
	// candidates for removal.
	Patterns []string `yaml:"patterns"`
	// KeepDays preserves files modified within the last N days. Zero keeps
	// nothing back.
	KeepDays int `yaml:"keep_days"`
}

// WorkspaceCleanup removes stale files from a workspace directory. Under
// DRY_RUN it only reports what it would delete.
type WorkspaceCleanup struct {
	orchestration.Base
	cfg workspaceCleanupConfig
}

// NewWorkspaceCleanup builds the cleanup module.
func NewWorkspaceCleanup(cfg orchestration.ModuleConfig) (*WorkspaceCleanup, error) {
	m := &WorkspaceCleanup{
		Base: orchestration.Base{Meta: orchestration.ModuleMetadata{
			ID:          WorkspaceCleanupID,
			Name:        "Workspace Cleanup",
			Description: "Removes stale files matching the configured patterns.",
			Phase:       orchestration.PhaseCleanup,
			Optional:    true,
		}},
	}
	if err := decodeConfig(cfg, &m.cfg); err != nil {
		return nil, err
	}
	if len(m.cfg.Patterns) == 0 {
		m.cfg.Patterns = []string{"*.tmp", "*.log"}
	}
	return m, nil
}

func (m *WorkspaceCleanup) workspace(ctx orchestration.Context) string {
	if m.cfg.Workspace != "" {
		return m.cfg.Workspace
	}
	return ctx.GetString("workspace")
}

func (m *WorkspaceCleanup) ShouldRun(ctx orchestration.Context) bool {
	return m.workspace(ctx) != ""
}

func (m *WorkspaceCleanup) ValidatePrerequisites(ctx orchestration.Context) (bool, []string) {
	ws := m.workspace(ctx)
	info, err := os.Stat(ws)
	if err != nil || !info.IsDir() {
		return false, []string{fmt.Sprintf("workspace %s does not exist", ws)}
	}
	return true, nil
}

func (m *WorkspaceCleanup) Execute(ctx orchestration.Context) *orchestration.ModuleResult {
	ws := m.workspace(ctx)
	cutoff := time.Now().AddDate(0, 0, -m.cfg.KeepDays)

	var candidates []string
	for _, pattern := range m.cfg.Patterns {
		matches, err := filepath.Glob(filepath.Join(ws, pattern))
		if err != nil {
			return orchestration.NewFailureResult("workspace cleanup failed",
				fmt.Sprintf("bad pattern %q: %v", pattern, err))
		}
		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			if m.cfg.KeepDays > 0 && info.ModTime().After(cutoff) {
				continue
			}
			candidates = append(candidates, path)
		}
	}

	if m.DryRun() {
		return orchestration.NewSuccessResult(
			fmt.Sprintf("would remove %d files from %s", len(candidates), ws),
			map[string]any{"cleanup.candidates": candidates})
	}

	removed := make([]string, 0, len(candidates))
	var warnings []string
	for _, path := range candidates {
		if err := os.Remove(path); err != nil {
			warnings = append(warnings, fmt.Sprintf("could not remove %s: %v", path, err))
			continue
		}
		removed = append(removed, path)
	}

	res := orchestration.NewSuccessResult(
		fmt.Sprintf("removed %d files from %s", len(removed), ws),
		map[string]any{"cleanup.removed": removed})
	res.Warnings = warnings
	return res
}

func (m *WorkspaceCleanup) Rollback(ctx orchestration.Context) bool {
	// Deleted files cannot be restored; nothing to undo.
	return true
}
