package modules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/opsforge/orchestra/pkg/orchestration"
)

// ReportWriterID is the registry id of the report writer module.
const ReportWriterID = "report-writer"

type reportWriterConfig struct {
	// OutputDir receives the generated summary file. Defaults to the
	// workspace context key, then the working directory.
	OutputDir string `yaml:"output_dir"`
	// Filename of the summary. Defaults to run-summary.md.
	Filename string `yaml:"filename"`
}

// ReportWriter renders a markdown summary of the shared context at the end
// of a run. It runs in the finalization phase so every earlier module's
// published data is visible to it.
type ReportWriter struct {
	orchestration.Base
	cfg reportWriterConfig
}

// NewReportWriter builds the report writer module.
func NewReportWriter(cfg orchestration.ModuleConfig) (*ReportWriter, error) {
	m := &ReportWriter{
		Base: orchestration.Base{Meta: orchestration.ModuleMetadata{
			ID:          ReportWriterID,
			Name:        "Report Writer",
			Description: "Writes a markdown summary of the run's shared context.",
			Phase:       orchestration.PhaseFinalization,
			Optional:    true,
		}},
	}
	if err := decodeConfig(cfg, &m.cfg); err != nil {
		return nil, err
	}
	if m.cfg.Filename == "" {
		m.cfg.Filename = "run-summary.md"
	}
	return m, nil
}

func (m *ReportWriter) outputPath(ctx orchestration.Context) string {
	dir := m.cfg.OutputDir
	if dir == "" {
		dir = ctx.GetString("workspace")
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, m.cfg.Filename)
}

func (m *ReportWriter) Execute(ctx orchestration.Context) *orchestration.ModuleResult {
	path := m.outputPath(ctx)

	if m.DryRun() {
		return orchestration.NewSuccessResult(
			fmt.Sprintf("would write summary to %s", path),
			map[string]any{"report.path": path})
	}

	if err := os.WriteFile(path, []byte(m.render(ctx)), 0o644); err != nil {
		return orchestration.NewFailureResult("writing run summary",
			fmt.Sprintf("writing %s: %v", path, err))
	}
	return orchestration.NewSuccessResult(
		fmt.Sprintf("summary written to %s", path),
		map[string]any{"report.path": path})
}

func (m *ReportWriter) render(ctx orchestration.Context) string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "# Run Summary\n\n")
	fmt.Fprintf(&b, "- Operation: %s\n", ctx.GetString(orchestration.ContextKeyOperationID))
	fmt.Fprintf(&b, "- Run: %s\n", ctx.GetString(orchestration.ContextKeyRunID))
	fmt.Fprintf(&b, "- Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "## Context\n\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- `%s`: %v\n", k, ctx[k])
	}
	return b.String()
}

func (m *ReportWriter) Rollback(ctx orchestration.Context) bool {
	path := m.outputPath(ctx)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false
	}
	return true
}
