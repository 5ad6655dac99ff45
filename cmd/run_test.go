package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsforge/orchestra/pkg/orchestration"
)

func TestParseContextFlags(t *testing.T) {
	ctx, err := parseContextFlags([]string{"workspace=/tmp/work", "env=staging"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/work", ctx.GetString("workspace"))
	assert.Equal(t, "staging", ctx.GetString("env"))
}

func TestParseContextFlags_AllowsEqualsInValue(t *testing.T) {
	ctx, err := parseContextFlags([]string{"flags=-x=1"})
	require.NoError(t, err)
	assert.Equal(t, "-x=1", ctx.GetString("flags"))
}

func TestParseContextFlags_Invalid(t *testing.T) {
	for _, bad := range []string{"noequals", "=value"} {
		_, err := parseContextFlags([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestRenderReport_Plain(t *testing.T) {
	report := &orchestration.ExecutionReport{
		OperationName:    "Nightly Maintenance",
		RunID:            "run-abc12345",
		Mode:             orchestration.ModeLive,
		Success:          false,
		ModulesSucceeded: []string{"env-setup"},
		ModulesFailed:    []string{"command"},
		ModuleResults: map[string]*orchestration.ModuleResult{
			"env-setup": orchestration.NewSuccessResult("environment verified", nil),
			"command":   orchestration.NewFailureResult("command failed", "exit 1"),
		},
		Errors: []string{"command: exit 1"},
	}

	out := renderReport(report, false)
	assert.Contains(t, out, "Nightly Maintenance")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "ok env-setup")
	assert.Contains(t, out, "failed command")
	assert.Contains(t, out, "error: command: exit 1")
}

func TestRenderReport_SortsModules(t *testing.T) {
	report := &orchestration.ExecutionReport{
		OperationName: "op",
		Success:       true,
		ModuleResults: map[string]*orchestration.ModuleResult{
			"zz": orchestration.NewSuccessResult("", nil),
			"aa": orchestration.NewSuccessResult("", nil),
		},
	}

	out := renderReport(report, false)
	assert.Less(t, strings.Index(out, "aa"), strings.Index(out, "zz"))
}

func TestNewRootCmd_HasSubcommands(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "validate", "graph", "modules", "history", "version"} {
		assert.Contains(t, names, want)
	}
}
