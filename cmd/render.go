package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/opsforge/orchestra/pkg/orchestration"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	summaryBox   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// renderReport formats the execution report for the terminal. With styling
// disabled it degrades to plain text.
func renderReport(report *orchestration.ExecutionReport, styled bool) string {
	var b strings.Builder

	title := fmt.Sprintf("%s (%s)", report.OperationName, report.RunID)
	verdict := "FAILED"
	if report.Success {
		verdict = "OK"
	}

	if styled {
		if report.Success {
			verdict = successStyle.Render("OK")
		} else {
			verdict = failureStyle.Render("FAILED")
		}
		title = headerStyle.Render(title)
	}

	lines := []string{
		fmt.Sprintf("%s  %s", title, verdict),
		fmt.Sprintf("mode: %s  duration: %.2fs  groups: %d  parallel: %d  saved: %.2fs",
			report.Mode,
			report.TotalDurationSeconds,
			report.ParallelGroupsCount,
			report.ParallelExecutionCount,
			report.TimeSavedSeconds),
		fmt.Sprintf("succeeded: %d  failed: %d  skipped: %d",
			len(report.ModulesSucceeded),
			len(report.ModulesFailed),
			len(report.ModulesSkipped)),
	}

	if styled {
		b.WriteString(summaryBox.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	} else {
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}

	ids := make([]string, 0, len(report.ModuleResults))
	for id := range report.ModuleResults {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		res := report.ModuleResults[id]
		b.WriteString(fmt.Sprintf("  %s %s", statusMark(res.Status, styled), id))
		if res.Message != "" {
			b.WriteString(": " + res.Message)
		}
		b.WriteString("\n")
		for _, w := range res.Warnings {
			b.WriteString("      warning: " + w + "\n")
		}
	}

	for _, e := range report.Errors {
		line := "  error: " + e
		if styled {
			line = color.RedString(line)
		}
		b.WriteString(line + "\n")
	}

	return b.String()
}

func statusMark(status orchestration.ResultStatus, styled bool) string {
	switch status {
	case orchestration.StatusSuccess:
		if styled {
			return color.GreenString("✓")
		}
		return "ok"
	case orchestration.StatusFailed:
		if styled {
			return color.RedString("✗")
		}
		return "failed"
	case orchestration.StatusSkipped:
		if styled {
			return color.YellowString("-")
		}
		return "skipped"
	default:
		return string(status)
	}
}
