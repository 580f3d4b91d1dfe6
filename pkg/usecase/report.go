package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tsuzuri/pkg/domain/model"
	"github.com/secmon-lab/tsuzuri/pkg/domain/types"
	"github.com/secmon-lab/tsuzuri/pkg/utils/logging"
)

// constitutionItems are the five fixed checklist line items. They are checked
// only when the week has zero partial failures.
var constitutionItems = []struct {
	Title       string
	Description string
}{
	{"P1 Daily Log Fidelity", "Daily logs validated and referenced goals confirmed."},
	{"P2 Goal-Aligned Reflection", "Weekly synthesis references goal progress."},
	{"P3 Automated Insight Pipeline", "Daily and weekly automations executed."},
	{"P4 Transparent LLM Execution", "Artifacts and streaming events captured."},
	{"P5 Markdown as Source of Truth", "Outputs stored in repository Markdown files."},
}

// writeReport renders the weekly review document. The report is regenerated
// in full on every run.
func (uc *WeeklyUseCase) writeReport(ctx context.Context, weekID types.WeekID, artifacts []*model.DailyArtifact, progress []model.GoalProgress, summary string) (string, error) {
	if err := os.MkdirAll(uc.weeklyDir, 0o755); err != nil {
		return "", goerr.Wrap(err, "failed to create weekly review directory", goerr.V("dir", uc.weeklyDir))
	}

	path := filepath.Join(uc.weeklyDir, weekID.Slug()+".md")
	content := renderWeeklyReport(weekID, artifacts, progress, summary)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", goerr.Wrap(err, "failed to write weekly report", goerr.V("path", path))
	}

	logging.From(ctx).Info("weekly report written", "week_id", weekID, "path", path)
	return path, nil
}

// writeChecklist renders the compliance checklist document
func (uc *WeeklyUseCase) writeChecklist(ctx context.Context, weekID types.WeekID, progress []model.GoalProgress, failures []*model.PartialFailure) (string, error) {
	if err := os.MkdirAll(uc.weeklyDir, 0o755); err != nil {
		return "", goerr.Wrap(err, "failed to create weekly review directory", goerr.V("dir", uc.weeklyDir))
	}

	path := filepath.Join(uc.weeklyDir, weekID.Slug()+"-checklist.md")
	content := renderChecklist(weekID, progress, failures)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", goerr.Wrap(err, "failed to write weekly checklist", goerr.V("path", path))
	}

	logging.From(ctx).Info("weekly checklist written", "week_id", weekID, "path", path)
	return path, nil
}

func renderWeeklyReport(weekID types.WeekID, artifacts []*model.DailyArtifact, progress []model.GoalProgress, summary string) string {
	lines := []string{
		"# Weekly Review — " + weekID.String(),
		"",
	}

	if summary != "" {
		lines = append(lines, "## Weekly Summary", strings.TrimSpace(summary), "")
	}

	lines = append(lines, "## Goal Progress")
	if len(progress) > 0 {
		for _, entry := range progress {
			lines = append(lines, fmt.Sprintf("- %s: %s", entry.GoalID, entry.Status))
		}
	} else {
		lines = append(lines, "- No goal updates provided.")
	}
	lines = append(lines, "")

	lines = append(lines, "## Daily Highlights")
	if len(artifacts) > 0 {
		for _, a := range artifacts {
			lines = append(lines, renderDailySection(a))
		}
	} else {
		lines = append(lines, "No daily artifacts available for this week.")
	}
	lines = append(lines, "")

	lines = append(lines, fmt.Sprintf("## Metrics\n- Total Tokens: %d", totalTokens(artifacts)))

	return strings.Join(lines, "\n")
}

func renderDailySection(a *model.DailyArtifact) string {
	logRef := a.LogRef
	if logRef == "" {
		logRef = "Unknown Log"
	}
	summaryLink := a.SummaryPath
	if summaryLink == "" {
		summaryLink = "(summary missing)"
	}
	stepsText := "No streamed steps recorded"
	if len(a.Steps) > 0 {
		stepsText = strings.Join(a.Steps, " | ")
	}
	return fmt.Sprintf("### %s\n- Summary file: %s\n- Token usage: prompt=%d completion=%d total=%d\n- Steps: %s\n",
		logRef, summaryLink, a.TokenUsage.Prompt, a.TokenUsage.Completion, a.TokenUsage.Total, stepsText)
}

// totalTokens sums each artifact's usage total
func totalTokens(artifacts []*model.DailyArtifact) int {
	total := 0
	for _, a := range artifacts {
		total += a.TokenUsage.Total
	}
	return total
}

func renderChecklist(weekID types.WeekID, progress []model.GoalProgress, failures []*model.PartialFailure) string {
	allClear := len(failures) == 0

	lines := []string{
		"# Weekly Review Checklist — " + weekID.String(),
		"",
		"## Constitution Principles",
	}
	for _, item := range constitutionItems {
		mark := " "
		if allClear {
			mark = "x"
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s — %s", mark, item.Title, item.Description))
	}

	lines = append(lines, "", "## Goal Progress")
	if len(progress) > 0 {
		for _, entry := range progress {
			lines = append(lines, fmt.Sprintf("- %s: %s", entry.GoalID, entry.Status))
		}
	} else {
		lines = append(lines, "- No goal updates detected.")
	}

	lines = append(lines, "", "## Partial Failures")
	if len(failures) > 0 {
		for _, f := range failures {
			lines = append(lines, fmt.Sprintf("- %s: %s", f.LogRef, strings.Join(f.Issues, "; ")))
		}
	} else {
		lines = append(lines, "- None detected.")
	}

	lines = append(lines,
		"",
		"## Action Items",
		"- Verify checklist items above and resolve any partial failures before merging.",
		"- Ensure weekly PR references this checklist file.",
	)

	return strings.Join(lines, "\n") + "\n"
}
