package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tsuzuri/pkg/domain/interfaces"
	"github.com/secmon-lab/tsuzuri/pkg/domain/model"
	"github.com/secmon-lab/tsuzuri/pkg/domain/types"
	"github.com/secmon-lab/tsuzuri/pkg/repository/artifact"
	"github.com/secmon-lab/tsuzuri/pkg/repository/ledger"
	"github.com/secmon-lab/tsuzuri/pkg/service/catalog"
	"github.com/secmon-lab/tsuzuri/pkg/utils/logging"
)

// Fixed summary texts for degenerate synthesis outcomes
const (
	noArtifactsSummary    = "No daily artifacts were available for the requested week."
	emptySynthesisSummary = "Weekly synthesis did not return any content."
)

// WeeklyUseCase aggregates a week of daily artifacts into a weekly report
// and a compliance checklist. Daily artifacts are materialized through the
// store's idempotent Ensure, so re-running a week performs no new analysis
// calls for already-processed days.
type WeeklyUseCase struct {
	daily    *DailyUseCase
	catalog  *catalog.Catalog
	analysis interfaces.AnalysisService
	ledger   *ledger.Ledger
	store    *artifact.Store

	logsDir    string
	weeklyDir  string
	promptPath string
}

// NewWeeklyUseCase creates a WeeklyUseCase instance
func NewWeeklyUseCase(daily *DailyUseCase, cat *catalog.Catalog, analysis interfaces.AnalysisService, usageLedger *ledger.Ledger, store *artifact.Store, logsDir, weeklyDir, promptPath string) *WeeklyUseCase {
	return &WeeklyUseCase{
		daily:      daily,
		catalog:    cat,
		analysis:   analysis,
		ledger:     usageLedger,
		store:      store,
		logsDir:    logsDir,
		weeklyDir:  weeklyDir,
		promptPath: promptPath,
	}
}

// WeeklyOutput is the aggregation result
type WeeklyOutput struct {
	WeekID          types.WeekID
	ReportPath      string
	ChecklistPath   string
	SummaryPath     string
	EventsPath      string
	Artifacts       []*model.DailyArtifact
	GoalProgress    []model.GoalProgress
	PartialFailures []*model.PartialFailure
	RequestID       string
	TokenUsage      model.TokenUsage
}

// Process aggregates the given ISO week
func (uc *WeeklyUseCase) Process(ctx context.Context, weekID types.WeekID) (*WeeklyOutput, error) {
	logger := logging.From(ctx)
	logger.Info("weekly aggregation started",
		"week_id", weekID,
		"logs_dir", uc.logsDir,
		"weekly_dir", uc.weeklyDir,
	)

	logs, err := uc.discoverWeekLogs(weekID)
	if err != nil {
		return nil, err
	}
	logger.Info("weekly logs discovered", "week_id", weekID, "log_count", len(logs))

	artifacts, err := uc.ensureDailyArtifacts(ctx, logs)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		// No logs found for the week; fall back to artifact directories
		// already tagged for it.
		artifacts, err = uc.store.CollectWeek(ctx, weekID)
		if err != nil {
			return nil, err
		}
	}
	logger.Info("weekly artifacts ready", "week_id", weekID, "artifact_count", len(artifacts))

	goalProgress := uc.buildGoalProgress(ctx, artifacts)

	partialFailures := model.DetectPartialFailures(artifacts)
	logger.Info("partial failures detected", "week_id", weekID, "partial_count", len(partialFailures))

	synthesis, err := uc.synthesize(ctx, weekID, artifacts)
	if err != nil {
		return nil, err
	}

	if synthesis.RequestID != "" {
		if _, err := uc.ledger.Append(ctx, synthesis.RequestID, synthesis.TokenUsage); err != nil {
			return nil, err
		}
	}

	eventsPath, err := uc.store.WriteWeeklyEvents(ctx, weekID, model.SerializeEvents(synthesis.Events))
	if err != nil {
		return nil, err
	}
	summaryPath, err := uc.store.WriteWeeklySummary(ctx, weekID, synthesis.Summary)
	if err != nil {
		return nil, err
	}

	reportPath, err := uc.writeReport(ctx, weekID, artifacts, goalProgress, synthesis.Summary)
	if err != nil {
		return nil, err
	}
	checklistPath, err := uc.writeChecklist(ctx, weekID, goalProgress, partialFailures)
	if err != nil {
		return nil, err
	}

	logger.Info("weekly aggregation completed",
		"week_id", weekID,
		"report", reportPath,
		"checklist", checklistPath,
		"partial_failures", len(partialFailures),
	)

	return &WeeklyOutput{
		WeekID:          weekID,
		ReportPath:      reportPath,
		ChecklistPath:   checklistPath,
		SummaryPath:     summaryPath,
		EventsPath:      eventsPath,
		Artifacts:       artifacts,
		GoalProgress:    goalProgress,
		PartialFailures: partialFailures,
		RequestID:       synthesis.RequestID,
		TokenUsage:      synthesis.TokenUsage,
	}, nil
}

// discoverWeekLogs lists daily logs whose embedded date falls in the week
func (uc *WeeklyUseCase) discoverWeekLogs(weekID types.WeekID) ([]*model.DiaryLog, error) {
	matches, err := filepath.Glob(filepath.Join(uc.logsDir, "*.log.md"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list daily logs", goerr.V("dir", uc.logsDir))
	}
	sort.Strings(matches)

	var logs []*model.DiaryLog
	for _, path := range matches {
		log, err := model.ParseLogPath(path)
		if err != nil {
			continue
		}
		if weekID.Contains(log.Date) {
			logs = append(logs, log)
		}
	}
	return logs, nil
}

// ensureDailyArtifacts materializes each log's artifacts, running the daily
// pipeline only for days whose artifacts do not exist yet. Each day's writes
// complete before the artifact is referenced by the aggregation.
func (uc *WeeklyUseCase) ensureDailyArtifacts(ctx context.Context, logs []*model.DiaryLog) ([]*model.DailyArtifact, error) {
	var artifacts []*model.DailyArtifact
	for _, log := range logs {
		log := log
		a, err := uc.store.Ensure(ctx, log, func(ctx context.Context, dir string) (*model.AnalysisResult, error) {
			out, err := uc.daily.Process(ctx, &DailyInput{
				LogPath:     log.Path,
				Summary:     "Automated weekly aggregation for " + filepath.Base(log.Path),
				ArtifactDir: dir,
				RunID:       "weekly-" + log.Stem(),
			})
			if err != nil {
				return nil, err
			}
			return out.Result, nil
		})
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

// buildGoalProgress aggregates goal references across the week's logs and
// validates them against the catalog. A validation failure degrades to a
// single entry reporting the error instead of aborting the week.
func (uc *WeeklyUseCase) buildGoalProgress(ctx context.Context, artifacts []*model.DailyArtifact) []model.GoalProgress {
	seen := make(map[types.GoalID]struct{})
	for _, a := range artifacts {
		if a.LogRef == "" {
			continue
		}
		content, err := os.ReadFile(a.LogRef)
		if err != nil {
			continue
		}
		for _, id := range types.ExtractGoalIDs(string(content)) {
			seen[id] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}

	ids := make([]types.GoalID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if err := uc.catalog.EnsureExist(ctx, ids); err != nil {
		if isGoalValidationError(err) {
			logging.From(ctx).Warn("weekly goal validation failed", "error", err.Error())
			return []model.GoalProgress{{GoalID: "N/A", Status: "Validation error: " + err.Error()}}
		}
		// Unexpected errors degrade the same way; the week must still report.
		logging.From(ctx).Error("goal progress aggregation failed", "error", err.Error())
		return []model.GoalProgress{{GoalID: "N/A", Status: "Validation error: " + err.Error()}}
	}

	progress := make([]model.GoalProgress, 0, len(ids))
	for _, id := range ids {
		progress = append(progress, model.GoalProgress{GoalID: string(id), Status: "Pending review"})
	}
	return progress
}

func isGoalValidationError(err error) bool {
	return errors.Is(err, catalog.ErrUnknownReferences) ||
		errors.Is(err, catalog.ErrNoReferences) ||
		errors.Is(err, catalog.ErrCatalogMissing) ||
		errors.Is(err, catalog.ErrCatalogEmpty)
}

// synthesize invokes the analysis service once for the weekly synthesis. A
// week without artifacts skips the call entirely and yields the fixed
// degenerate summary with zeroed usage.
func (uc *WeeklyUseCase) synthesize(ctx context.Context, weekID types.WeekID, artifacts []*model.DailyArtifact) (*model.WeeklySynthesis, error) {
	logger := logging.From(ctx)

	if len(artifacts) == 0 {
		logger.Info("no daily artifacts, skipping synthesis call", "week_id", weekID)
		return &model.WeeklySynthesis{Summary: noArtifactsSummary}, nil
	}

	systemPrompt, err := os.ReadFile(uc.promptPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read weekly synthesis prompt", goerr.V("path", uc.promptPath))
	}

	events, err := uc.analysis.Analyze(ctx, &interfaces.AnalysisRequest{
		SystemPrompt: string(systemPrompt),
		UserContent:  renderSynthesisContext(weekID, artifacts),
		Metadata:     map[string]string{"weekId": weekID.String()},
	})
	if err != nil {
		wrapped := goerr.Wrap(ErrServiceInvocation, err.Error(), goerr.V("week_id", weekID))
		logger.Error("weekly synthesis call failed", "week_id", weekID, "error", err.Error())
		return nil, wrapped
	}

	summary := strings.TrimSpace(strings.Join(model.CollectSteps(events), ""))
	if summary == "" {
		summary = emptySynthesisSummary
	}

	return &model.WeeklySynthesis{
		Summary:    summary,
		TokenUsage: model.ExtractUsage(events),
		RequestID:  model.ExtractRequestID(events),
		Events:     events,
	}, nil
}

// renderSynthesisContext enumerates each daily artifact for the synthesis
// prompt: log reference, steps and token usage.
func renderSynthesisContext(weekID types.WeekID, artifacts []*model.DailyArtifact) string {
	lines := []string{"Week ID: " + weekID.String(), "Daily Artifacts:"}
	for _, a := range artifacts {
		logRef := a.LogRef
		if logRef == "" {
			logRef = "unknown"
		}
		lines = append(lines, "- Log: "+logRef)
		if len(a.Steps) > 0 {
			lines = append(lines, "  Steps: "+strings.Join(a.Steps, " | "))
		} else {
			lines = append(lines, "  Steps: Not recorded")
		}
		lines = append(lines, fmt.Sprintf("  Token Usage: prompt=%d completion=%d total=%d",
			a.TokenUsage.Prompt, a.TokenUsage.Completion, a.TokenUsage.Total))
	}
	return strings.Join(lines, "\n")
}
