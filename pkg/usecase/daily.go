package usecase

import (
	"context"
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tsuzuri/pkg/domain/interfaces"
	"github.com/secmon-lab/tsuzuri/pkg/domain/model"
	"github.com/secmon-lab/tsuzuri/pkg/domain/types"
	"github.com/secmon-lab/tsuzuri/pkg/repository/artifact"
	"github.com/secmon-lab/tsuzuri/pkg/repository/ledger"
	"github.com/secmon-lab/tsuzuri/pkg/service/catalog"
	"github.com/secmon-lab/tsuzuri/pkg/service/redact"
	"github.com/secmon-lab/tsuzuri/pkg/utils/logging"
)

//go:embed prompt/daily_system.md
var dailySystemPrompt string

// DailyUseCase runs the per-log analysis pipeline: load, goal extraction and
// validation, redaction, payload construction, analysis call, artifact
// persistence and usage recording. Stages run strictly in sequence and the
// pipeline is terminal at the first failure.
type DailyUseCase struct {
	catalog  *catalog.Catalog
	analysis interfaces.AnalysisService
	ledger   *ledger.Ledger
	store    *artifact.Store
}

// NewDailyUseCase creates a DailyUseCase instance
func NewDailyUseCase(cat *catalog.Catalog, analysis interfaces.AnalysisService, usageLedger *ledger.Ledger, store *artifact.Store) *DailyUseCase {
	return &DailyUseCase{
		catalog:  cat,
		analysis: analysis,
		ledger:   usageLedger,
		store:    store,
	}
}

// DailyInput is one pipeline run request
type DailyInput struct {
	LogPath string
	Summary string

	// ArtifactDir overrides the canonical per-day artifact directory
	ArtifactDir string

	// RunID is the provisional request identifier; defaults to
	// "daily-<log stem>".
	RunID string

	// GoalOverride replaces the extracted goal reference set entirely
	GoalOverride []types.GoalID
}

// DailyOutput is the pipeline run result
type DailyOutput struct {
	Payload   *model.AnalysisPayload
	Result    *model.AnalysisResult
	UsagePath string
}

// Process runs the daily pipeline for a single log. Validation failures write
// no artifacts at all.
func (uc *DailyUseCase) Process(ctx context.Context, input *DailyInput) (*DailyOutput, error) {
	logger := logging.From(ctx)

	log, err := model.ParseLogPath(input.LogPath)
	if err != nil {
		return nil, err
	}
	logger.Info("daily pipeline started", "log", log.Path, "goal_override", len(input.GoalOverride))

	raw, err := os.ReadFile(log.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read daily log", goerr.V("path", log.Path))
	}
	logger.Info("daily log loaded", "log", log.Path, "characters", len(raw))

	goalIDs := types.ExtractGoalIDs(string(raw))
	if len(input.GoalOverride) > 0 {
		goalIDs = dedupeGoals(input.GoalOverride)
	}

	if err := uc.catalog.EnsureExist(ctx, goalIDs); err != nil {
		logger.Error("goal validation failed", "log", log.Path, "error", err.Error())
		return nil, err
	}
	logger.Info("goal references valid", "log", log.Path, "goal_ids", types.GoalIDStrings(goalIDs))

	sanitized, report := redact.Apply(string(raw))
	logger.Info("daily log sanitized",
		"log", log.Path,
		"is_redacted", report.IsRedacted,
		"removed_emails", len(report.RemovedEmails),
		"removed_names", len(report.RemovedNames),
	)

	artifactDir := input.ArtifactDir
	if artifactDir == "" {
		artifactDir = uc.store.DirFor(log)
	}
	runID := input.RunID
	if runID == "" {
		runID = "daily-" + log.Stem()
	}

	payload := model.BuildPayload(log.Path, sanitized, goalIDs, input.Summary, model.PayloadConfig{
		RunID:        runID,
		ArtifactPath: artifactDir,
	}, report)
	if err := payload.Validate(); err != nil {
		return nil, goerr.Wrap(err, "analysis payload validation failed", goerr.V("log", log.Path))
	}
	logger.Info("analysis payload built",
		"log", log.Path,
		"request_id", payload.RequestID,
		"warnings", payload.Warnings,
	)

	events, err := uc.analysis.Analyze(ctx, &interfaces.AnalysisRequest{
		SystemPrompt: dailySystemPrompt,
		UserContent:  sanitized,
		Metadata: map[string]string{
			"logRef":  log.Path,
			"goalIds": strings.Join(types.GoalIDStrings(goalIDs), ","),
		},
	})
	if err != nil {
		wrapped := goerr.Wrap(ErrServiceInvocation, err.Error(), goerr.V("log", log.Path))
		logger.Error("analysis service call failed", "log", log.Path, "error", err.Error())
		return nil, wrapped
	}
	if len(events) == 0 {
		wrapped := goerr.Wrap(ErrServiceInvocation, ErrEmptyEventStream.Error(), goerr.V("log", log.Path))
		logger.Error("analysis service returned an empty event stream", "log", log.Path)
		return nil, wrapped
	}
	logger.Info("analysis response received", "log", log.Path, "event_count", len(events))

	steps := model.CollectSteps(events)
	requestID := model.ExtractRequestID(events)
	if requestID == "" {
		requestID = uuid.Must(uuid.NewV7()).String()
		logger.Warn("completed event carried no request ID, generated fallback",
			"log", log.Path, "request_id", requestID)
	}
	usage := model.ExtractUsage(events)

	eventsPath, err := uc.store.WriteEvents(ctx, artifactDir, model.SerializeEvents(events))
	if err != nil {
		return nil, err
	}
	if err := uc.store.WriteSummary(ctx, artifactDir, log.Path, requestID, steps); err != nil {
		return nil, err
	}
	logger.Info("artifacts persisted", "log", log.Path, "events_path", eventsPath)

	usagePath, err := uc.ledger.Append(ctx, requestID, usage)
	if err != nil {
		return nil, err
	}
	logger.Info("daily pipeline completed",
		"log", log.Path,
		"request_id", requestID,
		"steps", len(steps),
		"usage_path", usagePath,
	)

	return &DailyOutput{
		Payload: payload,
		Result: &model.AnalysisResult{
			RequestID:  requestID,
			Steps:      steps,
			TokenUsage: usage,
			EventsPath: eventsPath,
			OK:         true,
		},
		UsagePath: usagePath,
	}, nil
}

func dedupeGoals(ids []types.GoalID) []types.GoalID {
	seen := make(map[types.GoalID]struct{}, len(ids))
	var out []types.GoalID
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
