package artifact

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tsuzuri/pkg/domain/interfaces"
	"github.com/secmon-lab/tsuzuri/pkg/domain/model"
	"github.com/secmon-lab/tsuzuri/pkg/domain/types"
	"github.com/secmon-lab/tsuzuri/pkg/utils/logging"
)

const (
	summaryFile      = "summary.md"
	eventsFile       = "events.json"
	weeklyEventsFile = "weekly-events.json"
)

// Store materializes per-day and per-week analysis artifacts under a reports
// directory. A day's canonical directory is "<ISO year>-W<week>-<day>",
// derived from the log's embedded date.
type Store struct {
	reportsDir string
	usage      interfaces.UsageLookup
}

// ProduceFunc generates the analysis result for a log, writing its events
// into dir. It is only invoked when the day's artifacts do not already exist.
type ProduceFunc func(ctx context.Context, dir string) (*model.AnalysisResult, error)

// New creates a Store rooted at reportsDir. Token usage of reconstructed
// artifacts is resolved through the given lookup.
func New(reportsDir string, usage interfaces.UsageLookup) *Store {
	return &Store{reportsDir: reportsDir, usage: usage}
}

// ReportsDir returns the root reports directory
func (s *Store) ReportsDir() string {
	return s.reportsDir
}

// DirFor returns the canonical artifact directory for a daily log
func (s *Store) DirFor(log *model.DiaryLog) string {
	return filepath.Join(s.reportsDir, log.ArtifactTag())
}

// WeeklyDir returns the artifact directory for a week
func (s *Store) WeeklyDir(weekID types.WeekID) string {
	return filepath.Join(s.reportsDir, weekID.String())
}

// HasArtifacts reports whether both the summary and the events documents
// exist in dir.
func (s *Store) HasArtifacts(dir string) bool {
	return fileExists(filepath.Join(dir, summaryFile)) && fileExists(filepath.Join(dir, eventsFile))
}

// Ensure returns the daily artifact for the log, producing it first when the
// summary or events document is absent. Re-running Ensure over an
// already-processed day performs no new analysis calls.
func (s *Store) Ensure(ctx context.Context, log *model.DiaryLog, produce ProduceFunc) (*model.DailyArtifact, error) {
	dir := s.DirFor(log)
	logger := logging.From(ctx)

	if s.HasArtifacts(dir) {
		logger.Info("daily artifacts already materialized, skipping analysis",
			"log", log.Path, "dir", dir)
	} else {
		result, err := produce(ctx, dir)
		if err != nil {
			return nil, err
		}
		if err := s.WriteSummary(ctx, dir, log.Path, result.RequestID, result.Steps); err != nil {
			return nil, err
		}
	}

	return s.readArtifact(ctx, dir)
}

// WriteSummary writes the fixed three-line daily summary document
func (s *Store) WriteSummary(ctx context.Context, dir, logRef, requestID string, steps []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create artifact directory", goerr.V("dir", dir))
	}

	content := strings.Join([]string{
		"# Daily Analysis",
		"",
		"- Log: " + logRef,
		"- Request ID: " + requestID,
		"- Steps: " + strings.Join(steps, ", "),
	}, "\n")

	path := filepath.Join(dir, summaryFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return goerr.Wrap(err, "failed to write daily summary", goerr.V("path", path))
	}

	logging.From(ctx).Debug("daily summary written", "path", path, "steps", len(steps))
	return nil
}

// WriteEvents serializes the event sequence to the events document in dir,
// creating the directory if absent. Returns the events file path.
func (s *Store) WriteEvents(ctx context.Context, dir string, events []map[string]any) (string, error) {
	return s.writeEventsFile(ctx, dir, eventsFile, events)
}

// WriteWeeklyEvents serializes a weekly synthesis event sequence
func (s *Store) WriteWeeklyEvents(ctx context.Context, weekID types.WeekID, events []map[string]any) (string, error) {
	return s.writeEventsFile(ctx, s.WeeklyDir(weekID), weeklyEventsFile, events)
}

// WriteWeeklySummary stores the weekly synthesis text
func (s *Store) WriteWeeklySummary(ctx context.Context, weekID types.WeekID, summary string) (string, error) {
	dir := s.WeeklyDir(weekID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", goerr.Wrap(err, "failed to create weekly artifact directory", goerr.V("dir", dir))
	}
	path := filepath.Join(dir, summaryFile)
	if err := os.WriteFile(path, []byte(summary), 0o644); err != nil {
		return "", goerr.Wrap(err, "failed to write weekly summary", goerr.V("path", path))
	}
	return path, nil
}

// CollectWeek reconstructs the daily artifacts of already-materialized day
// directories tagged for the given week, without re-deriving from logs.
func (s *Store) CollectWeek(ctx context.Context, weekID types.WeekID) ([]*model.DailyArtifact, error) {
	entries, err := os.ReadDir(s.reportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read reports directory", goerr.V("dir", s.reportsDir))
	}

	prefix := weekID.String() + "-"
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			dirs = append(dirs, filepath.Join(s.reportsDir, e.Name()))
		}
	}
	sort.Strings(dirs)

	var artifacts []*model.DailyArtifact
	for _, dir := range dirs {
		if !fileExists(filepath.Join(dir, summaryFile)) {
			continue
		}
		a, err := s.readArtifact(ctx, dir)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

// readArtifact reconstructs a DailyArtifact from the summary document,
// augmented with usage resolved by request ID.
func (s *Store) readArtifact(ctx context.Context, dir string) (*model.DailyArtifact, error) {
	summaryPath := filepath.Join(dir, summaryFile)
	data, err := os.ReadFile(summaryPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read daily summary", goerr.V("path", summaryPath))
	}

	artifact := &model.DailyArtifact{SummaryPath: summaryPath}
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "- Log:"):
			artifact.LogRef = strings.TrimSpace(strings.TrimPrefix(line, "- Log:"))
		case strings.HasPrefix(line, "- Request ID:"):
			artifact.RequestID = strings.TrimSpace(strings.TrimPrefix(line, "- Request ID:"))
		case strings.HasPrefix(line, "- Steps:"):
			artifact.Steps = splitSteps(strings.TrimSpace(strings.TrimPrefix(line, "- Steps:")))
		}
	}

	if eventsPath := filepath.Join(dir, eventsFile); fileExists(eventsPath) {
		artifact.EventsPath = eventsPath
	}

	if s.usage != nil && artifact.RequestID != "" {
		usage, ok, err := s.usage.Lookup(ctx, artifact.RequestID)
		if err != nil {
			return nil, err
		}
		if ok {
			artifact.TokenUsage = usage
		}
	}

	return artifact, nil
}

func (s *Store) writeEventsFile(ctx context.Context, dir, name string, events []map[string]any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", goerr.Wrap(err, "failed to create artifact directory", goerr.V("dir", dir))
	}

	if events == nil {
		events = []map[string]any{}
	}
	raw, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return "", goerr.Wrap(err, "failed to serialize events", goerr.V("dir", dir))
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", goerr.Wrap(err, "failed to write events file", goerr.V("path", path))
	}

	logging.From(ctx).Debug("events written", "path", path, "count", len(events))
	return path, nil
}

func splitSteps(joined string) []string {
	if joined == "" {
		return nil
	}
	var steps []string
	for _, seg := range strings.Split(joined, ",") {
		if s := strings.TrimSpace(seg); s != "" {
			steps = append(steps, s)
		}
	}
	return steps
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
