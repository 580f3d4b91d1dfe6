package model

// AnalysisResult is the interpreted outcome of one analysis service call
type AnalysisResult struct {
	RequestID  string
	Steps      []string
	TokenUsage TokenUsage
	EventsPath string
	OK         bool
}

// DailyArtifact is the materialized per-day record reconstructed from (or
// written to) the artifact store. An empty EventsPath signals the events file
// is missing.
type DailyArtifact struct {
	LogRef      string
	SummaryPath string
	EventsPath  string
	Steps       []string
	TokenUsage  TokenUsage
	RequestID   string
}

// PartialFailure names an artifact that exists but is missing expected
// content. Produced by the weekly aggregation, never mutated.
type PartialFailure struct {
	LogRef string
	Issues []string
}

// DetectPartialFailures flags artifacts with an empty request ID, zero steps
// or a missing events file. All applicable reasons are included per artifact.
func DetectPartialFailures(artifacts []*DailyArtifact) []*PartialFailure {
	var failures []*PartialFailure
	for _, a := range artifacts {
		var issues []string
		if a.RequestID == "" {
			issues = append(issues, "missing analysis request ID")
		}
		if len(a.Steps) == 0 {
			issues = append(issues, "no streamed steps captured")
		}
		if a.EventsPath == "" {
			issues = append(issues, "events.json artifact missing")
		}
		if len(issues) > 0 {
			logRef := a.LogRef
			if logRef == "" {
				logRef = "unknown"
			}
			failures = append(failures, &PartialFailure{LogRef: logRef, Issues: issues})
		}
	}
	return failures
}

// GoalProgress is one goal entry of the weekly report
type GoalProgress struct {
	GoalID string
	Status string
}

// WeeklySynthesis is the outcome of the weekly synthesis call
type WeeklySynthesis struct {
	Summary    string
	TokenUsage TokenUsage
	RequestID  string
	Events     []*AnalysisEvent
}
