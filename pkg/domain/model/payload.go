package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tsuzuri/pkg/domain/types"
)

// AnalysisStep is a single step entry in the analysis payload
type AnalysisStep struct {
	Index     int    `json:"index"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Timestamp string `json:"timestamp"`
}

// PayloadMetadata carries the goal references, the redaction report and the
// sanitized text alongside the payload.
type PayloadMetadata struct {
	GoalIDs            []string         `json:"goalIds"`
	SanitizationReport *RedactionReport `json:"sanitizationReport"`
	SanitizedMarkdown  string           `json:"sanitizedMarkdown"`
}

// AnalysisPayload is the request envelope sent toward downstream schema
// validation. Field names are part of the wire contract.
type AnalysisPayload struct {
	LogRef        string          `json:"logRef"`
	AnalysisSteps []AnalysisStep  `json:"analysisSteps"`
	Status        string          `json:"status"`
	TokenUsage    TokenUsage      `json:"tokenUsage"`
	RequestID     string          `json:"requestId"`
	ArtifactPath  string          `json:"artifactPath"`
	Warnings      []string        `json:"warnings"`
	Metadata      PayloadMetadata `json:"metadata"`
}

// PayloadConfig holds per-run construction parameters
type PayloadConfig struct {
	RunID        string
	ArtifactPath string
}

// BuildPayload constructs the analysis request envelope. Construction is
// deterministic except for the baseline step timestamp. Token usage stays
// zeroed until the service responds.
func BuildPayload(logRef, sanitized string, goalIDs []types.GoalID, summary string, cfg PayloadConfig, report *RedactionReport) *AnalysisPayload {
	if report == nil {
		report = &RedactionReport{}
	}

	runID := cfg.RunID
	if runID == "" {
		runID = "pending"
	}

	return &AnalysisPayload{
		LogRef:        logRef,
		AnalysisSteps: []AnalysisStep{baselineStep(summary)},
		Status:        "INFO",
		TokenUsage:    TokenUsage{},
		RequestID:     runID,
		ArtifactPath:  cfg.ArtifactPath,
		Warnings:      aggregateWarnings(goalIDs, report),
		Metadata: PayloadMetadata{
			GoalIDs:            types.GoalIDStrings(goalIDs),
			SanitizationReport: report,
			SanitizedMarkdown:  sanitized,
		},
	}
}

func baselineStep(summary string) AnalysisStep {
	if summary == "" {
		summary = "Awaiting LLM analysis"
	}
	return AnalysisStep{
		Index:     1,
		Title:     "Pending Analysis",
		Summary:   summary,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// aggregateWarnings applies the warning rules in fixed order. All applicable
// warnings are included.
func aggregateWarnings(goalIDs []types.GoalID, report *RedactionReport) []string {
	warnings := []string{}
	if !report.IsRedacted {
		warnings = append(warnings, "Sanitization did not confirm redaction")
	}
	if len(report.MissingGoals) > 0 {
		missing := append([]string{}, report.MissingGoals...)
		sort.Strings(missing)
		warnings = append(warnings, fmt.Sprintf("Missing goals: %s", strings.Join(missing, ", ")))
	}
	if len(goalIDs) == 0 {
		warnings = append(warnings, "No goal references provided for log")
	}
	return warnings
}

// Validate checks the payload against the wire contract
func (p *AnalysisPayload) Validate() error {
	if p.LogRef == "" {
		return goerr.New("payload logRef is required")
	}
	if len(p.AnalysisSteps) == 0 {
		return goerr.New("payload requires at least one analysis step", goerr.V("logRef", p.LogRef))
	}
	for i, step := range p.AnalysisSteps {
		if step.Index < 1 {
			return goerr.New("analysis step index must be positive", goerr.V("index", step.Index), goerr.V("position", i))
		}
		if step.Title == "" || step.Summary == "" || step.Timestamp == "" {
			return goerr.New("analysis step is missing required fields", goerr.V("position", i))
		}
	}
	if p.Status == "" {
		return goerr.New("payload status is required", goerr.V("logRef", p.LogRef))
	}
	if p.RequestID == "" {
		return goerr.New("payload requestId is required", goerr.V("logRef", p.LogRef))
	}
	if p.Warnings == nil {
		return goerr.New("payload warnings must be present", goerr.V("logRef", p.LogRef))
	}
	if p.Metadata.SanitizationReport == nil {
		return goerr.New("payload metadata requires a sanitization report", goerr.V("logRef", p.LogRef))
	}
	return nil
}
