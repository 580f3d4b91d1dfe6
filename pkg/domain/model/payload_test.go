package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/tsuzuri/pkg/domain/model"
	"github.com/secmon-lab/tsuzuri/pkg/domain/types"
)

func TestBuildPayload(t *testing.T) {
	t.Run("builds a valid payload with defaults", func(t *testing.T) {
		report := &model.RedactionReport{IsRedacted: true}
		payload := model.BuildPayload(
			"daily-logs/2025-09-22.mon.log.md",
			"sanitized text",
			[]types.GoalID{"G-2025-W39-01"},
			"",
			model.PayloadConfig{},
			report,
		)

		gt.NoError(t, payload.Validate()).Required()
		gt.String(t, payload.LogRef).Equal("daily-logs/2025-09-22.mon.log.md")
		gt.String(t, payload.Status).Equal("INFO")
		gt.String(t, payload.RequestID).Equal("pending")
		gt.Array(t, payload.AnalysisSteps).Length(1)
		gt.Number(t, payload.AnalysisSteps[0].Index).Equal(1)
		gt.String(t, payload.AnalysisSteps[0].Title).Equal("Pending Analysis")
		gt.String(t, payload.AnalysisSteps[0].Summary).Equal("Awaiting LLM analysis")
		gt.Bool(t, payload.TokenUsage.IsZero()).True()
		gt.Array(t, payload.Warnings).Length(0)
		gt.Array(t, payload.Metadata.GoalIDs).Equal([]string{"G-2025-W39-01"})
		gt.String(t, payload.Metadata.SanitizedMarkdown).Equal("sanitized text")
	})

	t.Run("uses the provided run ID and summary", func(t *testing.T) {
		payload := model.BuildPayload(
			"log.path", "text",
			[]types.GoalID{"G-2025-W39-01"},
			"Manual run",
			model.PayloadConfig{RunID: "daily-2025-09-22.mon", ArtifactPath: "reports/2025-W39-22"},
			&model.RedactionReport{IsRedacted: true},
		)
		gt.String(t, payload.RequestID).Equal("daily-2025-09-22.mon")
		gt.String(t, payload.ArtifactPath).Equal("reports/2025-W39-22")
		gt.String(t, payload.AnalysisSteps[0].Summary).Equal("Manual run")
	})

	t.Run("tolerates a nil redaction report", func(t *testing.T) {
		payload := model.BuildPayload("log.path", "text", nil, "", model.PayloadConfig{}, nil)
		gt.Value(t, payload.Metadata.SanitizationReport).NotNil()
		gt.NoError(t, payload.Validate())
	})
}

func TestAggregateWarnings(t *testing.T) {
	t.Run("warns when redaction is unconfirmed", func(t *testing.T) {
		payload := model.BuildPayload("log.path", "text",
			[]types.GoalID{"G-2025-W39-01"}, "", model.PayloadConfig{},
			&model.RedactionReport{IsRedacted: false})
		gt.Array(t, payload.Warnings).Equal([]string{"Sanitization did not confirm redaction"})
	})

	t.Run("warns about missing goals sorted", func(t *testing.T) {
		payload := model.BuildPayload("log.path", "text",
			[]types.GoalID{"G-2025-W39-01"}, "", model.PayloadConfig{},
			&model.RedactionReport{
				IsRedacted:   true,
				MissingGoals: []string{"G-2025-W39-09", "G-2025-W39-03"},
			})
		gt.Array(t, payload.Warnings).Equal([]string{"Missing goals: G-2025-W39-03, G-2025-W39-09"})
	})

	t.Run("warns when no goal references exist", func(t *testing.T) {
		payload := model.BuildPayload("log.path", "text", nil, "", model.PayloadConfig{},
			&model.RedactionReport{IsRedacted: true})
		gt.Array(t, payload.Warnings).Equal([]string{"No goal references provided for log"})
	})

	t.Run("accumulates all applicable warnings in fixed order", func(t *testing.T) {
		payload := model.BuildPayload("log.path", "text", nil, "", model.PayloadConfig{},
			&model.RedactionReport{MissingGoals: []string{"G-2025-W39-05"}})
		gt.Array(t, payload.Warnings).Equal([]string{
			"Sanitization did not confirm redaction",
			"Missing goals: G-2025-W39-05",
			"No goal references provided for log",
		})
	})
}

func TestPayloadValidate(t *testing.T) {
	valid := func() *model.AnalysisPayload {
		return model.BuildPayload("log.path", "text",
			[]types.GoalID{"G-2025-W39-01"}, "", model.PayloadConfig{},
			&model.RedactionReport{IsRedacted: true})
	}

	t.Run("rejects a missing log reference", func(t *testing.T) {
		p := valid()
		p.LogRef = ""
		gt.Error(t, p.Validate())
	})

	t.Run("rejects empty analysis steps", func(t *testing.T) {
		p := valid()
		p.AnalysisSteps = nil
		gt.Error(t, p.Validate())
	})

	t.Run("rejects a non-positive step index", func(t *testing.T) {
		p := valid()
		p.AnalysisSteps[0].Index = 0
		gt.Error(t, p.Validate())
	})

	t.Run("rejects a step missing required fields", func(t *testing.T) {
		p := valid()
		p.AnalysisSteps[0].Title = ""
		gt.Error(t, p.Validate())
	})

	t.Run("rejects a missing request ID", func(t *testing.T) {
		p := valid()
		p.RequestID = ""
		gt.Error(t, p.Validate())
	})

	t.Run("rejects nil warnings", func(t *testing.T) {
		p := valid()
		p.Warnings = nil
		gt.Error(t, p.Validate())
	})

	t.Run("rejects a missing sanitization report", func(t *testing.T) {
		p := valid()
		p.Metadata.SanitizationReport = nil
		gt.Error(t, p.Validate())
	})
}
