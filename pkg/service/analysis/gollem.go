package analysis

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/tsuzuri/pkg/domain/interfaces"
	"github.com/secmon-lab/tsuzuri/pkg/domain/model"
	"github.com/secmon-lab/tsuzuri/pkg/utils/logging"
)

// client implements interfaces.AnalysisService on top of a gollem LLM client
type client struct {
	llm gollem.LLMClient
}

// New creates an analysis service backed by the provided LLM client
func New(llm gollem.LLMClient) (interfaces.AnalysisService, error) {
	if llm == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &client{llm: llm}, nil
}

// Analyze opens a session, streams the analysis and converts the stream into
// tagged events: one delta event per streamed text chunk, then a completed
// event carrying the request ID and token usage. Events are emitted as wire
// mappings and interpreted through model.DecodeEvent so the persisted and the
// typed representation stay in one shape. A mid-stream error aborts the whole
// call; partial output is never returned as success. A stream that yields no
// content at all produces no events; the caller decides how to treat that.
func (c *client) Analyze(ctx context.Context, req *interfaces.AnalysisRequest) ([]*model.AnalysisEvent, error) {
	logger := logging.From(ctx)

	session, err := c.llm.NewSession(ctx,
		gollem.WithSessionSystemPrompt(req.SystemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	promptTokens, err := session.CountToken(ctx, gollem.Text(req.UserContent))
	if err != nil {
		logger.Warn("failed to count prompt tokens", "error", err.Error())
		promptTokens = 0
	}

	stream, err := session.GenerateStream(ctx, gollem.Text(req.UserContent))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to start analysis stream")
	}

	var events []*model.AnalysisEvent
	var output strings.Builder
	for resp := range stream {
		if resp == nil {
			continue
		}
		if resp.Error != nil {
			return nil, goerr.Wrap(resp.Error, "analysis stream failed",
				goerr.V("events_so_far", len(events)),
			)
		}
		for _, text := range resp.Texts {
			if text == "" {
				continue
			}
			events = append(events, model.DecodeEvent(map[string]any{
				"type":  model.EventTypeDelta,
				"delta": text,
			}))
			output.WriteString(text)
		}
	}

	if len(events) == 0 {
		logger.Warn("analysis stream yielded no content", "metadata", req.Metadata)
		return nil, nil
	}

	completionTokens, err := session.CountToken(ctx, gollem.Text(output.String()))
	if err != nil {
		logger.Warn("failed to count completion tokens", "error", err.Error())
		completionTokens = 0
	}

	events = append(events, model.DecodeEvent(map[string]any{
		"type": model.EventTypeCompleted,
		"response": map[string]any{
			"id": uuid.Must(uuid.NewV7()).String(),
			"usage": map[string]any{
				"prompt_tokens":     promptTokens,
				"completion_tokens": completionTokens,
				"total_tokens":      promptTokens + completionTokens,
			},
		},
	}))

	logger.Debug("analysis stream consumed",
		"event_count", len(events),
		"prompt_tokens", promptTokens,
		"completion_tokens", completionTokens,
	)
	return events, nil
}
