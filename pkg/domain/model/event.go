package model

import (
	"encoding/json"
	"fmt"
)

// Event type tags used by the analysis service stream
const (
	EventTypeDelta     = "response.output_text.delta"
	EventTypeCompleted = "response.completed"
)

// EventUsage is the token usage block carried by a completed event
type EventUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// EventResponse is the response object carried by a completed event
type EventResponse struct {
	ID    string      `json:"id,omitempty"`
	Usage *EventUsage `json:"usage,omitempty"`
}

// AnalysisEvent is one tagged event of an analysis stream. Events the service
// emits that are neither deltas nor completions keep their original type tag
// and are carried through untouched.
type AnalysisEvent struct {
	Type     string         `json:"type"`
	Delta    string         `json:"delta,omitempty"`
	Response *EventResponse `json:"response,omitempty"`

	// Raw holds the provider-native representation when one exists. It is
	// only used for artifact serialization.
	Raw any `json:"-"`
}

// IsDelta reports whether the event carries incremental output text
func (e *AnalysisEvent) IsDelta() bool {
	return e.Type == EventTypeDelta && e.Delta != ""
}

// IsCompleted reports whether the event marks stream completion
func (e *AnalysisEvent) IsCompleted() bool {
	return e.Type == EventTypeCompleted
}

// DecodeEvent converts an arbitrary event representation into an
// AnalysisEvent. Map-shaped events are decoded field by field; anything else
// is carried through as an untyped event.
func DecodeEvent(v any) *AnalysisEvent {
	switch ev := v.(type) {
	case *AnalysisEvent:
		return ev
	case AnalysisEvent:
		return &ev
	case map[string]any:
		out := &AnalysisEvent{Raw: v}
		out.Type, _ = ev["type"].(string)
		out.Delta, _ = ev["delta"].(string)
		if resp, ok := ev["response"].(map[string]any); ok {
			out.Response = &EventResponse{}
			out.Response.ID, _ = resp["id"].(string)
			if usage, ok := resp["usage"].(map[string]any); ok {
				out.Response.Usage = &EventUsage{
					PromptTokens:     intField(usage, "prompt_tokens"),
					CompletionTokens: intField(usage, "completion_tokens"),
					TotalTokens:      intField(usage, "total_tokens"),
				}
			}
		}
		return out
	default:
		return &AnalysisEvent{Raw: v}
	}
}

// intField reads a numeric map entry, tolerating the float64 values produced
// by JSON decoding.
func intField(m map[string]any, key string) int {
	switch n := m[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// CollectSteps returns the delta texts of the stream in order
func CollectSteps(events []*AnalysisEvent) []string {
	var steps []string
	for _, ev := range events {
		if ev.IsDelta() {
			steps = append(steps, ev.Delta)
		}
	}
	return steps
}

// ExtractRequestID returns the response ID of the first completed event, or
// an empty string when none carries one.
func ExtractRequestID(events []*AnalysisEvent) string {
	for _, ev := range events {
		if ev.IsCompleted() && ev.Response != nil && ev.Response.ID != "" {
			return ev.Response.ID
		}
	}
	return ""
}

// ExtractUsage returns the usage block of the first completed event, or
// all-zero usage when none carries one.
func ExtractUsage(events []*AnalysisEvent) TokenUsage {
	for _, ev := range events {
		if !ev.IsCompleted() {
			continue
		}
		if ev.Response == nil || ev.Response.Usage == nil {
			return TokenUsage{}
		}
		u := ev.Response.Usage
		return TokenUsage{
			Prompt:     u.PromptTokens,
			Completion: u.CompletionTokens,
			Total:      u.TotalTokens,
		}
	}
	return TokenUsage{}
}

// SerializeEvents converts events into plain JSON-ready mappings. An event
// whose provider-native form cannot be converted is recorded as an inline
// error placeholder instead of failing the batch.
func SerializeEvents(events []*AnalysisEvent) []map[string]any {
	out := make([]map[string]any, 0, len(events))
	for _, ev := range events {
		src := any(ev)
		if ev.Raw != nil {
			src = ev.Raw
		}
		m, err := toMapping(src)
		if err != nil {
			out = append(out, map[string]any{
				"error": "event could not be serialized",
				"repr":  fmt.Sprintf("%v", src),
			})
			continue
		}
		out = append(out, m)
	}
	return out
}

func toMapping(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
