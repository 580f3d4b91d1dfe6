package interfaces

import (
	"context"

	"github.com/secmon-lab/tsuzuri/pkg/domain/model"
)

// AnalysisRequest is the two-message request sent to the analysis service
type AnalysisRequest struct {
	SystemPrompt string
	UserContent  string
	Metadata     map[string]string
}

// AnalysisService streams an LLM analysis for a request. The call blocks
// until the event stream has been consumed to completion and returns the full
// event sequence. Failures propagate; no retry happens at this layer.
type AnalysisService interface {
	Analyze(ctx context.Context, req *AnalysisRequest) ([]*model.AnalysisEvent, error)
}

// UsageLookup resolves recorded token usage by analysis request ID
type UsageLookup interface {
	Lookup(ctx context.Context, requestID string) (model.TokenUsage, bool, error)
}
