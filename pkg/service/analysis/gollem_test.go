package analysis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/tsuzuri/pkg/domain/interfaces"
	"github.com/secmon-lab/tsuzuri/pkg/domain/model"
	"github.com/secmon-lab/tsuzuri/pkg/service/analysis"
)

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateStreamFn func(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error)
	countTokenFn     func(call int) (int, error)
	countTokenCalls  int
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return s.GenerateStream(ctx, input...)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	if s.generateStreamFn != nil {
		return s.generateStreamFn(ctx, input...)
	}
	return streamOf(), nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	s.countTokenCalls++
	if s.countTokenFn != nil {
		return s.countTokenFn(s.countTokenCalls)
	}
	return 0, nil
}

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	session *mockLLMSession
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.session != nil {
		return c.session, nil
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

func streamOf(resps ...*gollem.Response) <-chan *gollem.Response {
	ch := make(chan *gollem.Response, len(resps))
	for _, r := range resps {
		ch <- r
	}
	close(ch)
	return ch
}

func TestAnalyze(t *testing.T) {
	t.Run("requires an LLM client", func(t *testing.T) {
		_, err := analysis.New(nil)
		gt.Error(t, err)
	})

	t.Run("converts streamed chunks into delta and completed events", func(t *testing.T) {
		session := &mockLLMSession{
			generateStreamFn: func(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
				return streamOf(
					&gollem.Response{Texts: []string{"first chunk. "}},
					&gollem.Response{Texts: []string{"second chunk."}},
				), nil
			},
			countTokenFn: func(call int) (int, error) {
				if call == 1 {
					return 10, nil
				}
				return 5, nil
			},
		}
		svc, err := analysis.New(&mockLLMClient{session: session})
		gt.NoError(t, err).Required()

		events, err := svc.Analyze(context.Background(), &interfaces.AnalysisRequest{
			SystemPrompt: "analyze",
			UserContent:  "the log",
		})
		gt.NoError(t, err).Required()
		gt.Array(t, events).Length(3)

		gt.Array(t, model.CollectSteps(events)).Equal([]string{"first chunk. ", "second chunk."})
		gt.String(t, model.ExtractRequestID(events)).NotEqual("")

		usage := model.ExtractUsage(events)
		gt.Number(t, usage.Prompt).Equal(10)
		gt.Number(t, usage.Completion).Equal(5)
		gt.Number(t, usage.Total).Equal(15)
	})

	t.Run("aborts on a mid-stream error instead of returning partial output", func(t *testing.T) {
		streamErr := errors.New("provider connection lost")
		session := &mockLLMSession{
			generateStreamFn: func(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
				return streamOf(
					&gollem.Response{Texts: []string{"partial text"}},
					&gollem.Response{Error: streamErr},
				), nil
			},
		}
		svc, err := analysis.New(&mockLLMClient{session: session})
		gt.NoError(t, err).Required()

		events, err := svc.Analyze(context.Background(), &interfaces.AnalysisRequest{
			SystemPrompt: "analyze",
			UserContent:  "the log",
		})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, streamErr)).True()
		gt.Array(t, events).Length(0)
	})

	t.Run("returns no events for a contentless stream", func(t *testing.T) {
		session := &mockLLMSession{
			generateStreamFn: func(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
				return streamOf(
					nil,
					&gollem.Response{Texts: []string{""}},
				), nil
			},
		}
		svc, err := analysis.New(&mockLLMClient{session: session})
		gt.NoError(t, err).Required()

		events, err := svc.Analyze(context.Background(), &interfaces.AnalysisRequest{
			SystemPrompt: "analyze",
			UserContent:  "the log",
		})
		gt.NoError(t, err).Required()
		gt.Array(t, events).Length(0)
	})

	t.Run("treats token counting failures as zero usage", func(t *testing.T) {
		session := &mockLLMSession{
			generateStreamFn: func(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
				return streamOf(&gollem.Response{Texts: []string{"chunk"}}), nil
			},
			countTokenFn: func(call int) (int, error) {
				return 0, errors.New("counting unsupported")
			},
		}
		svc, err := analysis.New(&mockLLMClient{session: session})
		gt.NoError(t, err).Required()

		events, err := svc.Analyze(context.Background(), &interfaces.AnalysisRequest{
			SystemPrompt: "analyze",
			UserContent:  "the log",
		})
		gt.NoError(t, err).Required()
		gt.Bool(t, model.ExtractUsage(events).IsZero()).True()
	})
}
