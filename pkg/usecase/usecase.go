package usecase

import (
	"github.com/secmon-lab/tsuzuri/pkg/domain/interfaces"
	"github.com/secmon-lab/tsuzuri/pkg/repository/artifact"
	"github.com/secmon-lab/tsuzuri/pkg/repository/ledger"
	"github.com/secmon-lab/tsuzuri/pkg/service/catalog"
)

// UseCases bundles the daily pipeline and the weekly aggregation
type UseCases struct {
	Daily  *DailyUseCase
	Weekly *WeeklyUseCase

	logsDir    string
	weeklyDir  string
	promptPath string
}

// Option is a functional option for UseCases configuration
type Option func(*UseCases)

// WithLogsDir sets the directory scanned for daily logs
func WithLogsDir(dir string) Option {
	return func(uc *UseCases) {
		uc.logsDir = dir
	}
}

// WithWeeklyDir sets the directory for weekly review documents
func WithWeeklyDir(dir string) Option {
	return func(uc *UseCases) {
		uc.weeklyDir = dir
	}
}

// WithPromptPath sets the weekly synthesis prompt file
func WithPromptPath(path string) Option {
	return func(uc *UseCases) {
		uc.promptPath = path
	}
}

// New wires the use cases together
func New(cat *catalog.Catalog, analysis interfaces.AnalysisService, usageLedger *ledger.Ledger, store *artifact.Store, opts ...Option) *UseCases {
	uc := &UseCases{
		logsDir:    "daily-logs",
		weeklyDir:  "weekly-review",
		promptPath: "ci/prompts/weekly-synthesis.md",
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Daily = NewDailyUseCase(cat, analysis, usageLedger, store)
	uc.Weekly = NewWeeklyUseCase(uc.Daily, cat, analysis, usageLedger, store, uc.logsDir, uc.weeklyDir, uc.promptPath)

	return uc
}
