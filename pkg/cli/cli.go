package cli

import (
	"context"

	"github.com/secmon-lab/tsuzuri/pkg/cli/config"
	"github.com/secmon-lab/tsuzuri/pkg/repository/artifact"
	"github.com/secmon-lab/tsuzuri/pkg/repository/ledger"
	"github.com/secmon-lab/tsuzuri/pkg/service/analysis"
	"github.com/secmon-lab/tsuzuri/pkg/service/catalog"
	"github.com/secmon-lab/tsuzuri/pkg/usecase"
	"github.com/secmon-lab/tsuzuri/pkg/utils/errutil"
	"github.com/secmon-lab/tsuzuri/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var closers []func()

	var flags []cli.Flag
	flags = append(flags, loggerCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "tsuzuri",
		Usage:   "Diary analysis and weekly review pipeline",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logCloser, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, logCloser)

			sentryCloser, err := sentryCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, sentryCloser)

			logging.Default().Info("Starting tsuzuri", "logger", &loggerCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for _, closer := range closers {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdDaily(),
			cmdWeekly(),
			cmdValidate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		_ = errutil.Handle(ctx, err, "failed to run app")
		return err
	}

	return nil
}

// newUseCases assembles the pipeline components from resolved configuration
func newUseCases(ctx context.Context, pathsCfg *config.Paths, llmCfg *config.LLM) (*usecase.UseCases, error) {
	llmClient, err := llmCfg.Configure(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := analysis.New(llmClient)
	if err != nil {
		return nil, err
	}

	usageLedger := ledger.New(pathsCfg.UsageFile())
	store := artifact.New(pathsCfg.ReportsDir(), usageLedger)
	cat := catalog.New(pathsCfg.GoalsFile())

	return usecase.New(cat, svc, usageLedger, store,
		usecase.WithLogsDir(pathsCfg.LogsDir()),
		usecase.WithWeeklyDir(pathsCfg.WeeklyDir()),
		usecase.WithPromptPath(pathsCfg.PromptFile()),
	), nil
}
