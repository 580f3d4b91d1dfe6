package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tsuzuri/pkg/cli/config"
	"github.com/secmon-lab/tsuzuri/pkg/domain/types"
	"github.com/secmon-lab/tsuzuri/pkg/usecase"
	"github.com/secmon-lab/tsuzuri/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdDaily() *cli.Command {
	var pathsCfg config.Paths
	var llmCfg config.LLM
	var logPath string
	var summary string
	var artifactDir string
	var runID string
	var goalIDs []string

	var flags []cli.Flag
	flags = append(flags, pathsCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "log-path",
			Usage:       "Path to the daily log file",
			Required:    true,
			Destination: &logPath,
		},
		&cli.StringFlag{
			Name:        "summary",
			Usage:       "Optional summary for the baseline analysis step",
			Destination: &summary,
		},
		&cli.StringFlag{
			Name:        "artifact-dir",
			Usage:       "Directory to store analysis artifacts (defaults to the canonical per-day directory)",
			Destination: &artifactDir,
		},
		&cli.StringFlag{
			Name:        "run-id",
			Usage:       "Override the run identifier (defaults to daily-<log stem>)",
			Destination: &runID,
		},
		&cli.StringSliceFlag{
			Name:        "goal-id",
			Usage:       "Goal ID override replacing the extracted references (can be specified multiple times)",
			Destination: &goalIDs,
		},
	)

	return &cli.Command{
		Name:    "daily",
		Aliases: []string{"d"},
		Usage:   "Run the analysis pipeline for one daily log",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			ctx = logging.With(ctx, logger)

			if err := pathsCfg.Configure(); err != nil {
				return err
			}

			uc, err := newUseCases(ctx, &pathsCfg, &llmCfg)
			if err != nil {
				return err
			}

			var override []types.GoalID
			for _, id := range goalIDs {
				gid := types.GoalID(id)
				if err := gid.Validate(); err != nil {
					return goerr.Wrap(err, "invalid goal ID override")
				}
				override = append(override, gid)
			}

			out, err := uc.Daily.Process(ctx, &usecase.DailyInput{
				LogPath:      logPath,
				Summary:      summary,
				ArtifactDir:  artifactDir,
				RunID:        runID,
				GoalOverride: override,
			})
			if err != nil {
				return goerr.Wrap(err, "daily pipeline failed", goerr.V("log", logPath))
			}

			result := map[string]any{
				"log_path":    logPath,
				"request_id":  out.Result.RequestID,
				"steps":       out.Result.Steps,
				"events_path": out.Result.EventsPath,
				"usage_path":  out.UsagePath,
			}
			raw, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to encode result")
			}
			fmt.Fprintln(os.Stdout, string(raw))

			color.New(color.FgGreen).Fprintf(os.Stderr, "✔ daily analysis completed: %s (%d steps, %d tokens)\n",
				logPath, len(out.Result.Steps), out.Result.TokenUsage.Total)
			return nil
		},
	}
}
