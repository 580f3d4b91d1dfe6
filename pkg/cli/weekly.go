package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tsuzuri/pkg/cli/config"
	"github.com/secmon-lab/tsuzuri/pkg/domain/types"
	"github.com/secmon-lab/tsuzuri/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdWeekly() *cli.Command {
	var pathsCfg config.Paths
	var llmCfg config.LLM
	var weekID string

	var flags []cli.Flag
	flags = append(flags, pathsCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "week-id",
			Usage:       "ISO week to aggregate, e.g. 2025-W39 (defaults to the current week)",
			Destination: &weekID,
		},
	)

	return &cli.Command{
		Name:    "weekly",
		Aliases: []string{"w"},
		Usage:   "Aggregate daily artifacts into a weekly review",
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

			var week types.WeekID
			if weekID == "" {
				week = types.DefaultWeekID(time.Now())
			} else {
				week, err = types.ParseWeekID(weekID)
				if err != nil {
					return goerr.Wrap(err, "invalid week ID", goerr.V("week_id", weekID))
				}
			}

			out, err := uc.Weekly.Process(ctx, week)
			if err != nil {
				return goerr.Wrap(err, "weekly pipeline failed", goerr.V("week_id", week))
			}

			failures := make([]map[string]any, 0, len(out.PartialFailures))
			for _, f := range out.PartialFailures {
				failures = append(failures, map[string]any{
					"log_ref": f.LogRef,
					"issues":  f.Issues,
				})
			}
			totalTokens := 0
			for _, a := range out.Artifacts {
				totalTokens += a.TokenUsage.Total
			}
			result := map[string]any{
				"week_id":          week,
				"report_path":      out.ReportPath,
				"checklist_path":   out.ChecklistPath,
				"daily_artifacts":  len(out.Artifacts),
				"partial_failures": failures,
				"total_tokens":     totalTokens,
			}
			raw, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to encode result")
			}
			fmt.Fprintln(os.Stdout, string(raw))

			if len(out.PartialFailures) > 0 {
				color.New(color.FgYellow).Fprintf(os.Stderr, "⚠ weekly review for %s completed with %d partial failure(s)\n",
					week, len(out.PartialFailures))
			} else {
				color.New(color.FgGreen).Fprintf(os.Stderr, "✔ weekly review for %s completed: %s\n",
					week, out.ReportPath)
			}
			return nil
		},
	}
}
