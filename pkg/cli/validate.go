package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tsuzuri/pkg/cli/config"
	"github.com/secmon-lab/tsuzuri/pkg/domain/types"
	"github.com/secmon-lab/tsuzuri/pkg/service/catalog"
	"github.com/secmon-lab/tsuzuri/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var pathsCfg config.Paths
	var goalIDs []string

	var flags []cli.Flag
	flags = append(flags, pathsCfg.Flags()...)
	flags = append(flags,
		&cli.StringSliceFlag{
			Name:        "goal-id",
			Usage:       "Goal ID to check against the catalog (can be specified multiple times)",
			Destination: &goalIDs,
		},
	)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the goal catalog and optional goal references",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			ctx = logging.With(ctx, logger)

			if err := pathsCfg.Configure(); err != nil {
				return err
			}

			cat := catalog.New(pathsCfg.GoalsFile())
			known, err := cat.Load(ctx)
			if err != nil {
				return goerr.Wrap(err, "goal catalog validation failed", goerr.V("path", cat.Path()))
			}

			ids := make([]string, 0, len(known))
			for id := range known {
				ids = append(ids, string(id))
			}
			sort.Strings(ids)
			fmt.Fprintf(os.Stdout, "Catalog: %s (%d goals)\n", cat.Path(), len(ids))
			for _, id := range ids {
				fmt.Fprintf(os.Stdout, "- %s\n", id)
			}

			if len(goalIDs) > 0 {
				refs := make([]types.GoalID, 0, len(goalIDs))
				for _, id := range goalIDs {
					gid := types.GoalID(id)
					if err := gid.Validate(); err != nil {
						return goerr.Wrap(err, "invalid goal ID", goerr.V("goal_id", id))
					}
					refs = append(refs, gid)
				}
				if err := cat.EnsureExist(ctx, refs); err != nil {
					return goerr.Wrap(err, "goal reference validation failed")
				}
				color.New(color.FgGreen).Fprintf(os.Stderr, "✔ %d goal reference(s) valid\n", len(refs))
				return nil
			}

			color.New(color.FgGreen).Fprintf(os.Stderr, "✔ goal catalog valid\n")
			return nil
		},
	}
}
