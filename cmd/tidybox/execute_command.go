package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tidybox/internal/config"
	"tidybox/internal/history"
	"tidybox/internal/organizer"
	"tidybox/internal/plan"
)

func newExecuteCommand(ctx *commandContext) *cobra.Command {
	var execute bool

	cmd := &cobra.Command{
		Use:   "execute <plan.csv>",
		Short: "Move the approved rows of a plan (dry run unless --execute)",
		Long: "Validate every approved row of a plan. Without --execute nothing is moved and a " +
			"dryrun log is written; with --execute the files are moved after a typed confirmation.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			p, err := plan.Load(path)
			if err != nil {
				return loadError("plan", err)
			}
			out := cmd.OutOrStdout()
			if p.State() != plan.StateApproved {
				fmt.Fprintln(out, "No approved rows in plan. Set approved=Y on the rows to move and rerun.")
				return nil
			}

			approved := len(p.Approved())
			if execute {
				fmt.Fprintf(out, "About to move %d file(s) listed in %s.\n", approved, path)
				ok, err := confirmTyped(cmd, "This moves files on the shared drive.", cfg.Organizer.ConfirmExecute)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			logger, err := ctx.runLogger(cmd, uuid.NewString())
			if err != nil {
				return err
			}
			return ctx.withHistory(cmd.Context(), func(store *history.Store) error {
				executor := organizer.NewExecutor(cfg.Paths.OutputDir, logger)
				executor.Recorder = store
				report, err := executor.Execute(cmd.Context(), p, !execute)
				if err != nil {
					if errors.Is(err, plan.ErrNotApproved) {
						fmt.Fprintln(out, "No approved rows in plan.")
						return nil
					}
					return err
				}
				title := "Execution"
				if report.DryRun {
					title = "Dry run"
				}
				printRunReport(out, title, report)
				if report.DryRun {
					fmt.Fprintf(out, "\nNothing was moved. Rerun with --execute to move %d file(s).\n", report.Succeeded)
				} else if report.Succeeded > 0 {
					fmt.Fprintf(out, "\nTo revert: tidybox undo %q --execute\n", report.LogPath)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&execute, "execute", false, "Move files instead of only validating them")
	return cmd
}
