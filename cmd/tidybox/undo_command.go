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

func newUndoCommand(ctx *commandContext) *cobra.Command {
	var execute bool

	cmd := &cobra.Command{
		Use:   "undo <executed_log.csv>",
		Short: "Move the files of an execution log back (dry run unless --execute)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			records, err := plan.LoadLog(path)
			if err != nil {
				return loadError("log", err)
			}
			out := cmd.OutOrStdout()
			candidates := organizer.Candidates(records)
			if len(candidates) == 0 {
				fmt.Fprintln(out, "Nothing to undo: the log has no SUCCESS rows.")
				return nil
			}

			if execute {
				fmt.Fprintf(out, "About to move %d file(s) back to their original locations.\n", len(candidates))
				ok, err := confirmTyped(cmd, "This moves files on the shared drive.", cfg.Organizer.ConfirmUndo)
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
				engine := organizer.NewUndoEngine(cfg.Paths.OutputDir, logger)
				engine.Recorder = store
				report, err := engine.Undo(cmd.Context(), path, !execute)
				if err != nil {
					if errors.Is(err, organizer.ErrNothingToUndo) {
						fmt.Fprintln(out, "Nothing to undo: the log has no SUCCESS rows.")
						return nil
					}
					return err
				}
				title := "Undo"
				if report.DryRun {
					title = "Undo dry run"
				}
				printRunReport(out, title, report)
				if report.DryRun {
					fmt.Fprintf(out, "\nNothing was moved. Rerun with --execute to restore %d file(s).\n", report.Succeeded)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&execute, "execute", false, "Move files back instead of only validating")
	return cmd
}
