package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tidybox/internal/logging"
	"tidybox/internal/matching"
	"tidybox/internal/plan"
	"tidybox/internal/services"
)

const previewTopClients = 10

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Scan the storage root and write a move plan for review",
		Long: "Scan the top level of the storage root, match each file to a client folder and " +
			"write a plan CSV. Nothing is moved; mark rows approved=Y and pass the plan to execute.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.runLogger(cmd, uuid.NewString())
			if err != nil {
				return err
			}
			logger = logging.WithContext(services.WithStage(cmd.Context(), "preview"), logger)

			scanner := &matching.Scanner{
				StorageRoot:       cfg.Paths.StorageRoot,
				ClientsRoot:       cfg.Paths.ClientsRoot,
				NonClientPrefixes: cfg.Organizer.NonClientPrefixes,
				MinLength:         cfg.Organizer.MinVariationLength,
				Lister:            matching.DirLister{IncludeHidden: cfg.Organizer.IncludeHidden},
				Logger:            logger,
			}
			results, err := scanner.Scan(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			records := plan.Build(results, cfg.Paths.ClientsRoot)
			path, err := plan.Save(cfg.Paths.OutputDir, records, time.Now())
			if err != nil {
				return err
			}
			logger.Info("plan written",
				logging.String(logging.FieldEventType, "plan_written"),
				logging.String("path", path),
				logging.Int("rows", len(records)),
			)

			out := cmd.OutOrStdout()
			summary := plan.Summarize(records, previewTopClients)
			printSection(out, "Preview")
			fmt.Fprintln(out, renderTotals([][2]string{
				{"Files scanned", strconv.Itoa(summary.Total)},
				{"Matched", strconv.Itoa(summary.Matched)},
				{"Unmatched", strconv.Itoa(summary.Unmatched)},
			}, [2]string{}))
			if len(summary.TopClients) > 0 {
				rows := make([][]string, 0, len(summary.TopClients))
				for _, c := range summary.TopClients {
					rows = append(rows, []string{c.Client, strconv.Itoa(c.Files)})
				}
				fmt.Fprintln(out, "Top clients")
				fmt.Fprintln(out, renderTable([]string{"Client", "Files"}, rows, []columnAlignment{alignLeft, alignRight}))
			}
			fmt.Fprintf(out, "\nPlan written to %s\n\n", path)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "  1. Open the plan and set approved=Y on the rows to move.")
			fmt.Fprintf(out, "  2. Dry run:  tidybox execute %q\n", path)
			fmt.Fprintf(out, "  3. Move:     tidybox execute %q --execute\n", path)
			return nil
		},
	}
}
