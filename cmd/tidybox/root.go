package main

import (
	"github.com/spf13/cobra"
)

const rootLong = `tidybox has two halves.

The organizer moves loose files from the top of a cloud-storage root into
matching client folders, always in three steps:

  tidybox preview              write a plan CSV and review it
  tidybox execute PLAN         dry-run the approved rows (add --execute to move)
  tidybox undo LOG --execute   move a run's files back

The playbook pipeline turns meeting transcripts into a markdown playbook of
strategic frameworks with an LLM:

  tidybox playbook normalize
  tidybox playbook run --category strategic`

func newRootCommand() *cobra.Command {
	var (
		configFlag string
		verbose    bool
	)
	ctx := newCommandContext(&configFlag, &verbose)

	root := &cobra.Command{
		Use:           "tidybox",
		Short:         "Organize loose drive files into client folders and build playbooks from transcripts",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path (default ~/.config/tidybox/config.toml, then ./tidybox.toml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	root.AddGroup(
		&cobra.Group{ID: "organizer", Title: "Organizer:"},
		&cobra.Group{ID: "pipeline", Title: "Playbook pipeline:"},
	)
	for _, sub := range []*cobra.Command{
		newPreviewCommand(ctx),
		newExecuteCommand(ctx),
		newUndoCommand(ctx),
		newHistoryCommand(ctx),
	} {
		sub.GroupID = "organizer"
		root.AddCommand(sub)
	}
	pb := newPlaybookCommand(ctx)
	pb.GroupID = "pipeline"
	root.AddCommand(pb, newConfigCommand(ctx))

	return root
}
