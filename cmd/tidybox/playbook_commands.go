package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tidybox/internal/config"
	"tidybox/internal/history"
	"tidybox/internal/logging"
	"tidybox/internal/playbook"
	"tidybox/internal/prompts"
	"tidybox/internal/services"
	"tidybox/internal/services/llm"
	"tidybox/internal/synthesis"
	"tidybox/internal/transcripts"
)

// combinedFile is the merged framework artifact written by playbook merge.
const combinedFile = "frameworks_combined.json"

func newPlaybookCommand(ctx *commandContext) *cobra.Command {
	playbookCmd := &cobra.Command{
		Use:   "playbook",
		Short: "Build strategic playbooks from meeting transcripts",
	}

	playbookCmd.AddCommand(newPlaybookNormalizeCommand(ctx))
	playbookCmd.AddCommand(newPlaybookCategorizeCommand(ctx))
	playbookCmd.AddCommand(newPlaybookRunCommand(ctx))
	playbookCmd.AddCommand(newPlaybookRetryCommand(ctx))
	playbookCmd.AddCommand(newPlaybookMergeCommand(ctx))
	playbookCmd.AddCommand(newPlaybookCostsCommand(ctx))

	return playbookCmd
}

func newPlaybookNormalizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Convert raw .txt and .pdf transcripts into structured JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.runLogger(cmd, uuid.NewString())
			if err != nil {
				return err
			}
			logger = logging.WithContext(services.WithStage(cmd.Context(), "normalize"), logger)
			normalizer := transcripts.NewNormalizer(cfg.Pipeline.TranscriptsDir, cfg.Pipeline.NormalizedDir, logger)
			result, err := normalizer.NormalizeAll(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Normalized %d of %d transcript(s) into %s\n", len(result.Written), result.Found, cfg.Pipeline.NormalizedDir)
			for _, failure := range result.Failures {
				fmt.Fprintln(out, renderStatusLine(filepath.Base(failure.Path), statusError, failure.Err.Error(), colorize))
			}
			return nil
		},
	}
}

func newPlaybookCategorizeCommand(ctx *commandContext) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Report how normalized transcripts split into strategic and client work",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report, err := categorizer(cfg).Report(cfg.Pipeline.NormalizedDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTotals([][2]string{
				{"Strategic", strconv.Itoa(len(report.Strategic))},
				{"Client", strconv.Itoa(len(report.Client))},
				{"Excluded", strconv.Itoa(len(report.Excluded))},
			}, [2]string{"Total", strconv.Itoa(report.Total)}))
			if list {
				printNames(out, "Strategic", report.Strategic)
				printNames(out, "Client", report.Client)
				printNames(out, "Excluded", report.Excluded)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List transcript names per category")
	return cmd
}

func printNames(out io.Writer, title string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", name)
	}
}

func newPlaybookRunCommand(ctx *commandContext) *cobra.Command {
	var categoryFlag, fromFlag, titleFlag string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the synthesis passes and write the playbook",
		Long: "Run discovery, synthesis, evidence and actionability over the normalized transcripts " +
			"of one category, then render the playbook. --from resumes at a later pass using the " +
			"artifacts of the previous run in the category work directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			category, err := transcripts.ParseCategory(categoryFlag)
			if err != nil {
				return err
			}
			from, err := synthesis.ParseStage(fromFlag)
			if err != nil {
				return err
			}
			if err := requireLLM(cfg); err != nil {
				return err
			}
			if err := cfg.EnsurePipelineDirectories(); err != nil {
				return err
			}

			var files []string
			if from == synthesis.StageDiscovery {
				files, err = categorizer(cfg).Select(cfg.Pipeline.NormalizedDir, category)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No %s transcripts in %s. Run 'tidybox playbook normalize' first.\n", category, cfg.Pipeline.NormalizedDir)
					return nil
				}
			}

			return ctx.withPipeline(cmd, category, func(p *synthesis.Pipeline) error {
				result, runErr := p.Run(cmd.Context(), files, from)
				out := cmd.OutOrStdout()
				if runErr != nil {
					printSpend(out, p.Budget, p.RunID)
					if errors.Is(runErr, synthesis.ErrBudgetExceeded) {
						return fmt.Errorf("run stopped: %w; finished pass artifacts remain in %s", runErr, p.WorkDir)
					}
					return runErr
				}
				path, err := playbook.Write(cfg.Pipeline.PlaybooksDir, playbookTitle(titleFlag, category), result.Frameworks, time.Now())
				if err != nil {
					return err
				}
				printSection(out, "Playbook")
				fmt.Fprintf(out, "Candidates found:   %d\n", result.Candidates)
				fmt.Fprintf(out, "Frameworks written: %d\n", len(result.Frameworks))
				if result.Skipped > 0 {
					fmt.Fprintf(out, "Without guidance:   %d (retry with 'tidybox playbook retry --category %s')\n", result.Skipped, category)
				}
				printSpend(out, p.Budget, p.RunID)
				fmt.Fprintf(out, "\nPlaybook written to %s\n", path)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&categoryFlag, "category", "all", "Transcripts to use: strategic, client or all")
	cmd.Flags().StringVar(&fromFlag, "from", "discovery", "Pass to start at: discovery, synthesis, evidence or actionability")
	cmd.Flags().StringVar(&titleFlag, "title", "", "Playbook title (defaults from the category)")
	return cmd
}

func newPlaybookRetryCommand(ctx *commandContext) *cobra.Command {
	var categoryFlag, titleFlag string

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Retry actionability for frameworks that have no guidance and rewrite the playbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			category, err := transcripts.ParseCategory(categoryFlag)
			if err != nil {
				return err
			}
			if err := requireLLM(cfg); err != nil {
				return err
			}
			return ctx.withPipeline(cmd, category, func(p *synthesis.Pipeline) error {
				result, err := p.RetryActionability(cmd.Context())
				out := cmd.OutOrStdout()
				if err != nil {
					printSpend(out, p.Budget, p.RunID)
					return err
				}
				path, err := playbook.Write(cfg.Pipeline.PlaybooksDir, playbookTitle(titleFlag, category), result.Frameworks, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Frameworks still without guidance: %d of %d\n", result.Skipped, len(result.Frameworks))
				printSpend(out, p.Budget, p.RunID)
				fmt.Fprintf(out, "\nPlaybook written to %s\n", path)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&categoryFlag, "category", "all", "Category whose run to retry: strategic, client or all")
	cmd.Flags().StringVar(&titleFlag, "title", "", "Playbook title (defaults from the category)")
	return cmd
}

func newPlaybookMergeCommand(ctx *commandContext) *cobra.Command {
	var titleFlag string

	cmd := &cobra.Command{
		Use:   "merge <frameworks.json> <frameworks.json>...",
		Short: "Merge framework sets into one combined playbook; earlier files win on duplicate names",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsurePipelineDirectories(); err != nil {
				return err
			}
			sets := make([][]synthesis.Framework, 0, len(args))
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				frameworks, err := synthesis.LoadFrameworks(path)
				if err != nil {
					return fmt.Errorf("load %s: %w", arg, err)
				}
				sets = append(sets, frameworks)
			}
			merged := playbook.Merge(sets...)

			combined := filepath.Join(cfg.Pipeline.WorkDir, combinedFile)
			if err := synthesis.WriteJSON(combined, merged.Frameworks); err != nil {
				return err
			}
			title := strings.TrimSpace(titleFlag)
			if title == "" {
				title = "Combined Strategic Playbook"
			}
			path, err := playbook.Write(cfg.Pipeline.PlaybooksDir, title, merged.Frameworks, time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Unique frameworks: %d\n", len(merged.Frameworks))
			for _, name := range merged.Duplicates {
				fmt.Fprintf(out, "  skipped duplicate: %s\n", name)
			}
			counts := playbook.CountByType(merged.Frameworks)
			rows := make([][]string, 0, len(counts))
			for _, g := range playbook.GroupByType(merged.Frameworks) {
				rows = append(rows, []string{g.Heading, strconv.Itoa(counts[typeKey(g.Type)])})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Type", "Frameworks"}, rows, []columnAlignment{alignLeft, alignRight}))
			}
			fmt.Fprintf(out, "Combined frameworks written to %s\n", combined)
			fmt.Fprintf(out, "Playbook written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&titleFlag, "title", "", "Playbook title")
	return cmd
}

func typeKey(t string) string {
	if t == "" {
		return "unknown"
	}
	return t
}

func newPlaybookCostsCommand(ctx *commandContext) *cobra.Command {
	var (
		days  int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "costs",
		Short: "Show LLM spend by model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var since time.Time
			if days > 0 {
				since = time.Now().AddDate(0, 0, -days)
			}
			return ctx.withHistory(cmd.Context(), func(store *history.Store) error {
				out := cmd.OutOrStdout()
				if runID = strings.TrimSpace(runID); runID != "" {
					total, err := store.RunSpend(cmd.Context(), runID)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Run %s: %s\n", runID, formatUSD(total))
					return nil
				}
				spend, err := store.SpendByModel(cmd.Context(), since)
				if err != nil {
					return err
				}
				if len(spend) == 0 {
					fmt.Fprintln(out, "No LLM calls recorded.")
					return nil
				}
				var total float64
				rows := make([][]string, 0, len(spend)+1)
				for _, s := range spend {
					total += s.Cost
					rows = append(rows, []string{
						s.Model,
						strconv.Itoa(s.Calls),
						strconv.Itoa(s.InputTokens),
						strconv.Itoa(s.OutputTokens),
						formatUSD(s.Cost),
					})
				}
				rows = append(rows, []string{"total", "", "", "", formatUSD(total)})
				fmt.Fprintln(out, renderTable(
					[]string{"Model", "Calls", "Input tokens", "Output tokens", "Cost"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Only count calls from the last N days (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show the total for one pipeline run ID instead")
	return cmd
}

// withPipeline wires a pipeline for category and runs fn with the history
// ledger open so every call is recorded.
func (c *commandContext) withPipeline(cmd *cobra.Command, category transcripts.Category, fn func(*synthesis.Pipeline) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	validator, err := synthesis.NewValidator()
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	logger, err := c.runLogger(cmd, runID)
	if err != nil {
		return err
	}
	cmd.SetContext(services.WithCategory(cmd.Context(), string(category)))
	return c.withHistory(cmd.Context(), func(store *history.Store) error {
		p := &synthesis.Pipeline{
			WorkDir: filepath.Join(cfg.Pipeline.WorkDir, string(category)),
			Models: synthesis.Models{
				Discovery:     cfg.Pipeline.DiscoveryModel,
				Synthesis:     cfg.Pipeline.SynthesisModel,
				Actionability: cfg.Pipeline.ActionabilityModel,
			},
			Limits: synthesis.Limits{
				DiscoveryLimit: cfg.Pipeline.DiscoveryLimit,
				MaxFrameworks:  cfg.Pipeline.MaxFrameworks,
				MaxChunks:      cfg.Pipeline.MaxChunks,
				MaxPromptChars: cfg.Pipeline.MaxPromptChars,
			},
			LLM: llm.NewClient(llm.Config{
				APIKey:         cfg.LLM.APIKey,
				BaseURL:        cfg.LLM.BaseURL,
				Referer:        cfg.LLM.Referer,
				Title:          cfg.LLM.Title,
				TimeoutSeconds: cfg.LLM.TimeoutSeconds,
			}),
			Prompts:   prompts.NewLoader(cfg.Pipeline.PromptsDir),
			Validator: validator,
			Budget:    synthesis.NewBudget(cfg.Pipeline.BudgetLimit, cfg.Pipeline.AlertThreshold),
			Pricing:   pricing(cfg),
			Recorder:  store,
			Logger:    logger,
			RunID:     runID,
		}
		return fn(p)
	})
}

func categorizer(cfg *config.Config) transcripts.Categorizer {
	return transcripts.Categorizer{
		Strategic: cfg.Pipeline.StrategicKeywords,
		Client:    cfg.Pipeline.ClientKeywords,
		Exclude:   cfg.Pipeline.ExcludeKeywords,
	}
}

func pricing(cfg *config.Config) synthesis.Pricing {
	table := cfg.PricingTable()
	out := make(synthesis.Pricing, len(table))
	for model, price := range table {
		out[model] = synthesis.Price{Input: price.Input, Output: price.Output}
	}
	return out
}

func playbookTitle(flag string, category transcripts.Category) string {
	if title := strings.TrimSpace(flag); title != "" {
		return title
	}
	if category == transcripts.CategoryAll {
		return "Strategic Playbook"
	}
	return cases.Title(language.English).String(string(category)) + " Playbook"
}

func printSpend(out io.Writer, budget *synthesis.Budget, runID string) {
	if budget == nil || budget.Calls() == 0 {
		return
	}
	rows := make([][2]string, 0)
	for _, mc := range budget.ByModel() {
		rows = append(rows, [2]string{mc.Model, formatUSD(mc.Cost)})
	}
	limit := "no limit"
	if budget.Limit() > 0 {
		limit = "of " + formatUSD(budget.Limit())
	}
	fmt.Fprintf(out, "\nSpend this run (%d calls, %s):\n", budget.Calls(), limit)
	fmt.Fprintln(out, renderTotals(rows, [2]string{"Total", formatUSD(budget.Spent())}))
	fmt.Fprintf(out, "Run ID: %s (see 'tidybox playbook costs --run %s')\n", runID, runID)
}

func formatUSD(value float64) string {
	return fmt.Sprintf("$%.4f", value)
}
