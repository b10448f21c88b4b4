/*
Copyright © 2025 Mosaic HQ <oss@mosaichq.dev>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mosaichq/rulegen/internal/catalog"
	"github.com/mosaichq/rulegen/internal/detect"
	"github.com/mosaichq/rulegen/internal/render"
	"github.com/mosaichq/rulegen/pkg/config"
	"github.com/mosaichq/rulegen/pkg/logger"
	"github.com/mosaichq/rulegen/pkg/merge"
	"github.com/mosaichq/rulegen/pkg/safeio"
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate [dir]",
	Short: "Render rule templates and merge them into the project",
	Long: `Generate detects the project stack, renders the matching rule
templates, and writes each one to its output path. Existing files are
auto-merged when they are similar enough to the incoming content;
divergent files raise an interactive conflict prompt unless --no-input
is set, in which case they are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().Bool("dry-run", false, "Report what would change without writing anything")
	generateCmd.Flags().Bool("force", false, "Overwrite existing files without merging")
	generateCmd.Flags().Bool("no-merge", false, "Skip existing files instead of merging")
	generateCmd.Flags().Bool("no-backup", false, "Do not create .bak files before overwriting")
	generateCmd.Flags().Float64("threshold", 0, "Auto-merge similarity threshold in (0,1]")
	generateCmd.Flags().Bool("no-input", false, "Never prompt; skip files that would need a conflict decision")
	generateCmd.Flags().Bool("summary-json", false, "Print the per-file results as JSON")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	applyGenerateFlags(cmd, cfg)

	opts := merge.Options{
		Threshold: cfg.Generate.AutoMergeThreshold,
		MergeMode: cfg.Generate.MergeMode,
		Force:     cfg.Generate.Force,
		Backup:    cfg.Generate.Backup,
		DryRun:    cfg.Generate.DryRun,
	}
	if noInput, _ := cmd.Flags().GetBool("no-input"); !noInput {
		opts.Resolve = promptResolver(cmd.OutOrStdout())
	}

	records, err := runPipeline(dir, cfg, opts)
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("summary-json"); jsonOut {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		printSummary(cmd.OutOrStdout(), records, cfg.Generate.DryRun)
	}

	for _, rec := range records {
		if rec.Action == merge.ActionError {
			return fmt.Errorf("%d file(s) failed; first error at %s: %w", countAction(records, merge.ActionError), rec.Path, rec.Err)
		}
	}
	return nil
}

// applyGenerateFlags overlays explicitly-set flags on the loaded config.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		cfg.Generate.DryRun, _ = flags.GetBool("dry-run")
	}
	if flags.Changed("force") {
		cfg.Generate.Force, _ = flags.GetBool("force")
	}
	if flags.Changed("no-merge") {
		noMerge, _ := flags.GetBool("no-merge")
		cfg.Generate.MergeMode = !noMerge
	}
	if flags.Changed("no-backup") {
		noBackup, _ := flags.GetBool("no-backup")
		cfg.Generate.Backup = !noBackup
	}
	if flags.Changed("threshold") {
		cfg.Generate.AutoMergeThreshold, _ = flags.GetFloat64("threshold")
	}
}

// runPipeline renders every selected template and applies it under dir.
// Records come back in template priority order.
func runPipeline(dir string, cfg *config.Config, opts merge.Options) ([]merge.Record, error) {
	profile, err := detect.DetectWithOptions(dir, detect.Options{IgnoreGlobs: cfg.Detect.IgnoreGlobs})
	if err != nil {
		return nil, fmt.Errorf("detect stack: %w", err)
	}

	templates, err := catalog.Load()
	if err != nil {
		return nil, err
	}
	selected := catalog.Select(templates, profile, cfg.Templates.Enabled, cfg.Templates.Disabled)
	logger.Info("rendering templates",
		logger.Int("selected", len(selected)),
		logger.String("project", profile.Name))

	writer, err := merge.NewWriter(opts)
	if err != nil {
		return nil, err
	}

	renderer := render.NewRenderer(nil)
	records := make([]merge.Record, 0, len(selected))
	for _, tpl := range selected {
		incoming, err := renderer.Render(tpl, profile)
		if err != nil {
			records = append(records, merge.Record{Path: tpl.Output, Action: merge.ActionError, Err: err})
			continue
		}
		path, err := safeio.JoinContained(dir, tpl.Output)
		if err != nil {
			records = append(records, merge.Record{Path: tpl.Output, Action: merge.ActionError, Err: err})
			continue
		}
		records = append(records, writer.Apply(path, incoming))
	}
	return records, nil
}

// promptResolver returns a ResolveFunc that shows the conflict diff and
// asks the user what to do. Conflicts arrive one at a time.
func promptResolver(out io.Writer) merge.ResolveFunc {
	return func(c merge.Conflict) merge.Resolution {
		fmt.Fprintf(out, "\nConflict in %s (similarity %.2f)\n", c.Path, c.Diff.Similarity)
		writeDiff(out, c.Diff, false)

		choice := "incoming"
		form := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Resolve %s", c.Path)).
				Options(
					huh.NewOption("Accept incoming (replace the file)", "incoming"),
					huh.NewOption("Keep my version", "original"),
				).
				Value(&choice),
		))
		if err := form.Run(); err != nil {
			logger.Warn("conflict prompt aborted, keeping original", logger.Err(err))
			return merge.Resolution{Kind: merge.KeepOriginal}
		}
		if choice == "original" {
			return merge.Resolution{Kind: merge.KeepOriginal}
		}
		return merge.Resolution{Kind: merge.AcceptIncoming}
	}
}

func printSummary(out io.Writer, records []merge.Record, dryRun bool) {
	prefix := ""
	if dryRun {
		prefix = "[dry-run] "
	}
	for _, rec := range records {
		line := fmt.Sprintf("%s%-8s %s", prefix, rec.Action, rec.Path)
		if rec.BackupPath != "" {
			line += fmt.Sprintf(" (backup: %s)", rec.BackupPath)
		}
		if rec.Err != nil {
			line += fmt.Sprintf(" (%v)", rec.Err)
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "\n%d created, %d modified, %d merged, %d skipped, %d failed\n",
		countAction(records, merge.ActionCreated),
		countAction(records, merge.ActionModified),
		countAction(records, merge.ActionMerged),
		countAction(records, merge.ActionSkipped),
		countAction(records, merge.ActionError))
}

func countAction(records []merge.Record, action merge.Action) int {
	n := 0
	for _, rec := range records {
		if rec.Action == action {
			n++
		}
	}
	return n
}
