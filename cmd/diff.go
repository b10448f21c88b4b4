/*
Copyright © 2025 Mosaic HQ <oss@mosaichq.dev>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/mosaichq/rulegen/internal/catalog"
	"github.com/mosaichq/rulegen/internal/detect"
	"github.com/mosaichq/rulegen/internal/render"
	"github.com/mosaichq/rulegen/pkg/config"
	"github.com/mosaichq/rulegen/pkg/safeio"
	"github.com/mosaichq/rulegen/pkg/textdiff"
)

// maxDiffLineWidth caps rendered diff lines so minified or generated
// content does not wrap into noise.
const maxDiffLineWidth = 120

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	contextStyle = lipgloss.NewStyle().Faint(true)
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff [dir]",
	Short: "Preview what generate would change",
	Long: `Diff renders the selected templates and compares each one against
the file currently on disk, printing unified-style hunks. Nothing is
written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	profile, err := detect.DetectWithOptions(dir, detect.Options{IgnoreGlobs: cfg.Detect.IgnoreGlobs})
	if err != nil {
		return fmt.Errorf("detect stack: %w", err)
	}
	templates, err := catalog.Load()
	if err != nil {
		return err
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	out := cmd.OutOrStdout()
	renderer := render.NewRenderer(nil)
	changed := 0

	for _, tpl := range catalog.Select(templates, profile, cfg.Templates.Enabled, cfg.Templates.Disabled) {
		incoming, err := renderer.Render(tpl, profile)
		if err != nil {
			return fmt.Errorf("render %s: %w", tpl.Slug, err)
		}
		path, err := safeio.JoinContained(dir, tpl.Output)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path) // #nosec G304 -- path is contained in dir
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintf(out, "new file: %s\n", tpl.Output)
				changed++
				continue
			}
			return fmt.Errorf("read %s: %w", path, err)
		}

		d := textdiff.Diff(string(data), incoming)
		if len(d.Hunks) == 0 {
			continue
		}
		changed++
		fmt.Fprintf(out, "--- %s\n+++ %s (rendered)\n", tpl.Output, tpl.Slug)
		writeDiff(out, d, !noColor)
	}

	if changed == 0 {
		fmt.Fprintln(out, "All rule files are up to date.")
	}
	return nil
}

// writeDiff prints the hunks of d in unified style.
func writeDiff(out io.Writer, d *textdiff.Result, useColor bool) {
	style := func(s lipgloss.Style, text string) string {
		if !useColor {
			return text
		}
		return s.Render(text)
	}

	for _, hunk := range d.Hunks {
		header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", hunk.OrigStart, hunk.OrigCount, hunk.ModStart, hunk.ModCount)
		fmt.Fprintln(out, style(hunkStyle, header))
		for _, line := range hunk.Lines {
			text := runewidth.Truncate(line.Text, maxDiffLineWidth, "…")
			switch line.Op {
			case textdiff.Added:
				fmt.Fprintln(out, style(addedStyle, "+"+text))
			case textdiff.Removed:
				fmt.Fprintln(out, style(removedStyle, "-"+text))
			default:
				fmt.Fprintln(out, style(contextStyle, " "+text))
			}
		}
	}
}
