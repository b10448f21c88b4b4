/*
Copyright © 2025 Mosaic HQ <oss@mosaichq.dev>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mosaichq/rulegen/internal/detect"
	"github.com/mosaichq/rulegen/pkg/config"
)

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect [dir]",
	Short: "Detect the technology stack of a project",
	Long: `Detect inspects a project's manifest files (package.json, go.mod,
pyproject.toml, Cargo.toml, pom.xml) and source tree to build a stack
profile: languages, frameworks, package managers, and test runners.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().Bool("json", false, "Output the profile as JSON")
}

func runDetect(cmd *cobra.Command, args []string) error {
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

	jsonOutput, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	if jsonOutput {
		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "Project: %s\n", profile.Name)
	if profile.ModulePath != "" {
		fmt.Fprintf(out, "Module:  %s\n", profile.ModulePath)
	}
	printList(out, "Languages", profile.Languages)
	printList(out, "Frameworks", profile.Frameworks)
	printList(out, "Package managers", profile.PackageManagers)
	printList(out, "Test runners", profile.TestRunners)
	if profile.Git != nil {
		dirty := ""
		if profile.Git.Dirty {
			dirty = " (dirty)"
		}
		fmt.Fprintf(out, "Git: %s @ %.8s%s\n", profile.Git.Branch, profile.Git.SHA, dirty)
	}
	return nil
}

func printList(out io.Writer, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(out, "%s: %s\n", label, strings.Join(values, ", "))
}
