/*
Copyright © 2025 Mosaic HQ <oss@mosaichq.dev>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/mosaichq/rulegen/pkg/buildinfo"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show rulegen version information",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("extended", false, "Show detailed build information")
	versionCmd.Flags().Bool("json", false, "Output version information in JSON format")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	if jsonOutput {
		info := map[string]string{
			"version": buildinfo.BinaryVersion,
		}
		if extended {
			info["moduleVersion"] = buildinfo.ModuleVersion()
			info["revision"] = buildinfo.Revision()
			info["goVersion"] = runtime.Version()
			info["platform"] = runtime.GOOS
			info["arch"] = runtime.GOARCH
		}
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "rulegen %s\n", buildinfo.BinaryVersion)
	if extended {
		fmt.Fprintf(out, "module:   %s\n", buildinfo.ModuleVersion())
		if rev := buildinfo.Revision(); rev != "" {
			fmt.Fprintf(out, "revision: %s\n", rev)
		}
		fmt.Fprintf(out, "go:       %s\n", runtime.Version())
		fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	}
	return nil
}
