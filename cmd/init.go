/*
Copyright © 2025 Mosaic HQ <oss@mosaichq.dev>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mosaichq/rulegen/internal/wizard"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Interactive setup, writes .rulegen.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		path, err := wizard.Run(dir)
		if err != nil {
			return err
		}
		if path != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		}
		return nil
	},
}
