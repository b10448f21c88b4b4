/*
Copyright © 2025 Mosaic HQ <oss@mosaichq.dev>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mosaichq/rulegen/pkg/buildinfo"
	"github.com/mosaichq/rulegen/pkg/exitcode"
	"github.com/mosaichq/rulegen/pkg/logger"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rulegen",
		Short: "Generate and merge AI assistant rule files from your project's stack",
		Long: `Rulegen detects the technology stack of a project and regenerates its
AI assistant rule files (CLAUDE.md, .cursor/rules/*) from templates, merging
template updates into files you have edited instead of clobbering them.

Examples:
   rulegen detect      # Show the detected stack profile
   rulegen generate    # Render templates and merge them into the project
   rulegen diff        # Preview what generate would change
   rulegen init        # Interactive setup, writes .rulegen.yaml`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Set log level (debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("rulegen {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(versionCmd)
	cmd.AddCommand(detectCmd)
	cmd.AddCommand(generateCmd)
	cmd.AddCommand(diffCmd)
	cmd.AddCommand(initCmd)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", logger.Err(err))
		os.Exit(exitcode.GeneralError)
	}
}

func init() {
	registerSubcommands(rootCmd)
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	config := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "rulegen",
		DryRun:    dryRun,
	}

	if err := logger.Initialize(config); err != nil {
		if _, writeErr := os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n"); writeErr != nil {
			_ = writeErr
		}
		os.Exit(exitcode.ConfigError)
	}
}
