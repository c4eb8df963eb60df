package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skilltrail",
	Short: "Track what you learn from videos against an AI-built skill tree",
	Long: "Skilltrail turns a learning goal into a skill tree, maps the videos you watch onto it, " +
		"and shows what is still uncovered.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SKILLTRAIL_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/skilltrail/config.toml)")
	rootCmd.PersistentFlags().String("log-mode", "", "Log mode: dev or prod (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(gapCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(videoCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}
