package main

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configDir  string
	offline    bool
	logToFile  bool
	quietReply bool
)

var rootCmd = &cobra.Command{
	Use:   "overlaysim",
	Short: "Replay AR host command scripts against the overlay manager",
	Long: `overlaysim feeds recorded host commands (tracking batches, pin toggles,
session ends) through the same command bridge a mobile host uses, against an
in-memory scene, and prints the resulting overlays.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "directory containing gormaz.cfg.json")

	replayCmd.Flags().BoolVar(&offline, "offline", false, "do not contact the stats backend")
	replayCmd.Flags().BoolVar(&logToFile, "log-file", true, "write logs to the logs directory instead of stdout")
	replayCmd.Flags().BoolVarP(&quietReply, "quiet", "q", false, "only print the final scene")

	rootCmd.AddCommand(replayCmd, poolsCmd)
}
