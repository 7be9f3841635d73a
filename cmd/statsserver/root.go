package main

import (
	"github.com/spf13/cobra"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "statsserver",
	Short: "GormazAR usage statistics server",
	Long: `statsserver records user registrations, per-reference scan counts and
session durations for GormazAR clients.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "directory containing gormaz.cfg.json")
	rootCmd.AddCommand(serveCmd, backupCmd)
}
