// Package cli implements the DayQuest command-line interface using Cobra.
// Besides serving the API it offers operator tools that work directly on
// the local database.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dayquest",
	Short: "DayQuest, a gamified productivity backend",
	Long: `DayQuest rewards finishing tasks early in your day.
Completed tasks earn points that decay with each hour since your day start,
consecutive days build a streak, and small groups compete on leaderboards.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
