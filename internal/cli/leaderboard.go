package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dayquest/dayquest/internal/daemon"
)

func init() {
	rootCmd.AddCommand(leaderboardCmd)
}

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard <competition-id>",
	Aliases: []string{"lb"},
	Short:   "Print a competition leaderboard from the local database",
	Args:    cobra.ExactArgs(1),
	RunE:    runLeaderboard,
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(rootCmd.Version)
	if err != nil {
		return err
	}
	defer d.Close()

	// Operator access: no participant check
	comp, board, err := d.Competitions.Leaderboard(cmd.Context(), "", args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s to %s)\n\n", comp.Name,
		comp.StartDate.Format(time.DateOnly), comp.EndDate.Format(time.DateOnly))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tUSER\tPOINTS\tTASKS")
	for _, e := range board {
		name := e.Username
		if name == "" {
			name = e.UserID
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", e.Rank, name, e.TotalPoints, e.TasksCompleted)
	}
	return w.Flush()
}
