package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dayquest/dayquest/internal/app/gamification"
)

func init() {
	pointsCmd.Flags().StringVar(&pointsDifficulty, "difficulty", "medium", "Task difficulty: easy, medium or difficult")
	pointsCmd.Flags().StringVar(&pointsAt, "at", "", "Completion time, RFC 3339 (default now)")
	pointsCmd.Flags().StringVar(&pointsDayStart, "day-start", "09:00", "Day start time, HH:MM or HH:MM:SS")
	rootCmd.AddCommand(pointsCmd)
}

var (
	pointsDifficulty string
	pointsAt         string
	pointsDayStart   string
)

var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Calculate the points a completion would earn",
	Long: `Calculate points offline with the same rule the server applies:
round(base / max(hours since day start, 1)), base easy=50 medium=70 difficult=100.`,
	Example: `  dayquest points --difficulty difficult --at 2024-03-04T13:00:00Z --day-start 09:00`,
	Args:    cobra.NoArgs,
	RunE:    runPoints,
}

func runPoints(cmd *cobra.Command, args []string) error {
	difficulty, err := gamification.ParseDifficulty(pointsDifficulty)
	if err != nil {
		return err
	}
	ds, err := gamification.ParseDayStart(pointsDayStart)
	if err != nil {
		return err
	}

	at := time.Now()
	if pointsAt != "" {
		if at, err = time.Parse(time.RFC3339, pointsAt); err != nil {
			return fmt.Errorf("--at: %w", err)
		}
	}

	points, err := gamification.ComputePoints(difficulty, at, ds)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d points\n", points)
	fmt.Fprintf(out, "  difficulty:  %s\n", difficulty)
	fmt.Fprintf(out, "  day started: %s\n", ds.Boundary(at).Format(time.RFC3339))
	fmt.Fprintf(out, "  elapsed:     %.2fh\n", ds.HoursSinceStart(at))
	return nil
}
