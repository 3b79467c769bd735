package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dayquest/dayquest/internal/app/gamification"
	"github.com/dayquest/dayquest/internal/daemon"
)

func init() {
	taskReviseCmd.Flags().StringVar(&reviseDifficulty, "difficulty", "", "Revised difficulty: easy, medium or difficult")
	taskReviseCmd.MarkFlagRequired("difficulty")
	taskCmd.AddCommand(taskReviseCmd)
	rootCmd.AddCommand(taskCmd)
}

var reviseDifficulty string

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Operator tools for stored tasks",
}

var taskReviseCmd = &cobra.Command{
	Use:   "revise <task-id>",
	Short: "Revise the difficulty of a completed task",
	Long: `Revise the difficulty of a completed task after review.
Points are recomputed from the original completion time and the owner's
total is adjusted by the difference.`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskRevise,
}

func runTaskRevise(cmd *cobra.Command, args []string) error {
	difficulty, err := gamification.ParseDifficulty(reviseDifficulty)
	if err != nil {
		return err
	}

	d, err := daemon.New(rootCmd.Version)
	if err != nil {
		return err
	}
	defer d.Close()

	task, err := d.Tasks.ReviseDifficulty(cmd.Context(), args[0], difficulty)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s: %d points\n", task.ID, task.Difficulty, task.PointsEarned)
	return nil
}
