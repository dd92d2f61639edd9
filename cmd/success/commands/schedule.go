package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/successapp/success/internal/printer"
	"github.com/successapp/success/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print the fixed daily schedule",
	Long: `Print the fixed daily schedule as a table, highlighting the block
whose time window contains the current clock time.`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	current := schedule.CurrentIndex(schedule.MinutesOfDay(time.Now()))

	printer.Printf("%-4s %-22s %-40s %s\n", "#", "TIME", "ACTIVITY", "NOTE")
	for i, block := range schedule.Blocks() {
		if i == current {
			printer.Highlight("%-4d %-22s %-40s %s ◀\n", i+1, block.Time, block.Activity, block.Note)
			continue
		}
		printer.Printf("%-4d %-22s %-40s %s\n", i+1, block.Time, block.Activity, block.Note)
	}

	if current < 0 {
		printer.Println()
		printer.Info("No block is active right now.\n")
	}
	return nil
}
