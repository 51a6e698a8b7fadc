package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/spf13/cobra"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "List recorded attendance",
	RunE:  runAttendance,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
}

func runAttendance(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	b, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer b.close()

	records, err := b.records.ListAttendance(context.Background())
	if err != nil {
		return fmt.Errorf("listing attendance: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No attendance recorded")
		return nil
	}

	for _, r := range records {
		fmt.Printf("%s %s  %-12s %-30s %s\n", r.Date, r.TimeOfDay, r.RollNumber, r.Name, r.Department)
	}
	fmt.Printf("\n%d records\n", len(records))
	return nil
}
