package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/spf13/cobra"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "List registered students",
	RunE:  runStudents,
}

var registerCmd = &cobra.Command{
	Use:   "register <name> <roll-number>",
	Short: "Register a new student",
	Args:  cobra.ExactArgs(2),
	RunE:  runRegister,
}

func init() {
	rootCmd.AddCommand(studentsCmd)
	rootCmd.AddCommand(registerCmd)

	studentsCmd.Flags().String("query", "", "Filter by name (case- and diacritic-insensitive)")
	registerCmd.Flags().String("department", "", "Department")
	registerCmd.Flags().Int("year", 0, "Year of study")
}

func runStudents(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	b, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer b.close()

	students, err := b.students.ListStudents(context.Background(), mustGetString(cmd, "query"))
	if err != nil {
		return fmt.Errorf("listing students: %w", err)
	}

	if len(students) == 0 {
		fmt.Println("No students found")
		return nil
	}

	for _, s := range students {
		enrolled := "not enrolled"
		if s.Enrolled() {
			enrolled = "enrolled"
		}
		fmt.Printf("%-12s %-30s %-12s year %d  [%s]\n", s.RollNumber, s.Name, s.Department, s.Year, enrolled)
	}
	fmt.Printf("\n%d students\n", len(students))
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	b, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer b.close()

	student := &database.Student{
		Name:       args[0],
		RollNumber: args[1],
		Department: mustGetString(cmd, "department"),
		Year:       mustGetInt(cmd, "year"),
	}

	if err := b.students.CreateStudent(context.Background(), student); err != nil {
		return fmt.Errorf("registering student: %w", err)
	}

	fmt.Printf("Registered %s (%s), uid %s\n", student.Name, student.RollNumber, student.UID)
	fmt.Printf("Run 'face-attendance enroll %s <photo-dir>' to build the face gallery\n", student.RollNumber)
	return nil
}
