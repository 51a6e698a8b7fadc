package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/enrollment"
	"github.com/kozaktomas/face-attendance/internal/matching"
	"github.com/kozaktomas/face-attendance/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance API server",
	Long: `Start the Face Attendance HTTP server.
The server exposes student registration and enrollment, probe frame
processing and the attendance ledger as a JSON API.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	host := mustGetString(cmd, "host")

	fmt.Printf("Connecting to PostgreSQL database...\n")
	b, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer b.close()

	fmt.Printf("Gallery backend: %s\n", cfg.Gallery.Backend)
	fmt.Printf("Match threshold: %.3f (%s)\n", cfg.Matching.Threshold, cfg.Extractor.Model)

	server := web.NewServer(cfg, host, web.Deps{
		Students:  b.students,
		Records:   b.records,
		Extractor: b.extractor,
		Enroller:  enrollment.NewPipeline(b.extractor, b.galleries, b.students),
		Matcher:   matching.NewEngine(b.students, b.galleries, cfg.Matching.Threshold),
		Ledger:    attendance.NewLedger(b.records),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Attendance API on http://%s:%d\n", host, cfg.Server.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
