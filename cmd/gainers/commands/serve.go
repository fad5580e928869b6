package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/gainers/internal/report"
	"github.com/wonny/gainers/internal/scheduler"
	"github.com/wonny/gainers/internal/scheduler/jobs"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline on a schedule and serve the result API",
	Long: `Starts the scheduler and the HTTP API server.

The pipeline runs on the configured cron schedule; the latest completed
run is served over HTTP and written to the output directory as CSV.

Endpoints:
  GET /health
  GET /api/v1/gainers
  GET /api/v1/portfolio

Example:
  go run ./cmd/gainers serve
  go run ./cmd/gainers serve --port 8080 --immediate`,
	RunE: runServe,
}

var (
	servePort      string
	serveImmediate bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "HTTP port (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveImmediate, "immediate", false, "run the pipeline once at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, strategy, log, err := loadEnvironment()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	p := buildPipeline(cfg, strategy, log)

	store := &report.Store{}
	writer := report.NewWriter(cfg.OutputDir, log)
	job := jobs.NewPipelineJob(p, writer, store, cfg.ScheduleCron, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(job); err != nil {
		return fmt.Errorf("register pipeline job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if serveImmediate {
		if err := sched.RunJob(job.Name()); err != nil {
			return fmt.Errorf("trigger immediate run: %w", err)
		}
	}

	router := report.NewRouter(store, log)
	server := report.NewServer(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", cfg.Port)
	fmt.Printf("Pipeline scheduled: %s\n", cfg.ScheduleCron)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
