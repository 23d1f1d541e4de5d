package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	albumanalytics "album-pulse/agents/album-analytics"
	"album-pulse/shared/config"
	"album-pulse/shared/scheduler"
)

func main() {
	once := flag.Bool("once", false, "run a single analytics pass and exit")
	importDir := flag.String("import", "", "import seed CSV files from this directory, then exit")
	exportPath := flag.String("export", "", "also write the analytics table as CSV to this path")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agent := albumanalytics.NewAnalyticsAgent(cfg)
	if *exportPath != "" {
		agent.SetExportPath(*exportPath)
	}
	s := scheduler.New(cfg, agent)

	if *importDir != "" {
		if err := agent.Initialize(); err != nil {
			log.Fatalf("Failed to initialize agent: %v", err)
		}
		defer agent.Close()
		if err := agent.ImportCSV(ctx, *importDir); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		return
	}

	if *once {
		fmt.Println("Running once...")
		if err := agent.Initialize(); err != nil {
			log.Fatalf("Failed to initialize agent: %v", err)
		}
		defer agent.Close()

		if err := s.RunOnce(ctx); err != nil {
			log.Fatalf("Failed to run: %v", err)
		}
		return
	}

	fmt.Println("Starting scheduler...")
	defer agent.Close()
	if err := s.Start(ctx); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}
