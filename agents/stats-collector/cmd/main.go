package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	statscollector "album-pulse/agents/stats-collector"
	"album-pulse/shared/config"
	"album-pulse/shared/scheduler"
)

func main() {
	once := flag.Bool("once", false, "run a single collection pass and exit")
	force := flag.Bool("force", false, "capture a snapshot even outside the UTC evening window")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agent := statscollector.NewCollectorAgent(cfg)
	agent.SetForceRun(*force)
	s := scheduler.New(cfg, agent)

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
