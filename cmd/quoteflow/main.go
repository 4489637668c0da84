package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"
	_ "go.uber.org/automaxprocs"

	"github.com/quoteflow-systems/engine/config"
	"github.com/quoteflow-systems/engine/escalation"
	"github.com/quoteflow-systems/engine/observability"
	"github.com/quoteflow-systems/engine/pipeline"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to pipeline config YAML file")
		scenario   = flag.String("scenario", "all", "Demo scenario: standard, high-value, infeasible, all")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))

	queue := escalation.NewMemoryQueue(cfg.Escalation.ReviewSLA(), nil)
	sink := pipeline.NewMemorySink()
	registry := demoRegistry()

	p, err := pipeline.New(cfg, registry, newSimulatedChannel(), pipeline.WithQueue(queue), pipeline.WithEventSink(sink))
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Stands in for the reviewer-side surface: approves whatever escalates.
	go runConsoleReviewer(ctx, queue)

	scenarios := demoScenarios(*scenario)
	if len(scenarios) == 0 {
		fmt.Fprintf(os.Stderr, "Unknown scenario %q\n", *scenario)
		flag.PrintDefaults()
		os.Exit(1)
	}

	for _, s := range scenarios {
		color.New(color.Bold).Printf("\n=== %s ===\n", s.name)
		c, err := p.Run(ctx, s.request)
		if err != nil {
			color.Red("case failed: %v", err)
			if c == nil {
				continue
			}
		}
		printCase(c, sink)

		// Completed cases feed the reliability ledger.
		for _, id := range c.SupplierIDs() {
			if err := registry.RecordOutcome(id, c.Approved); err != nil {
				log.Printf("record outcome: %v", err)
			}
		}
	}
}
