package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fortuna/janus/internal/backfill"
	"github.com/fortuna/janus/internal/pipeline"
	"github.com/fortuna/janus/internal/service"
)

var backfillFlags struct {
	games   []int
	paths   []string
	workers int
	dryRun  bool
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Process many games on a worker pool and store the results",
	Long:  "Backfill runs the pipeline over game ids (fetched live) or saved game directories and bundle files. A game that cannot be processed is skipped and the run continues.",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := backfill.Request{
			GameIDs: backfillFlags.games,
			Paths:   append(backfillFlags.paths, args...),
			Workers: backfillFlags.workers,
			DryRun:  backfillFlags.dryRun,
		}
		return runBackfill(cmd.Context(), req)
	},
}

func init() {
	f := backfillCmd.Flags()
	f.IntSliceVar(&backfillFlags.games, "game", nil, "game id to fetch and process (repeatable)")
	f.StringSliceVar(&backfillFlags.paths, "path", nil, "saved game directory or bundle file (repeatable)")
	f.IntVar(&backfillFlags.workers, "workers", 0, "worker pool size (default JANUS_WORKERS)")
	f.BoolVar(&backfillFlags.dryRun, "dry-run", false, "process without writing to the database")
}

func runBackfill(ctx context.Context, req backfill.Request) error {
	log.Printf("=== %s backfill v%s ===", serviceName, serviceVersion)

	jobType, err := req.DeriveType()
	if err != nil {
		return fmt.Errorf("specify --game or --path: %w", err)
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	var sink backfill.Sink
	if !req.DryRun {
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		sink = service.NewGameService(p, service.NewPostgresResults(db), service.GameServiceOptions{})
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := backfill.NewRunner(p, newLoader(cfg), sink, cfg.Workers, nil)
	spec := backfill.JobSpec{
		Type:    jobType,
		GameIDs: req.GameIDs,
		Paths:   req.Paths,
		Workers: req.Workers,
		DryRun:  req.DryRun,
	}

	if err := runner.Run(ctx, spec, &consoleReporter{dryRun: req.DryRun}); err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	log.Println("✓ Backfill completed successfully")
	return nil
}

type consoleReporter struct {
	dryRun bool
}

func (c *consoleReporter) OnJobStart(spec backfill.JobSpec) {
	log.Printf("Starting %s job over %d sources (dry_run=%v)", spec.Type, len(spec.Sources()), c.dryRun)
}

func (c *consoleReporter) OnGameProcessed(source string, s pipeline.Summary) {
	log.Printf("Processed %s: %s @ %s %d-%d, %d events", source, s.AwayTeam, s.HomeTeam, s.AwayScore, s.HomeScore, s.Events)
}

func (c *consoleReporter) OnGameSkipped(source string, reason pipeline.SkipReason, err error) {
	log.Printf("Skipped %s (%s): %v", source, reason, err)
}

func (c *consoleReporter) OnProgress(message string, current int, total int) {
	log.Printf("Progress: %s", message)
}

func (c *consoleReporter) OnJobComplete(tally backfill.Tally) {
	log.Printf("Job complete: %d processed, %d skipped, %d failed", tally.Processed, tally.SkippedTotal(), tally.Failed)

	reasons := make([]string, 0, len(tally.Skipped))
	for r := range tally.Skipped {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		log.Printf("  %-18s %d", r, tally.Skipped[pipeline.SkipReason(r)])
	}
}

func (c *consoleReporter) OnJobError(err error) {
	log.Printf("Job error: %v", err)
}
