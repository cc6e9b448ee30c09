package backfill

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/fortuna/janus/internal/pipeline"
)

// DefaultWorkers is used when neither the spec nor the runner sets a pool size
const DefaultWorkers = 4

// Sink persists a processed game
type Sink interface {
	Save(ctx context.Context, result *pipeline.Result) error
}

// SkipSink is implemented by sinks that also record skipped games
type SkipSink interface {
	Skipped(ctx context.Context, source string, reason pipeline.SkipReason, err error)
}

// Runner executes backfill specs on a bounded worker pool. A game that
// cannot be processed is skipped and the rest of the job continues.
type Runner struct {
	pipeline *pipeline.Pipeline
	loader   Loader
	sink     Sink
	workers  int
	logger   *log.Logger
}

// NewRunner constructs a runner. sink may be nil for runs that only report.
func NewRunner(p *pipeline.Pipeline, loader Loader, sink Sink, workers int, logger *log.Logger) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[backfill] ", log.LstdFlags)
	}
	return &Runner{
		pipeline: p,
		loader:   loader,
		sink:     sink,
		workers:  workers,
		logger:   logger,
	}
}

// Run executes the job spec, reporting progress via the Reporter if provided.
// Cancelling ctx stops dispatching new games and returns ctx.Err().
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) error {
	rep := &serialReporter{inner: reporter}
	rep.OnJobStart(spec)

	sources := spec.Sources()
	if len(sources) == 0 {
		err := fmt.Errorf("job has no games or paths")
		rep.OnJobError(err)
		return err
	}

	workers := spec.Workers
	if workers <= 0 {
		workers = r.workers
	}
	workers = min(workers, len(sources))

	run := &batch{
		runner:   r,
		reporter: rep,
		dryRun:   spec.DryRun,
		total:    len(sources),
		tally:    Tally{Skipped: make(map[pipeline.SkipReason]int)},
	}

	queue := make(chan string)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for source := range queue {
				run.game(ctx, source)
			}
		}()
	}

dispatch:
	for _, source := range sources {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- source:
		}
	}
	close(queue)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		rep.OnJobError(err)
		return err
	}

	r.logger.Printf("✓ job complete: %d processed, %d skipped, %d failed",
		run.tally.Processed, run.tally.SkippedTotal(), run.tally.Failed)
	rep.OnJobComplete(run.tally)
	return nil
}

// batch is the shared state of one Run
type batch struct {
	runner   *Runner
	reporter *serialReporter
	dryRun   bool
	total    int

	mu    sync.Mutex
	done  int
	tally Tally
}

func (b *batch) game(ctx context.Context, source string) {
	r := b.runner
	if ctx.Err() != nil {
		return
	}

	result, err := r.process(ctx, source)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		reason := pipeline.Classify(err)
		r.logger.Printf("⚠️  skipping %s (%s): %v", source, reason, err)
		if ss, ok := r.sink.(SkipSink); ok && !b.dryRun {
			ss.Skipped(ctx, source, reason, err)
		}
		b.finish(source, func() {
			b.tally.Skipped[reason]++
			b.reporter.OnGameSkipped(source, reason, err)
		})
		return
	}

	if !b.dryRun && r.sink != nil {
		if err := r.sink.Save(ctx, result); err != nil {
			r.logger.Printf("❌ saving %s: %v", source, err)
			b.finish(source, func() {
				b.tally.Failed++
				b.reporter.OnJobError(fmt.Errorf("saving %s: %w", source, err))
			})
			return
		}
	}

	b.finish(source, func() {
		b.tally.Processed++
		b.reporter.OnGameProcessed(source, result.Summary())
	})
}

func (b *batch) finish(source string, record func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	record()
	b.done++
	b.reporter.OnProgress(fmt.Sprintf("%s done (%d/%d)", source, b.done, b.total), b.done, b.total)
}

func (r *Runner) process(ctx context.Context, source string) (*pipeline.Result, error) {
	bundle, err := r.loader.Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", source, err)
	}
	return r.pipeline.Process(ctx, bundle)
}

// serialReporter guards a Reporter with a mutex and tolerates nil
type serialReporter struct {
	mu    sync.Mutex
	inner Reporter
}

func (s *serialReporter) call(fn func(Reporter)) {
	if s.inner == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.inner)
}

func (s *serialReporter) OnJobStart(spec JobSpec) {
	s.call(func(r Reporter) { r.OnJobStart(spec) })
}

func (s *serialReporter) OnGameProcessed(source string, summary pipeline.Summary) {
	s.call(func(r Reporter) { r.OnGameProcessed(source, summary) })
}

func (s *serialReporter) OnGameSkipped(source string, reason pipeline.SkipReason, err error) {
	s.call(func(r Reporter) { r.OnGameSkipped(source, reason, err) })
}

func (s *serialReporter) OnProgress(message string, current int, total int) {
	s.call(func(r Reporter) { r.OnProgress(message, current, total) })
}

func (s *serialReporter) OnJobComplete(tally Tally) {
	s.call(func(r Reporter) { r.OnJobComplete(tally) })
}

func (s *serialReporter) OnJobError(err error) {
	s.call(func(r Reporter) { r.OnJobError(err) })
}
