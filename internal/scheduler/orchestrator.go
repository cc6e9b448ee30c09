package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fortuna/janus/internal/backfill"
	"github.com/fortuna/janus/internal/ingest"
	"github.com/fortuna/janus/internal/pbp"
)

// Enqueuer accepts backfill requests
type Enqueuer interface {
	Enqueue(ctx context.Context, req backfill.Request) (*backfill.Job, error)
}

// LatestGameFunc returns the highest stored game id of a season and
// session, or zero
type LatestGameFunc func(ctx context.Context, season int, session string) (int, error)

// Orchestrator manages scheduled tasks for data ingestion
type Orchestrator struct {
	jobs   Enqueuer
	latest LatestGameFunc
	config *Config
	logger *log.Logger
	cancel context.CancelFunc

	mu   sync.Mutex
	seen map[string]time.Time
}

// Config holds scheduler configuration
type Config struct {
	InboxDir           string        // Directory watched for saved games and bundles
	InboxPollInterval  time.Duration // Default: 30s
	InboxSettle        time.Duration // Quiet time after a change before scanning. Default: 2s
	DailyIngestionHour int           // Default: 6 (6 AM)
	CurrentSeason      int           // e.g., 20242025
	DailyBatch         int           // Game ids past the latest stored one to try. Default: 16
	EnableInbox        bool          // Default: false
	EnableDaily        bool          // Default: false
	MaxRetries         int           // Default: 3
	RetryDelay         time.Duration // Default: 5s
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		InboxPollInterval:  30 * time.Second,
		InboxSettle:        2 * time.Second,
		DailyIngestionHour: 6,
		CurrentSeason:      20252026,
		DailyBatch:         16,
		MaxRetries:         3,
		RetryDelay:         5 * time.Second,
	}
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(jobs Enqueuer, latest LatestGameFunc, config *Config, logger *log.Logger) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[scheduler] ", log.LstdFlags)
	}

	return &Orchestrator{
		jobs:   jobs,
		latest: latest,
		config: config,
		logger: logger,
		seen:   make(map[string]time.Time),
	}
}

// Start begins all scheduled tasks and blocks until ctx is cancelled or
// Stop is called
func (o *Orchestrator) Start(ctx context.Context) {
	o.logger.Printf("Inbox polling: %v (%s every %v)", o.config.EnableInbox, o.config.InboxDir, o.config.InboxPollInterval)
	o.logger.Printf("Daily ingestion: %v (at %02d:00, season %d)", o.config.EnableDaily, o.config.DailyIngestionHour, o.config.CurrentSeason)

	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	if o.config.EnableInbox && o.config.InboxDir != "" {
		go o.runInboxPolling(ctx)
	}
	if o.config.EnableDaily && o.latest != nil {
		go o.runDailyIngestion(ctx)
	}

	<-ctx.Done()
	o.logger.Println("Scheduler orchestrator stopping...")
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.logger.Println("✓ Scheduler orchestrator stopped")
}

// runInboxPolling scans on a ticker and, when the directory can be
// watched, shortly after anything in it changes
func (o *Orchestrator) runInboxPolling(ctx context.Context) {
	ticker := time.NewTicker(o.config.InboxPollInterval)
	defer ticker.Stop()

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
		settle <-chan time.Time
	)
	watcher, err := o.watchInbox()
	if err != nil {
		o.logger.Printf("⚠️  inbox watch unavailable, polling only: %v", err)
	} else {
		defer watcher.Close()
		events, errs = watcher.Events, watcher.Errors
	}

	poll := func() {
		if err := o.PollInbox(ctx); err != nil {
			o.logger.Printf("⚠️  inbox poll: %v", err)
		}
	}

	poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		case <-settle:
			settle = nil
			poll()
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Game directories are filled after they appear
			if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == filepath.Clean(o.config.InboxDir) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						o.logger.Printf("⚠️  watching %s: %v", event.Name, err)
					}
				}
			}
			settle = time.After(o.config.InboxSettle)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			o.logger.Printf("⚠️  inbox watch: %v", err)
		}
	}
}

// watchInbox watches the inbox and every game directory already in it
func (o *Orchestrator) watchInbox() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(o.config.InboxDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", o.config.InboxDir, err)
	}

	entries, err := os.ReadDir(o.config.InboxDir)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("reading inbox: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := watcher.Add(filepath.Join(o.config.InboxDir, e.Name())); err != nil {
				o.logger.Printf("⚠️  watching %s: %v", e.Name(), err)
			}
		}
	}
	return watcher, nil
}

// PollInbox enqueues one paths job for inbox entries that are new or
// changed since the last poll
func (o *Orchestrator) PollInbox(ctx context.Context) error {
	paths, err := o.scanInbox()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}

	job, err := o.enqueueWithRetry(ctx, backfill.Request{Paths: paths})
	if err != nil {
		o.forget(paths)
		return err
	}

	o.logger.Printf("✓ queued %d inbox entries as job %s", len(paths), job.JobID)
	return nil
}

// scanInbox returns game directories (holding a feed file) and bundle
// files whose modification time moved since they were last queued
func (o *Orchestrator) scanInbox() ([]string, error) {
	entries, err := os.ReadDir(o.config.InboxDir)
	if err != nil {
		return nil, fmt.Errorf("reading inbox: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	var paths []string
	for _, e := range entries {
		path := filepath.Join(o.config.InboxDir, e.Name())

		modPath := path
		switch {
		case e.IsDir():
			modPath = filepath.Join(path, ingest.FeedFile)
		case strings.HasSuffix(e.Name(), ".json"):
		default:
			continue
		}

		info, err := os.Stat(modPath)
		if err != nil {
			continue
		}
		if prev, ok := o.seen[path]; ok && !info.ModTime().After(prev) {
			continue
		}
		o.seen[path] = info.ModTime()
		paths = append(paths, path)
	}

	sort.Strings(paths)
	return paths, nil
}

func (o *Orchestrator) forget(paths []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, p := range paths {
		delete(o.seen, p)
	}
}

func (o *Orchestrator) runDailyIngestion(ctx context.Context) {
	for {
		now := time.Now()
		nextRun := time.Date(now.Year(), now.Month(), now.Day(), o.config.DailyIngestionHour, 0, 0, 0, now.Location())
		if now.After(nextRun) {
			nextRun = nextRun.Add(24 * time.Hour)
		}

		waitDuration := time.Until(nextRun)
		o.logger.Printf("  Next daily ingestion: %s (in %v)", nextRun.Format("2006-01-02 15:04:05"), waitDuration.Round(time.Second))

		select {
		case <-ctx.Done():
			return
		case <-time.After(waitDuration):
			if err := o.TriggerDailyIngestion(ctx); err != nil {
				o.logger.Printf("❌ Daily ingestion failed: %v", err)
			}
		}
	}
}

// TriggerDailyIngestion queues the regular-season game ids following the
// latest stored one. Ids without published reports are skipped by the
// job as empty sources.
func (o *Orchestrator) TriggerDailyIngestion(ctx context.Context) error {
	latest, err := o.latest(ctx, o.config.CurrentSeason, string(pbp.Regular))
	if err != nil {
		return err
	}

	ids := NextGameIDs(o.config.CurrentSeason, latest, o.config.DailyBatch)
	job, err := o.enqueueWithRetry(ctx, backfill.Request{GameIDs: ids})
	if err != nil {
		return err
	}

	o.logger.Printf("✓ queued games %d..%d as job %s", ids[0], ids[len(ids)-1], job.JobID)
	return nil
}

// NextGameIDs returns n regular-season game ids after latest. A zero latest
// starts from the season's first game.
func NextGameIDs(season, latest, n int) []int {
	if n <= 0 {
		n = 1
	}
	first := (season/10000)*1000000 + 20000
	if latest < first {
		latest = first
	}

	ids := make([]int, n)
	for i := range ids {
		ids[i] = latest + i + 1
	}
	return ids
}

func (o *Orchestrator) enqueueWithRetry(ctx context.Context, req backfill.Request) (*backfill.Job, error) {
	attempts := o.config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		var job *backfill.Job
		job, err = o.jobs.Enqueue(ctx, req)
		if err == nil {
			return job, nil
		}

		o.logger.Printf("  ⚠️  Enqueue attempt %d/%d failed: %v", attempt, attempts, err)
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.config.RetryDelay):
			}
		}
	}
	return nil, fmt.Errorf("enqueue failed after %d attempts: %w", attempts, err)
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"inbox_enabled":           o.config.EnableInbox,
		"inbox_dir":               o.config.InboxDir,
		"inbox_poll_interval":     o.config.InboxPollInterval.String(),
		"inbox_settle":            o.config.InboxSettle.String(),
		"daily_ingestion_enabled": o.config.EnableDaily,
		"daily_ingestion_hour":    o.config.DailyIngestionHour,
		"current_season":          o.config.CurrentSeason,
	}
}
