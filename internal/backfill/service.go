package backfill

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fortuna/janus/internal/pipeline"
	"github.com/fortuna/janus/internal/store"
)

// MaxWorkers bounds the pool size a request may ask for
const MaxWorkers = 32

// Request represents a backfill invocation request.
type Request struct {
	GameIDs []int    `json:"game_ids,omitempty"`
	Paths   []string `json:"paths,omitempty"`
	Workers int      `json:"workers,omitempty"`
	DryRun  bool     `json:"dry_run,omitempty"`
}

// DeriveType infers the job type based on populated fields.
func (r Request) DeriveType() (JobType, error) {
	switch {
	case len(r.GameIDs) > 0 && len(r.Paths) > 0:
		return "", fmt.Errorf("request has both game_ids and paths")
	case len(r.GameIDs) > 0:
		return JobTypeGames, nil
	case len(r.Paths) > 0:
		return JobTypePaths, nil
	}
	return "", fmt.Errorf("unable to determine job type from request")
}

// Service coordinates job persistence, execution, and status reporting.
type Service struct {
	repo   *Repository
	runner *Runner

	historyLimit int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewService constructs a Service. Call Start to launch workers.
func NewService(db *store.Database, runner *Runner, logger *log.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	if logger == nil {
		logger = log.New(log.Writer(), "[backfill] ", log.LstdFlags)
	}

	return &Service{
		repo:         NewRepository(db),
		runner:       runner,
		historyLimit: 10,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
	}
}

// Start launches the background worker loop.
func (s *Service) Start() {
	if err := s.repo.ResetStuckJobs(s.ctx); err != nil {
		s.logger.Printf("failed to reset jobs: %v", err)
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops workers and waits for completion.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue creates a new job from the provided request.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Job, error) {
	jobType, err := req.DeriveType()
	if err != nil {
		return nil, err
	}
	if req.Workers < 0 || req.Workers > MaxWorkers {
		return nil, fmt.Errorf("workers must be between 0 and %d", MaxWorkers)
	}

	job := &Job{
		JobType:       jobType,
		Workers:       req.Workers,
		DryRun:        req.DryRun,
		Status:        JobStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
	}

	switch jobType {
	case JobTypeGames:
		for _, id := range req.GameIDs {
			if id <= 0 {
				return nil, fmt.Errorf("invalid game id %d", id)
			}
			job.GameIDs = append(job.GameIDs, int64(id))
		}
		job.ProgressTotal = len(req.GameIDs)
	case JobTypePaths:
		job.Paths = req.Paths
		job.ProgressTotal = len(req.Paths)
	}

	stored, err := s.repo.CreateJob(ctx, job)
	if err != nil {
		return nil, err
	}

	_ = s.repo.AppendEvent(ctx, stored.JobID, "queued", "Job queued", nil, nil)

	return stored, nil
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveJob: active,
		History:   history,
	}, nil
}

// Events returns a job's log entries
func (s *Service) Events(ctx context.Context, jobID string) ([]JobEvent, error) {
	return s.repo.ListEvents(ctx, jobID, 500)
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			job, err := s.repo.MarkNextJobRunning(s.ctx)
			if err != nil {
				s.logger.Printf("claim job error: %v", err)
				time.Sleep(time.Second)
				continue
			}
			if job == nil {
				select {
				case <-s.ctx.Done():
					return
				case <-ticker.C:
					continue
				}
			}

			s.executeJob(job)
		}
	}
}

func (s *Service) executeJob(job *Job) {
	spec, err := buildSpec(job)
	if err != nil {
		s.logger.Printf("invalid job spec %s: %v", job.JobID, err)
		_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, "Invalid job specification", err)
		return
	}

	reporter := &jobReporter{
		ctx:   s.ctx,
		repo:  s.repo,
		jobID: job.JobID,
		total: len(spec.Sources()),
	}

	if err := s.runner.Run(s.ctx, spec, reporter); err != nil {
		status := JobStatusFailed
		if s.ctx.Err() != nil {
			status = JobStatusCancelled
		}
		// the service context may already be cancelled
		_ = s.repo.UpdateStatus(context.Background(), job.JobID, status, "Job stopped", err)
		return
	}

	_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusCompleted, "Job completed", nil)
}

func buildSpec(job *Job) (JobSpec, error) {
	spec := JobSpec{
		Type:    job.JobType,
		Workers: job.Workers,
		DryRun:  job.DryRun,
	}

	switch job.JobType {
	case JobTypeGames:
		if len(job.GameIDs) == 0 {
			return spec, fmt.Errorf("games job missing game_ids")
		}
		for _, id := range job.GameIDs {
			spec.GameIDs = append(spec.GameIDs, int(id))
		}
	case JobTypePaths:
		if len(job.Paths) == 0 {
			return spec, fmt.Errorf("paths job missing paths")
		}
		spec.Paths = job.Paths
	default:
		return spec, fmt.Errorf("unknown job type %s", job.JobType)
	}

	return spec, nil
}

type jobReporter struct {
	ctx   context.Context
	repo  *Repository
	jobID string
	total int

	processed int
	skipped   int
}

func (r *jobReporter) OnJobStart(spec JobSpec) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, 0, r.total, "Job starting")
}

func (r *jobReporter) OnGameProcessed(source string, summary pipeline.Summary) {
	r.processed++
	msg := fmt.Sprintf("Game %d processed: %s %d @ %s %d, %d events",
		summary.GameID, summary.AwayTeam, summary.AwayScore, summary.HomeTeam, summary.HomeScore, summary.Events)
	_ = r.repo.AppendEvent(r.ctx, r.jobID, "game", msg, nil, nil)
	_ = r.repo.UpdateTally(r.ctx, r.jobID, r.processed, r.skipped)
}

func (r *jobReporter) OnGameSkipped(source string, reason pipeline.SkipReason, err error) {
	r.skipped++
	_ = r.repo.AppendEvent(r.ctx, r.jobID, "skip", fmt.Sprintf("%s skipped (%s): %v", source, reason, err), nil, nil)
	_ = r.repo.UpdateTally(r.ctx, r.jobID, r.processed, r.skipped)
}

func (r *jobReporter) OnProgress(message string, current int, total int) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, current, valueOr(total, r.total), message)
}

func (r *jobReporter) OnJobComplete(tally Tally) {
	msg := fmt.Sprintf("Job complete: %d processed, %d skipped, %d failed",
		tally.Processed, tally.SkippedTotal(), tally.Failed)
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, r.total, r.total, msg)
}

func (r *jobReporter) OnJobError(err error) {
	_ = r.repo.AppendEvent(r.ctx, r.jobID, "error", err.Error(), nil, nil)
}

func valueOr(val, fallback int) int {
	if val > 0 {
		return val
	}
	return fallback
}
