package backfill

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/janus/internal/pipeline"
)

// JobType enumerates the supported backfill job variants.
type JobType string

const (
	// JobTypeGames fetches each game from the live feed and report host
	JobTypeGames JobType = "games"
	// JobTypePaths reads saved game directories or bundle files
	JobTypePaths JobType = "paths"
)

// JobStatus represents the lifecycle state for a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job models the database representation of a backfill job.
type Job struct {
	JobID           string         `json:"job_id"`
	JobType         JobType        `json:"job_type"`
	GameIDs         pq.Int64Array  `json:"game_ids,omitempty"`
	Paths           pq.StringArray `json:"paths,omitempty"`
	Workers         int            `json:"workers"`
	DryRun          bool           `json:"dry_run"`
	Status          JobStatus      `json:"status"`
	StatusMessage   sql.NullString `json:"-"`
	ProgressCurrent int            `json:"progress_current"`
	ProgressTotal   int            `json:"progress_total"`
	GamesProcessed  int            `json:"games_processed"`
	GamesSkipped    int            `json:"games_skipped"`
	LastError       sql.NullString `json:"-"`
	RetryCount      int            `json:"retry_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	StartedAt       sql.NullTime   `json:"-"`
	CompletedAt     sql.NullTime   `json:"-"`
}

// Copy returns a shallow copy to prevent external mutation.
func (j *Job) Copy() *Job {
	if j == nil {
		return nil
	}
	cpy := *j
	return &cpy
}

// JobSpec describes the work to be performed by the runner.
type JobSpec struct {
	Type    JobType
	GameIDs []int
	Paths   []string
	Workers int
	DryRun  bool
}

// Sources lists the job's inputs as loader keys, game ids or paths.
func (s JobSpec) Sources() []string {
	if s.Type == JobTypeGames {
		out := make([]string, len(s.GameIDs))
		for i, id := range s.GameIDs {
			out[i] = gameSource(id)
		}
		return out
	}
	return s.Paths
}

// Reporter receives lifecycle callbacks from the runner. Calls are
// serialized even when games run concurrently.
type Reporter interface {
	OnJobStart(spec JobSpec)
	OnGameProcessed(source string, summary pipeline.Summary)
	OnGameSkipped(source string, reason pipeline.SkipReason, err error)
	OnProgress(message string, current int, total int)
	OnJobComplete(tally Tally)
	OnJobError(err error)
}

// Tally counts a run's outcomes. Failed games processed but could not be
// saved.
type Tally struct {
	Processed int                         `json:"processed"`
	Skipped   map[pipeline.SkipReason]int `json:"skipped"`
	Failed    int                         `json:"failed"`
}

// SkippedTotal sums skips over every reason
func (t Tally) SkippedTotal() int {
	n := 0
	for _, c := range t.Skipped {
		n += c
	}
	return n
}

// JobEvent is one log entry of a job
type JobEvent struct {
	EventType string    `json:"event_type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveJob *Job   `json:"active_job,omitempty"`
	History   []*Job `json:"recent_jobs,omitempty"`
}
