// Package pipeline runs the reconciliation stages for one game.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fortuna/janus/internal/aggregate"
	"github.com/fortuna/janus/internal/enrich"
	"github.com/fortuna/janus/internal/normalize"
	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/reconciliation"
	"github.com/fortuna/janus/internal/roster"
	"github.com/fortuna/janus/internal/shifts"
	"github.com/fortuna/janus/internal/xg"
)

// ErrSourceEmpty means an event or shift source had nothing for the game
var ErrSourceEmpty = errors.New("source empty")

// SkipReason classifies why a game was skipped
type SkipReason string

const (
	SkipSourceEmpty    SkipReason = "source_empty"
	SkipShiftReplayGap SkipReason = "shift_replay_gap"
	SkipInvalid        SkipReason = "invalid"
)

// Classify maps a Process error to a skip reason. Every error skips only
// its own game.
func Classify(err error) SkipReason {
	switch {
	case errors.Is(err, ErrSourceEmpty), errors.Is(err, reconciliation.ErrInsufficientData):
		return SkipSourceEmpty
	case errors.Is(err, shifts.ErrNoShiftData):
		return SkipShiftReplayGap
	}
	return SkipInvalid
}

// Result is the output of one game run
type Result struct {
	Game        pbp.Game          `json:"game"`
	Roster      []pbp.RosterEntry `json:"roster"`
	Plays       []pbp.Play        `json:"plays"`
	Stats       []aggregate.Row   `json:"stats"`
	Issues      normalize.Issues  `json:"issues"`
	ProcessedAt time.Time         `json:"processed_at"`
}

// Summary is the short form of a result used in logs, streams and API
// responses
type Summary struct {
	GameID      int       `json:"game_id"`
	Season      int       `json:"season"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`
	HomeScore   int       `json:"home_score"`
	AwayScore   int       `json:"away_score"`
	Events      int       `json:"events"`
	StatRows    int       `json:"stat_rows"`
	Unresolved  int       `json:"unresolved_players"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Summary condenses the result
func (r *Result) Summary() Summary {
	s := Summary{
		GameID:      r.Game.GameID,
		Season:      r.Game.Season,
		HomeTeam:    r.Game.HomeTeam,
		AwayTeam:    r.Game.AwayTeam,
		Events:      len(r.Plays),
		StatRows:    len(r.Stats),
		Unresolved:  len(r.Issues.UnresolvedPlayers),
		ProcessedAt: r.ProcessedAt,
	}
	if n := len(r.Plays); n > 0 {
		s.HomeScore = r.Plays[n-1].HomeScore
		s.AwayScore = r.Plays[n-1].AwayScore
	}
	return s
}

// Pipeline runs normalize, merge, replay, enrich and aggregate for a game.
// Its tables are read-only, so one Pipeline can serve concurrent games.
type Pipeline struct {
	normalizer *normalize.Normalizer
	merger     *reconciliation.Engine
	enricher   *enrich.Enricher
	logger     *log.Logger
	verbose    bool
}

// Options configures a Pipeline. Zero values select the built-in tables.
type Options struct {
	Aliases   *normalize.Aliases
	Predictor xg.Predictor
	Logger    *log.Logger
	Verbose   bool
}

// New creates a pipeline
func New(opts Options) *Pipeline {
	aliases := normalize.DefaultAliases()
	if opts.Aliases != nil {
		aliases = *opts.Aliases
	}

	predictor := opts.Predictor
	if predictor == nil {
		predictor = xg.DefaultModel()
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[pipeline] ", log.LstdFlags)
	}

	return &Pipeline{
		normalizer: normalize.New(aliases),
		merger:     reconciliation.NewEngine(opts.Verbose),
		enricher:   enrich.New(predictor),
		logger:     logger,
		verbose:    opts.Verbose,
	}
}

// MergeMetrics returns the merger's running counters
func (p *Pipeline) MergeMetrics() reconciliation.Metrics {
	return p.merger.GetMetrics()
}

// Process runs every stage for one game. A returned error means the game
// must be skipped; Classify says why.
func (p *Pipeline) Process(ctx context.Context, b *Bundle) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	game := p.normalizer.Game(b.Game)
	if len(b.API) == 0 || len(b.HTML) == 0 {
		return nil, fmt.Errorf("game %d: %w: %d feed rows, %d report rows",
			game.GameID, ErrSourceEmpty, len(b.API), len(b.HTML))
	}
	if len(b.Shifts) == 0 && len(b.Changes) == 0 {
		return nil, fmt.Errorf("game %d: %w: no shift rows", game.GameID, ErrSourceEmpty)
	}

	r := roster.New(game, p.normalizer.Roster(game, b.Roster))

	var issues normalize.Issues
	apiEvents, apiIssues := p.normalizer.NormalizeAPI(game, b.API, r)
	htmlEvents, htmlIssues := p.normalizer.NormalizeHTML(game, b.HTML, r)
	issues.Add(apiIssues)
	issues.Add(htmlIssues)

	changes := b.Changes
	if len(changes) == 0 {
		intervals := shifts.BuildIntervals(game, b.Shifts, p.normalizer, r)
		changes = shifts.BuildChanges(game, intervals)
	}

	events, err := p.merger.Merge(game, htmlEvents, apiEvents, changes)
	if err != nil {
		return nil, fmt.Errorf("merging game %d: %w", game.GameID, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	onIce, err := shifts.Replay(events, r)
	if err != nil {
		return nil, fmt.Errorf("replaying shifts for game %d: %w", game.GameID, err)
	}

	plays, err := p.enricher.Enrich(game, events, onIce)
	if err != nil {
		return nil, fmt.Errorf("enriching game %d: %w", game.GameID, err)
	}

	result := &Result{
		Game:        game,
		Roster:      r.Entries(),
		Plays:       plays,
		Stats:       aggregate.Aggregate(game, plays, r),
		Issues:      issues,
		ProcessedAt: time.Now().UTC(),
	}

	if !issues.Empty() {
		p.logger.Printf("⚠️  game %d: %d unmapped types, %d unresolved players, %d unresolved times",
			game.GameID, len(issues.UnmappedTypes), len(issues.UnresolvedPlayers), issues.UnresolvedTimes)
		if p.verbose {
			for _, t := range issues.UnmappedTypes {
				p.logger.Printf("   unmapped event type %q", t)
			}
			for _, name := range issues.UnresolvedPlayers {
				p.logger.Printf("   unresolved player %q", name)
			}
		}
	}

	s := result.Summary()
	p.logger.Printf("✓ game %d %s @ %s: %d events, %d stat rows (%d-%d)",
		game.GameID, game.AwayTeam, game.HomeTeam, s.Events, s.StatRows, s.AwayScore, s.HomeScore)

	return result, nil
}
