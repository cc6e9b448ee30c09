package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fortuna/janus/internal/aggregate"
	"github.com/fortuna/janus/internal/cache"
	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/pipeline"
	"github.com/fortuna/janus/internal/publisher"
	"github.com/fortuna/janus/internal/store"
)

// ResultStore persists and reads processed games
type ResultStore interface {
	SaveResult(ctx context.Context, res *pipeline.Result) error
	Game(ctx context.Context, gameID int) (*store.Game, error)
	Plays(ctx context.Context, gameID int) ([]pbp.Play, error)
	Stats(ctx context.Context, gameID int) ([]aggregate.Row, error)
}

// Cache holds decoded game payloads
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Publisher announces pipeline outcomes to downstream consumers
type Publisher interface {
	PublishGameProcessed(ctx context.Context, summary pipeline.Summary) error
	PublishGameSkipped(ctx context.Context, rec publisher.SkipRecord) error
}

// Broadcaster pushes processed games to live subscribers
type Broadcaster interface {
	BroadcastGame(summary pipeline.Summary)
}

// GameServiceOptions carries the optional collaborators of a GameService
type GameServiceOptions struct {
	Cache       Cache
	CacheTTL    time.Duration
	Publisher   Publisher
	Broadcaster Broadcaster
	Logger      *log.Logger
}

// GameService runs the pipeline for single games and serves stored results
type GameService struct {
	pipeline    *pipeline.Pipeline
	results     ResultStore
	cache       Cache
	cacheTTL    time.Duration
	publisher   Publisher
	broadcaster Broadcaster
	logger      *log.Logger
}

// NewGameService creates a new game service
func NewGameService(p *pipeline.Pipeline, results ResultStore, opts GameServiceOptions) *GameService {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[games] ", log.LstdFlags)
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}

	return &GameService{
		pipeline:    p,
		results:     results,
		cache:       opts.Cache,
		cacheTTL:    ttl,
		publisher:   opts.Publisher,
		broadcaster: opts.Broadcaster,
		logger:      logger,
	}
}

// Process runs the pipeline for one bundle and stores the result. Pipeline
// errors are returned unwrapped so callers can classify them.
func (s *GameService) Process(ctx context.Context, b *pipeline.Bundle) (*pipeline.Result, error) {
	res, err := s.pipeline.Process(ctx, b)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Save stores a result, refreshes the cache and announces the game.
// Only the store write can fail the call.
func (s *GameService) Save(ctx context.Context, res *pipeline.Result) error {
	if err := s.results.SaveResult(ctx, res); err != nil {
		return fmt.Errorf("storing game %d: %w", res.Game.GameID, err)
	}

	gameID := res.Game.GameID
	summary := res.Summary()

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.PlaysKey(gameID), res.Plays, s.cacheTTL); err != nil {
			s.logger.Printf("⚠️  caching plays for game %d: %v", gameID, err)
		}
		if err := s.cache.SetJSON(ctx, cache.StatsKey(gameID), res.Stats, s.cacheTTL); err != nil {
			s.logger.Printf("⚠️  caching stats for game %d: %v", gameID, err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishGameProcessed(ctx, summary); err != nil {
			s.logger.Printf("⚠️  publishing game %d: %v", gameID, err)
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastGame(summary)
	}

	s.logger.Printf("✓ stored game %d: %d events, %d stat rows", gameID, summary.Events, summary.StatRows)
	return nil
}

// Skipped announces a game the pipeline could not process
func (s *GameService) Skipped(ctx context.Context, source string, reason pipeline.SkipReason, err error) {
	if s.publisher == nil {
		return
	}
	rec := publisher.SkipRecord{Source: source, Reason: reason}
	if err != nil {
		rec.Error = err.Error()
	}
	if perr := s.publisher.PublishGameSkipped(ctx, rec); perr != nil {
		s.logger.Printf("⚠️  publishing skip for %s: %v", source, perr)
	}
}

// Game returns a stored game header
func (s *GameService) Game(ctx context.Context, gameID int) (*store.Game, error) {
	return s.results.Game(ctx, gameID)
}

// PlayFilter narrows a game's plays. Zero fields match everything.
type PlayFilter struct {
	Event  pbp.EventType
	Period int
	Player string
}

func (f PlayFilter) match(p *pbp.Play) bool {
	if f.Event != "" && p.Event.Type != f.Event {
		return false
	}
	if f.Period != 0 && p.Event.Period != f.Period {
		return false
	}
	if f.Player != "" {
		involved := p.OnIce.Home.Has(f.Player) || p.OnIce.Away.Has(f.Player)
		for _, pl := range p.Event.Players {
			if pl.APIName == f.Player {
				involved = true
			}
		}
		if !involved {
			return false
		}
	}
	return true
}

// Plays returns a game's plays, from cache when possible
func (s *GameService) Plays(ctx context.Context, gameID int, filter PlayFilter) ([]pbp.Play, error) {
	var plays []pbp.Play
	if !s.cached(ctx, cache.PlaysKey(gameID), &plays) {
		var err error
		plays, err = s.results.Plays(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("fetching plays: %w", err)
		}
		s.fill(ctx, cache.PlaysKey(gameID), plays)
	}

	out := make([]pbp.Play, 0, len(plays))
	for i := range plays {
		if filter.match(&plays[i]) {
			out = append(out, plays[i])
		}
	}
	return out, nil
}

// StatFilter narrows a game's stat rows. Zero fields match everything.
type StatFilter struct {
	Team          string
	Player        string
	StrengthState string
}

func (f StatFilter) match(r *aggregate.Row) bool {
	return (f.Team == "" || r.Team == f.Team) &&
		(f.Player == "" || r.Player == f.Player) &&
		(f.StrengthState == "" || r.StrengthState == f.StrengthState)
}

// Stats returns a game's stat rows, from cache when possible
func (s *GameService) Stats(ctx context.Context, gameID int, filter StatFilter) ([]aggregate.Row, error) {
	var rows []aggregate.Row
	if !s.cached(ctx, cache.StatsKey(gameID), &rows) {
		var err error
		rows, err = s.results.Stats(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("fetching stats: %w", err)
		}
		s.fill(ctx, cache.StatsKey(gameID), rows)
	}

	out := make([]aggregate.Row, 0, len(rows))
	for i := range rows {
		if filter.match(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

// Invalidate drops a game's cached payloads
func (s *GameService) Invalidate(ctx context.Context, gameID int) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, cache.PlaysKey(gameID), cache.StatsKey(gameID))
}

func (s *GameService) cached(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.logger.Printf("⚠️  cache read %s: %v", key, err)
		return false
	}
	return hit
}

func (s *GameService) fill(ctx context.Context, key string, v interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, v, s.cacheTTL); err != nil {
		s.logger.Printf("⚠️  cache write %s: %v", key, err)
	}
}
