package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/janus/internal/aggregate"
	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/pipeline"
	"github.com/fortuna/janus/internal/store"
	"github.com/fortuna/janus/internal/store/repository"
)

// PostgresResults stores pipeline results across the game, roster, event
// and stat tables. A game is always replaced as a whole.
type PostgresResults struct {
	db         *store.Database
	gameRepo   *repository.GameRepository
	teamRepo   *repository.TeamRepository
	playerRepo *repository.PlayerRepository
	eventRepo  *repository.EventRepository
	statsRepo  *repository.StatsRepository
}

// NewPostgresResults creates a result store
func NewPostgresResults(db *store.Database) *PostgresResults {
	return &PostgresResults{
		db:         db,
		gameRepo:   repository.NewGameRepository(db),
		teamRepo:   repository.NewTeamRepository(db),
		playerRepo: repository.NewPlayerRepository(db),
		eventRepo:  repository.NewEventRepository(db),
		statsRepo:  repository.NewStatsRepository(db),
	}
}

// SaveResult writes one processed game in a single transaction
func (s *PostgresResults) SaveResult(ctx context.Context, res *pipeline.Result) error {
	game := GameRecord(res)

	events := make([]*store.EventRow, 0, len(res.Plays))
	for _, p := range res.Plays {
		row, err := store.NewEventRow(game.GameID, p)
		if err != nil {
			return err
		}
		events = append(events, row)
	}

	stats := make([]*store.StatRow, 0, len(res.Stats))
	for _, r := range res.Stats {
		row, err := store.NewStatRow(r)
		if err != nil {
			return err
		}
		stats = append(stats, row)
	}

	players := make([]*store.RosterPlayer, 0, len(res.Roster))
	for _, e := range res.Roster {
		players = append(players, &store.RosterPlayer{
			GameID:   game.GameID,
			Team:     e.Team,
			Venue:    string(e.Venue),
			Name:     e.Name,
			APIName:  e.APIName,
			Jersey:   e.Jersey,
			Position: e.Position,
			Status:   string(e.Status),
		})
	}

	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		teams := []*store.Team{
			{TriCode: res.Game.HomeTeam, FullName: res.Game.HomeTeamName, LastGame: game.GameID},
			{TriCode: res.Game.AwayTeam, FullName: res.Game.AwayTeamName, LastGame: game.GameID},
		}
		for _, t := range teams {
			if err := s.teamRepo.Touch(ctx, tx, t); err != nil {
				return err
			}
		}
		if err := s.gameRepo.Upsert(ctx, tx, game); err != nil {
			return err
		}
		if err := s.playerRepo.ReplaceRoster(ctx, tx, game.GameID, players); err != nil {
			return err
		}
		if err := s.eventRepo.Replace(ctx, tx, game.GameID, events); err != nil {
			return err
		}
		return s.statsRepo.Replace(ctx, tx, game.GameID, stats)
	})
}

// Game returns a stored game header
func (s *PostgresResults) Game(ctx context.Context, gameID int) (*store.Game, error) {
	return s.gameRepo.GetByID(ctx, gameID)
}

// Plays returns a game's stored plays in event order
func (s *PostgresResults) Plays(ctx context.Context, gameID int) ([]pbp.Play, error) {
	rows, err := s.eventRepo.GetByGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	plays := make([]pbp.Play, 0, len(rows))
	for _, row := range rows {
		p, err := row.Play()
		if err != nil {
			return nil, err
		}
		plays = append(plays, p)
	}
	return plays, nil
}

// Stats returns a game's stored stat rows
func (s *PostgresResults) Stats(ctx context.Context, gameID int) ([]aggregate.Row, error) {
	rows, err := s.statsRepo.GetByGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

// PlayerSeason returns every stat row stored for a player in a season
func (s *PostgresResults) PlayerSeason(ctx context.Context, apiName string, season int) ([]aggregate.Row, error) {
	rows, err := s.statsRepo.GetPlayerSeason(ctx, apiName, season)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

// Roster returns a stored game roster
func (s *PostgresResults) Roster(ctx context.Context, gameID int) ([]*store.RosterPlayer, error) {
	return s.playerRepo.GetRoster(ctx, gameID)
}

// Teams returns every team seen so far
func (s *PostgresResults) Teams(ctx context.Context) ([]*store.Team, error) {
	return s.teamRepo.GetAll(ctx)
}

func decodeRows(rows []*store.StatRow) ([]aggregate.Row, error) {
	out := make([]aggregate.Row, 0, len(rows))
	for _, row := range rows {
		r, err := row.Row()
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", row.GameID, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// GameRecord builds the stored game header for a result
func GameRecord(res *pipeline.Result) *store.Game {
	s := res.Summary()
	return &store.Game{
		GameID:      res.Game.GameID,
		Season:      res.Game.Season,
		Session:     string(res.Game.Session),
		GameDate:    sql.NullString{String: res.Game.GameDate, Valid: res.Game.GameDate != ""},
		HomeTeam:    res.Game.HomeTeam,
		AwayTeam:    res.Game.AwayTeam,
		HomeScore:   s.HomeScore,
		AwayScore:   s.AwayScore,
		EventCount:  s.Events,
		Unresolved:  append([]string{}, res.Issues.UnresolvedPlayers...),
		ProcessedAt: res.ProcessedAt,
	}
}
