package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/janus/internal/store"
)

// ErrNotFound means the requested row does not exist
var ErrNotFound = errors.New("not found")

// GameRepository handles game data access
type GameRepository struct {
	db *store.Database
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *store.Database) *GameRepository {
	return &GameRepository{db: db}
}

const gameColumns = `game_id, season, session, game_date, home_team, away_team,
			home_score, away_score, event_count, unresolved_players,
			processed_at, created_at, updated_at`

// Upsert inserts or replaces a game header inside tx
func (r *GameRepository) Upsert(ctx context.Context, tx *sql.Tx, game *store.Game) error {
	query := `
		INSERT INTO games (
			game_id, season, session, game_date, home_team, away_team,
			home_score, away_score, event_count, unresolved_players, processed_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (game_id) DO UPDATE SET
			season = EXCLUDED.season,
			session = EXCLUDED.session,
			game_date = EXCLUDED.game_date,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			event_count = EXCLUDED.event_count,
			unresolved_players = EXCLUDED.unresolved_players,
			processed_at = EXCLUDED.processed_at,
			updated_at = NOW()
	`

	_, err := tx.ExecContext(ctx, query,
		game.GameID, game.Season, game.Session, game.GameDate, game.HomeTeam, game.AwayTeam,
		game.HomeScore, game.AwayScore, game.EventCount, game.Unresolved, game.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting game %d: %w", game.GameID, err)
	}
	return nil
}

// GetByID finds a game by its league game id
func (r *GameRepository) GetByID(ctx context.Context, gameID int) (*store.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE game_id = $1`

	game, err := scanGame(r.db.DB().QueryRowContext(ctx, query, gameID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("game %d: %w", gameID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying game: %w", err)
	}

	return game, nil
}

// ListBySeason returns a season's processed games, newest first
func (r *GameRepository) ListBySeason(ctx context.Context, season int, limit int) ([]*store.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE season = $1
		ORDER BY game_id DESC
		LIMIT $2
	`

	rows, err := r.db.DB().QueryContext(ctx, query, season, limit)
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	var games []*store.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, game)
	}

	return games, rows.Err()
}

func scanGame(scanner interface {
	Scan(dest ...interface{}) error
}) (*store.Game, error) {
	game := &store.Game{}
	err := scanner.Scan(
		&game.GameID, &game.Season, &game.Session, &game.GameDate, &game.HomeTeam, &game.AwayTeam,
		&game.HomeScore, &game.AwayScore, &game.EventCount, &game.Unresolved,
		&game.ProcessedAt, &game.CreatedAt, &game.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return game, nil
}

// LatestGameID returns the highest stored game id of a season and session,
// or zero when none is stored
func (r *GameRepository) LatestGameID(ctx context.Context, season int, session string) (int, error) {
	query := `SELECT COALESCE(MAX(game_id), 0) FROM games WHERE season = $1 AND session = $2`

	var id int
	if err := r.db.DB().QueryRowContext(ctx, query, season, session).Scan(&id); err != nil {
		return 0, fmt.Errorf("querying latest game: %w", err)
	}
	return id, nil
}
