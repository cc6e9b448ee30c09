package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/janus/internal/store"
)

// PlayerRepository handles per-game rosters
type PlayerRepository struct {
	db *store.Database
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *store.Database) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// ReplaceRoster swaps a game's roster inside tx
func (r *PlayerRepository) ReplaceRoster(ctx context.Context, tx *sql.Tx, gameID int, players []*store.RosterPlayer) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM game_rosters WHERE game_id = $1`, gameID); err != nil {
		return fmt.Errorf("clearing roster for game %d: %w", gameID, err)
	}

	query := `
		INSERT INTO game_rosters (game_id, team, venue, player_name, api_name, jersey, position, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (game_id, team, jersey) DO NOTHING
	`
	for _, p := range players {
		_, err := tx.ExecContext(ctx, query, gameID, p.Team, p.Venue, p.Name, p.APIName, p.Jersey, p.Position, p.Status)
		if err != nil {
			return fmt.Errorf("inserting %s: %w", p.APIName, err)
		}
	}
	return nil
}

// GetRoster returns a game's roster, dressed players first
func (r *PlayerRepository) GetRoster(ctx context.Context, gameID int) ([]*store.RosterPlayer, error) {
	query := `
		SELECT game_id, team, venue, player_name, api_name, jersey, position, status
		FROM game_rosters
		WHERE game_id = $1
		ORDER BY status, team, jersey
	`

	rows, err := r.db.DB().QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying roster: %w", err)
	}
	defer rows.Close()

	var players []*store.RosterPlayer
	for rows.Next() {
		p := &store.RosterPlayer{}
		if err := rows.Scan(&p.GameID, &p.Team, &p.Venue, &p.Name, &p.APIName, &p.Jersey, &p.Position, &p.Status); err != nil {
			return nil, fmt.Errorf("scanning roster player: %w", err)
		}
		players = append(players, p)
	}

	return players, rows.Err()
}

// GamesForPlayer returns the ids of games a player dressed for
func (r *PlayerRepository) GamesForPlayer(ctx context.Context, apiName string) ([]int, error) {
	query := `
		SELECT game_id
		FROM game_rosters
		WHERE api_name = $1 AND status = 'ACTIVE'
		ORDER BY game_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, apiName)
	if err != nil {
		return nil, fmt.Errorf("querying player games: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
