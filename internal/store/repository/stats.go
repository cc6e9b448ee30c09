package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/janus/internal/store"
)

// StatsRepository handles aggregated stat rows
type StatsRepository struct {
	db *store.Database
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *store.Database) *StatsRepository {
	return &StatsRepository{db: db}
}

// Replace swaps a game's stat rows inside tx, bulk loading with COPY
func (r *StatsRepository) Replace(ctx context.Context, tx *sql.Tx, gameID int, rows []*store.StatRow) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM stat_rows WHERE game_id = $1`, gameID); err != nil {
		return fmt.Errorf("clearing stats for game %d: %w", gameID, err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("stat_rows",
		"game_id", "season", "team", "player", "period", "strength_state",
		"own_goalie", "opp_goalie", "payload",
	))
	if err != nil {
		return fmt.Errorf("preparing stats copy: %w", err)
	}
	defer stmt.Close()

	for _, s := range rows {
		_, err := stmt.ExecContext(ctx,
			s.GameID, s.Season, s.Team, s.Player, s.Period, s.StrengthState,
			s.OwnGoalie, s.OppGoalie, string(s.Payload),
		)
		if err != nil {
			return fmt.Errorf("copying stat row for %s: %w", s.Player, err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flushing stats copy: %w", err)
	}
	return nil
}

// GetByGame returns a game's stat rows
func (r *StatsRepository) GetByGame(ctx context.Context, gameID int) ([]*store.StatRow, error) {
	query := `
		SELECT game_id, season, team, player, period, strength_state, own_goalie, opp_goalie, payload
		FROM stat_rows
		WHERE game_id = $1
		ORDER BY team, player, period, strength_state
	`
	return r.query(ctx, query, gameID)
}

// GetPlayerSeason returns every stored row for a player in a season
func (r *StatsRepository) GetPlayerSeason(ctx context.Context, apiName string, season int) ([]*store.StatRow, error) {
	query := `
		SELECT game_id, season, team, player, period, strength_state, own_goalie, opp_goalie, payload
		FROM stat_rows
		WHERE player = $1 AND season = $2
		ORDER BY game_id, period
	`
	return r.query(ctx, query, apiName, season)
}

func (r *StatsRepository) query(ctx context.Context, query string, args ...interface{}) ([]*store.StatRow, error) {
	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stat rows: %w", err)
	}
	defer rows.Close()

	var out []*store.StatRow
	for rows.Next() {
		s := &store.StatRow{}
		var payload []byte
		err := rows.Scan(&s.GameID, &s.Season, &s.Team, &s.Player, &s.Period,
			&s.StrengthState, &s.OwnGoalie, &s.OppGoalie, &payload)
		if err != nil {
			return nil, fmt.Errorf("scanning stat row: %w", err)
		}
		s.Payload = payload
		out = append(out, s)
	}

	return out, rows.Err()
}
