package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/janus/internal/store"
)

// EventRepository handles play-by-play rows
type EventRepository struct {
	db *store.Database
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *store.Database) *EventRepository {
	return &EventRepository{db: db}
}

// Replace swaps a game's events inside tx, bulk loading with COPY
func (r *EventRepository) Replace(ctx context.Context, tx *sql.Tx, gameID int, events []*store.EventRow) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM pbp_events WHERE game_id = $1`, gameID); err != nil {
		return fmt.Errorf("clearing events for game %d: %w", gameID, err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("pbp_events",
		"game_id", "event_idx", "period", "game_seconds", "event", "event_team",
		"player_1", "player_2", "player_3", "home_on", "away_on",
		"strength_state", "score_state", "event_zone", "pred_goal", "payload",
	))
	if err != nil {
		return fmt.Errorf("preparing event copy: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.ExecContext(ctx,
			e.GameID, e.EventIdx, e.Period, e.GameSeconds, e.Event, e.EventTeam,
			e.Player1, e.Player2, e.Player3, e.HomeOn, e.AwayOn,
			e.StrengthState, e.ScoreState, e.Zone, e.PredGoal, string(e.Payload),
		)
		if err != nil {
			return fmt.Errorf("copying event %d: %w", e.EventIdx, err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flushing event copy: %w", err)
	}
	return nil
}

// GetByGame returns a game's events in order
func (r *EventRepository) GetByGame(ctx context.Context, gameID int) ([]*store.EventRow, error) {
	query := `
		SELECT game_id, event_idx, period, game_seconds, event, event_team,
			player_1, player_2, player_3, home_on, away_on,
			strength_state, score_state, event_zone, pred_goal, payload
		FROM pbp_events
		WHERE game_id = $1
		ORDER BY event_idx
	`

	rows, err := r.db.DB().QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []*store.EventRow
	for rows.Next() {
		e := &store.EventRow{}
		var payload []byte
		err := rows.Scan(
			&e.GameID, &e.EventIdx, &e.Period, &e.GameSeconds, &e.Event, &e.EventTeam,
			&e.Player1, &e.Player2, &e.Player3, &e.HomeOn, &e.AwayOn,
			&e.StrengthState, &e.ScoreState, &e.Zone, &e.PredGoal, &payload,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Payload = payload
		events = append(events, e)
	}

	return events, rows.Err()
}

// OnIceFor returns the events of a game where the player was on ice for
// either side
func (r *EventRepository) OnIceFor(ctx context.Context, gameID int, apiName string) ([]int, error) {
	query := `
		SELECT event_idx
		FROM pbp_events
		WHERE game_id = $1 AND ($2 = ANY(home_on) OR $2 = ANY(away_on))
		ORDER BY event_idx
	`

	rows, err := r.db.DB().QueryContext(ctx, query, gameID, apiName)
	if err != nil {
		return nil, fmt.Errorf("querying on-ice events: %w", err)
	}
	defer rows.Close()

	var idx []int
	for rows.Next() {
		var i int
		if err := rows.Scan(&i); err != nil {
			return nil, err
		}
		idx = append(idx, i)
	}
	return idx, rows.Err()
}
