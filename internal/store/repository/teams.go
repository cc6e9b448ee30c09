package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/janus/internal/store"
)

// TeamRepository handles team data access
type TeamRepository struct {
	db *store.Database
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *store.Database) *TeamRepository {
	return &TeamRepository{db: db}
}

// Touch records a team as seen in a game. A known full name is never
// replaced by an empty one.
func (r *TeamRepository) Touch(ctx context.Context, tx *sql.Tx, team *store.Team) error {
	query := `
		INSERT INTO teams (tri_code, full_name, last_game_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (tri_code) DO UPDATE SET
			full_name = COALESCE(NULLIF(EXCLUDED.full_name, ''), teams.full_name),
			last_game_id = GREATEST(teams.last_game_id, EXCLUDED.last_game_id),
			updated_at = NOW()
	`

	if _, err := tx.ExecContext(ctx, query, team.TriCode, team.FullName, team.LastGame); err != nil {
		return fmt.Errorf("upserting team %s: %w", team.TriCode, err)
	}
	return nil
}

// GetAll returns every team seen so far
func (r *TeamRepository) GetAll(ctx context.Context) ([]*store.Team, error) {
	query := `
		SELECT tri_code, full_name, last_game_id, updated_at
		FROM teams
		ORDER BY tri_code
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var teams []*store.Team
	for rows.Next() {
		team := &store.Team{}
		if err := rows.Scan(&team.TriCode, &team.FullName, &team.LastGame, &team.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		teams = append(teams, team)
	}

	return teams, rows.Err()
}
