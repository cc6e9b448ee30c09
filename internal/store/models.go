package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/janus/internal/aggregate"
	"github.com/fortuna/janus/internal/pbp"
)

// Game is one processed game
type Game struct {
	GameID      int            `json:"game_id" db:"game_id"`
	Season      int            `json:"season" db:"season"`
	Session     string         `json:"session" db:"session"`
	GameDate    sql.NullString `json:"-" db:"game_date"`
	HomeTeam    string         `json:"home_team" db:"home_team"`
	AwayTeam    string         `json:"away_team" db:"away_team"`
	HomeScore   int            `json:"home_score" db:"home_score"`
	AwayScore   int            `json:"away_score" db:"away_score"`
	EventCount  int            `json:"events" db:"event_count"`
	Unresolved  pq.StringArray `json:"unresolved_players,omitempty" db:"unresolved_players"`
	ProcessedAt time.Time      `json:"processed_at" db:"processed_at"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Team is a franchise as last seen in a processed game
type Team struct {
	TriCode   string    `json:"tri_code" db:"tri_code"`
	FullName  string    `json:"full_name" db:"full_name"`
	LastGame  int       `json:"last_game_id" db:"last_game_id"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RosterPlayer is one dressed or scratched player of a processed game
type RosterPlayer struct {
	GameID   int    `json:"game_id" db:"game_id"`
	Team     string `json:"team" db:"team"`
	Venue    string `json:"venue" db:"venue"`
	Name     string `json:"player_name" db:"player_name"`
	APIName  string `json:"api_name" db:"api_name"`
	Jersey   int    `json:"jersey" db:"jersey"`
	Position string `json:"position" db:"position"`
	Status   string `json:"status" db:"status"`
}

// EventRow is a stored play. The queryable fields are columns; the full
// play travels in Payload.
type EventRow struct {
	GameID        int             `db:"game_id"`
	EventIdx      int             `db:"event_idx"`
	Period        int             `db:"period"`
	GameSeconds   int             `db:"game_seconds"`
	Event         string          `db:"event"`
	EventTeam     sql.NullString  `db:"event_team"`
	Player1       sql.NullString  `db:"player_1"`
	Player2       sql.NullString  `db:"player_2"`
	Player3       sql.NullString  `db:"player_3"`
	HomeOn        pq.StringArray  `db:"home_on"`
	AwayOn        pq.StringArray  `db:"away_on"`
	StrengthState string          `db:"strength_state"`
	ScoreState    string          `db:"score_state"`
	Zone          sql.NullString  `db:"event_zone"`
	PredGoal      float64         `db:"pred_goal"`
	Payload       json.RawMessage `db:"payload"`
}

// NewEventRow flattens a play for storage
func NewEventRow(gameID int, p pbp.Play) (*EventRow, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding event %d: %w", p.Event.EventIdx, err)
	}

	return &EventRow{
		GameID:        gameID,
		EventIdx:      p.Event.EventIdx,
		Period:        p.Event.Period,
		GameSeconds:   p.Event.GameSeconds,
		Event:         string(p.Event.Type),
		EventTeam:     nullString(p.Event.EventTeam),
		Player1:       nullString(p.Event.Player1().APIName),
		Player2:       nullString(p.Event.Player2().APIName),
		Player3:       nullString(p.Event.Player3().APIName),
		HomeOn:        apiNames(p.OnIce.Home),
		AwayOn:        apiNames(p.OnIce.Away),
		StrengthState: p.StrengthState,
		ScoreState:    p.ScoreState,
		Zone:          nullString(p.EventZone),
		PredGoal:      p.PredGoal,
		Payload:       payload,
	}, nil
}

// Play decodes the stored payload
func (r *EventRow) Play() (pbp.Play, error) {
	var p pbp.Play
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return p, fmt.Errorf("decoding event %d of game %d: %w", r.EventIdx, r.GameID, err)
	}
	return p, nil
}

// StatRow is a stored aggregate row. Key columns are indexed; counts ride
// in Payload.
type StatRow struct {
	GameID        int             `db:"game_id"`
	Season        int             `db:"season"`
	Team          string          `db:"team"`
	Player        string          `db:"player"`
	Period        int             `db:"period"`
	StrengthState string          `db:"strength_state"`
	OwnGoalie     string          `db:"own_goalie"`
	OppGoalie     string          `db:"opp_goalie"`
	Payload       json.RawMessage `db:"payload"`
}

// NewStatRow flattens an aggregate row for storage
func NewStatRow(row aggregate.Row) (*StatRow, error) {
	payload, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encoding stat row for %s: %w", row.Player, err)
	}
	return &StatRow{
		GameID:        row.GameID,
		Season:        row.Season,
		Team:          row.Team,
		Player:        row.Player,
		Period:        row.Period,
		StrengthState: row.StrengthState,
		OwnGoalie:     row.OwnGoalie,
		OppGoalie:     row.OppGoalie,
		Payload:       payload,
	}, nil
}

// Row decodes the stored payload
func (r *StatRow) Row() (aggregate.Row, error) {
	var row aggregate.Row
	if err := json.Unmarshal(r.Payload, &row); err != nil {
		return row, fmt.Errorf("decoding stat row for %s: %w", r.Player, err)
	}
	return row, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func apiNames(s pbp.Snapshot) pq.StringArray {
	names := make(pq.StringArray, 0, len(s.Players))
	for _, p := range s.Players {
		names = append(names, p.APIName)
	}
	return names
}
