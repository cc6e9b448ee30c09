package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/fortuna/janus/internal/aggregate"
)

// SeasonStore reads stat rows across games
type SeasonStore interface {
	PlayerSeason(ctx context.Context, apiName string, season int) ([]aggregate.Row, error)
}

// StatsService rolls stored stat rows up into totals
type StatsService struct {
	rows SeasonStore
}

// NewStatsService creates a new stats service
func NewStatsService(rows SeasonStore) *StatsService {
	return &StatsService{rows: rows}
}

// PlayerSeason totals a player's season by strength state
func (s *StatsService) PlayerSeason(ctx context.Context, apiName string, season int) ([]aggregate.Row, error) {
	rows, err := s.rows.PlayerSeason(ctx, apiName, season)
	if err != nil {
		return nil, fmt.Errorf("fetching season rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no %d rows for %s", season, apiName)
	}
	return ByStrength(rows), nil
}

// ByStrength collapses rows into one per team and strength state. Period,
// game and goalie keys are cleared on the totals.
func ByStrength(rows []aggregate.Row) []aggregate.Row {
	type key struct{ team, strength string }

	totals := make(map[key]*aggregate.Row)
	var order []key
	for _, r := range rows {
		k := key{r.Team, r.StrengthState}
		t, ok := totals[k]
		if !ok {
			t = &aggregate.Row{
				Key:      aggregate.Key{Season: r.Season, Session: r.Session, Team: r.Team, Player: r.Player, StrengthState: r.StrengthState},
				Name:     r.Name,
				Position: r.Position,
			}
			totals[k] = t
			order = append(order, k)
		}
		t.Add(r)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].team != order[j].team {
			return order[i].team < order[j].team
		}
		return order[i].strength < order[j].strength
	})

	out := make([]aggregate.Row, 0, len(order))
	for _, k := range order {
		out = append(out, *totals[k])
	}
	return out
}

// GameTotals collapses a game's rows into one per player across periods
// and strength states
func GameTotals(rows []aggregate.Row) []aggregate.Row {
	type key struct{ team, player string }

	totals := make(map[key]*aggregate.Row)
	var order []key
	for _, r := range rows {
		k := key{r.Team, r.Player}
		t, ok := totals[k]
		if !ok {
			t = &aggregate.Row{
				Key:      aggregate.Key{Season: r.Season, Session: r.Session, GameID: r.GameID, Team: r.Team, Player: r.Player},
				Name:     r.Name,
				Position: r.Position,
				OppTeam:  r.OppTeam,
			}
			totals[k] = t
			order = append(order, k)
		}
		t.Add(r)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].team != order[j].team {
			return order[i].team < order[j].team
		}
		return order[i].player < order[j].player
	})

	out := make([]aggregate.Row, 0, len(order))
	for _, k := range order {
		out = append(out, *totals[k])
	}
	return out
}
