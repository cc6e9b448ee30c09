package service

import (
	"context"
	"math"
	"testing"

	"github.com/fortuna/janus/internal/aggregate"
)

func statRow(gameID, period int, strength string, goals int, xgf float64) aggregate.Row {
	r := aggregate.Row{Key: aggregate.Key{
		Season: 20232024, GameID: gameID, Team: "TOR", Player: "A.SMITH",
		Period: period, StrengthState: strength, OwnGoalie: "H.GOALIE",
	}}
	r.Name = "A SMITH"
	r.Goals = goals
	r.XGF = xgf
	return r
}

type seasonRows []aggregate.Row

func (s seasonRows) PlayerSeason(ctx context.Context, apiName string, season int) ([]aggregate.Row, error) {
	var out []aggregate.Row
	for _, r := range s {
		if r.Player == apiName && r.Season == season {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestPlayerSeasonByStrength(t *testing.T) {
	rows := seasonRows{
		statRow(1, 1, "5v5", 1, 0.2),
		statRow(1, 2, "5v4", 1, 0.4),
		statRow(2, 3, "5v5", 2, 0.6),
	}

	totals, err := NewStatsService(rows).PlayerSeason(context.Background(), "A.SMITH", 20232024)
	if err != nil {
		t.Fatalf("PlayerSeason() error: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("got %d rows, want 2", len(totals))
	}

	pp, ev := totals[0], totals[1]
	if pp.StrengthState != "5v4" || ev.StrengthState != "5v5" {
		t.Fatalf("strengths = %s/%s", pp.StrengthState, ev.StrengthState)
	}
	if ev.Goals != 3 || math.Abs(ev.XGF-0.8) > 1e-9 {
		t.Errorf("5v5 goals/xgf = %d/%.2f, want 3/0.8", ev.Goals, ev.XGF)
	}
	if ev.Period != 0 || ev.GameID != 0 || ev.OwnGoalie != "" {
		t.Errorf("totals kept per-game keys: %+v", ev.Key)
	}

	if _, err := NewStatsService(rows).PlayerSeason(context.Background(), "C.DOE", 20232024); err == nil {
		t.Error("PlayerSeason() found rows for a player with none")
	}
}

func TestGameTotals(t *testing.T) {
	totals := GameTotals([]aggregate.Row{
		statRow(1, 1, "5v5", 1, 0.2),
		statRow(1, 3, "5v4", 0, 0.1),
	})
	if len(totals) != 1 {
		t.Fatalf("got %d rows, want 1", len(totals))
	}
	if totals[0].Goals != 1 || totals[0].GameID != 1 || totals[0].StrengthState != "" {
		t.Errorf("totals = %+v", totals[0])
	}
}
