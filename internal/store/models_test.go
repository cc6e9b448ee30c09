package store

import (
	"testing"

	"github.com/fortuna/janus/internal/aggregate"
	"github.com/fortuna/janus/internal/pbp"
)

func TestNewEventRow(t *testing.T) {
	p := pbp.Play{
		OnIce: pbp.OnIce{
			Home: pbp.Snapshot{Players: []pbp.Player{{Name: "A SMITH", APIName: "A.SMITH"}}},
		},
		Context: pbp.Context{
			StrengthState: "5v5",
			ScoreState:    "1v0",
			PredGoal:      0.12,
		},
	}
	p.Event = pbp.Event{EventIdx: 7, Period: 2, GameSeconds: 1500, Type: pbp.Shot, EventTeam: "TOR"}
	p.Event.Players[0] = pbp.Player{Name: "A SMITH", APIName: "A.SMITH"}

	row, err := NewEventRow(2023020001, p)
	if err != nil {
		t.Fatalf("NewEventRow() error: %v", err)
	}

	if row.EventIdx != 7 || row.GameSeconds != 1500 || row.Event != "SHOT" {
		t.Errorf("columns = idx %d secs %d event %s", row.EventIdx, row.GameSeconds, row.Event)
	}
	if !row.Player1.Valid || row.Player1.String != "A.SMITH" {
		t.Errorf("player_1 = %+v, want A.SMITH", row.Player1)
	}
	if row.Player2.Valid {
		t.Error("empty player_2 stored as a value, want NULL")
	}
	if row.Zone.Valid {
		t.Error("empty zone stored as a value, want NULL")
	}
	if len(row.HomeOn) != 1 || row.HomeOn[0] != "A.SMITH" || len(row.AwayOn) != 0 {
		t.Errorf("on ice = %v / %v", row.HomeOn, row.AwayOn)
	}

	back, err := row.Play()
	if err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if back.Event.EventIdx != 7 || back.StrengthState != "5v5" || !back.OnIce.Home.Has("A.SMITH") {
		t.Errorf("decoded play = %+v", back.Event)
	}
}

func TestNewStatRow(t *testing.T) {
	in := aggregate.Row{Key: aggregate.Key{
		Season: 20232024, GameID: 2023020001, Team: "TOR", Player: "A.SMITH",
		Period: 3, StrengthState: "5v4", OwnGoalie: "H GOALIE", OppGoalie: "A GOALIE",
	}}
	in.Goals, in.XGF = 1, 0.4

	row, err := NewStatRow(in)
	if err != nil {
		t.Fatalf("NewStatRow() error: %v", err)
	}
	if row.GameID != 2023020001 || row.Season != 20232024 || row.Period != 3 || row.StrengthState != "5v4" {
		t.Errorf("key columns = %+v", row)
	}

	out, err := row.Row()
	if err != nil {
		t.Fatalf("Row() error: %v", err)
	}
	if out.Goals != 1 || out.XGF != 0.4 || out.OwnGoalie != "H GOALIE" {
		t.Errorf("decoded row = g %d xgf %.2f own %s", out.Goals, out.XGF, out.OwnGoalie)
	}
}

func TestStoredPayloadCorrupt(t *testing.T) {
	if _, err := (&EventRow{Payload: []byte("{")}).Play(); err == nil {
		t.Error("Play() accepted a truncated payload")
	}
	if _, err := (&StatRow{Payload: []byte("[]")}).Row(); err == nil {
		t.Error("Row() accepted an array payload")
	}
}
