package roster

import (
	"testing"

	"github.com/fortuna/janus/internal/pbp"
)

func testGame() pbp.Game {
	return pbp.Game{Season: 20232024, Session: pbp.Regular, GameID: 2023020001, HomeTeam: "TOR", AwayTeam: "MTL"}
}

func TestByTeamNumPrefersActive(t *testing.T) {
	r := New(testGame(), []pbp.RosterEntry{
		{Venue: pbp.Home, Name: "JOHN SCRATCHED", APIName: "JOHN.SCRATCHED", Jersey: 34, Position: "C", Status: pbp.Scratch},
		{Venue: pbp.Home, Name: "AUSTON MATTHEWS", APIName: "AUSTON.MATTHEWS", Jersey: 34, Position: "C", Status: pbp.Active},
		{Venue: pbp.Away, Name: "NICK SUZUKI", APIName: "NICK.SUZUKI", Jersey: 14, Position: "C", Status: pbp.Active},
	})

	got, ok := r.ByTeamNum("TOR34")
	if !ok {
		t.Fatal("expected TOR34 to resolve")
	}
	if got.APIName != "AUSTON.MATTHEWS" {
		t.Errorf("ByTeamNum(TOR34) = %s, want AUSTON.MATTHEWS", got.APIName)
	}

	if _, ok := r.ByJersey("MTL", 14); !ok {
		t.Error("expected MTL14 to resolve")
	}
	if _, ok := r.ByJersey("MTL", 99); ok {
		t.Error("expected MTL99 to be unresolved")
	}
}

func TestScratchFallback(t *testing.T) {
	r := New(testGame(), []pbp.RosterEntry{
		{Venue: pbp.Away, Name: "EXTRA SKATER", APIName: "EXTRA.SKATER", Jersey: 55, Position: "D", Status: pbp.Scratch},
	})

	got, ok := r.ByTeamNum("MTL55")
	if !ok || got.Name != "EXTRA SKATER" {
		t.Errorf("ByTeamNum(MTL55) = %+v, %v; want scratch entry", got, ok)
	}
	if got.Team != "MTL" {
		t.Errorf("team = %q, want MTL filled from venue", got.Team)
	}
}

func TestTeamKeepsOrder(t *testing.T) {
	r := New(testGame(), []pbp.RosterEntry{
		{Venue: pbp.Home, APIName: "C.ONE", Jersey: 1},
		{Venue: pbp.Away, APIName: "X.AWAY", Jersey: 2},
		{Venue: pbp.Home, APIName: "A.TWO", Jersey: 3},
	})

	home := r.Team(pbp.Home)
	if len(home) != 2 {
		t.Fatalf("len(home) = %d, want 2", len(home))
	}
	if home[0].APIName != "C.ONE" || home[1].APIName != "A.TWO" {
		t.Errorf("home order = %s, %s; want C.ONE, A.TWO", home[0].APIName, home[1].APIName)
	}
}
