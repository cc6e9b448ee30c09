package aggregate

import (
	"math"
	"testing"

	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/roster"
)

var (
	smith = pbp.Player{Name: "A SMITH", APIName: "A.SMITH", Position: "C"}
	jones = pbp.Player{Name: "B JONES", APIName: "B.JONES", Position: "D"}
	hGoal = pbp.Player{Name: "H GOALIE", APIName: "H.GOALIE", Position: "G"}
	doe   = pbp.Player{Name: "C DOE", APIName: "C.DOE", Position: "L"}
	aGoal = pbp.Player{Name: "A GOALIE", APIName: "A.GOALIE", Position: "G"}
	bench = pbp.Player{Name: pbp.Bench, APIName: pbp.Bench}
)

func testGame() pbp.Game {
	return pbp.Game{Season: 20232024, Session: pbp.Regular, GameID: 2023020001, HomeTeam: "TOR", AwayTeam: "MTL"}
}

func testRoster() *roster.Roster {
	return roster.New(testGame(), []pbp.RosterEntry{
		{Venue: pbp.Home, Name: "A SMITH", APIName: "A.SMITH", Jersey: 9, Position: "C"},
		{Venue: pbp.Home, Name: "B JONES", APIName: "B.JONES", Jersey: 4, Position: "D"},
		{Venue: pbp.Home, Name: "H GOALIE", APIName: "H.GOALIE", Jersey: 30, Position: "G"},
		{Venue: pbp.Away, Name: "C DOE", APIName: "C.DOE", Jersey: 11, Position: "L"},
		{Venue: pbp.Away, Name: "A GOALIE", APIName: "A.GOALIE", Jersey: 31, Position: "G"},
	})
}

func ice() pbp.OnIce {
	return pbp.OnIce{
		Home: pbp.Snapshot{Players: []pbp.Player{smith, jones, hGoal}, SkaterCount: 2, Goalie: "H GOALIE"},
		Away: pbp.Snapshot{Players: []pbp.Player{doe, aGoal}, SkaterCount: 1, Goalie: "A GOALIE"},
	}
}

// play builds an enriched play as the enricher would for a 2v1 game
func play(t pbp.EventType, team string, pred float64, players ...pbp.Player) pbp.Play {
	game := testGame()
	p := pbp.Play{Game: game, OnIce: ice()}
	p.Event = pbp.Event{Period: 1, GameSeconds: 100, Type: t, EventTeam: team, OppTeam: game.Opponent(team)}
	copy(p.Event.Players[:], players)
	p.PredGoal = pred

	if team == "TOR" {
		p.StrengthState, p.OwnGoalie, p.OppGoalie = "2v1", "H GOALIE", "A GOALIE"
	} else {
		p.StrengthState, p.OwnGoalie, p.OppGoalie = "1v2", "A GOALIE", "H GOALIE"
	}
	return p
}

func find(t *testing.T, rows []Row, player string) Row {
	t.Helper()
	var found []Row
	for _, r := range rows {
		if r.Player == player {
			found = append(found, r)
		}
	}
	if len(found) != 1 {
		t.Fatalf("%s has %d rows, want 1", player, len(found))
	}
	return found[0]
}

func TestAggregateIndividual(t *testing.T) {
	plays := []pbp.Play{
		play(pbp.Goal, "TOR", 0.3, smith, jones),
		play(pbp.Shot, "TOR", 0.1, smith),
		play(pbp.Miss, "MTL", 0.05, doe),
		play(pbp.Block, "TOR", 0, jones, doe),
		play(pbp.Faceoff, "MTL", 0, doe, smith),
		play(pbp.Hit, "TOR", 0, jones, doe),
		play(pbp.Giveaway, "MTL", 0, doe),
		play(pbp.Takeaway, "TOR", 0, smith),
	}
	pen := play(pbp.Penalty, "MTL", 0, doe, smith)
	pen.Event.PenaltyMinutes = 2
	plays = append(plays, pen)

	rows := Aggregate(testGame(), plays, testRoster())

	s := find(t, rows, "A.SMITH")
	if s.Goals != 1 || s.ISF != 2 || s.IFF != 2 || s.ICF != 2 {
		t.Errorf("smith g/isf/iff/icf = %d/%d/%d/%d, want 1/2/2/2", s.Goals, s.ISF, s.IFF, s.ICF)
	}
	if math.Abs(s.IXG-0.4) > 1e-9 {
		t.Errorf("smith ixg = %.3f, want 0.4", s.IXG)
	}
	if s.FaceoffsLost != 1 || s.Takeaways != 1 || s.PenaltiesDrawn != 1 {
		t.Errorf("smith fol/take/pend = %d/%d/%d, want 1/1/1", s.FaceoffsLost, s.Takeaways, s.PenaltiesDrawn)
	}
	if s.StrengthState != "2v1" || s.OwnGoalie != "H GOALIE" || s.OppGoalie != "A GOALIE" {
		t.Errorf("smith key = %s %s/%s", s.StrengthState, s.OwnGoalie, s.OppGoalie)
	}

	j := find(t, rows, "B.JONES")
	if j.A1 != 1 || math.Abs(j.A1XG-0.3) > 1e-9 {
		t.Errorf("jones a1 = %d (%.2f xg), want 1 (0.3)", j.A1, j.A1XG)
	}
	if j.ShotsBlockedDef != 1 || j.Hits != 1 {
		t.Errorf("jones blocks/hits = %d/%d, want 1/1", j.ShotsBlockedDef, j.Hits)
	}

	d := find(t, rows, "C.DOE")
	if d.IFF != 1 || d.ISF != 0 || d.ICF != 2 || d.ShotsBlockedOff != 1 {
		t.Errorf("doe iff/isf/icf/blocked = %d/%d/%d/%d, want 1/0/2/1", d.IFF, d.ISF, d.ICF, d.ShotsBlockedOff)
	}
	if d.FaceoffsWon != 1 || d.HitsTaken != 1 || d.Giveaways != 1 {
		t.Errorf("doe fow/hits taken/give = %d/%d/%d, want 1/1/1", d.FaceoffsWon, d.HitsTaken, d.Giveaways)
	}
	if d.PenaltiesTaken != 1 || d.PIM != 2 {
		t.Errorf("doe pent/pim = %d/%d, want 1/2", d.PenaltiesTaken, d.PIM)
	}
	if d.Team != "MTL" || d.OppTeam != "TOR" || d.StrengthState != "1v2" || d.OwnGoalie != "A GOALIE" {
		t.Errorf("doe key = %s vs %s %s own %s", d.Team, d.OppTeam, d.StrengthState, d.OwnGoalie)
	}
	if d.Position != "L" || d.Name != "C DOE" {
		t.Errorf("doe roster fields = %s %s", d.Name, d.Position)
	}
}

func TestAggregateOnIce(t *testing.T) {
	plays := []pbp.Play{
		play(pbp.Goal, "TOR", 0.3, smith),
		play(pbp.Shot, "MTL", 0.1, doe),
		play(pbp.Block, "TOR", 0, jones, doe),
	}

	rows := Aggregate(testGame(), plays, testRoster())

	g := find(t, rows, "H.GOALIE")
	if g.GF != 1 || g.SF != 1 || g.CF != 1 || g.FF != 1 {
		t.Errorf("home gf/sf/cf/ff = %d/%d/%d/%d, want 1/1/1/1", g.GF, g.SF, g.CF, g.FF)
	}
	if g.SA != 1 || g.FA != 1 || g.CA != 2 || g.GA != 0 {
		t.Errorf("home sa/fa/ca/ga = %d/%d/%d/%d, want 1/1/2/0", g.SA, g.FA, g.CA, g.GA)
	}
	if math.Abs(g.XGF-0.3) > 1e-9 || math.Abs(g.XGA-0.1) > 1e-9 {
		t.Errorf("home xgf/xga = %.2f/%.2f, want 0.3/0.1", g.XGF, g.XGA)
	}

	a := find(t, rows, "A.GOALIE")
	if a.GA != 1 || a.CF != 2 || a.CA != 1 || a.SF != 1 {
		t.Errorf("away ga/cf/ca/sf = %d/%d/%d/%d, want 1/2/1/1", a.GA, a.CF, a.CA, a.SF)
	}
}

func TestAggregateZoneStarts(t *testing.T) {
	change := play(pbp.Change, "TOR", 0)
	change.Event.PlayersOn = []pbp.Player{smith, jones}
	change.ZoneStart = "OFF"

	otf := play(pbp.Change, "MTL", 0)
	otf.Event.PlayersOn = []pbp.Player{doe}
	otf.ZoneStart = "OTF"

	rows := Aggregate(testGame(), []pbp.Play{change, otf}, testRoster())
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if s := find(t, rows, "A.SMITH"); s.OZS != 1 || s.DZS != 0 || s.CF != 0 {
		t.Errorf("smith ozs/dzs/cf = %d/%d/%d, want 1/0/0", s.OZS, s.DZS, s.CF)
	}
	if d := find(t, rows, "C.DOE"); d.OTF != 1 {
		t.Errorf("doe otf = %d, want 1", d.OTF)
	}
}

func TestAggregateSkips(t *testing.T) {
	benchMinor := play(pbp.Penalty, "TOR", 0, bench, smith)
	benchMinor.Event.PenaltyMinutes = 2

	shootout := play(pbp.Goal, "MTL", 0.4, doe)
	shootout.Event.Period = 5
	shootout.Shootout = true

	unresolved := play(pbp.Shot, "MTL", 0.1, doe)
	unresolved.Event.GameSeconds = -1

	rows := Aggregate(testGame(), []pbp.Play{benchMinor, shootout, unresolved}, testRoster())

	for _, r := range rows {
		if r.Player == pbp.Bench {
			t.Error("bench got a stat row")
		}
		if r.Player == "C.DOE" {
			t.Errorf("shootout or unresolved event counted for doe: %+v", r)
		}
		if r.Player == "A.SMITH" && r.PenaltiesDrawn != 0 {
			t.Error("bench minor server credited with a drawn penalty")
		}
	}
}

func TestAggregateRowsOrdered(t *testing.T) {
	plays := []pbp.Play{
		play(pbp.Shot, "MTL", 0.1, doe),
		play(pbp.Shot, "TOR", 0.1, smith),
	}
	rows := Aggregate(testGame(), plays, testRoster())

	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1].Key, rows[i].Key
		if prev.Team > cur.Team || (prev.Team == cur.Team && prev.Player > cur.Player) {
			t.Errorf("row %d (%s %s) sorts after row %d (%s %s)", i-1, prev.Team, prev.Player, i, cur.Team, cur.Player)
		}
	}
}

func TestFlip(t *testing.T) {
	tests := map[string]string{"5v4": "4v5", "1v0": "0v1", "": "", "6v6": "6v6"}
	for in, want := range tests {
		if got := flip(in); got != want {
			t.Errorf("flip(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRowAdd(t *testing.T) {
	a := Row{Key: Key{Player: "A.SMITH", Period: 1}}
	a.Goals, a.CF, a.XGF, a.OZS = 1, 3, 0.25, 1

	b := Row{Key: Key{Player: "A.SMITH", Period: 2}}
	b.Goals, b.CF, b.XGF, b.DZS = 2, 1, 0.5, 2

	a.Add(b)
	if a.Goals != 3 || a.CF != 4 || math.Abs(a.XGF-0.75) > 1e-9 || a.OZS != 1 || a.DZS != 2 {
		t.Errorf("Add() = g %d cf %d xgf %.2f ozs %d dzs %d", a.Goals, a.CF, a.XGF, a.OZS, a.DZS)
	}
	if a.Period != 1 {
		t.Errorf("Add() changed the key period to %d", a.Period)
	}
}
