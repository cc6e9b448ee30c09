package enrich

import (
	"math"
	"testing"

	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/xg"
)

func testGame() pbp.Game {
	return pbp.Game{Season: 20232024, Session: pbp.Regular, GameID: 2023020001, HomeTeam: "TOR", AwayTeam: "MTL"}
}

func snap(skaters int, goalie string) pbp.Snapshot {
	s := pbp.Snapshot{SkaterCount: skaters, Goalie: goalie}
	for i := 0; i < skaters; i++ {
		s.Players = append(s.Players, pbp.Player{APIName: "SKATER"})
	}
	if goalie == pbp.EmptyNet {
		s.EmptyNet = true
	} else {
		s.Players = append(s.Players, pbp.Player{Name: goalie, Position: "G"})
	}
	return s
}

func evenIce() pbp.OnIce {
	return pbp.OnIce{Home: snap(5, "H GOALIE"), Away: snap(5, "A GOALIE")}
}

func f64(v float64) *float64 { return &v }

// uniform gives every event the same on-ice state
func uniform(events []pbp.Event, ice pbp.OnIce) []pbp.OnIce {
	out := make([]pbp.OnIce, len(events))
	for i := range out {
		out[i] = ice
	}
	return out
}

func enrich(t *testing.T, events []pbp.Event, onIce []pbp.OnIce) []pbp.Play {
	t.Helper()
	plays, err := New(nil).Enrich(testGame(), events, onIce)
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}
	return plays
}

func TestEnrichRejectsMisalignedSnapshots(t *testing.T) {
	events := []pbp.Event{{Period: 1, GameSeconds: 0, Type: pbp.Faceoff}}
	if _, err := New(nil).Enrich(testGame(), events, nil); err == nil {
		t.Error("Enrich() accepted events without snapshots")
	}
}

func TestEnrichStrength(t *testing.T) {
	pp := pbp.OnIce{Home: snap(5, "H GOALIE"), Away: snap(4, "A GOALIE")}
	pulled := pbp.OnIce{Home: snap(5, "H GOALIE"), Away: snap(6, pbp.EmptyNet)}

	tests := []struct {
		name      string
		event     pbp.Event
		ice       pbp.OnIce
		strength  string
		emptyNet  bool
		ownGoalie string
		oppGoalie string
	}{
		{
			name:      "home power play",
			event:     pbp.Event{Period: 1, GameSeconds: 100, Type: pbp.Shot, EventTeam: "TOR", OppTeam: "MTL"},
			ice:       pp,
			strength:  "5v4",
			ownGoalie: "H GOALIE",
			oppGoalie: "A GOALIE",
		},
		{
			name:      "away short handed",
			event:     pbp.Event{Period: 1, GameSeconds: 100, Type: pbp.Hit, EventTeam: "MTL", OppTeam: "TOR"},
			ice:       pp,
			strength:  "4v5",
			ownGoalie: "A GOALIE",
			oppGoalie: "H GOALIE",
		},
		{
			name:      "shooting at empty net",
			event:     pbp.Event{Period: 3, GameSeconds: 3500, Type: pbp.Shot, EventTeam: "TOR", OppTeam: "MTL"},
			ice:       pulled,
			strength:  "5v6",
			emptyNet:  true,
			ownGoalie: "H GOALIE",
			oppGoalie: pbp.EmptyNet,
		},
		{
			name:      "penalty shot",
			event:     pbp.Event{Period: 2, GameSeconds: 1500, Type: pbp.Shot, EventTeam: "TOR", OppTeam: "MTL", Description: "TOR #9 SMITH, Penalty Shot, Wrist"},
			ice:       pp,
			strength:  "1v0",
			ownGoalie: "H GOALIE",
			oppGoalie: "A GOALIE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := enrich(t, []pbp.Event{tt.event}, []pbp.OnIce{tt.ice})[0]

			if p.StrengthState != tt.strength {
				t.Errorf("strength_state = %s, want %s", p.StrengthState, tt.strength)
			}
			if p.HomeSkaters != tt.ice.Home.SkaterCount || p.AwaySkaters != tt.ice.Away.SkaterCount {
				t.Errorf("skaters = %d/%d, want the on-ice counts %d/%d",
					p.HomeSkaters, p.AwaySkaters, tt.ice.Home.SkaterCount, tt.ice.Away.SkaterCount)
			}
			if p.EmptyNet != tt.emptyNet {
				t.Errorf("empty_net = %v, want %v", p.EmptyNet, tt.emptyNet)
			}
			if p.OwnGoalie != tt.ownGoalie || p.OppGoalie != tt.oppGoalie {
				t.Errorf("goalies = %s/%s, want %s/%s", p.OwnGoalie, p.OppGoalie, tt.ownGoalie, tt.oppGoalie)
			}
		})
	}
}

func TestEnrichZones(t *testing.T) {
	tests := []struct {
		name      string
		event     pbp.Event
		eventZone string
		homeZone  string
	}{
		{
			name:      "block reported in defending zone",
			event:     pbp.Event{Type: pbp.Block, EventTeam: "TOR", OppTeam: "MTL", Zone: "DEF"},
			eventZone: "OFF",
			homeZone:  "DEF",
		},
		{
			name:      "short defensive zone shot",
			event:     pbp.Event{Type: pbp.Shot, EventTeam: "TOR", OppTeam: "MTL", Zone: "DEF", PbpDistance: f64(30)},
			eventZone: "OFF",
			homeZone:  "OFF",
		},
		{
			name:      "long defensive zone shot",
			event:     pbp.Event{Type: pbp.Shot, EventTeam: "MTL", OppTeam: "TOR", Zone: "DEF", PbpDistance: f64(150)},
			eventZone: "DEF",
			homeZone:  "OFF",
		},
		{
			name:      "hit",
			event:     pbp.Event{Type: pbp.Hit, EventTeam: "MTL", OppTeam: "TOR", Zone: "NEU"},
			eventZone: "NEU",
			homeZone:  "NEU",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := tt.event
			ev.Period, ev.GameSeconds = 1, 100
			p := enrich(t, []pbp.Event{ev}, []pbp.OnIce{evenIce()})[0]

			if p.EventZone != tt.eventZone {
				t.Errorf("event_zone = %s, want %s", p.EventZone, tt.eventZone)
			}
			if p.HomeZone != tt.homeZone {
				t.Errorf("home_zone = %s, want %s", p.HomeZone, tt.homeZone)
			}
		})
	}
}

func TestEnrichGeometry(t *testing.T) {
	tests := []struct {
		name     string
		event    pbp.Event
		distance float64
		angle    float64
	}{
		{
			name:     "slot shot",
			event:    pbp.Event{Type: pbp.Shot, Zone: "OFF", CoordsX: f64(80), CoordsY: f64(0), PbpDistance: f64(9)},
			distance: 9,
			angle:    0,
		},
		{
			name:     "sharp angle",
			event:    pbp.Event{Type: pbp.Miss, Zone: "OFF", CoordsX: f64(-79), CoordsY: f64(10), PbpDistance: f64(14)},
			distance: math.Sqrt(200),
			angle:    45,
		},
		{
			name:     "mirrored long shot",
			event:    pbp.Event{Type: pbp.Shot, Zone: "DEF", CoordsX: f64(-70), CoordsY: f64(0), PbpDistance: f64(150), Detail: "Wrist"},
			distance: 159,
			angle:    0,
		},
		{
			name:     "tip near the net keeps coordinates",
			event:    pbp.Event{Type: pbp.Shot, Zone: "DEF", CoordsX: f64(-85), CoordsY: f64(3), PbpDistance: f64(150), Detail: "Tip-In"},
			distance: 5,
			angle:    math.Atan(3.0/4.0) * 180 / math.Pi,
		},
		{
			name:     "on the goal line",
			event:    pbp.Event{Type: pbp.Shot, Zone: "OFF", CoordsX: f64(89), CoordsY: f64(6), PbpDistance: f64(6)},
			distance: 6,
			angle:    90,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := tt.event
			ev.Period, ev.GameSeconds, ev.EventTeam, ev.OppTeam = 1, 100, "TOR", "MTL"
			p := enrich(t, []pbp.Event{ev}, []pbp.OnIce{evenIce()})[0]

			if p.Distance == nil || p.Angle == nil {
				t.Fatal("geometry missing")
			}
			if math.Abs(*p.Distance-tt.distance) > 1e-6 {
				t.Errorf("distance = %.3f, want %.3f", *p.Distance, tt.distance)
			}
			if math.Abs(*p.Angle-tt.angle) > 1e-6 {
				t.Errorf("angle = %.3f, want %.3f", *p.Angle, tt.angle)
			}
		})
	}
}

func TestEnrichNoCoordinates(t *testing.T) {
	ev := pbp.Event{Period: 1, GameSeconds: 100, Type: pbp.Shot, EventTeam: "TOR", OppTeam: "MTL"}
	p := enrich(t, []pbp.Event{ev}, []pbp.OnIce{evenIce()})[0]
	if p.Distance != nil || p.Angle != nil {
		t.Error("geometry derived without coordinates")
	}
	if p.PbpDistance != 0 {
		t.Errorf("pbp_distance = %.1f, want 0", p.PbpDistance)
	}
}

func TestEnrichScore(t *testing.T) {
	events := []pbp.Event{
		{Period: 1, GameSeconds: 100, Type: pbp.Goal, EventTeam: "MTL", OppTeam: "TOR"},
		{Period: 1, GameSeconds: 200, Type: pbp.Shot, EventTeam: "TOR", OppTeam: "MTL"},
		{Period: 3, GameSeconds: 3000, Type: pbp.Goal, EventTeam: "TOR", OppTeam: "MTL"},
		{Period: 5, GameSeconds: 3900, Type: pbp.Goal, EventTeam: "TOR", OppTeam: "MTL"},
		{Period: 5, GameSeconds: 3900, Type: pbp.Goal, EventTeam: "MTL", OppTeam: "TOR"},
		{Period: 5, GameSeconds: 3900, Type: pbp.Goal, EventTeam: "TOR", OppTeam: "MTL"},
		{Period: 5, GameSeconds: 3900, Type: pbp.ShootoutEnd},
		{Period: 5, GameSeconds: 3900, Type: pbp.GameOver},
	}
	plays := enrich(t, events, uniform(events, evenIce()))

	tests := []struct {
		idx        int
		home, away int
		state      string
		isGoal     bool
	}{
		{0, 0, 1, "1v0", true},
		{1, 0, 1, "0v1", false},
		{2, 1, 1, "1v1", true},
		{3, 1, 1, "1v1", false},
		{6, 2, 1, "2v1", false},
		{7, 2, 1, "2v1", false},
	}
	for _, tt := range tests {
		p := plays[tt.idx]
		if p.HomeScore != tt.home || p.AwayScore != tt.away {
			t.Errorf("event %d score = %d-%d, want %d-%d", tt.idx, p.HomeScore, p.AwayScore, tt.home, tt.away)
		}
		if p.ScoreState != tt.state {
			t.Errorf("event %d score_state = %s, want %s", tt.idx, p.ScoreState, tt.state)
		}
		if p.IsGoal != tt.isGoal {
			t.Errorf("event %d is_goal = %v, want %v", tt.idx, p.IsGoal, tt.isGoal)
		}
	}

	if plays[1].ScoreDiff != -1 {
		t.Errorf("score_diff for trailing team = %d, want -1", plays[1].ScoreDiff)
	}
	for _, p := range plays[3:] {
		if p.StrengthState != "1v0" {
			t.Errorf("shootout %s strength = %s, want 1v0", p.Event.Type, p.StrengthState)
		}
		if p.HomeSkaters != 5 || p.AwaySkaters != 5 {
			t.Errorf("shootout skater counts changed to %d/%d", p.HomeSkaters, p.AwaySkaters)
		}
	}
}

func TestEnrichPlayoffOvertimeIsNotShootout(t *testing.T) {
	game := testGame()
	game.Session = pbp.Playoff
	events := []pbp.Event{
		{Period: 5, GameSeconds: 4900, Type: pbp.Goal, EventTeam: "TOR", OppTeam: "MTL"},
	}

	plays, err := New(nil).Enrich(game, events, uniform(events, evenIce()))
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}
	if p := plays[0]; !p.IsGoal || p.HomeScore != 1 || p.StrengthState != "5v5" {
		t.Errorf("playoff overtime goal = goal %v score %d strength %s", p.IsGoal, p.HomeScore, p.StrengthState)
	}
}

func TestEnrichZoneStart(t *testing.T) {
	smith := pbp.Player{Name: "A SMITH", APIName: "A.SMITH"}
	change := pbp.Event{Period: 1, GameSeconds: 60, Type: pbp.Change, EventTeam: "TOR", OppTeam: "MTL", PlayersOn: []pbp.Player{smith}}
	faceoff := func(team, opp, zone string) pbp.Event {
		return pbp.Event{Period: 1, GameSeconds: 60, Type: pbp.Faceoff, EventTeam: team, OppTeam: opp, Zone: zone}
	}
	afterIce := pbp.OnIce{Home: snap(5, "H GOALIE"), Away: snap(4, "A GOALIE")}

	tests := []struct {
		name      string
		events    []pbp.Event
		zoneStart string
		strength  string
	}{
		{
			name:      "own faceoff",
			events:    []pbp.Event{change, faceoff("TOR", "MTL", "OFF")},
			zoneStart: "OFF",
			strength:  "5v4",
		},
		{
			name:      "opponent faceoff",
			events:    []pbp.Event{change, faceoff("MTL", "TOR", "OFF")},
			zoneStart: "DEF",
			strength:  "5v4",
		},
		{
			name: "faceoff two events later",
			events: []pbp.Event{change,
				{Period: 1, GameSeconds: 60, Type: pbp.Change, EventTeam: "MTL", OppTeam: "TOR"},
				faceoff("TOR", "MTL", "NEU")},
			zoneStart: "NEU",
			strength:  "5v4",
		},
		{
			name:      "on the fly",
			events:    []pbp.Event{change, {Period: 1, GameSeconds: 75, Type: pbp.Shot, EventTeam: "TOR", OppTeam: "MTL"}},
			zoneStart: "OTF",
			strength:  "5v5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			onIce := uniform(tt.events, evenIce())
			for i := 1; i < len(onIce); i++ {
				onIce[i] = afterIce
			}
			p := enrich(t, tt.events, onIce)[0]

			if p.ZoneStart != tt.zoneStart {
				t.Errorf("zone_start = %s, want %s", p.ZoneStart, tt.zoneStart)
			}
			if p.EventZone != tt.zoneStart {
				t.Errorf("event_zone = %s, want the zone start %s", p.EventZone, tt.zoneStart)
			}
			if p.StrengthState != tt.strength {
				t.Errorf("strength_state = %s, want %s", p.StrengthState, tt.strength)
			}
		})
	}
}

func TestEnrichIndices(t *testing.T) {
	events := []pbp.Event{
		{Period: 1, GameSeconds: 0, Type: pbp.Change, EventTeam: "MTL", OppTeam: "TOR"},
		{Period: 1, GameSeconds: 0, Type: pbp.Change, EventTeam: "TOR", OppTeam: "MTL"},
		{Period: 1, GameSeconds: 0, Type: pbp.Faceoff, EventTeam: "TOR", OppTeam: "MTL"},
		{Period: 1, GameSeconds: 40, Type: pbp.Change, EventTeam: "TOR", OppTeam: "MTL"},
		{Period: 1, GameSeconds: 90, Type: pbp.Penalty, EventTeam: "MTL", OppTeam: "TOR"},
		{Period: 1, GameSeconds: 90, Type: pbp.Faceoff, EventTeam: "MTL", OppTeam: "TOR"},
	}
	plays := enrich(t, events, uniform(events, evenIce()))

	want := []struct{ face, shift, pen int }{
		{0, 1, 0},
		{0, 1, 0},
		{1, 1, 0},
		{1, 2, 0},
		{1, 1, 1},
		{2, 1, 1},
	}
	for i, w := range want {
		p := plays[i]
		if p.FaceIdx != w.face || p.ShiftIdx != w.shift || p.PenIdx != w.pen {
			t.Errorf("event %d (%s) indices = face %d shift %d pen %d, want %d %d %d",
				i, p.Event.Type, p.FaceIdx, p.ShiftIdx, p.PenIdx, w.face, w.shift, w.pen)
		}
	}
}

func TestEnrichUnresolvedTimeSkipsLocationContext(t *testing.T) {
	ev := pbp.Event{Period: 1, GameSeconds: -1, Type: pbp.Shot, EventTeam: "TOR", OppTeam: "MTL",
		Zone: "OFF", CoordsX: f64(80), CoordsY: f64(0)}
	p := enrich(t, []pbp.Event{ev}, []pbp.OnIce{evenIce()})[0]

	if p.Enriched {
		t.Error("event with unresolved time marked enriched")
	}
	if p.Distance != nil || p.EventZone != "" {
		t.Errorf("location context derived for unresolved time: zone %q", p.EventZone)
	}
	if p.StrengthState != "5v5" {
		t.Errorf("strength_state = %s, want 5v5", p.StrengthState)
	}
}

func TestEnrichPredictsGoals(t *testing.T) {
	events := []pbp.Event{
		{Period: 1, GameSeconds: 100, Type: pbp.Faceoff, EventTeam: "TOR", OppTeam: "MTL", Zone: "OFF", CoordsX: f64(69), CoordsY: f64(22)},
		{Period: 1, GameSeconds: 102, Type: pbp.Change, EventTeam: "MTL", OppTeam: "TOR"},
		{Period: 1, GameSeconds: 103, Type: pbp.Shot, EventTeam: "TOR", OppTeam: "MTL", Zone: "OFF", CoordsX: f64(75), CoordsY: f64(5), PbpDistance: f64(15)},
		{Period: 1, GameSeconds: 110, Type: pbp.Block, EventTeam: "MTL", OppTeam: "TOR", Zone: "DEF", CoordsX: f64(70), CoordsY: f64(5)},
	}
	plays, err := New(xg.DefaultModel()).Enrich(testGame(), events, uniform(events, evenIce()))
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}

	if p := plays[2].PredGoal; p <= 0 || p >= 1 {
		t.Errorf("shot pred_goal = %.3f, want a probability", p)
	}
	if plays[0].PredGoal != 0 || plays[3].PredGoal != 0 {
		t.Error("non-fenwick events scored")
	}
}
