// Package enrich walks the merged event log and derives score, strength,
// zone and goalie context for every event.
package enrich

import (
	"fmt"
	"math"
	"strings"

	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/xg"
)

// maxFenwickFlipDistance is the report distance under which a defensive
// zone unblocked attempt is taken to be mislabelled
const maxFenwickFlipDistance = 64

// zoneStartLookahead is how many events past a CHANGE are searched for its
// faceoff
const zoneStartLookahead = 2

// Enricher derives game context. It holds no per-game state and can be
// shared between games.
type Enricher struct {
	predictor xg.Predictor
}

// New creates an enricher. A nil predictor leaves pred_goal at zero.
func New(predictor xg.Predictor) *Enricher {
	return &Enricher{predictor: predictor}
}

// walkState is the running state of one game walk
type walkState struct {
	homeScore, awayScore int
	faceoffs             int
	penalties            int
	shifts               map[string]int
	shootoutWinner       pbp.Venue
	shootoutCreditAt     int
}

// Enrich walks events in order. onIce must hold one snapshot per event.
func (e *Enricher) Enrich(game pbp.Game, events []pbp.Event, onIce []pbp.OnIce) ([]pbp.Play, error) {
	if len(onIce) != len(events) {
		return nil, fmt.Errorf("enrich: %d snapshots for %d events", len(onIce), len(events))
	}

	plays := make([]pbp.Play, len(events))
	st := &walkState{shifts: make(map[string]int)}
	st.shootoutWinner, st.shootoutCreditAt = shootoutResult(game, events)

	for i := range events {
		p := &plays[i]
		p.Game = game
		p.Event = events[i]
		p.OnIce = onIce[i]

		e.score(p, i, st)
		e.strength(p)
		e.zones(p)
		e.indices(p, st)
	}

	// zone starts look ahead, so they run once every event has its strength
	for i := range plays {
		zoneStart(plays, i)
	}

	if e.predictor != nil {
		for i := range plays {
			e.predict(plays, i)
		}
	}

	return plays, nil
}

// shootoutResult finds the team with strictly more shootout goals and the
// event the extra goal is credited on: the first SOC or GEND in or after the
// shootout, else the last event
func shootoutResult(game pbp.Game, events []pbp.Event) (pbp.Venue, int) {
	goals := map[pbp.Venue]int{}
	credit := -1

	for i := range events {
		ev := &events[i]
		if !pbp.IsShootout(game.Session, ev.Period) && ev.Period < 5 {
			continue
		}
		if ev.Type == pbp.Goal && pbp.IsShootout(game.Session, ev.Period) {
			if v, ok := game.TeamVenue(ev.EventTeam); ok {
				goals[v]++
			}
		}
		if credit < 0 && (ev.Type == pbp.ShootoutEnd || ev.Type == pbp.GameOver) {
			credit = i
		}
	}

	if goals[pbp.Home] == goals[pbp.Away] {
		return "", -1
	}
	if credit < 0 {
		credit = len(events) - 1
	}
	if goals[pbp.Home] > goals[pbp.Away] {
		return pbp.Home, credit
	}
	return pbp.Away, credit
}

func (e *Enricher) score(p *pbp.Play, i int, st *walkState) {
	ev := &p.Event
	venue, known := p.EventVenue()

	p.IsHome = known && venue == pbp.Home
	p.Shootout = pbp.IsShootout(p.Game.Session, ev.Period)
	p.PenaltyShot = strings.Contains(strings.ToLower(ev.Description), "penalty shot")
	p.IsGoal = ev.Type == pbp.Goal && !p.Shootout

	if p.IsGoal && known {
		if venue == pbp.Home {
			st.homeScore++
		} else {
			st.awayScore++
		}
	}
	if i == st.shootoutCreditAt {
		if st.shootoutWinner == pbp.Home {
			st.homeScore++
		} else {
			st.awayScore++
		}
	}

	p.HomeScore = st.homeScore
	p.AwayScore = st.awayScore

	own, opp := st.homeScore, st.awayScore
	if known && venue == pbp.Away {
		own, opp = opp, own
	}
	p.ScoreDiff = own - opp
	p.ScoreState = fmt.Sprintf("%dv%d", own, opp)
}

func (e *Enricher) strength(p *pbp.Play) {
	ev := &p.Event
	venue, known := p.EventVenue()
	if !known {
		venue = pbp.Home
	}

	p.HomeSkaters = p.OnIce.Home.SkaterCount
	p.AwaySkaters = p.OnIce.Away.SkaterCount

	own, opp := p.OnIce.Side(venue), p.OnIce.Side(venue.Other())
	p.StrengthState = fmt.Sprintf("%dv%d", own.SkaterCount, opp.SkaterCount)
	if (p.PenaltyShot && ev.Type.IsFenwick()) || p.Shootout {
		p.StrengthState = "1v0"
	}

	if known {
		p.EmptyNet = opp.EmptyNet
		p.OwnGoalie = own.Goalie
		p.OppGoalie = opp.Goalie
	}
}

func (e *Enricher) zones(p *pbp.Play) {
	ev := &p.Event
	if !ev.TimeResolved() {
		return
	}
	p.Enriched = true

	zone := ev.Zone
	if ev.Type == pbp.Block && zone == "DEF" {
		zone = "OFF"
	}

	if ev.PbpDistance != nil {
		p.PbpDistance = *ev.PbpDistance
	}

	if dist, ang, ok := shotGeometry(ev, zone, p.PbpDistance); ok {
		p.Distance = &dist
		p.Angle = &ang
	}

	if ev.Type.IsFenwick() && zone == "DEF" && p.PbpDistance <= maxFenwickFlipDistance {
		zone = "OFF"
	}
	p.EventZone = zone

	// blocks report the zone from the shooting team's side
	perspective := ev.EventTeam
	if ev.Type == pbp.Block {
		perspective = ev.ShootingTeam()
	}
	if v, ok := p.Game.TeamVenue(perspective); ok && zone != "" {
		if v == pbp.Home {
			p.HomeZone = zone
		} else {
			p.HomeZone = invertZone(zone)
		}
	}
}

func (e *Enricher) indices(p *pbp.Play, st *walkState) {
	switch p.Event.Type {
	case pbp.Faceoff:
		st.faceoffs++
	case pbp.Penalty:
		st.penalties++
	case pbp.Change:
		st.shifts[p.Event.EventTeam]++
	}
	p.FaceIdx = st.faceoffs
	p.PenIdx = st.penalties
	p.ShiftIdx = st.shifts[p.Event.EventTeam]
}

// zoneStart resolves where a line change starts: the zone of a faceoff at
// the same time within the next two events, seen from the changing team,
// else on the fly
func zoneStart(plays []pbp.Play, i int) {
	p := &plays[i]
	ev := &p.Event
	if ev.Type != pbp.Change || !ev.TimeResolved() || len(ev.PlayersOn) == 0 {
		return
	}

	p.ZoneStart = "OTF"
	for x := 1; x <= zoneStartLookahead && i+x < len(plays); x++ {
		next := &plays[i+x]
		if next.Event.Type != pbp.Faceoff ||
			next.Event.Period != ev.Period || next.Event.GameSeconds != ev.GameSeconds {
			continue
		}

		if next.Event.EventTeam == ev.EventTeam {
			p.ZoneStart = next.Event.Zone
		} else {
			p.ZoneStart = invertZone(next.Event.Zone)
		}

		if v, ok := p.Game.TeamVenue(ev.EventTeam); ok {
			own, opp := next.OnIce.Side(v), next.OnIce.Side(v.Other())
			p.StrengthState = fmt.Sprintf("%dv%d", own.SkaterCount, opp.SkaterCount)
		}
		break
	}
	p.EventZone = p.ZoneStart
}

func (e *Enricher) predict(plays []pbp.Play, i int) {
	p := &plays[i]
	ev := &p.Event
	if !p.Enriched || !ev.Type.IsFenwick() || p.Distance == nil || p.Shootout {
		return
	}

	venue, known := p.EventVenue()
	if !known {
		return
	}
	own, opp := p.OnIce.Side(venue), p.OnIce.Side(venue.Other())

	f := xg.Features{
		Type:        ev.Type,
		ShotType:    ev.Detail,
		Distance:    *p.Distance,
		Angle:       *p.Angle,
		OwnSkaters:  own.SkaterCount,
		OppSkaters:  opp.SkaterCount,
		OppNetEmpty: opp.EmptyNet,
		OwnNetEmpty: own.EmptyNet,
		ScoreDiff:   p.ScoreDiff,
		PenaltyShot: p.PenaltyShot,
	}

	if prior := priorPlay(plays, i); prior != nil {
		f.HasPrior = true
		f.PriorType = prior.Event.Type
		f.PriorSameTeam = prior.Event.EventTeam == ev.EventTeam
		f.SecondsSince = ev.GameSeconds - prior.Event.GameSeconds
		f.DistanceSince = travel(prior, p)
	}

	p.PredGoal = e.predictor.Predict(f)
}

// priorPlay is the closest earlier non-change event in the same period
func priorPlay(plays []pbp.Play, i int) *pbp.Play {
	for j := i - 1; j >= 0; j-- {
		prev := &plays[j]
		if prev.Event.Period != plays[i].Event.Period {
			return nil
		}
		if prev.Event.Type == pbp.Change || !prev.Event.TimeResolved() {
			continue
		}
		return prev
	}
	return nil
}

// travel is the straight-line distance between two events' coordinates
func travel(a, b *pbp.Play) float64 {
	if a.Event.CoordsX == nil || a.Event.CoordsY == nil || b.Event.CoordsX == nil || b.Event.CoordsY == nil {
		return 0
	}
	dx := *a.Event.CoordsX - *b.Event.CoordsX
	dy := *a.Event.CoordsY - *b.Event.CoordsY
	return math.Hypot(dx, dy)
}
