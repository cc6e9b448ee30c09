// Package aggregate rolls enriched plays up into per-player stat rows.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/roster"
)

// Key identifies one stat row. Strength and goalies are from the team's
// own perspective.
type Key struct {
	Season        int         `json:"season"`
	Session       pbp.Session `json:"session"`
	GameID        int         `json:"game_id"`
	Team          string      `json:"team"`
	Player        string      `json:"player"`
	Period        int         `json:"period"`
	StrengthState string      `json:"strength_state"`
	OwnGoalie     string      `json:"own_goalie"`
	OppGoalie     string      `json:"opp_goalie"`
}

// Individual counts what a player did as a named participant
type Individual struct {
	Goals           int     `json:"g"`
	A1              int     `json:"a1"`
	A2              int     `json:"a2"`
	ISF             int     `json:"isf"`
	IFF             int     `json:"iff"`
	ICF             int     `json:"icf"`
	IXG             float64 `json:"ixg"`
	A1XG            float64 `json:"a1_xg"`
	A2XG            float64 `json:"a2_xg"`
	Hits            int     `json:"hits"`
	HitsTaken       int     `json:"hits_taken"`
	Giveaways       int     `json:"give"`
	Takeaways       int     `json:"take"`
	FaceoffsWon     int     `json:"fow"`
	FaceoffsLost    int     `json:"fol"`
	PenaltiesTaken  int     `json:"pent"`
	PenaltiesDrawn  int     `json:"pend"`
	PIM             int     `json:"pim"`
	ShotsBlockedDef int     `json:"shots_blocked_def"`
	ShotsBlockedOff int     `json:"shots_blocked_off"`
}

// OnIce counts shot attempts for and against while a player was on ice
type OnIce struct {
	GF  int     `json:"gf"`
	GA  int     `json:"ga"`
	SF  int     `json:"sf"`
	SA  int     `json:"sa"`
	FF  int     `json:"ff"`
	FA  int     `json:"fa"`
	CF  int     `json:"cf"`
	CA  int     `json:"ca"`
	XGF float64 `json:"xgf"`
	XGA float64 `json:"xga"`
}

// ZoneStarts counts the shifts a player began in each zone
type ZoneStarts struct {
	OZS int `json:"ozs"`
	DZS int `json:"dzs"`
	NZS int `json:"nzs"`
	OTF int `json:"otf"`
}

// Row is the outer join of the three aggregations for one key
type Row struct {
	Key
	Name     string `json:"player_name"`
	Position string `json:"position"`
	OppTeam  string `json:"opp_team"`
	Individual
	OnIce
	ZoneStarts
}

// Aggregator builds rows for one game
type Aggregator struct {
	game   pbp.Game
	roster *roster.Roster
	rows   map[Key]*Row
}

// Aggregate rolls plays up into stat rows ordered by team, player, period
// and strength. Shootout events and the bench are left out.
func Aggregate(game pbp.Game, plays []pbp.Play, r *roster.Roster) []Row {
	a := &Aggregator{game: game, roster: r, rows: make(map[Key]*Row)}

	for i := range plays {
		p := &plays[i]
		if p.Shootout || !p.Event.TimeResolved() {
			continue
		}
		a.individual(p)
		a.onIce(p)
		a.zoneStarts(p)
	}

	out := make([]Row, 0, len(a.rows))
	for _, row := range a.rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		x, y := out[i].Key, out[j].Key
		if x.Team != y.Team {
			return x.Team < y.Team
		}
		if x.Player != y.Player {
			return x.Player < y.Player
		}
		if x.Period != y.Period {
			return x.Period < y.Period
		}
		if x.StrengthState != y.StrengthState {
			return x.StrengthState < y.StrengthState
		}
		if x.OwnGoalie != y.OwnGoalie {
			return x.OwnGoalie < y.OwnGoalie
		}
		return x.OppGoalie < y.OppGoalie
	})
	return out
}

// row returns the row for a player seen from a venue, creating it on first
// use. It returns nil for empty slots and the bench.
func (a *Aggregator) row(p *pbp.Play, v pbp.Venue, player pbp.Player) *Row {
	if player.IsZero() || player.APIName == pbp.Bench || player.APIName == pbp.EmptyNet {
		return nil
	}

	team := a.game.Team(v)
	if a.roster != nil {
		if e, ok := a.roster.ByAPIName(player.APIName); ok && e.Team != team {
			// a roster lookup beats the role's assumed side
			team, v = e.Team, e.Venue
		}
	}

	strength, own, opp := perspective(p, v)
	k := Key{
		Season:        a.game.Season,
		Session:       a.game.Session,
		GameID:        a.game.GameID,
		Team:          team,
		Player:        player.APIName,
		Period:        p.Event.Period,
		StrengthState: strength,
		OwnGoalie:     own,
		OppGoalie:     opp,
	}

	if row, ok := a.rows[k]; ok {
		return row
	}
	row := &Row{Key: k, Name: player.Name, Position: player.Position, OppTeam: a.game.Opponent(team)}
	if a.roster != nil {
		if e, ok := a.roster.ByAPIName(player.APIName); ok {
			row.Name, row.Position = e.Name, e.Position
		}
	}
	a.rows[k] = row
	return row
}

func (a *Aggregator) individual(p *pbp.Play) {
	ev := &p.Event
	ownV, ok := p.EventVenue()
	if !ok {
		return
	}
	oppV := ownV.Other()

	p1 := a.row(p, ownV, ev.Player1())
	switch ev.Type {
	case pbp.Goal, pbp.Shot, pbp.Miss:
		if p1 != nil {
			p1.ICF++
			p1.IFF++
			p1.IXG += p.PredGoal
			if ev.Type != pbp.Miss {
				p1.ISF++
			}
			if ev.Type == pbp.Goal {
				p1.Goals++
			}
		}
		if ev.Type != pbp.Goal {
			return
		}
		if a1 := a.row(p, ownV, ev.Player2()); a1 != nil {
			a1.A1++
			a1.A1XG += p.PredGoal
		}
		if a2 := a.row(p, ownV, ev.Player3()); a2 != nil {
			a2.A2++
			a2.A2XG += p.PredGoal
		}

	case pbp.Block:
		// player 1 blocked the shot, player 2 took it
		if p1 != nil {
			p1.ShotsBlockedDef++
		}
		if shooter := a.row(p, oppV, ev.Player2()); shooter != nil {
			shooter.ICF++
			shooter.ShotsBlockedOff++
		}

	case pbp.Faceoff:
		if p1 != nil {
			p1.FaceoffsWon++
		}
		if loser := a.row(p, oppV, ev.Player2()); loser != nil {
			loser.FaceoffsLost++
		}

	case pbp.Hit:
		if p1 != nil {
			p1.Hits++
		}
		if hit := a.row(p, oppV, ev.Player2()); hit != nil {
			hit.HitsTaken++
		}

	case pbp.Giveaway:
		if p1 != nil {
			p1.Giveaways++
		}

	case pbp.Takeaway:
		if p1 != nil {
			p1.Takeaways++
		}

	case pbp.Penalty:
		if p1 != nil {
			p1.PenaltiesTaken++
			p1.PIM += ev.PenaltyMinutes
		}
		// bench minors name the server in slot two, not a drawing player
		if ev.Player1().APIName == pbp.Bench {
			return
		}
		if drew := a.row(p, oppV, ev.Player2()); drew != nil {
			drew.PenaltiesDrawn++
		}
	}
}

func (a *Aggregator) onIce(p *pbp.Play) {
	ev := &p.Event
	if !ev.Type.IsCorsi() {
		return
	}
	forV, ok := a.game.TeamVenue(ev.ShootingTeam())
	if !ok {
		return
	}

	for _, player := range p.OnIce.Side(forV).Players {
		if row := a.row(p, forV, player); row != nil {
			row.CF++
			if ev.Type.IsFenwick() {
				row.FF++
				row.XGF += p.PredGoal
			}
			if ev.Type == pbp.Shot || ev.Type == pbp.Goal {
				row.SF++
			}
			if ev.Type == pbp.Goal {
				row.GF++
			}
		}
	}

	againstV := forV.Other()
	for _, player := range p.OnIce.Side(againstV).Players {
		if row := a.row(p, againstV, player); row != nil {
			row.CA++
			if ev.Type.IsFenwick() {
				row.FA++
				row.XGA += p.PredGoal
			}
			if ev.Type == pbp.Shot || ev.Type == pbp.Goal {
				row.SA++
			}
			if ev.Type == pbp.Goal {
				row.GA++
			}
		}
	}
}

func (a *Aggregator) zoneStarts(p *pbp.Play) {
	ev := &p.Event
	if ev.Type != pbp.Change || p.ZoneStart == "" {
		return
	}
	v, ok := p.EventVenue()
	if !ok {
		return
	}

	for _, player := range ev.PlayersOn {
		row := a.row(p, v, player)
		if row == nil {
			continue
		}
		switch p.ZoneStart {
		case "OFF":
			row.OZS++
		case "DEF":
			row.DZS++
		case "NEU":
			row.NZS++
		default:
			row.OTF++
		}
	}
}

// perspective returns strength state and goalies as seen by one venue
func perspective(p *pbp.Play, v pbp.Venue) (string, string, string) {
	if ev, ok := p.EventVenue(); ok {
		if ev == v {
			return p.StrengthState, p.OwnGoalie, p.OppGoalie
		}
		return flip(p.StrengthState), p.OppGoalie, p.OwnGoalie
	}

	own, opp := p.OnIce.Side(v), p.OnIce.Side(v.Other())
	return fmt.Sprintf("%dv%d", own.SkaterCount, opp.SkaterCount), own.Goalie, opp.Goalie
}

// flip turns "5v4" into "4v5"
func flip(state string) string {
	own, opp, ok := strings.Cut(state, "v")
	if !ok {
		return state
	}
	return opp + "v" + own
}

// Add folds another row's counts into r. Key and roster fields are kept.
func (r *Row) Add(o Row) {
	r.Individual.add(o.Individual)
	r.OnIce.add(o.OnIce)
	r.ZoneStarts.add(o.ZoneStarts)
}

func (i *Individual) add(o Individual) {
	i.Goals += o.Goals
	i.A1 += o.A1
	i.A2 += o.A2
	i.ISF += o.ISF
	i.IFF += o.IFF
	i.ICF += o.ICF
	i.IXG += o.IXG
	i.A1XG += o.A1XG
	i.A2XG += o.A2XG
	i.Hits += o.Hits
	i.HitsTaken += o.HitsTaken
	i.Giveaways += o.Giveaways
	i.Takeaways += o.Takeaways
	i.FaceoffsWon += o.FaceoffsWon
	i.FaceoffsLost += o.FaceoffsLost
	i.PenaltiesTaken += o.PenaltiesTaken
	i.PenaltiesDrawn += o.PenaltiesDrawn
	i.PIM += o.PIM
	i.ShotsBlockedDef += o.ShotsBlockedDef
	i.ShotsBlockedOff += o.ShotsBlockedOff
}

func (o *OnIce) add(x OnIce) {
	o.GF += x.GF
	o.GA += x.GA
	o.SF += x.SF
	o.SA += x.SA
	o.FF += x.FF
	o.FA += x.FA
	o.CF += x.CF
	o.CA += x.CA
	o.XGF += x.XGF
	o.XGA += x.XGA
}

func (z *ZoneStarts) add(o ZoneStarts) {
	z.OZS += o.OZS
	z.DZS += o.DZS
	z.NZS += o.NZS
	z.OTF += o.OTF
}
