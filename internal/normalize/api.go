package normalize

import (
	"strconv"

	"github.com/fortuna/janus/internal/gameclock"
	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/roster"
)

// NormalizeAPI converts feed rows into canonical events in feed order
func (n *Normalizer) NormalizeAPI(game pbp.Game, rows []pbp.APIEvent, r *roster.Roster) ([]pbp.Event, Issues) {
	var issues Issues
	events := make([]pbp.Event, 0, len(rows))

	for _, row := range rows {
		eventType, ok := n.EventType(row.EventType)
		if !ok {
			issues.addType(row.EventType)
		}

		periodSeconds, err := gameclock.ParseClock(row.PeriodTime)
		if err != nil {
			periodSeconds = gameclock.Unresolved
		}
		gameSeconds, err := gameclock.Resolve(row.Period, periodSeconds, game.Session)
		if err != nil {
			issues.UnresolvedTimes++
		}

		team := ""
		if row.EventTeam != "" {
			team = n.NormalizeTeam(row.EventTeam)
		}

		ev := pbp.Event{
			Period:          row.Period,
			PeriodSeconds:   periodSeconds,
			GameSeconds:     gameSeconds,
			Time:            gameclock.FormatClock(periodSeconds),
			Type:            eventType,
			Description:     row.Description,
			Detail:          row.Detail,
			DetailAPI:       row.Detail,
			EventTeam:       team,
			OppTeam:         game.Opponent(team),
			CoordsX:         row.CoordsX,
			CoordsY:         row.CoordsY,
			PenaltySeverity: row.PenaltySeverity,
			PenaltyMinutes:  row.PenaltyMinutes,
			Datetime:        row.Datetime,
			Origin:          pbp.SourceAPI,
			OrigIndex:       row.EventIdx,
		}

		for i, p := range row.Players {
			if p.Name == "" && p.ID == 0 {
				continue
			}
			ev.Players[i] = n.apiPlayer(game, team, p, r, &issues)
		}

		if ev.Type == pbp.Block {
			SwapBlock(&ev)
		}

		events = append(events, ev)
	}

	return events, issues
}

// apiPlayer resolves a feed participant. The id table wins, then the
// roster by name on the event team's side, then the other side.
func (n *Normalizer) apiPlayer(game pbp.Game, team string, p pbp.APIPlayer, r *roster.Roster, issues *Issues) pbp.Player {
	name := n.NormalizeName(p.Name)
	player := pbp.Player{
		Name:    name,
		APIName: APIName(name),
		ID:      p.ID,
		Type:    p.Type,
	}

	if p.ID != 0 {
		if apiName, ok := n.aliases.APIIDs[strconv.Itoa(p.ID)]; ok {
			player.APIName = apiName
		}
	}

	if r == nil {
		return player
	}

	if e, ok := r.ByAPIName(player.APIName); ok {
		player.Jersey = e.Jersey
		player.Position = e.Position
		return player
	}

	venues := []pbp.Venue{pbp.Home, pbp.Away}
	if v, ok := game.TeamVenue(team); ok {
		venues = []pbp.Venue{v, v.Other()}
	}
	for _, v := range venues {
		if e, ok := r.ByName(v, name); ok {
			player.APIName = e.APIName
			player.Jersey = e.Jersey
			player.Position = e.Position
			return player
		}
	}

	issues.addPlayer(name)
	return player
}

// SwapBlock makes player 1 the blocker and the event team the blocking team.
// Sources list the shooter first.
func SwapBlock(ev *pbp.Event) {
	ev.Players[0], ev.Players[1] = ev.Players[1], ev.Players[0]
	if ev.EventTeam != "" && ev.OppTeam != "" {
		ev.EventTeam, ev.OppTeam = ev.OppTeam, ev.EventTeam
	}
}
