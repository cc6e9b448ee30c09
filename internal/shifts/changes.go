package shifts

import (
	"sort"
	"strings"

	"github.com/fortuna/janus/internal/gameclock"
	"github.com/fortuna/janus/internal/pbp"
)

type changeKey struct {
	team   string
	venue  pbp.Venue
	period int
	clock  int
}

// BuildChanges groups shift starts and ends by (team, venue, period, clock)
// and joins the two groupings into one change per key. A key with only
// starts or only ends still yields a change.
func BuildChanges(game pbp.Game, intervals []pbp.ShiftInterval) []pbp.ChangeEvent {
	changes := make(map[changeKey]*pbp.ChangeEvent)
	var keys []changeKey

	get := func(k changeKey) *pbp.ChangeEvent {
		if c, ok := changes[k]; ok {
			return c
		}
		gameSeconds, err := gameclock.Resolve(k.period, k.clock, game.Session)
		if err != nil {
			gameSeconds = gameclock.Unresolved
		}
		c := &pbp.ChangeEvent{
			Team:          k.team,
			Venue:         k.venue,
			Period:        k.period,
			PeriodSeconds: k.clock,
			GameSeconds:   gameSeconds,
		}
		changes[k] = c
		keys = append(keys, k)
		return c
	}

	for _, in := range intervals {
		p := pbp.Player{Name: in.Name, APIName: in.Player, Jersey: in.Jersey, Position: in.Position}

		on := get(changeKey{in.Team, in.Venue, in.Period, in.Start})
		on.On = append(on.On, p)

		off := get(changeKey{in.Team, in.Venue, in.Period, in.End})
		off.Off = append(off.Off, p)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.period != b.period {
			return a.period < b.period
		}
		if a.clock != b.clock {
			return a.clock < b.clock
		}
		return a.venue == pbp.Away && b.venue == pbp.Home
	})

	out := make([]pbp.ChangeEvent, 0, len(keys))
	for _, k := range keys {
		out = append(out, *changes[k])
	}
	return out
}

// Describe renders the change the way the report describes line changes
func Describe(c pbp.ChangeEvent) string {
	var parts []string
	if len(c.On) > 0 {
		parts = append(parts, "PLAYERS ON: "+joinNames(c.On))
	}
	if len(c.Off) > 0 {
		parts = append(parts, "PLAYERS OFF: "+joinNames(c.Off))
	}
	return strings.Join(parts, " / ")
}

func joinNames(players []pbp.Player) string {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

// ToEvent converts a change into a canonical CHANGE event
func ToEvent(game pbp.Game, c pbp.ChangeEvent) pbp.Event {
	return pbp.Event{
		Period:        c.Period,
		PeriodSeconds: c.PeriodSeconds,
		GameSeconds:   c.GameSeconds,
		Time:          gameclock.FormatClock(c.PeriodSeconds),
		Type:          pbp.Change,
		Description:   Describe(c),
		EventTeam:     c.Team,
		OppTeam:       game.Opponent(c.Team),
		PlayersOn:     append([]pbp.Player(nil), c.On...),
		PlayersOff:    append([]pbp.Player(nil), c.Off...),
		Origin:        pbp.SourceShifts,
	}
}
